package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/litfetch/go-common/logger"
)

// FetchResult is what a Fetcher produces on success.
type FetchResult struct {
	// Payload is the fresh upstream bytes.
	Payload []byte
	// ETag is the upstream validator, if the response carried one.
	ETag string
}

// Fetcher produces a fresh value from upstream on a cache miss. The cache
// never constructs requests itself; retry and timeout policy belong to the
// fetcher. Errors flagged with MarkNegative are recorded as negative
// entries; all other errors propagate uncached.
//
// The context passed to the fetcher is the Coordinator's root context, not
// the triggering caller's: a cancelled waiter must not abort the fetch for
// everyone else sharing it.
type Fetcher func(ctx context.Context) (*FetchResult, error)

// Coordinator orchestrates the key codec, tiers, single-flight guard and
// freshness policy into the get-or-fetch contract. Construct one per cache
// domain with New; there is no process-global instance.
type Coordinator struct {
	cfg       config
	memory    *MemoryTier
	persist   TierStore // nil when running memory-only
	policy    FreshnessPolicy
	flight    flightGroup
	namespace atomic.Int64
	log       logger.Logger
	metrics   *meters

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once

	memoryHits     atomic.Uint64
	persistentHits atomic.Uint64
	misses         atomic.Uint64
	negativeHits   atomic.Uint64
	staleServes    atomic.Uint64
	fetches        atomic.Uint64
	fetchErrors    atomic.Uint64
}

// Stats aggregates the coordinator's counters with each tier's own.
type Stats struct {
	MemoryHits     uint64
	PersistentHits uint64
	Misses         uint64
	NegativeHits   uint64
	StaleServes    uint64
	Fetches        uint64
	FetchErrors    uint64
	Memory         TierStats
	Persistent     TierStats
}

// New constructs a Coordinator. Without WithPersistentTier or
// WithSQLitePath it runs memory-only, which is the graceful-degradation
// mode when no durable storage is available.
func New(parent context.Context, opts ...Option) (*Coordinator, error) {
	cfg := applyOptions(opts)
	ctx, cancel := context.WithCancel(parent)

	c := &Coordinator{
		cfg:    cfg,
		policy: cfg.policy,
		log:    cfg.log.With(map[string]interface{}{"component": "cache"}),
		ctx:    ctx,
		cancel: cancel,
	}
	c.namespace.Store(cfg.namespaceVersion)

	if cfg.meterProvider != nil {
		m, err := newMeters(cfg.meterProvider)
		if err != nil {
			cancel()
			return nil, err
		}
		c.metrics = m
	}

	c.memory = NewMemoryTier(ctx, cfg.memoryCapacity, cfg.sweepInterval)

	switch {
	case cfg.persistent != nil:
		c.persist = cfg.persistent
	case cfg.persistentPath != "":
		tier, err := NewSQLiteTier(ctx, cfg.persistentPath, cfg.sweepInterval, cfg.log)
		if err != nil {
			c.memory.Close()
			cancel()
			return nil, err
		}
		c.persist = tier
	}

	return c, nil
}

// GetOrFetch returns the cached payload for the logical request, fetching
// from upstream at most once across all concurrent callers on a miss.
// Fetch errors are propagated verbatim; persistent tier failures are
// logged and degrade the call to memory-only.
func (c *Coordinator) GetOrFetch(ctx context.Context, op string, params Params, class DataClass, fetch Fetcher) ([]byte, error) {
	key, err := c.encode(op, params, class)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	if entry, found, _ := c.memory.Get(ctx, key); found {
		if c.policy.Fresh(entry, now) {
			c.memoryHits.Add(1)
			c.metrics.hit(ctx, "memory")
			return c.deliver(ctx, entry)
		}
		if c.cfg.staleWhileRevalidate && !entry.Negative {
			c.refresh(key, class, fetch)
			c.staleServes.Add(1)
			c.metrics.staleServe(ctx)
			return c.deliver(ctx, entry)
		}
	}

	if c.persist != nil {
		entry, found, perr := c.persist.Get(ctx, key)
		switch {
		case perr != nil:
			// Reduced hit rate, not a failed request.
			c.log.Warn("persistent tier read failed, continuing without it: %s", perr)
		case found && c.policy.Fresh(entry, now):
			_ = c.memory.Set(ctx, key, entry) // promote to L1
			c.persistentHits.Add(1)
			c.metrics.hit(ctx, "persistent")
			return c.deliver(ctx, entry)
		case found && c.cfg.staleWhileRevalidate && !entry.Negative:
			_ = c.memory.Set(ctx, key, entry)
			c.refresh(key, class, fetch)
			c.staleServes.Add(1)
			c.metrics.staleServe(ctx)
			return c.deliver(ctx, entry)
		}
	}

	c.misses.Add(1)
	c.metrics.miss(ctx)
	res, err := c.flight.do(ctx, key, func() (flightResult, error) {
		return c.fetchAndStore(key, class, fetch)
	})
	if err != nil {
		return nil, err
	}
	return res.payload, nil
}

// Invalidate removes the entry for one logical request from both tiers.
func (c *Coordinator) Invalidate(ctx context.Context, op string, params Params, class DataClass) error {
	key, err := c.encode(op, params, class)
	if err != nil {
		return err
	}
	if err := c.memory.Delete(ctx, key); err != nil {
		return err
	}
	if c.persist != nil {
		if err := c.persist.Delete(ctx, key); err != nil {
			return errors.Mark(err, ErrTierUnavailable)
		}
	}
	return nil
}

// InvalidateNamespace retires the entire current cache generation by
// bumping the namespace version: every key encoded from now on carries a
// new prefix, so old entries become unreachable without enumeration. The
// orphaned generation is additionally cleaned up in the background on a
// best-effort basis; tiers would reclaim it through expiry regardless.
// Returns the new namespace version.
func (c *Coordinator) InvalidateNamespace() int64 {
	old := c.namespace.Load()
	next := c.namespace.Add(1)
	prefix := namespacePrefix(old)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.memory.DeleteByPrefix(c.ctx, prefix); err != nil {
			c.log.Warn("memory tier prefix cleanup failed: %s", err)
		}
		if c.persist != nil {
			if err := c.persist.DeleteByPrefix(c.ctx, prefix); err != nil {
				c.log.Warn("persistent tier prefix cleanup failed: %s", err)
			}
		}
	}()
	c.log.Info("namespace bumped from %d to %d", old, next)
	return next
}

// Stats returns a snapshot of coordinator and tier counters.
func (c *Coordinator) Stats() Stats {
	s := Stats{
		MemoryHits:     c.memoryHits.Load(),
		PersistentHits: c.persistentHits.Load(),
		Misses:         c.misses.Load(),
		NegativeHits:   c.negativeHits.Load(),
		StaleServes:    c.staleServes.Load(),
		Fetches:        c.fetches.Load(),
		FetchErrors:    c.fetchErrors.Load(),
		Memory:         c.memory.Stats(),
	}
	if c.persist != nil {
		s.Persistent = c.persist.Stats()
	}
	return s
}

// Close waits for background refreshes and releases both tiers.
func (c *Coordinator) Close() error {
	var firstErr error
	c.once.Do(func() {
		c.cancel()
		c.wg.Wait()
		if err := c.memory.Close(); err != nil {
			firstErr = err
		}
		if c.persist != nil {
			if err := c.persist.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}

func (c *Coordinator) encode(op string, params Params, class DataClass) (string, error) {
	return encodeKey(c.namespace.Load(), c.cfg.schemaVersion, op, params, class)
}

// deliver turns a tier entry into the caller-visible result. Negative
// entries reproduce the recorded upstream error; the cache entry exists to
// short-circuit the lookup, not to mask the failure. The returned payload
// is the cached slice itself — callers must not modify it.
func (c *Coordinator) deliver(ctx context.Context, entry *Entry) ([]byte, error) {
	if entry.Negative {
		c.negativeHits.Add(1)
		c.metrics.negativeHit(ctx)
		return nil, errors.Mark(errors.Newf("%s", string(entry.Payload)), ErrCachedNegative)
	}
	return entry.Payload, nil
}

// fetchAndStore runs inside the single-flight guard: exactly one execution
// per key regardless of how many callers are waiting. It performs the tier
// writes itself so the result is persisted even if every waiter has
// cancelled by the time the fetch finishes.
func (c *Coordinator) fetchAndStore(key string, class DataClass, fetch Fetcher) (flightResult, error) {
	c.fetches.Add(1)
	c.metrics.fetch(c.ctx)

	res, err := fetch(c.ctx)
	now := time.Now()
	if err != nil {
		if IsNegative(err) {
			ttl := c.policy.TTLFor(class, true)
			c.store(key, &Entry{
				Payload:   []byte(err.Error()),
				StoredAt:  now,
				TTL:       ttl,
				Retention: c.retention(ttl),
				Class:     class,
				Negative:  true,
			})
		} else {
			c.fetchErrors.Add(1)
		}
		return flightResult{}, err
	}

	ttl := c.policy.TTLFor(class, false)
	entry := &Entry{
		Payload:   res.Payload,
		StoredAt:  now,
		TTL:       ttl,
		Retention: c.retention(ttl),
		Class:     class,
		ETag:      res.ETag,
	}
	c.store(key, entry)
	return flightResult{payload: res.Payload, etag: res.ETag}, nil
}

// store writes through to both tiers. A persistent tier failure is logged
// and swallowed: the caller already has their value.
func (c *Coordinator) store(key string, entry *Entry) {
	_ = c.memory.Set(c.ctx, key, entry)
	if c.persist != nil {
		if err := c.persist.Set(c.ctx, key, entry); err != nil {
			c.log.Warn("persistent tier write failed for %s: %s", key, err)
		}
	}
}

// retention is how long tiers keep an entry. With stale-while-revalidate
// the window doubles so stale entries remain servable, which also bounds
// staleness at 2x TTL structurally.
func (c *Coordinator) retention(ttl time.Duration) time.Duration {
	if c.cfg.staleWhileRevalidate {
		return 2 * ttl
	}
	return ttl
}

// refresh revalidates a stale key in the background, through the same
// single-flight guard as foreground fetches so the two cannot race. The
// already-served stale value stands; a refresh failure only means the
// entry stays stale.
func (c *Coordinator) refresh(key string, class DataClass, fetch Fetcher) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, err := c.flight.do(c.ctx, key, func() (flightResult, error) {
			return c.fetchAndStore(key, class, fetch)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			c.log.Warn("background refresh failed for %s: %s", key, err)
		}
	}()
}
