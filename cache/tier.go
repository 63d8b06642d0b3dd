package cache

import (
	"context"
	"sync/atomic"
)

// TierStats is a snapshot of a tier's operation counters.
type TierStats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Deletes   uint64
	Evictions uint64
}

// TierStore is the uniform storage contract implemented by the memory and
// persistent tiers. Implementations must be safe for concurrent use.
type TierStore interface {
	// Get returns the entry for key. found is false on a miss and for
	// entries past their retention window (which are lazily deleted).
	Get(ctx context.Context, key string) (entry *Entry, found bool, err error)
	// Set stores the entry, overwriting any previous value for key.
	Set(ctx context.Context, key string, entry *Entry) error
	// Delete removes key. Idempotent; no error when key is absent.
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key beginning with prefix. Used to
	// reclaim a retired namespace generation.
	DeleteByPrefix(ctx context.Context, prefix string) error
	// Stats returns a snapshot of the tier's counters.
	Stats() TierStats
	// Close releases the tier's resources.
	Close() error
}

// tierCounters are the per-tier observability counters. Updated with
// atomics so Stats never contends with the data path.
type tierCounters struct {
	hits      atomic.Uint64
	misses    atomic.Uint64
	sets      atomic.Uint64
	deletes   atomic.Uint64
	evictions atomic.Uint64
}

func (c *tierCounters) snapshot() TierStats {
	return TierStats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Sets:      c.sets.Load(),
		Deletes:   c.deletes.Load(),
		Evictions: c.evictions.Load(),
	}
}
