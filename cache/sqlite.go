package cache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/litfetch/go-common/logger"
)

// DefaultQueryTimeout is the per-operation timeout for tiers that perform
// I/O (SQLite, Redis). Prevents indefinite hangs on slow storage.
const DefaultQueryTimeout = 5 * time.Second

// SQLiteTier is the durable L2: entries survive process restarts. Values
// are msgpack-serialized Entry envelopes stored as BLOBs. WAL mode plus the
// database/sql connection pool keep independent keys from serializing on a
// single lock, and every operation carries a per-query timeout.
type SQLiteTier struct {
	db           *sql.DB
	ctx          context.Context
	cancel       context.CancelFunc
	queryTimeout time.Duration
	sweep        time.Duration
	counters     tierCounters
	log          logger.Logger
	wg           sync.WaitGroup
	once         sync.Once
}

var _ TierStore = (*SQLiteTier)(nil)

// NewSQLiteTier opens (or creates) a SQLite-backed tier at path. An empty
// path or ":memory:" selects an in-memory database, useful for tests.
// sweepInterval <= 0 selects DefaultSweepInterval; a nil log discards.
func NewSQLiteTier(parent context.Context, path string, sweepInterval time.Duration, log logger.Logger) (*SQLiteTier, error) {
	if path == "" {
		path = ":memory:"
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if log == nil {
		log = logger.Discard()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}

	// WAL lets readers proceed while a writer is active.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		entry BLOB NOT NULL,
		retain_until INTEGER NOT NULL
	)`); err != nil {
		db.Close()
		return nil, err
	}

	// Index on retain_until so the sweeper never scans the whole table.
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_cache_retain_until ON cache(retain_until)`); err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	t := &SQLiteTier{
		db:           db,
		ctx:          ctx,
		cancel:       cancel,
		queryTimeout: DefaultQueryTimeout,
		sweep:        sweepInterval,
		log:          log.With(map[string]interface{}{"tier": "sqlite"}),
	}
	t.wg.Add(1)
	go t.run()
	return t, nil
}

func (t *SQLiteTier) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, t.queryTimeout)
}

func (t *SQLiteTier) Get(ctx context.Context, key string) (*Entry, bool, error) {
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	var blob []byte
	var retainUntil int64
	err := t.db.QueryRowContext(qctx,
		`SELECT entry, retain_until FROM cache WHERE key = ?`, key,
	).Scan(&blob, &retainUntil)
	if err == sql.ErrNoRows {
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	if retainUntil < now.UnixNano() {
		// Lazily delete the expired row.
		_, _ = t.db.ExecContext(qctx, `DELETE FROM cache WHERE key = ?`, key)
		t.counters.deletes.Add(1)
		t.counters.misses.Add(1)
		return nil, false, nil
	}

	entry, err := decodeEntry(blob)
	if err != nil {
		// A row we cannot decode is useless; drop it and report a miss.
		t.log.Warn("dropping undecodable cache row for %s: %s", key, err)
		_, _ = t.db.ExecContext(qctx, `DELETE FROM cache WHERE key = ?`, key)
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	if entry.expired(now) {
		_, _ = t.db.ExecContext(qctx, `DELETE FROM cache WHERE key = ?`, key)
		t.counters.deletes.Add(1)
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	t.counters.hits.Add(1)
	return entry, true, nil
}

func (t *SQLiteTier) Set(ctx context.Context, key string, entry *Entry) error {
	blob, err := entry.encode()
	if err != nil {
		return err
	}
	retainUntil := entry.StoredAt.Add(entry.Retention).UnixNano()
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	_, err = t.db.ExecContext(qctx,
		`INSERT INTO cache (key, entry, retain_until) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET entry = excluded.entry, retain_until = excluded.retain_until`,
		key, blob, retainUntil,
	)
	if err != nil {
		return err
	}
	t.counters.sets.Add(1)
	return nil
}

func (t *SQLiteTier) Delete(ctx context.Context, key string) error {
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	result, err := t.db.ExecContext(qctx, `DELETE FROM cache WHERE key = ?`, key)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		t.counters.deletes.Add(uint64(rows))
	}
	return nil
}

func (t *SQLiteTier) DeleteByPrefix(ctx context.Context, prefix string) error {
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	// substr comparison avoids LIKE-pattern escaping for prefixes that
	// contain % or _.
	result, err := t.db.ExecContext(qctx,
		`DELETE FROM cache WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return err
	}
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		t.counters.deletes.Add(uint64(rows))
	}
	return nil
}

func (t *SQLiteTier) Stats() TierStats {
	return t.counters.snapshot()
}

func (t *SQLiteTier) Close() error {
	var dbErr error
	t.once.Do(func() {
		t.cancel()
		t.wg.Wait()
		dbErr = t.db.Close()
	})
	return dbErr
}

func (t *SQLiteTier) run() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.sweep)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			result, err := t.db.Exec(`DELETE FROM cache WHERE retain_until < ?`, time.Now().UnixNano())
			if err != nil {
				t.log.Warn("expiry sweep failed: %s", err)
				continue
			}
			if rows, err := result.RowsAffected(); err == nil && rows > 0 {
				t.counters.deletes.Add(uint64(rows))
				t.log.Debug("expiry sweep removed %d rows", rows)
			}
		}
	}
}
