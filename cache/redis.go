package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier is the persistent tier for multi-process deployments: several
// client processes share one cache. Entries are msgpack Entry envelopes
// with retention enforced by native Redis TTLs, so no sweeper goroutine is
// needed. The caller owns the redis.Client lifecycle; Close is a no-op.
type RedisTier struct {
	client       *redis.Client
	prefix       string
	queryTimeout time.Duration
	counters     tierCounters
}

var _ TierStore = (*RedisTier)(nil)

// NewRedisTier returns a Redis-backed tier. keyPrefix namespaces this cache
// against other users of the same Redis instance; empty means no prefix.
func NewRedisTier(client *redis.Client, keyPrefix string) *RedisTier {
	return &RedisTier{
		client:       client,
		prefix:       keyPrefix,
		queryTimeout: DefaultQueryTimeout,
	}
}

func (t *RedisTier) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, t.queryTimeout)
}

func (t *RedisTier) prefixKey(key string) string {
	if t.prefix == "" {
		return key
	}
	return t.prefix + ":" + key
}

func (t *RedisTier) Get(ctx context.Context, key string) (*Entry, bool, error) {
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	blob, err := t.client.Get(qctx, t.prefixKey(key)).Bytes()
	if err == redis.Nil {
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	entry, err := decodeEntry(blob)
	if err != nil {
		_ = t.client.Del(qctx, t.prefixKey(key)).Err()
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	// Redis expiry already bounds retention; re-check against the entry's
	// own clock in case the server TTL was rounded up.
	if entry.expired(time.Now()) {
		_ = t.client.Del(qctx, t.prefixKey(key)).Err()
		t.counters.deletes.Add(1)
		t.counters.misses.Add(1)
		return nil, false, nil
	}
	t.counters.hits.Add(1)
	return entry, true, nil
}

func (t *RedisTier) Set(ctx context.Context, key string, entry *Entry) error {
	blob, err := entry.encode()
	if err != nil {
		return err
	}
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	if err := t.client.Set(qctx, t.prefixKey(key), blob, entry.Retention).Err(); err != nil {
		return err
	}
	t.counters.sets.Add(1)
	return nil
}

func (t *RedisTier) Delete(ctx context.Context, key string) error {
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	deleted, err := t.client.Del(qctx, t.prefixKey(key)).Result()
	if err != nil {
		return err
	}
	if deleted > 0 {
		t.counters.deletes.Add(uint64(deleted))
	}
	return nil
}

func (t *RedisTier) DeleteByPrefix(ctx context.Context, prefix string) error {
	qctx, cancel := t.queryCtx(ctx)
	defer cancel()
	match := escapeGlob(t.prefixKey(prefix)) + "*"
	iter := t.client.Scan(qctx, 0, match, 256).Iterator()
	var batch []string
	for iter.Next(qctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 256 {
			if err := t.deleteBatch(qctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return t.deleteBatch(qctx, batch)
	}
	return nil
}

func (t *RedisTier) deleteBatch(ctx context.Context, keys []string) error {
	deleted, err := t.client.Del(ctx, keys...).Result()
	if err != nil {
		return err
	}
	if deleted > 0 {
		t.counters.deletes.Add(uint64(deleted))
	}
	return nil
}

func (t *RedisTier) Stats() TierStats {
	return t.counters.snapshot()
}

// Close is a no-op — the caller owns the redis.Client lifecycle.
func (t *RedisTier) Close() error {
	return nil
}

// escapeGlob escapes Redis MATCH glob metacharacters so a literal prefix
// cannot match unrelated keys.
func escapeGlob(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', ']', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
