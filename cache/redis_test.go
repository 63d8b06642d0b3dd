package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisTierSetGet(t *testing.T) {
	_, client := newTestRedis(t)
	tier := NewRedisTier(client, "litfetch")
	ctx := context.Background()

	_, found, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	in := newEntry("payload", time.Minute)
	require.NoError(t, tier.Set(ctx, "k", in))

	out, found, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("payload"), out.Payload)
	assert.Equal(t, uint64(1), tier.Stats().Hits)
}

func TestRedisTierNativeTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	tier := NewRedisTier(client, "")
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", newEntry("v", time.Minute)))
	ttl := mr.TTL("k")
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	// Advance the virtual clock past retention.
	mr.FastForward(2 * time.Minute)
	_, found, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisTierPrefixIsolation(t *testing.T) {
	mr, client := newTestRedis(t)
	a := NewRedisTier(client, "appA")
	b := NewRedisTier(client, "appB")
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", newEntry("a", time.Minute)))
	_, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, mr.Exists("appA:k"))
}

func TestRedisTierDelete(t *testing.T) {
	_, client := newTestRedis(t)
	tier := NewRedisTier(client, "")
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "k", newEntry("v", time.Minute)))
	require.NoError(t, tier.Delete(ctx, "k"))
	_, found, err := tier.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, tier.Delete(ctx, "absent"))
}

func TestRedisTierDeleteByPrefix(t *testing.T) {
	_, client := newTestRedis(t)
	tier := NewRedisTier(client, "litfetch")
	ctx := context.Background()

	require.NoError(t, tier.Set(ctx, "v1:search:a", newEntry("a", time.Minute)))
	require.NoError(t, tier.Set(ctx, "v1:record:b", newEntry("b", time.Minute)))
	require.NoError(t, tier.Set(ctx, "v2:search:c", newEntry("c", time.Minute)))

	require.NoError(t, tier.DeleteByPrefix(ctx, "v1:"))

	_, found, _ := tier.Get(ctx, "v1:search:a")
	assert.False(t, found)
	_, found, _ = tier.Get(ctx, "v2:search:c")
	assert.True(t, found)
}

func TestRedisTierAsCoordinatorBackend(t *testing.T) {
	_, client := newTestRedis(t)
	c, err := New(context.Background(), WithPersistentTier(NewRedisTier(client, "litfetch")))
	require.NoError(t, err)
	defer c.Close()

	calls := 0
	fetch := func(ctx context.Context) (*FetchResult, error) {
		calls++
		return &FetchResult{Payload: []byte("shared")}, nil
	}
	payload, err := c.GetOrFetch(context.Background(), "record", Params{"id": Fold("PMC7")}, RecordDetail, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("shared"), payload)
	assert.Equal(t, 1, calls)

	// Redis holds it for any other process sharing the prefix.
	tier := NewRedisTier(client, "litfetch")
	_, found, err := tier.Get(context.Background(), "v1:record:record:id=pmc7:s1")
	require.NoError(t, err)
	assert.True(t, found)
}
