package cache

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestMetricsDisabledByDefault(t *testing.T) {
	var m *meters
	// A nil meters must be safe everywhere on the data path.
	m.hit(context.Background(), "memory")
	m.miss(context.Background())
	m.fetch(context.Background())
	m.negativeHit(context.Background())
	m.staleServe(context.Background())
}

func TestCoordinatorWithMeterProvider(t *testing.T) {
	c, err := New(context.Background(), WithMeterProvider(noop.NewMeterProvider()))
	require.NoError(t, err)
	defer c.Close()

	var calls atomic.Int64
	payload, err := c.GetOrFetch(context.Background(), "search",
		Params{"q": "x", "page": 1}, SearchPage, countingFetcher(&calls, "ok"))
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), payload)
	assert.NotNil(t, c.metrics)
}
