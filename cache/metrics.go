package cache

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/litfetch/go-common/cache"

// meters holds the optional OpenTelemetry instruments. A nil *meters is
// valid and records nothing, so the data path never branches on whether
// metrics are configured.
type meters struct {
	hits         metric.Int64Counter
	misses       metric.Int64Counter
	fetches      metric.Int64Counter
	negativeHits metric.Int64Counter
	staleServes  metric.Int64Counter
}

func newMeters(mp metric.MeterProvider) (*meters, error) {
	meter := mp.Meter(meterName)
	var m meters
	var err error
	if m.hits, err = meter.Int64Counter("cache.hits",
		metric.WithDescription("Cache hits by tier")); err != nil {
		return nil, err
	}
	if m.misses, err = meter.Int64Counter("cache.misses",
		metric.WithDescription("Full cache misses")); err != nil {
		return nil, err
	}
	if m.fetches, err = meter.Int64Counter("cache.fetches",
		metric.WithDescription("Upstream fetches executed")); err != nil {
		return nil, err
	}
	if m.negativeHits, err = meter.Int64Counter("cache.negative_hits",
		metric.WithDescription("Lookups answered by a stored negative entry")); err != nil {
		return nil, err
	}
	if m.staleServes, err = meter.Int64Counter("cache.stale_serves",
		metric.WithDescription("Stale entries served while revalidating")); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *meters) hit(ctx context.Context, tier string) {
	if m == nil {
		return
	}
	m.hits.Add(ctx, 1, metric.WithAttributes(attribute.String("tier", tier)))
}

func (m *meters) miss(ctx context.Context) {
	if m == nil {
		return
	}
	m.misses.Add(ctx, 1)
}

func (m *meters) fetch(ctx context.Context) {
	if m == nil {
		return
	}
	m.fetches.Add(ctx, 1)
}

func (m *meters) negativeHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.negativeHits.Add(ctx, 1)
}

func (m *meters) staleServe(ctx context.Context) {
	if m == nil {
		return
	}
	m.staleServes.Add(ctx, 1)
}
