package cache

import (
	"context"

	"golang.org/x/sync/singleflight"
)

// flightResult is what one shared fetch produces for all of its waiters.
type flightResult struct {
	payload []byte
	etag    string
}

// flightGroup collapses concurrent fetches for the same key into a single
// execution. The registry lock inside singleflight.Group is held only to
// insert or remove a waiter, never across the fetch itself, and the guard
// is correct under both OS-thread parallelism and cooperative scheduling.
//
// Cancellation is per-waiter: a caller whose context expires stops waiting
// and gets its context error, but the in-flight fn keeps running for the
// remaining waiters — and even with no waiters left its result still lands
// in the tiers, since fn itself performs the stores.
type flightGroup struct {
	sf singleflight.Group
}

func (g *flightGroup) do(ctx context.Context, key string, fn func() (flightResult, error)) (flightResult, error) {
	ch := g.sf.DoChan(key, func() (any, error) {
		return fn()
	})
	select {
	case <-ctx.Done():
		return flightResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return flightResult{}, res.Err
		}
		return res.Val.(flightResult), nil
	}
}
