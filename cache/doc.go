// Package cache provides the tiered response cache used by the litfetch
// bibliographic API clients: a bounded in-memory L1 in front of an optional
// durable L2 (SQLite or Redis), with canonical cache keys, per-data-class
// freshness, negative caching, and single-flight fetch collapsing.
//
// # Coordinator
//
// [Coordinator] is the only surface collaborators talk to. It owns the tiers
// and exposes a cache-aside contract:
//
//	c, err := cache.New(ctx,
//	    cache.WithSQLitePath(filepath.Join(home, ".litfetch", "cache.db")),
//	    cache.WithSearchTTL(2*time.Minute),
//	)
//	payload, err := c.GetOrFetch(ctx, "search", cache.Params{
//	    "query": "cancer", "page": 1,
//	}, cache.SearchPage, func(ctx context.Context) (*cache.FetchResult, error) {
//	    body, err := client.doSearch(ctx, "cancer", 1)
//	    return &cache.FetchResult{Payload: body}, err
//	})
//
// The fetch function is only invoked on a miss, and concurrent misses for the
// same key trigger exactly one upstream call — every other caller waits for
// and shares that result. A waiter that cancels its context stops waiting;
// the in-flight fetch runs to completion and its result is stored for future
// reads.
//
// # Keys
//
// Keys are canonical: parameter maps encode identically regardless of
// insertion order, numbers have a single textual form, and values typed
// [Fold] are compared case-insensitively (identifier lookups such as
// "PMC123" vs "pmc123") while plain strings — free-text search terms — are
// preserved verbatim. Every key carries the namespace version, operation,
// data class, and schema version, so unrelated operations can never collide
// and [Coordinator.InvalidateNamespace] retires an entire generation in O(1)
// by bumping the leading version segment.
//
// # Data classes and freshness
//
// Each value is tagged with a [DataClass] that selects its TTL band:
// [SearchPage] results expire in minutes, [RecordDetail] in hours,
// [FullTextArtifact] in days (published full text is immutable once
// released). Confirmed-absence results are cached too, under a short
// negative TTL, so a known-missing record does not hammer the upstream API:
// flag the fetch error with [MarkNegative] and subsequent lookups inside the
// negative window return an [ErrCachedNegative]-marked error without
// re-fetching.
//
// # Tiers
//
// [MemoryTier] is a bounded LRU map with lazy TTL expiry and a background
// sweeper. [SQLiteTier] persists entries across process restarts using
// modernc.org/sqlite (pure Go, WAL mode); [RedisTier] is the multi-process
// alternative. Values read from the durable tier are promoted into the
// memory tier. A persistent-tier failure never fails a request that can be
// served from memory or from a successful fetch — the coordinator logs the
// failure and degrades to memory-only for that call. Constructing a
// Coordinator with no persistent tier at all is equally valid.
//
// # Stale-while-revalidate
//
// With [WithStaleWhileRevalidate], a stale-but-present entry is served
// immediately while a background refresh runs through the same single-flight
// guard as foreground fetches. Tiers retain entries for at most twice their
// TTL in this mode, so a served value is never staler than 2x its configured
// freshness window.
package cache
