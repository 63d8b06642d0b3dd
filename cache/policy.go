package cache

import "time"

// Default TTLs per data class. All overridable at Coordinator construction
// time via WithSearchTTL and friends.
const (
	DefaultSearchTTL   = 2 * time.Minute
	DefaultRecordTTL   = 24 * time.Hour
	DefaultFullTextTTL = 30 * 24 * time.Hour
	DefaultNegativeTTL = 30 * time.Second
)

// FreshnessPolicy maps each data class to its positive TTL plus a single,
// shorter negative TTL, so a transient "not found" never poisons the cache
// for as long as a confirmed record would live.
type FreshnessPolicy struct {
	SearchTTL   time.Duration
	RecordTTL   time.Duration
	FullTextTTL time.Duration
	NegativeTTL time.Duration
}

// DefaultFreshnessPolicy returns the stock TTL bands.
func DefaultFreshnessPolicy() FreshnessPolicy {
	return FreshnessPolicy{
		SearchTTL:   DefaultSearchTTL,
		RecordTTL:   DefaultRecordTTL,
		FullTextTTL: DefaultFullTextTTL,
		NegativeTTL: DefaultNegativeTTL,
	}
}

// TTLFor returns the TTL for a value of the given class. Negative results
// always get the negative TTL regardless of class.
func (p FreshnessPolicy) TTLFor(class DataClass, negative bool) time.Duration {
	if negative || class == NegativeResult {
		return p.NegativeTTL
	}
	switch class {
	case SearchPage:
		return p.SearchTTL
	case RecordDetail:
		return p.RecordTTL
	case FullTextArtifact:
		return p.FullTextTTL
	}
	return p.SearchTTL
}

// Fresh reports whether entry is inside its freshness window at now.
// Pure function of the entry's stored-at, TTL and now.
func (p FreshnessPolicy) Fresh(entry *Entry, now time.Time) bool {
	return entry.Fresh(now)
}
