package cache

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// DataClass tags the expected volatility of a cached value and selects its
// TTL band.
type DataClass int

const (
	// SearchPage is one page of paginated search results. Volatile —
	// new publications shift result sets, so these expire in minutes.
	SearchPage DataClass = iota
	// RecordDetail is the metadata for a single record. Stable for hours.
	RecordDetail
	// FullTextArtifact is a full-text payload (XML or PDF bytes).
	// Published full text is immutable once released; expires in days.
	FullTextArtifact
	// NegativeResult records a confirmed absence.
	NegativeResult
)

func (d DataClass) String() string {
	switch d {
	case SearchPage:
		return "search"
	case RecordDetail:
		return "record"
	case FullTextArtifact:
		return "fulltext"
	case NegativeResult:
		return "negative"
	}
	return "unknown"
}

// Entry is the value envelope stored in every tier. Persistent tiers
// round-trip it through msgpack.
type Entry struct {
	// Payload is the cached bytes; for negative entries it holds the text
	// of the upstream error.
	Payload []byte `msgpack:"p"`
	// StoredAt is when the entry was written.
	StoredAt time.Time `msgpack:"s"`
	// TTL is the freshness window from StoredAt.
	TTL time.Duration `msgpack:"t"`
	// Retention is how long a tier keeps the entry before dropping it.
	// Equal to TTL normally; 2x TTL when stale-while-revalidate is on.
	Retention time.Duration `msgpack:"r"`
	// Class is the data class the entry was stored under.
	Class DataClass `msgpack:"c"`
	// ETag is the upstream validator, when the fetch supplied one.
	ETag string `msgpack:"e,omitempty"`
	// Negative records that this entry caches an absence.
	Negative bool `msgpack:"n,omitempty"`
}

// Fresh reports whether the entry is inside its freshness window at now.
// Pure; safe to call concurrently.
func (e *Entry) Fresh(now time.Time) bool {
	return now.Before(e.StoredAt.Add(e.TTL))
}

// expired reports whether the entry has outlived its retention window and
// should be dropped by the owning tier.
func (e *Entry) expired(now time.Time) bool {
	return !now.Before(e.StoredAt.Add(e.Retention))
}

func (e *Entry) encode() ([]byte, error) {
	return msgpack.Marshal(e)
}

func decodeEntry(data []byte) (*Entry, error) {
	var e Entry
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
