package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRoundTrip(t *testing.T) {
	in := &Entry{
		Payload:   []byte(`{"hitCount":42}`),
		StoredAt:  time.Now().Truncate(time.Millisecond),
		TTL:       2 * time.Minute,
		Retention: 4 * time.Minute,
		Class:     SearchPage,
		ETag:      `W/"abc123"`,
	}
	blob, err := in.encode()
	require.NoError(t, err)

	out, err := decodeEntry(blob)
	require.NoError(t, err)
	assert.Equal(t, in.Payload, out.Payload)
	assert.True(t, in.StoredAt.Equal(out.StoredAt))
	assert.Equal(t, in.TTL, out.TTL)
	assert.Equal(t, in.Retention, out.Retention)
	assert.Equal(t, in.Class, out.Class)
	assert.Equal(t, in.ETag, out.ETag)
	assert.False(t, out.Negative)
}

func TestEntryNegativeRoundTrip(t *testing.T) {
	in := &Entry{
		Payload:   []byte("record PMC999 does not exist"),
		StoredAt:  time.Now(),
		TTL:       30 * time.Second,
		Retention: 30 * time.Second,
		Class:     RecordDetail,
		Negative:  true,
	}
	blob, err := in.encode()
	require.NoError(t, err)
	out, err := decodeEntry(blob)
	require.NoError(t, err)
	assert.True(t, out.Negative)
	assert.Equal(t, in.TTL, out.TTL)
}

func TestEntryExpiredUsesRetention(t *testing.T) {
	stored := time.Now()
	e := &Entry{StoredAt: stored, TTL: time.Second, Retention: 2 * time.Second}
	// Stale but still retained.
	assert.False(t, e.Fresh(stored.Add(1500*time.Millisecond)))
	assert.False(t, e.expired(stored.Add(1500*time.Millisecond)))
	// Past retention.
	assert.True(t, e.expired(stored.Add(2500*time.Millisecond)))
}

func TestDataClassString(t *testing.T) {
	assert.Equal(t, "search", SearchPage.String())
	assert.Equal(t, "record", RecordDetail.String())
	assert.Equal(t, "fulltext", FullTextArtifact.String())
	assert.Equal(t, "negative", NegativeResult.String())
}
