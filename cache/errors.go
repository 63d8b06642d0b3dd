package cache

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidKeyMaterial is returned when a parameter value has a type
	// the key codec does not support. This is a programmer error at the
	// call site, not a condition to retry.
	ErrInvalidKeyMaterial = errors.New("cache: invalid key material")

	// ErrTierUnavailable marks persistent tier I/O failures surfaced by
	// operations that cannot degrade silently (Invalidate). GetOrFetch
	// never returns it; a failing persistent tier only reduces hit rate.
	ErrTierUnavailable = errors.New("cache: persistent tier unavailable")

	// ErrCachedNegative marks errors served from a stored negative entry.
	// The wrapped message is the text of the original upstream error.
	ErrCachedNegative = errors.New("cache: cached negative result")

	// errNegative marks fetch errors the caller flagged via MarkNegative.
	errNegative = errors.New("cache: negative result")
)

// MarkNegative flags err as a confirmed-absence result (e.g. a 404 for a
// record that does not exist, as opposed to a transient network failure).
// The coordinator records a negative entry for errors carrying this mark,
// short-circuiting repeat lookups for the negative TTL window. The error is
// still propagated to the caller.
func MarkNegative(err error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, errNegative)
}

// IsNegative reports whether err was flagged with MarkNegative.
func IsNegative(err error) bool {
	return errors.Is(err, errNegative)
}

// IsCachedNegative reports whether err was served from a stored negative
// entry rather than a live fetch.
func IsCachedNegative(err error) bool {
	return errors.Is(err, ErrCachedNegative)
}
