package cache

import (
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	str2duration "github.com/xhit/go-str2duration/v2"
)

// Environment variables recognized by OptionsFromEnv. Durations accept the
// extended syntax of str2duration, so bands like "7d" or "4w" work for the
// long-lived full-text class.
const (
	EnvMemoryCapacity   = "LITFETCH_CACHE_MEMORY_CAPACITY"
	EnvSearchTTL        = "LITFETCH_CACHE_SEARCH_TTL"
	EnvRecordTTL        = "LITFETCH_CACHE_RECORD_TTL"
	EnvFullTextTTL      = "LITFETCH_CACHE_FULLTEXT_TTL"
	EnvNegativeTTL      = "LITFETCH_CACHE_NEGATIVE_TTL"
	EnvPersistentPath   = "LITFETCH_CACHE_PATH"
	EnvNamespaceVersion = "LITFETCH_CACHE_NAMESPACE_VERSION"
)

// OptionsFromEnv builds Options from the LITFETCH_CACHE_* environment
// variables. Unset variables contribute nothing, so the result composes
// with explicit options:
//
//	envOpts, err := cache.OptionsFromEnv()
//	c, err := cache.New(ctx, append(envOpts, cache.WithLogger(log))...)
func OptionsFromEnv() ([]Option, error) {
	var opts []Option

	if v := os.Getenv(EnvMemoryCapacity); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", EnvMemoryCapacity)
		}
		opts = append(opts, WithMemoryCapacity(n))
	}

	for _, d := range []struct {
		env string
		opt func(d time.Duration) Option
	}{
		{EnvSearchTTL, WithSearchTTL},
		{EnvRecordTTL, WithRecordTTL},
		{EnvFullTextTTL, WithFullTextTTL},
		{EnvNegativeTTL, WithNegativeTTL},
	} {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		dur, err := str2duration.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", d.env)
		}
		opts = append(opts, d.opt(dur))
	}

	if v := os.Getenv(EnvPersistentPath); v != "" {
		opts = append(opts, WithSQLitePath(v))
	}

	if v := os.Getenv(EnvNamespaceVersion); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", EnvNamespaceVersion)
		}
		opts = append(opts, WithNamespaceVersion(n))
	}

	return opts, nil
}
