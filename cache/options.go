package cache

import (
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/litfetch/go-common/logger"
)

// config holds the resolved configuration for a Coordinator.
type config struct {
	memoryCapacity       int
	sweepInterval        time.Duration
	policy               FreshnessPolicy
	persistent           TierStore
	persistentPath       string
	namespaceVersion     int64
	schemaVersion        int
	staleWhileRevalidate bool
	log                  logger.Logger
	meterProvider        metric.MeterProvider
}

// Option configures a Coordinator.
type Option func(*config)

func defaultConfig() config {
	return config{
		memoryCapacity:   DefaultMemoryCapacity,
		sweepInterval:    DefaultSweepInterval,
		policy:           DefaultFreshnessPolicy(),
		schemaVersion:    1,
		namespaceVersion: 1,
		log:              logger.Discard(),
	}
}

func applyOptions(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMemoryCapacity bounds the memory tier's entry count.
// Defaults to DefaultMemoryCapacity.
func WithMemoryCapacity(n int) Option {
	return func(c *config) { c.memoryCapacity = n }
}

// WithSweepInterval sets how often tiers scan for entries past retention.
// Defaults to DefaultSweepInterval (1 minute).
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) { c.sweepInterval = d }
}

// WithSearchTTL overrides the TTL for SearchPage values.
func WithSearchTTL(d time.Duration) Option {
	return func(c *config) { c.policy.SearchTTL = d }
}

// WithRecordTTL overrides the TTL for RecordDetail values.
func WithRecordTTL(d time.Duration) Option {
	return func(c *config) { c.policy.RecordTTL = d }
}

// WithFullTextTTL overrides the TTL for FullTextArtifact values.
func WithFullTextTTL(d time.Duration) Option {
	return func(c *config) { c.policy.FullTextTTL = d }
}

// WithNegativeTTL overrides the TTL for negative entries. Keep it well
// below the positive TTLs so a transient absence cannot linger.
func WithNegativeTTL(d time.Duration) Option {
	return func(c *config) { c.policy.NegativeTTL = d }
}

// WithPersistentTier supplies an already-constructed persistent tier, such
// as a RedisTier. The Coordinator takes ownership and closes it.
func WithPersistentTier(t TierStore) Option {
	return func(c *config) { c.persistent = t }
}

// WithSQLitePath enables the SQLite persistent tier at the given file path.
// Ignored when WithPersistentTier is also given.
func WithSQLitePath(path string) Option {
	return func(c *config) { c.persistentPath = path }
}

// WithNamespaceVersion sets the starting namespace version embedded in
// every key. Defaults to 1.
func WithNamespaceVersion(v int64) Option {
	return func(c *config) { c.namespaceVersion = v }
}

// WithSchemaVersion sets the API schema version embedded in every key.
// Bump it when the upstream response format changes incompatibly.
// Defaults to 1.
func WithSchemaVersion(v int) Option {
	return func(c *config) { c.schemaVersion = v }
}

// WithStaleWhileRevalidate serves stale-but-present entries immediately
// while refreshing them in the background. Tiers retain entries for twice
// their TTL in this mode, which caps how stale a served value can be.
func WithStaleWhileRevalidate() Option {
	return func(c *config) { c.staleWhileRevalidate = true }
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(log logger.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMeterProvider enables OpenTelemetry counters for cache operations.
// Without it, metric recording is a no-op.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) { c.meterProvider = mp }
}
