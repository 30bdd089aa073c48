package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultMaxBodySize     = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRateLimitRPS    = 50.0
	DefaultRateLimitBurst  = 100

	DefaultLogLevel  = logging.LevelInfo
	DefaultLogFormat = "json"

	DefaultVariableReplacement = 5.0

	DefaultClosureCacheTTL = 10 * time.Minute

	DefaultNetworkSource = SourceFile
	DefaultNetworkPath   = "builtin:sample"

	DefaultRedisMode   = "standalone"
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisPrefix = "metanet:"

	DefaultNeo4jURI      = "bolt://localhost:7687"
	DefaultNeo4jDatabase = "neo4j"

	DefaultMetricsNamespace = "metanet"
	DefaultMetricsPath      = "/metrics"
)

// NewDefaultConfig returns a Config that validates as-is: the bundled sample
// network, no Redis, no Neo4j, metrics on.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Formula.VariableReplacement = DefaultVariableReplacement
	cfg.Network.Verify = true
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableGoMetrics = true
	cfg.Metrics.EnableProcessMetrics = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-value fields whose zero is never meaningful.
// Fields where zero is a legal choice (formula.variable_replacement,
// closure.max_passes, redis.db) are defaulted through viper instead, so an
// explicit 0 in a file survives.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = DefaultRateLimitRPS
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = DefaultRateLimitBurst
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stdout"}
	}

	// ── Closure ───────────────────────────────────────────────────────────────
	if cfg.Closure.CacheTTL == 0 {
		cfg.Closure.CacheTTL = DefaultClosureCacheTTL
	}

	// ── Network ───────────────────────────────────────────────────────────────
	if cfg.Network.Source == "" {
		cfg.Network.Source = DefaultNetworkSource
	}
	if cfg.Network.Source == SourceFile && cfg.Network.Path == "" {
		cfg.Network.Path = DefaultNetworkPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Mode == "" {
		cfg.Redis.Mode = DefaultRedisMode
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisPrefix
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.URI == "" {
		cfg.Neo4j.URI = DefaultNeo4jURI
	}
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// setViperDefaults registers every key viper must know about.  AutomaticEnv
// only resolves keys that have a default or appear in a file, so a key missing
// here cannot be set from the environment alone.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_allowed_origins", d.Server.CORSAllowedOrigins)
	v.SetDefault("server.rate_limit.enabled", d.Server.RateLimit.Enabled)
	v.SetDefault("server.rate_limit.requests_per_second", d.Server.RateLimit.RequestsPerSecond)
	v.SetDefault("server.rate_limit.burst", d.Server.RateLimit.Burst)

	v.SetDefault("log.level", string(d.Log.Level))
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output_paths", d.Log.OutputPaths)

	v.SetDefault("formula.variable_replacement", d.Formula.VariableReplacement)

	v.SetDefault("closure.max_passes", d.Closure.MaxPasses)
	v.SetDefault("closure.cache_ttl", d.Closure.CacheTTL)

	v.SetDefault("network.source", d.Network.Source)
	v.SetDefault("network.path", d.Network.Path)
	v.SetDefault("network.verify", d.Network.Verify)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.mode", d.Redis.Mode)
	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 0)
	v.SetDefault("redis.key_prefix", d.Redis.KeyPrefix)

	v.SetDefault("neo4j.enabled", d.Neo4j.Enabled)
	v.SetDefault("neo4j.uri", d.Neo4j.URI)
	v.SetDefault("neo4j.username", "")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", d.Neo4j.Database)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("metrics.enable_go_metrics", d.Metrics.EnableGoMetrics)
	v.SetDefault("metrics.enable_process_metrics", d.Metrics.EnableProcessMetrics)
}
