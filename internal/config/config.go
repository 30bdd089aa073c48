// Package config defines the MetaNet configuration tree and its validation.
// Loading lives in loader.go, defaults in defaults.go.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/turtacn/MetaNet/internal/infrastructure/database/neo4j"
	"github.com/turtacn/MetaNet/internal/infrastructure/database/redis"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/prometheus"
)

// Sentinel errors wrapped by Load and Validate.
var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

// Network sources.
const (
	SourceFile  = "file"
	SourceNeo4j = "neo4j"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSAllowedOrigins lists browser origins; empty disables CORS.
	CORSAllowedOrigins []string        `mapstructure:"cors_allowed_origins"`
	RateLimit          RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// FormulaConfig tunes the formula parser.
type FormulaConfig struct {
	VariableReplacement float64 `mapstructure:"variable_replacement"`
}

// ClosureConfig tunes the closure engine and its result cache.
type ClosureConfig struct {
	// MaxPasses bounds the fixed-point iteration; 0 means unbounded.
	MaxPasses int           `mapstructure:"max_passes"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// NetworkConfig says where the network is loaded from.
type NetworkConfig struct {
	Source string `mapstructure:"source"` // "file" | "neo4j"
	// Path is a YAML document, or "builtin:sample".
	Path string `mapstructure:"path"`
	// Verify runs the cross-reference check after loading.
	Verify bool `mapstructure:"verify"`
}

type RedisConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	redis.Config `mapstructure:",squash"`
	KeyPrefix    string `mapstructure:"key_prefix"`
}

type Neo4jConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	neo4j.Config `mapstructure:",squash"`
}

type MetricsConfig struct {
	Enabled                    bool   `mapstructure:"enabled"`
	Path                       string `mapstructure:"path"`
	prometheus.CollectorConfig `mapstructure:",squash"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root of the configuration tree.
type Config struct {
	Server  ServerConfig      `mapstructure:"server"`
	Log     logging.LogConfig `mapstructure:"log"`
	Formula FormulaConfig     `mapstructure:"formula"`
	Closure ClosureConfig     `mapstructure:"closure"`
	Network NetworkConfig     `mapstructure:"network"`
	Redis   RedisConfig       `mapstructure:"redis"`
	Neo4j   Neo4jConfig       `mapstructure:"neo4j"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfigValidation, fmt.Sprintf(format, args...))
}

// Validate returns the first semantic problem found, wrapping
// ErrConfigValidation.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return invalid("server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return invalid("server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if rl := c.Server.RateLimit; rl.Enabled {
		if !(rl.RequestsPerSecond > 0) {
			return invalid("server.rate_limit.requests_per_second must be > 0, got %v", rl.RequestsPerSecond)
		}
		if rl.Burst < 1 {
			return invalid("server.rate_limit.burst must be ≥ 1, got %d", rl.Burst)
		}
	}

	// Log
	if _, err := logging.ParseLevel(string(c.Log.Level)); err != nil {
		return invalid("log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return invalid("log.format %q is invalid; expected json|console", c.Log.Format)
	}
	if len(c.Log.OutputPaths) == 0 {
		return invalid("log.output_paths must name at least one sink")
	}

	// Formula
	if v := c.Formula.VariableReplacement; math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return invalid("formula.variable_replacement must be finite and ≥ 0, got %v", v)
	}

	// Closure
	if c.Closure.MaxPasses < 0 {
		return invalid("closure.max_passes must be ≥ 0, got %d", c.Closure.MaxPasses)
	}
	if c.Closure.CacheTTL < 0 {
		return invalid("closure.cache_ttl must be ≥ 0, got %s", c.Closure.CacheTTL)
	}

	// Network
	switch c.Network.Source {
	case SourceFile:
		if c.Network.Path == "" {
			return invalid("network.path is required when network.source is %q", SourceFile)
		}
	case SourceNeo4j:
		if !c.Neo4j.Enabled {
			return invalid("network.source %q requires neo4j.enabled", SourceNeo4j)
		}
	default:
		return invalid("network.source %q is invalid; expected file|neo4j", c.Network.Source)
	}

	// Redis
	if c.Redis.Enabled {
		switch c.Redis.Mode {
		case "standalone":
			if c.Redis.Addr == "" {
				return invalid("redis.addr is required")
			}
		case "cluster":
			if len(c.Redis.ClusterAddrs) == 0 {
				return invalid("redis.cluster_addrs must contain at least one address")
			}
		default:
			return invalid("redis.mode %q is invalid; expected standalone|cluster", c.Redis.Mode)
		}
		if c.Redis.DB < 0 {
			return invalid("redis.db must be ≥ 0, got %d", c.Redis.DB)
		}
	}

	// Neo4j
	if c.Neo4j.Enabled && c.Neo4j.URI == "" {
		return invalid("neo4j.uri is required")
	}

	// Metrics
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return invalid("metrics.namespace is required")
	}

	return nil
}
