package config_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/MetaNet/internal/config"
)

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	require.NoError(t, config.NewDefaultConfig().Validate())
}

func TestConfig_Validate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"port zero", func(c *config.Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *config.Config) { c.Server.Port = 70000 }, "server.port"},
		{"server mode", func(c *config.Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"rate limit rps", func(c *config.Config) { c.Server.RateLimit.Enabled = true; c.Server.RateLimit.RequestsPerSecond = 0 }, "server.rate_limit.requests_per_second"},
		{"rate limit burst", func(c *config.Config) { c.Server.RateLimit.Enabled = true; c.Server.RateLimit.Burst = 0 }, "server.rate_limit.burst"},
		{"log level", func(c *config.Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *config.Config) { c.Log.Format = "text" }, "log.format"},
		{"log sinks", func(c *config.Config) { c.Log.OutputPaths = nil }, "log.output_paths"},
		{"negative replacement", func(c *config.Config) { c.Formula.VariableReplacement = -1 }, "formula.variable_replacement"},
		{"NaN replacement", func(c *config.Config) { c.Formula.VariableReplacement = math.NaN() }, "formula.variable_replacement"},
		{"negative passes", func(c *config.Config) { c.Closure.MaxPasses = -1 }, "closure.max_passes"},
		{"negative ttl", func(c *config.Config) { c.Closure.CacheTTL = -1 }, "closure.cache_ttl"},
		{"unknown source", func(c *config.Config) { c.Network.Source = "sbml" }, "network.source"},
		{"file without path", func(c *config.Config) { c.Network.Path = "" }, "network.path"},
		{"neo4j source disabled", func(c *config.Config) { c.Network.Source = config.SourceNeo4j }, "neo4j.enabled"},
		{"neo4j without uri", func(c *config.Config) { c.Neo4j.Enabled = true; c.Neo4j.URI = "" }, "neo4j.uri"},
		{"redis without addr", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"redis cluster without addrs", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Mode = "cluster" }, "redis.cluster_addrs"},
		{"redis mode", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.Mode = "sentinel" }, "redis.mode"},
		{"redis db", func(c *config.Config) { c.Redis.Enabled = true; c.Redis.DB = -1 }, "redis.db"},
		{"metrics namespace", func(c *config.Config) { c.Metrics.Namespace = "" }, "metrics.namespace"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrConfigValidation)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestConfig_Validate_DisabledSectionsAreNotChecked(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Redis.Addr = ""
	cfg.Neo4j.URI = ""
	cfg.Metrics.Enabled = false
	cfg.Metrics.Namespace = ""
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_Neo4jSource(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Network.Source = config.SourceNeo4j
	cfg.Network.Path = ""
	cfg.Neo4j.Enabled = true
	assert.NoError(t, cfg.Validate())
}

func TestServerConfig_Addr(t *testing.T) {
	s := config.ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", s.Addr())
}
