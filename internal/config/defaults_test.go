package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, []string{"stdout"}, cfg.Log.OutputPaths)
	assert.Equal(t, SourceFile, cfg.Network.Source)
	assert.Equal(t, DefaultNetworkPath, cfg.Network.Path)
	assert.Equal(t, DefaultClosureCacheTTL, cfg.Closure.CacheTTL)
	assert.Equal(t, DefaultMetricsNamespace, cfg.Metrics.Namespace)
	assert.Zero(t, cfg.Closure.MaxPasses, "0 means unbounded and is left alone")
	assert.Zero(t, cfg.Formula.VariableReplacement, "zero is legal and only defaulted through viper")
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.Closure.CacheTTL = time.Minute
	cfg.Network.Source = SourceNeo4j
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, time.Minute, cfg.Closure.CacheTTL)
	assert.Empty(t, cfg.Network.Path, "no sample path for a graph source")
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, DefaultVariableReplacement, cfg.Formula.VariableReplacement)
	assert.True(t, cfg.Network.Verify)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Neo4j.Enabled)
}
