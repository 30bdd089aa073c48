package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/MetaNet/internal/infrastructure/monitoring/logging"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "METANET"

// newViper maps nested keys like "closure.max_passes" to
// METANET_CLOSURE_MAX_PASSES.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setViperDefaults(v)
	return v
}

// Load reads the YAML file at configPath, merges METANET_* overrides, applies
// defaults and validates.  An empty configPath behaves like LoadFromEnv.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := readInConfig(v, configPath); err != nil {
		return nil, err
	}
	return unmarshalAndFinalize(v)
}

func readInConfig(v *viper.Viper, configPath string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if stderrors.As(err, &notFound) || stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrConfigFileNotFound, configPath)
	}
	return fmt.Errorf("%w: %s: %v", ErrConfigParseError, configPath, err)
}

// LoadFromEnv builds a Config from METANET_* variables and defaults alone.
//
//	METANET_<SECTION>_<FIELD>   e.g.  METANET_CLOSURE_MAX_PASSES, METANET_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}
	ApplyDefaults(cfg)
	if level, err := logging.ParseLevel(string(cfg.Log.Level)); err == nil {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Watch re-reads configPath whenever it changes and hands every valid result
// to onChange.  Invalid edits are logged and skipped.  Callers should apply
// only settings that are safe to change at runtime, such as log.level.
func Watch(configPath string, log logging.Logger, onChange func(*Config)) error {
	if log == nil {
		log = logging.NewNopLogger()
	}
	v := newViper()
	v.SetConfigFile(configPath)
	if err := readInConfig(v, configPath); err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			log.WithError(err).Warn("ignoring invalid configuration change", logging.String("file", e.Name))
			return
		}
		log.Info("configuration reloaded", logging.String("file", e.Name), logging.String("op", e.Op.String()))
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics; for main() only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
