// Package config loads application configuration from file and environment
// and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig  `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Server      ServerConfig `yaml:"server" mapstructure:"server"`
	Log         LogConfig    `yaml:"log" mapstructure:"log"`
	Enumerators []string     `yaml:"enumerators" mapstructure:"enumerators"`
}

// StoreConfig configures the GitHub-backed blob store holding the feeds and
// the correction ledger.
type StoreConfig struct {
	Owner          string `yaml:"owner" mapstructure:"owner"`
	Repo           string `yaml:"repo" mapstructure:"repo"`
	Branch         string `yaml:"branch" mapstructure:"branch"`
	Token          string `yaml:"token" mapstructure:"token"`
	ConstraintsKey string `yaml:"constraints_key" mapstructure:"constraints_key"`
	LogicKey       string `yaml:"logic_key" mapstructure:"logic_key"`
	CorrectionsKey string `yaml:"corrections_key" mapstructure:"corrections_key"`
}

// CacheConfig configures the local feed cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
	TTLSecs int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSecs) * time.Second }

// ServerConfig configures the correction API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("HFC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.owner", "mohammed-seid")
	v.SetDefault("store.repo", "hfc-data-private")
	v.SetDefault("store.branch", "main")
	// Registered empty so AutomaticEnv can bind HFC_STORE_TOKEN on Unmarshal.
	v.SetDefault("store.token", "")
	v.SetDefault("store.constraints_key", "constraints_south.csv")
	v.SetDefault("store.logic_key", "logic_south.csv")
	v.SetDefault("store.corrections_key", "corrections_south.csv")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", "hfc-cache.db")
	v.SetDefault("cache.ttl_secs", 3600)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("enumerators", defaultEnumerators)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// defaultEnumerators is the ET South field roster.
var defaultEnumerators = []string{
	"mesay", "melese.a", "degefu", "aster",
	"firew", "mesfin", "aster.w", "asfaw.f", "abreham",
	"asfaw.m", "ngatu", "demekech", "henok", "chere",
	"getahun", "aynalem",
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
