// Package config loads docdal settings from defaults, an optional config
// file and DOCDAL_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/roach88/docdal/internal/logger"
	"github.com/roach88/docdal/internal/metrics"
	"github.com/roach88/docdal/internal/querymongo"
)

// EnvPrefix is the prefix of environment overrides. DOCDAL_MONGO_URI sets
// mongo.uri.
const EnvPrefix = "DOCDAL"

// Config is the complete docdal configuration.
type Config struct {
	Log      LogConfig     `mapstructure:"log"`
	Mongo    MongoConfig   `mapstructure:"mongo"`
	Perf     PerfConfig    `mapstructure:"perf"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Stats    StatsConfig   `mapstructure:"stats"`
	Entities EntityConfig  `mapstructure:"entities"`
	Dialect  DialectConfig `mapstructure:"dialect"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MongoConfig struct {
	URI      string        `mapstructure:"uri"`
	Database string        `mapstructure:"database"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PerfConfig holds the slow-operation thresholds. A zero Error means
// five times Warn.
type PerfConfig struct {
	Warn  time.Duration `mapstructure:"warn"`
	Error time.Duration `mapstructure:"error"`
}

type MetricsConfig struct {
	Namespace string `mapstructure:"namespace"`
}

// StatsConfig locates the SQLite statistics database. An empty path
// disables persistent statistics.
type StatsConfig struct {
	Path string `mapstructure:"path"`
}

type EntityConfig struct {
	Dir string `mapstructure:"dir"`
}

// DialectConfig overrides operator tokens by operator name, e.g.
// {"like": "$text"}. An empty token removes the operator.
type DialectConfig struct {
	Operators map[string]string `mapstructure:"operators"`
	Logic     map[string]string `mapstructure:"logic"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "docdal")
	v.SetDefault("mongo.timeout", 10*time.Second)
	v.SetDefault("perf.warn", metrics.DefaultWarnThreshold)
	v.SetDefault("perf.error", 0)
	v.SetDefault("metrics.namespace", "docdal")
	v.SetDefault("stats.path", "")
	v.SetDefault("entities.dir", "entities")
}

// Load reads the configuration. path names an optional config file in
// any format viper understands; an empty path reads defaults and the
// environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	// Defaults register every scalar key, so AutomaticEnv sees them during
	// Unmarshal.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Mongo.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("mongo.timeout: must be positive, got %s", c.Mongo.Timeout))
	}
	if c.Perf.Warn <= 0 {
		errs = append(errs, fmt.Errorf("perf.warn: must be positive, got %s", c.Perf.Warn))
	}
	if c.Perf.Error != 0 && c.Perf.Error < c.Perf.Warn {
		errs = append(errs, fmt.Errorf("perf.error: %s is below perf.warn %s", c.Perf.Error, c.Perf.Warn))
	}
	if _, err := c.QueryDialect(); err != nil {
		errs = append(errs, fmt.Errorf("dialect: %w", err))
	}
	return errors.Join(errs...)
}

// QueryDialect returns the default dialect with the configured overrides.
func (c *Config) QueryDialect() (querymongo.Dialect, error) {
	return querymongo.DefaultDialect().Override(c.Dialect.Operators, c.Dialect.Logic)
}

// Thresholds returns the warn and error thresholds of the perf logger.
func (p PerfConfig) Thresholds() (warn, err time.Duration) {
	warn, err = p.Warn, p.Error
	if err == 0 {
		err = 5 * warn
	}
	return warn, err
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	return logger.New(logger.Config{
		Level:  c.Log.Level,
		Format: c.Log.Format,
		Writer: w,
	})
}
