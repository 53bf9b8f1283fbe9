// Package config loads process configuration from flags, environment
// variables and .env files.
//
// Every key can be set as a flag (--sql-host) or as an environment
// variable with the DUOSTORE prefix (DUOSTORE_SQL_HOST). Flags win over
// the environment, which wins over the defaults.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/xraph/duostore"
	"github.com/xraph/duostore/cache"
	"github.com/xraph/duostore/cron"
	"github.com/xraph/duostore/document"
	"github.com/xraph/duostore/limit"
	"github.com/xraph/duostore/relational"
	"github.com/xraph/duostore/selector"
)

// EnvPrefix is the prefix of every environment variable.
const EnvPrefix = "duostore"

// Config is the complete process configuration.
type Config struct {
	Selector   selector.Config
	Relational relational.Config
	Document   document.Config
	Cache      cache.Config

	// Limits caps the operation rate and concurrency of each store.
	Limits []limit.Config

	// HealthSchedule is the cron schedule of background health probes.
	// Empty disables them.
	HealthSchedule string

	HTTPAddr  string
	LogLevel  string
	LogFormat string
}

// LoadEnvFiles loads .env and .env.local from the working directory when
// present. Variables already set in the environment are not overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// NewViper returns a viper instance reading DUOSTORE_* variables with the
// defaults applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for _, f := range flags {
		v.SetDefault(f.key, f.def)
	}
	return v
}

// RegisterFlags adds every configuration key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	for _, f := range flags {
		switch def := f.def.(type) {
		case bool:
			fs.Bool(f.key, def, f.usage)
		case int:
			fs.Int(f.key, def, f.usage)
		case string:
			fs.String(f.key, def, f.usage)
		case float64:
			fs.Float64(f.key, def, f.usage)
		case time.Duration:
			fs.Duration(f.key, def, f.usage)
		}
	}
}

// Load reads the configuration from v. When fs is non-nil its flags are
// bound first so explicitly set flags take precedence.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	cfg := Config{
		Selector: selector.Config{
			UseRelational:    v.GetBool("use-relational"),
			ConnectTimeout:   v.GetDuration("connect-timeout"),
			HealthTimeout:    v.GetDuration("health-timeout"),
			OperationTimeout: v.GetDuration("operation-timeout"),
			RetryAttempts:    v.GetInt("retry-attempts"),
			RetryBaseDelay:   v.GetDuration("retry-base-delay"),
			RetryMaxDelay:    v.GetDuration("retry-max-delay"),
			RetryJitter:      v.GetBool("retry-jitter"),
		},
		HealthSchedule: v.GetString("health-schedule"),
		HTTPAddr:       v.GetString("http-addr"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
	}

	rel := relational.DefaultConfig()
	rel.Driver = relational.Driver(v.GetString("sql-driver"))
	rel.Host = v.GetString("sql-host")
	rel.Port = v.GetInt("sql-port")
	rel.User = v.GetString("sql-user")
	rel.Password = v.GetString("sql-password")
	rel.Database = v.GetString("sql-database")
	rel.TLS = v.GetBool("sql-tls")
	rel.DSN = v.GetString("sql-dsn")
	rel.MinConns = v.GetInt("sql-pool-min")
	rel.MaxConns = v.GetInt("sql-pool-max")
	rel.IdleTimeout = v.GetDuration("sql-idle-timeout")
	rel.KeepAlive = v.GetDuration("sql-keepalive")
	rel.AcquireTimeout = cfg.Selector.ConnectTimeout
	cfg.Relational = rel

	doc := document.DefaultConfig()
	doc.URI = v.GetString("mongo-uri")
	doc.Database = v.GetString("mongo-database")
	doc.MinPoolSize = uint64(v.GetInt("mongo-pool-min"))
	doc.MaxPoolSize = uint64(v.GetInt("mongo-pool-max"))
	doc.ServerSelectionTimeout = cfg.Selector.ConnectTimeout
	cfg.Document = doc

	c := cache.DefaultConfig()
	c.URL = v.GetString("redis-url")
	c.Codec = v.GetString("cache-codec")
	cfg.Cache = c

	cfg.Limits = []limit.Config{
		{
			Backend:        duostore.BackendRelational,
			MaxConcurrency: v.GetInt("sql-max-concurrency"),
			RateLimit:      v.GetFloat64("sql-rate-limit"),
			RateBurst:      v.GetInt("sql-rate-burst"),
		},
		{
			Backend:        duostore.BackendDocument,
			MaxConcurrency: v.GetInt("mongo-max-concurrency"),
			RateLimit:      v.GetFloat64("mongo-rate-limit"),
			RateBurst:      v.GetInt("mongo-rate-burst"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the stores that will be used and the logging settings.
func (c Config) Validate() error {
	if c.Selector.UseRelational {
		if err := c.Relational.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if err := c.Document.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Selector.ConnectTimeout <= 0 || c.Selector.HealthTimeout <= 0 {
		return fmt.Errorf("config: connect and health timeouts must be positive")
	}
	if c.Selector.RetryAttempts <= 0 {
		return fmt.Errorf("config: retry attempts must be positive")
	}
	for _, l := range c.Limits {
		if l.MaxConcurrency < 0 || l.RateLimit < 0 || l.RateBurst < 0 {
			return fmt.Errorf("config: %s limits must not be negative", l.Backend)
		}
	}
	switch c.Cache.Codec {
	case cache.CodecNameJSON, cache.CodecNameMsgpack:
	default:
		return fmt.Errorf("config: unknown cache codec %q", c.Cache.Codec)
	}
	if c.HealthSchedule != "" {
		if _, err := cron.ParseSchedule(c.HealthSchedule); err != nil {
			return fmt.Errorf("config: invalid health schedule %q: %w", c.HealthSchedule, err)
		}
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// Logger builds the process logger writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", s)
	}
	return level, nil
}
