package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/sessionauth"
	"github.com/MrEthical07/sessionauth/internal/database"
)

// Config is the on-disk configuration. JSON files load too, since JSON is
// valid YAML.
type Config struct {
	Server          ServerConfig    `yaml:"server"`
	Database        DatabaseConfig  `yaml:"database"`
	Redis           RedisConfig     `yaml:"redis"`
	Log             LogConfig       `yaml:"log"`
	SessionSecret   Secret          `yaml:"session_secret"`
	SigningMethod   string          `yaml:"signing_method"`
	DummyBcryptHash string          `yaml:"dummy_bcrypt_hash"`
	Session         SessionConfig   `yaml:"session"`
	Reaper          ReaperConfig    `yaml:"reaper"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
	Metrics         MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig takes either a full URL or the individual connection
// fields.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver"`
	URL             string        `yaml:"url"`
	Username        string        `yaml:"username"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DatabaseName    string        `yaml:"database_name"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	MaxLevel string `yaml:"max_level"`
	Format   string `yaml:"format"`
}

type SessionConfig struct {
	TTL                     time.Duration `yaml:"ttl"`
	InlineCleanup           *bool         `yaml:"inline_cleanup"`
	InlineCleanupMultiplier int           `yaml:"inline_cleanup_multiplier"`
}

type ReaperConfig struct {
	Interval         time.Duration `yaml:"interval"`
	CutoffMultiplier int           `yaml:"cutoff_multiplier"`
}

type RateLimitConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

type MetricsConfig struct {
	Disabled bool `yaml:"disabled"`
	OTel     bool `yaml:"otel"`
}

// Secret accepts a plain string or a list of byte values.
type Secret []byte

func (s *Secret) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*s = Secret(value.Value)
		return nil
	case yaml.SequenceNode:
		var ints []int
		if err := value.Decode(&ints); err != nil {
			return fmt.Errorf("session_secret: %w", err)
		}
		out := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return fmt.Errorf("session_secret: byte %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		*s = out
		return nil
	default:
		return errors.New("session_secret must be a string or a list of bytes")
	}
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: database.DriverPostgres,
		},
		Log: LogConfig{
			MaxLevel: "info",
			Format:   "json",
		},
		Session: SessionConfig{
			TTL: time.Hour,
		},
	}
}

// LoadConfig reads path and applies environment overrides. When required
// is false a missing file yields the defaults.
func LoadConfig(path string, required bool) (*Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := decodeConfig(f, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func decodeConfig(r io.Reader, cfg *Config) error {
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SESSIONAUTH_SECRET"); v != "" {
		c.SessionSecret = Secret(v)
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

// DatabaseURL returns the configured URL, or builds one from the
// individual fields.
func (c *Config) DatabaseURL() string {
	d := c.Database
	if d.URL != "" || d.Host == "" {
		return d.URL
	}
	port := d.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.Username, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(port),
		Path:   "/" + d.DatabaseName,
	}
	return u.String()
}

func (c *Config) databaseConfig() database.Config {
	return database.Config{
		Driver:          c.Database.Driver,
		URL:             c.DatabaseURL(),
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		MaxConnLifetime: c.Database.MaxConnLifetime,
	}
}

// EngineConfig maps the file onto the library configuration.
func (c *Config) EngineConfig() sessionauth.Config {
	cfg := sessionauth.DefaultConfig()
	cfg.Token.Secret = []byte(c.SessionSecret)
	if c.SigningMethod != "" {
		cfg.Token.SigningMethod = strings.ToLower(c.SigningMethod)
	}
	if c.Session.TTL > 0 {
		cfg.Session.TTL = c.Session.TTL
	}
	if c.Session.InlineCleanup != nil {
		cfg.Session.InlineCleanup = *c.Session.InlineCleanup
	}
	if c.Session.InlineCleanupMultiplier > 0 {
		cfg.Session.InlineCleanupMultiplier = c.Session.InlineCleanupMultiplier
	}
	cfg.Password.DummyHash = c.DummyBcryptHash
	if c.RateLimit.Enabled {
		cfg.RateLimit.Enabled = true
		if c.RateLimit.MaxLoginAttempts > 0 {
			cfg.RateLimit.MaxLoginAttempts = c.RateLimit.MaxLoginAttempts
		}
		if c.RateLimit.Cooldown > 0 {
			cfg.RateLimit.Cooldown = c.RateLimit.Cooldown
		}
	}
	if c.Metrics.Disabled {
		cfg.Metrics.Enabled = false
		cfg.Metrics.EnableLatencyHistograms = false
	}
	return cfg
}

// Logger builds the process logger from the log section. Levels follow the
// usual names; "trace" maps to debug.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(c.Log.MaxLevel) {
	case "trace", "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level %q", c.Log.MaxLevel)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.Log.Format) {
	case "", "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Log.Format)
	}
}
