// Package config loads flowboard settings from a TOML file and FLOWBOARD_*
// environment variables.
//
// Priority: command-line flags (applied by the CLI) > environment > file >
// defaults. A missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowboard/pkg/backend"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/httputil"
	"github.com/matzehuels/flowboard/pkg/store"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "FLOWBOARD_"

// Config holds all settings.
type Config struct {
	Board   BoardConfig   `toml:"board"`
	Store   StoreConfig   `toml:"store"`
	Backend BackendConfig `toml:"backend"`
	Server  ServerConfig  `toml:"server"`
	Arrange ArrangeConfig `toml:"arrange"`
	Log     LogConfig     `toml:"log"`
}

// BoardConfig names the board and sizes its viewport.
type BoardConfig struct {
	Name   string  `toml:"name"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// StoreConfig selects where the board is persisted.
type StoreConfig struct {
	Backend string      `toml:"backend"` // "file", "memory", "redis", "mongo", "none"
	Dir     string      `toml:"dir"`     // file backend root
	Redis   RedisConfig `toml:"redis"`
	Mongo   MongoConfig `toml:"mongo"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// BackendConfig points at the processing backend.
type BackendConfig struct {
	URL           string   `toml:"url"`
	Timeout       Duration `toml:"timeout"`
	RetryAttempts int      `toml:"retry_attempts"` // 0 keeps the default
}

// ServerConfig holds the HTTP API listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// ArrangeConfig holds animation lengths.
type ArrangeConfig struct {
	Duration      Duration `toml:"duration"`       // animated arrange
	ClearDuration Duration `toml:"clear_duration"` // arrange after a cache reset
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
}

// Duration is a time.Duration that reads from TOML strings like "240ms".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// DefaultConfig returns a Config with all default values.
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{
			Name:   store.DefaultBoard,
			Width:  1280,
			Height: 800,
		},
		Store: StoreConfig{
			Backend: store.BackendFile,
			Dir:     DefaultDataDir(),
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "flowboard",
				Collection: "board",
			},
		},
		Backend: BackendConfig{
			URL:           backend.DefaultBaseURL,
			Timeout:       Duration(backend.DefaultTimeout),
			RetryAttempts: 3,
		},
		Server:  ServerConfig{Addr: ":8090"},
		Arrange: ArrangeConfig{Duration: Duration(240 * time.Millisecond), ClearDuration: Duration(260 * time.Millisecond)},
		Log:     LogConfig{Level: "info"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/flowboard/config.toml, or the platform
// config directory when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if d, err := os.UserConfigDir(); err == nil {
			dir = d
		}
	}
	return filepath.Join(dir, "flowboard", "config.toml")
}

// DefaultDataDir is $XDG_DATA_HOME/flowboard, falling back to
// ~/.local/share/flowboard.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "flowboard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "flowboard")
	}
	return filepath.Join(home, ".local", "share", "flowboard")
}

// Load reads path (or [DefaultPath] when empty) over the defaults and
// applies environment overrides. A missing file is ignored.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath()
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// applyEnv applies FLOWBOARD_* overrides read through getenv.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(name string, dst *string) {
		if v := getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(name string, dst *float64) {
		if v := getenv(EnvPrefix + name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	integer := func(name string, dst *int) {
		if v := getenv(EnvPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *Duration) {
		if v := getenv(EnvPrefix + name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = Duration(d)
		}
	}

	str("BOARD", &c.Board.Name)
	num("BOARD_WIDTH", &c.Board.Width)
	num("BOARD_HEIGHT", &c.Board.Height)
	str("STORE", &c.Store.Backend)
	str("STORE_DIR", &c.Store.Dir)
	str("REDIS_ADDR", &c.Store.Redis.Addr)
	str("REDIS_PASSWORD", &c.Store.Redis.Password)
	integer("REDIS_DB", &c.Store.Redis.DB)
	str("MONGO_URI", &c.Store.Mongo.URI)
	str("MONGO_DATABASE", &c.Store.Mongo.Database)
	str("MONGO_COLLECTION", &c.Store.Mongo.Collection)
	str("BACKEND_URL", &c.Backend.URL)
	dur("BACKEND_TIMEOUT", &c.Backend.Timeout)
	integer("BACKEND_RETRIES", &c.Backend.RetryAttempts)
	str("SERVER_ADDR", &c.Server.Addr)
	dur("ARRANGE_DURATION", &c.Arrange.Duration)
	dur("CLEAR_DURATION", &c.Arrange.ClearDuration)
	str("LOG_LEVEL", &c.Log.Level)

	return errors.Join(errs...)
}

// Validate reports settings no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Board.Width <= 0 || c.Board.Height <= 0 {
		errs = append(errs, fmt.Errorf("board size %vx%v must be positive", c.Board.Width, c.Board.Height))
	}
	backends := store.Backends()
	if b := strings.ToLower(c.Store.Backend); b != "" && !slices.Contains(backends, b) {
		errs = append(errs, fmt.Errorf("%w %q (want one of %s)", store.ErrUnknownBackend, c.Store.Backend, strings.Join(backends, ", ")))
	}
	if c.Backend.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("backend retry_attempts %d must not be negative", c.Backend.RetryAttempts))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// =============================================================================
// Conversions
// =============================================================================

// Viewport returns the board size as a geometry size.
func (c *Config) Viewport() geom.Size {
	return geom.Size{W: c.Board.Width, H: c.Board.Height}
}

// StoreOptions returns the options for [store.Open].
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend: c.Store.Backend,
		Dir:     c.Store.Dir,
		Redis: store.RedisOptions{
			Addr:     c.Store.Redis.Addr,
			Password: c.Store.Redis.Password,
			DB:       c.Store.Redis.DB,
		},
		Mongo: store.MongoOptions{
			URI:        c.Store.Mongo.URI,
			Database:   c.Store.Mongo.Database,
			Collection: c.Store.Mongo.Collection,
		},
	}
}

// BackendOptions returns the options for [backend.New] without a logger.
func (c *Config) BackendOptions() backend.Options {
	b := httputil.DefaultBackoff()
	if c.Backend.RetryAttempts > 0 {
		b.Attempts = c.Backend.RetryAttempts
	}
	return backend.Options{
		BaseURL: c.Backend.URL,
		Timeout: c.Backend.Timeout.Duration(),
		Backoff: b,
	}
}
