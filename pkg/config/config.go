// Package config loads mosaic settings.
//
// Settings are resolved in order, later sources winning:
//
//  1. [Default]
//  2. the TOML file ($XDG_CONFIG_HOME/mosaic/config.toml unless a path is given)
//  3. .env.local and .env in the working directory (see [LoadDotEnv])
//  4. MOSAIC_* environment variables
//
// A missing config file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mosaic/pkg/errors"
)

// Config is the full set of settings.
type Config struct {
	API    API    `toml:"api"`
	Cache  Cache  `toml:"cache"`
	Layout Layout `toml:"layout"`
	Server Server `toml:"server"`
}

// API configures the remote API client.
type API struct {
	BaseURL   string        `toml:"base_url"`
	Token     string        `toml:"token"`
	Timeout   time.Duration `toml:"timeout"`
	PageLimit int           `toml:"page_limit"`
}

// Cache selects and configures the response cache backend.
type Cache struct {
	Backend       string        `toml:"backend"` // file, redis, mongo or none
	Dir           string        `toml:"dir"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisDB       int           `toml:"redis_db"`
	MongoURI      string        `toml:"mongo_uri"`
	MongoDatabase string        `toml:"mongo_database"`
}

// Layout holds the masonry defaults.
type Layout struct {
	ColumnWidth float64 `toml:"column_width"`
	Gap         float64 `toml:"gap"`
}

// Server configures the layout service.
type Server struct {
	Listen string `toml:"listen"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API: API{
			BaseURL:   "http://localhost:8080/api/v1",
			Timeout:   10 * time.Second,
			PageLimit: 20,
		},
		Cache: Cache{
			Backend:       "file",
			Dir:           defaultCacheDir(),
			TTL:           15 * time.Minute,
			MongoDatabase: "mosaic",
		},
		Layout: Layout{ColumnWidth: 300, Gap: 16},
		Server: Server{Listen: ":8090"},
	}
}

// Path returns the default config file location.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "mosaic", "config.toml")
}

func defaultCacheDir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "mosaic")
		}
		dir = filepath.Join(home, ".cache")
	}
	return filepath.Join(dir, "mosaic")
}

// Load reads path (or [Path] when empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) || explicit {
				return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses TOML settings on top of [Default]. It does not read the
// environment.
func Decode(data string) (Config, error) {
	cfg := Default()
	if _, err := toml.Decode(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"MOSAIC_API_URL":       &c.API.BaseURL,
		"MOSAIC_API_TOKEN":     &c.API.Token,
		"MOSAIC_CACHE_BACKEND": &c.Cache.Backend,
		"MOSAIC_CACHE_DIR":     &c.Cache.Dir,
		"MOSAIC_REDIS_ADDR":    &c.Cache.RedisAddr,
		"MOSAIC_MONGO_URI":     &c.Cache.MongoURI,
		"MOSAIC_LISTEN":        &c.Server.Listen,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("MOSAIC_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "MOSAIC_CACHE_TTL")
		}
		c.Cache.TTL = d
	}
	if v, ok := lookup("MOSAIC_PAGE_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "MOSAIC_PAGE_LIMIT")
		}
		c.API.PageLimit = n
	}
	return nil
}

// Validate checks the settings for values that would fail later.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.API.BaseURL); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "api.base_url")
	}
	if c.API.Timeout <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "api.timeout must be positive")
	}
	if c.API.PageLimit < 1 || c.API.PageLimit > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "api.page_limit must be between 1 and 100, got %d", c.API.PageLimit)
	}

	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.dir is required for the file backend")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	case "mongo":
		if c.Cache.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.mongo_uri is required for the mongo backend")
		}
	case "none":
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}

	if err := errors.ValidateDimension("layout.column_width", c.Layout.ColumnWidth, false); err != nil {
		return err
	}
	if err := errors.ValidateDimension("layout.gap", c.Layout.Gap, true); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "server.listen cannot be empty")
	}
	return nil
}

func (c Config) String() string {
	token := ""
	if c.API.Token != "" {
		token = " token=***"
	}
	return fmt.Sprintf("api=%s%s cache=%s", c.API.BaseURL, token, c.Cache.Backend)
}
