// Package config loads the infograph configuration file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/infograph/config.toml
// (~/.config/infograph/config.toml) unless a path is given explicitly.
// Missing keys keep the values of [Default]:
//
//	[storage]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[history]
//	backend = "sqlite"
//	limit = 200
package config

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/history"
	"github.com/devtoc/infograph/pkg/storage"
)

// AppName names the configuration, cache and data directories.
const AppName = "infograph"

// History backends.
const (
	HistoryMemory = "memory"
	HistorySQLite = "sqlite"
)

// Config is the full configuration.
type Config struct {
	Storage Storage `toml:"storage"`
	History History `toml:"history"`
	Cache   Cache   `toml:"cache"`
	Server  Server  `toml:"server"`
	Log     Log     `toml:"log"`
}

// Storage selects the document repository.
type Storage struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisURL      string `toml:"redis_url"`
	RedisPrefix   string `toml:"redis_prefix"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// History configures undo history.
type History struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	Limit   int    `toml:"limit"`
}

// Cache configures the migration and render cache. A RedisURL replaces the
// file cache in Dir.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`
}

// Log sets the default log level.
type Log struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage: Storage{
			Backend:       storage.BackendFile,
			Dir:           filepath.Join(dataHome(), AppName, "documents"),
			RedisPrefix:   storage.DefaultRedisPrefix,
			MongoDatabase: storage.DefaultMongoDatabase,
		},
		History: History{
			Backend: HistoryMemory,
			Path:    filepath.Join(dataHome(), AppName, "history.db"),
			Limit:   history.DefaultLimit,
		},
		Cache: Cache{
			Enabled: true,
			Dir:     filepath.Join(cacheHome(), AppName),
		},
		Server: Server{Addr: "127.0.0.1:8080"},
		Log:    Log{Level: "info"},
	}
}

// Path returns the default configuration file path.
func Path() string {
	return filepath.Join(configHome(), AppName, "config.toml")
}

// Load reads path over the defaults. An empty path means [Path]; a missing
// default file is not an error, a missing explicit one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = Path()
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warn("unknown configuration keys", "file", path, "keys", undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names and required settings.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case storage.BackendFile:
		if c.Storage.Dir == "" {
			return invalid("storage.dir is required for the file backend")
		}
	case storage.BackendRedis:
		if c.Storage.RedisURL == "" {
			return invalid("storage.redis_url is required for the redis backend")
		}
	case storage.BackendMongo:
		if c.Storage.MongoURI == "" {
			return invalid("storage.mongo_uri is required for the mongo backend")
		}
	default:
		return invalid("unknown storage backend %q", c.Storage.Backend)
	}

	if !slices.Contains([]string{HistoryMemory, HistorySQLite}, c.History.Backend) {
		return invalid("unknown history backend %q", c.History.Backend)
	}
	if c.History.Backend == HistorySQLite && c.History.Path == "" {
		return invalid("history.path is required for the sqlite backend")
	}
	if c.History.Limit < 1 {
		return invalid("history.limit must be positive, got %d", c.History.Limit)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level: %v", err)
	}
	return nil
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.Storage.Backend,
		Dir:           c.Storage.Dir,
		RedisURL:      c.Storage.RedisURL,
		RedisPrefix:   c.Storage.RedisPrefix,
		MongoURI:      c.Storage.MongoURI,
		MongoDatabase: c.Storage.MongoDatabase,
	}
}

// LogLevel returns the configured level, or info when it does not parse.
func (c *Config) LogLevel() log.Level {
	l, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidConfig, format, args...)
}

func configHome() string {
	return xdg("XDG_CONFIG_HOME", ".config")
}

func cacheHome() string {
	return xdg("XDG_CACHE_HOME", ".cache")
}

func dataHome() string {
	return xdg("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// xdg returns $env, or dir under the home directory.
func xdg(env, dir string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, dir)
}
