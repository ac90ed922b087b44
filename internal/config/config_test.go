package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/storage"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Storage.Backend != storage.BackendFile {
		t.Errorf("storage backend = %q, want file", cfg.Storage.Backend)
	}
	if !strings.HasSuffix(cfg.Cache.Dir, AppName) {
		t.Errorf("cache dir = %q, should end with %q", cfg.Cache.Dir, AppName)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")

	if got, want := Path(), filepath.Join("/tmp/xdg-config", AppName, "config.toml"); got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
	if got, want := Default().Cache.Dir, filepath.Join("/tmp/xdg-cache", AppName); got != want {
		t.Errorf("cache dir = %q, want %q", got, want)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[storage]
backend = "redis"
redis_url = "redis://localhost:6379/2"

[history]
backend = "sqlite"
limit = 25

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.RedisURL != "redis://localhost:6379/2" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.RedisPrefix != storage.DefaultRedisPrefix {
		t.Errorf("redis prefix = %q, want default", cfg.Storage.RedisPrefix)
	}
	if cfg.History.Backend != HistorySQLite || cfg.History.Limit != 25 {
		t.Errorf("history = %+v", cfg.History)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Errorf("server addr = %q, want default", cfg.Server.Addr)
	}
	if cfg.LogLevel() != log.DebugLevel {
		t.Errorf("LogLevel() = %v, want debug", cfg.LogLevel())
	}
	if opts := cfg.StorageOptions(); opts.Backend != "redis" || opts.RedisURL != cfg.Storage.RedisURL {
		t.Errorf("StorageOptions() = %+v", opts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(""); err != nil {
		t.Errorf("Load(\"\") without a file = %v, want defaults", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load(missing) = %v, want INVALID_CONFIG", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown storage", "[storage]\nbackend = \"s3\"\n"},
		{"redis without url", "[storage]\nbackend = \"redis\"\n"},
		{"mongo without uri", "[storage]\nbackend = \"mongo\"\n"},
		{"unknown history", "[history]\nbackend = \"git\"\n"},
		{"zero limit", "[history]\nlimit = 0\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad toml", "[storage\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Load = %v, want INVALID_CONFIG", err)
			}
		})
	}
}
