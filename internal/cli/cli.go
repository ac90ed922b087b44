// Package cli implements the infograph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/devtoc/infograph/internal/config"
	"github.com/devtoc/infograph/pkg/cache"
	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/history"
	"github.com/devtoc/infograph/pkg/records"
	"github.com/devtoc/infograph/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default configuration file.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// config loads the configuration once.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) openRepo(ctx context.Context) (storage.Repository, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("opening storage", "backend", cfg.Storage.Backend)
	return storage.Open(ctx, cfg.StorageOptions())
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if noCache || !cfg.Cache.Enabled {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) newHistory() (history.History, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if cfg.History.Backend == config.HistorySQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.History.Path), 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "create history dir")
		}
		return history.OpenSQLite(cfg.History.Path, cfg.History.Limit)
	}
	return history.NewMemory(cfg.History.Limit), nil
}

// session bundles the collaborators a command opened, so they can be
// closed together.
type session struct {
	loader  *docstore.Loader
	closers []io.Closer
}

func (s *session) Close() {
	for _, c := range s.closers {
		_ = c.Close()
	}
}

// newSession opens storage and the cache. Commands that only read files
// pass withRepo=false and get a loader without a repository.
func (c *CLI) newSession(ctx context.Context, withRepo, noCache bool) (*session, error) {
	s := &session{}
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, ch)

	var repo storage.Repository
	if withRepo {
		if repo, err = c.openRepo(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, repo)
	}
	s.loader = docstore.NewLoader(repo, nil, ch, nil, c.Logger)
	return s, nil
}

// =============================================================================
// Document references
// =============================================================================

// isFileRef reports whether ref names a records file rather than a stored
// document id.
func isFileRef(ref string) bool {
	if strings.HasSuffix(ref, ".json") || strings.ContainsRune(ref, filepath.Separator) {
		return true
	}
	_, err := os.Stat(ref)
	return err == nil
}

// readRecords loads the raw records of ref from a file or from storage.
func (c *CLI) readRecords(ctx context.Context, s *session, ref string) ([]records.Record, error) {
	if isFileRef(ref) {
		return records.ImportFile(ref)
	}
	if s.loader.Repo == nil {
		repo, err := c.openRepo(ctx)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, repo)
		s.loader.Repo = repo
	}
	return s.loader.Repo.Load(ctx, ref)
}

// loadDocument reads, migrates and validates the document ref names.
func (c *CLI) loadDocument(ctx context.Context, s *session, ref string) (*document.Document, bool, error) {
	recs, err := c.readRecords(ctx, s, ref)
	if err != nil {
		return nil, false, err
	}
	return s.loader.Decode(ctx, recs)
}

// writeDocument exports d to path, or to stdout when path is "-" or empty.
func writeDocument(d *document.Document, path string) error {
	recs, err := records.Export(d)
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		return records.WriteJSON(recs, os.Stdout)
	}
	return records.ExportFile(recs, path)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/infograph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
