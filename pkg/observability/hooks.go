// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about command dispatch, document migration, storage and
// cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [LogHooks] is the bundled implementation: it reports every event to a
// charmbracelet/log logger at debug level.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    hooks := observability.NewLogHooks(logger)
//	    observability.SetCommandHooks(hooks)
//	    observability.SetStorageHooks(hooks)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	doc, res, err := engine.Apply(doc, cmd)
//	observability.Command().OnCommand(ctx, doc.ID, cmd.CommandType(), res.Changed, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Command Hooks
// =============================================================================

// CommandHooks receives events from the document command dispatcher.
type CommandHooks interface {
	// OnCommand records one dispatched command. changed is false for
	// commands the engine rejected.
	OnCommand(ctx context.Context, docID, command string, changed bool, duration time.Duration, err error)

	// OnHistory records an undo or redo.
	OnHistory(ctx context.Context, docID, action string, ok bool)
}

// =============================================================================
// Migration Hooks
// =============================================================================

// MigrationHooks receives events from document loading.
type MigrationHooks interface {
	OnMigrationStart(ctx context.Context, docID string, widgets int)
	OnMigrationComplete(ctx context.Context, docID string, upgraded int, duration time.Duration, err error)
}

// =============================================================================
// Storage Hooks
// =============================================================================

// StorageHooks receives events from record repositories.
type StorageHooks interface {
	OnLoad(ctx context.Context, backend, docID string, records int, duration time.Duration, err error)
	OnSave(ctx context.Context, backend, docID string, records int, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCommandHooks is a no-op implementation of CommandHooks.
type NoopCommandHooks struct{}

func (NoopCommandHooks) OnCommand(context.Context, string, string, bool, time.Duration, error) {}
func (NoopCommandHooks) OnHistory(context.Context, string, string, bool)                       {}

// NoopMigrationHooks is a no-op implementation of MigrationHooks.
type NoopMigrationHooks struct{}

func (NoopMigrationHooks) OnMigrationStart(context.Context, string, int) {}
func (NoopMigrationHooks) OnMigrationComplete(context.Context, string, int, time.Duration, error) {
}

// NoopStorageHooks is a no-op implementation of StorageHooks.
type NoopStorageHooks struct{}

func (NoopStorageHooks) OnLoad(context.Context, string, string, int, time.Duration, error) {}
func (NoopStorageHooks) OnSave(context.Context, string, string, int, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	commandHooks   CommandHooks   = NoopCommandHooks{}
	migrationHooks MigrationHooks = NoopMigrationHooks{}
	storageHooks   StorageHooks   = NoopStorageHooks{}
	cacheHooks     CacheHooks     = NoopCacheHooks{}
	hooksMu        sync.RWMutex
)

// SetCommandHooks registers custom command hooks.
// This should be called once at application startup before any dispatch.
func SetCommandHooks(h CommandHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		commandHooks = h
	}
}

// SetMigrationHooks registers custom migration hooks.
func SetMigrationHooks(h MigrationHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		migrationHooks = h
	}
}

// SetStorageHooks registers custom storage hooks.
func SetStorageHooks(h StorageHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storageHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Command returns the registered command hooks.
func Command() CommandHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return commandHooks
}

// Migration returns the registered migration hooks.
func Migration() MigrationHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return migrationHooks
}

// Storage returns the registered storage hooks.
func Storage() StorageHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storageHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	commandHooks = NoopCommandHooks{}
	migrationHooks = NoopMigrationHooks{}
	storageHooks = NoopStorageHooks{}
	cacheHooks = NoopCacheHooks{}
}
