package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks reports every event to a logger at debug level. Failed
// operations are reported as warnings.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

// Install registers h for every hook category.
func (h *LogHooks) Install() {
	SetCommandHooks(h)
	SetMigrationHooks(h)
	SetStorageHooks(h)
	SetCacheHooks(h)
}

func (h *LogHooks) report(msg string, err error, keyvals ...any) {
	if err != nil {
		h.logger.Warn(msg, append(keyvals, "err", err)...)
		return
	}
	h.logger.Debug(msg, keyvals...)
}

func (h *LogHooks) OnCommand(_ context.Context, docID, command string, changed bool, d time.Duration, err error) {
	h.report("command", err, "doc", docID, "type", command, "changed", changed, "took", d)
}

func (h *LogHooks) OnHistory(_ context.Context, docID, action string, ok bool) {
	h.report(action, nil, "doc", docID, "applied", ok)
}

func (h *LogHooks) OnMigrationStart(_ context.Context, docID string, widgets int) {
	h.report("migrating", nil, "doc", docID, "widgets", widgets)
}

func (h *LogHooks) OnMigrationComplete(_ context.Context, docID string, upgraded int, d time.Duration, err error) {
	h.report("migrated", err, "doc", docID, "upgraded", upgraded, "took", d)
}

func (h *LogHooks) OnLoad(_ context.Context, backend, docID string, records int, d time.Duration, err error) {
	h.report("load", err, "backend", backend, "doc", docID, "records", records, "took", d)
}

func (h *LogHooks) OnSave(_ context.Context, backend, docID string, records int, d time.Duration, err error) {
	h.report("save", err, "backend", backend, "doc", docID, "records", records, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.report("cache hit", nil, "key", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.report("cache miss", nil, "key", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.report("cache set", nil, "key", keyType, "bytes", size)
}

var (
	_ CommandHooks   = (*LogHooks)(nil)
	_ MigrationHooks = (*LogHooks)(nil)
	_ StorageHooks   = (*LogHooks)(nil)
	_ CacheHooks     = (*LogHooks)(nil)
)
