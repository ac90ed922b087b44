// Package cli implements the infograph command-line interface.
//
// Commands load infographic documents either from a records file (a JSON
// object keyed by record path) or by id from the configured storage
// backend, bring them to the current widget schema, and inspect, edit or
// render them. The CLI is built using cobra and supports verbose logging
// via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - migrate, validate, inspect: Load a document and report on it
//   - apply: Run a script of editing commands against a document
//   - tree: Render a page's reading-order tree as DOT, SVG, PDF or PNG
//   - browse: Step through a page with Tab and Shift-Tab
//   - serve: Expose the editing API over HTTP
//   - watch: Re-validate a records file whenever it changes
//   - history, cache: Manage undo history and the migration cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/devtoc/infograph/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger: timestamps as "15:04:05.00", messages
// below level dropped.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one document operation and logs its outcome with the
// elapsed time as a structured field.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg at info level with keyvals and an "elapsed" field rounded
// to the millisecond, e.g. "Migrated document doc=report upgraded=3 elapsed=12ms".
func (p *progress) done(msg string, keyvals ...any) {
	keyvals = append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))
	p.logger.Info(msg, keyvals...)
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches the command logger to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the command logger, or log.Default() for a
// context that did not pass through the root command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
