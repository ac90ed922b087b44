package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/records"
)

// watchDebounce coalesces the bursts of events editors emit on save.
const watchDebounce = 150 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-validate a records file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runWatch(ctx context.Context, file string) error {
	logger := loggerFromContext(ctx)

	abs, err := filepath.Abs(file)
	if err != nil {
		return err
	}
	s, err := c.newSession(ctx, false, true)
	if err != nil {
		return err
	}
	defer s.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files on save.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	validate := func() {
		recs, err := records.ImportFile(abs)
		if err != nil {
			printError("%s: %v", file, err)
			return
		}
		vs, err := c.check(recs, s)
		if err != nil {
			printError("%s: %v", file, err)
			return
		}
		_ = reportViolations(file, vs)
	}

	validate()
	printInfo("Watching %s (ctrl+c to stop)", file)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != abs || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.Debug("file changed", "op", event.Op.String())
			debounce = time.After(watchDebounce)
		case <-debounce:
			debounce = nil
			validate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		}
	}
}
