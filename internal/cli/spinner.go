package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/devtoc/infograph/pkg/document"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line while a slow document operation (a
// migration, a graphviz render) runs. It stops when stop is called or ctx
// is done, whichever comes first, and leaves the line blank.
type spinner struct {
	w     io.Writer
	label string

	ctx     context.Context
	halt    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func newSpinner(ctx context.Context, w io.Writer, label string) *spinner {
	return &spinner{
		w:       w,
		label:   label,
		ctx:     ctx,
		halt:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *spinner) start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-s.halt:
				s.clear()
				return
			case <-ticker.C:
				frame := spinnerFrames[i%len(spinnerFrames)]
				fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
			}
		}
	}()
}

// stop halts the animation and waits for the line to be cleared. It may be
// called more than once.
func (s *spinner) stop() {
	s.once.Do(func() { close(s.halt) })
	<-s.stopped
}

func (s *spinner) clear() {
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", len(s.label)+4))
}

// withSpinner runs fn behind a spinner on stderr.
func withSpinner[T any](ctx context.Context, label string, fn func() (T, error)) (T, error) {
	s := newSpinner(ctx, os.Stderr, label)
	s.start()
	defer s.stop()
	return fn()
}

// migrateLabel describes a pending migration of doc.
func migrateLabel(doc *document.Document, pending int) string {
	return fmt.Sprintf("Migrating %s: %d of %d widgets on %d pages", doc.ID, pending, len(doc.Widgets), len(doc.Order))
}

// renderLabel describes the rendering of one page.
func renderLabel(doc *document.Document, pid document.PageID, format string) string {
	return fmt.Sprintf("Rendering %s/%s as %s: %d widgets", doc.ID, pid, format, len(doc.PageWidgets(pid)))
}
