package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
)

// browseCommand creates the interactive browse command.
func (c *CLI) browseCommand() *cobra.Command {
	var page string

	cmd := &cobra.Command{
		Use:   "browse <file|id>",
		Short: "Step through the widgets of a page with Tab and Shift-Tab",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.newSession(ctx, false, false)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, _, err := c.loadDocument(ctx, s, args[0])
			if err != nil {
				return err
			}
			pid := document.PageID(page)
			if pid == "" {
				pid = firstPage(doc)
			}
			if _, ok := doc.Page(pid); !ok {
				return errors.New(errors.ErrCodePageNotFound, "page %s not found in %s", pid, doc.ID)
			}

			// The TUI owns the terminal; keep log output out of it.
			logger := loggerFromContext(ctx).With("cmd", "browse")
			logger.SetLevel(log.ErrorLevel)
			store, err := docstore.New(ctx, doc, docstore.WithLogger(logger))
			if err != nil {
				return err
			}

			_, err = tea.NewProgram(NewBrowseModel(ctx, store, pid), tea.WithContext(ctx)).Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&page, "page", "p", "", "page to browse (default: first page)")

	return cmd
}
