package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/internal/config"
	"github.com/devtoc/infograph/pkg/history"
)

// historyCommand creates the history management command.
func (c *CLI) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and clear the undo history of documents",
		Long: `Inspect and clear the persistent undo history. The history is only kept
across runs when the configuration selects the sqlite history backend.`,
	}

	cmd.AddCommand(c.historyListCommand())
	cmd.AddCommand(c.historyClearCommand())

	return cmd
}

// openHistory opens the configured history and warns when it does not
// outlive the process.
func (c *CLI) openHistory(ref string) (history.History, error) {
	if isFileRef(ref) {
		return nil, errNoDocument(ref)
	}
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	if cfg.History.Backend != config.HistorySQLite {
		printWarning("history backend is %q; nothing is kept between runs", cfg.History.Backend)
	}
	return c.newHistory()
}

// historyListCommand creates the "history list" subcommand.
func (c *CLI) historyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <id>",
		Short: "List the history entries of a document",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.openHistory(args[0])
			if err != nil {
				return err
			}
			defer h.Close()

			ctx := cmd.Context()
			entries, err := h.Entries(ctx, args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				printInfo("No history for %s", args[0])
				return nil
			}
			current, _, err := h.Current(ctx, args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, len(entries))
			for i, e := range entries {
				marker := ""
				if e.ID == current.ID {
					marker = "▸"
				}
				rows[i] = []string{marker, shortID(e.ID), shortID(e.ParentID), e.Label, e.CreatedAt.Format("2006-01-02 15:04:05")}
			}
			fmt.Println(renderTable([]string{"", "Entry", "Parent", "Command", "Recorded"}, rows))
			return nil
		},
	}
}

// historyClearCommand creates the "history clear" subcommand.
func (c *CLI) historyClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear <id>",
		Short: "Drop the history of a document",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := c.openHistory(args[0])
			if err != nil {
				return err
			}
			defer h.Close()

			if err := h.Clear(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Cleared history of %s", args[0])
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
