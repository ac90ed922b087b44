package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/docstore"
	"github.com/devtoc/infograph/pkg/engine"
	"github.com/devtoc/infograph/pkg/errors"
)

// applyOpts holds the command-line flags for the apply command.
type applyOpts struct {
	output  string // records file to write the result to
	save    bool   // save the result to storage
	check   bool   // reject commands that break document invariants
	noCache bool
}

// applyCommand creates the apply command for running editing scripts.
func (c *CLI) applyCommand() *cobra.Command {
	opts := applyOpts{check: true}

	cmd := &cobra.Command{
		Use:   "apply <file|id> <script.json>",
		Short: "Apply a script of editing commands to a document",
		Long: `Apply a JSON array of editing commands to a document. Each command is an
envelope {"type": "...", "payload": {...}}; supported types:

  ` + strings.Join(engine.CommandTypes(), ", ") + `

Every command is recorded in the configured undo history.`,
		Args: cobra.ExactArgs(2),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runApply(cmd.Context(), args[0], args[1], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the edited records to this file")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the edited document to storage")
	cmd.Flags().BoolVar(&opts.check, "check", opts.check, "reject commands that leave the document inconsistent")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the migration cache")

	return cmd
}

func (c *CLI) runApply(ctx context.Context, ref, script string, opts applyOpts) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	cmds, err := engine.UnmarshalCommands(data)
	if err != nil {
		return err
	}

	s, err := c.newSession(ctx, opts.save, opts.noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	doc, _, err := c.loadDocument(ctx, s, ref)
	if err != nil {
		return err
	}
	h, err := c.newHistory()
	if err != nil {
		return err
	}
	defer h.Close()

	store, err := docstore.New(ctx, doc,
		docstore.WithHistory(h),
		docstore.WithLogger(logger),
		docstore.WithChecks(opts.check),
	)
	if err != nil {
		return err
	}

	prog := newProgress(logger)
	results, err := store.DispatchAll(ctx, cmds)
	if err != nil {
		return err
	}
	prog.done("Applied commands", "doc", store.Document().ID, "commands", len(cmds))

	rows := make([][]string, len(results))
	skipped := 0
	for i, r := range results {
		status := "applied"
		if !r.Changed {
			status = "skipped"
			skipped++
		}
		rows[i] = []string{
			fmt.Sprint(i + 1),
			cmds[i].CommandType(),
			status,
			string(r.Page),
			joinIDs(r.Created),
			joinIDs(r.Removed),
		}
	}
	fmt.Println(renderTable([]string{"#", "Command", "Status", "Page", "Created", "Removed"}, rows))
	if skipped > 0 {
		printWarning("%d commands changed nothing", skipped)
	}

	result := store.Document()
	if opts.output != "" {
		if err := writeDocument(result, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}
	if opts.save {
		if err := s.loader.Save(ctx, result); err != nil {
			return err
		}
		printSuccess("Saved %s", result.ID)
	}
	if opts.output == "" && !opts.save {
		printNextStep("Keep the result", fmt.Sprintf("%s apply %s %s --output out.json", appName, ref, script))
	}
	return nil
}

func joinIDs[T ~string](ids []T) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " ")
}

// errNoDocument is returned by commands that need a stored document id.
func errNoDocument(ref string) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s is a file; this command needs a stored document id", ref)
}
