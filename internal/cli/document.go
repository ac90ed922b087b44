package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/document"
	"github.com/devtoc/infograph/pkg/errors"
	"github.com/devtoc/infograph/pkg/records"
	"github.com/devtoc/infograph/pkg/tree"
	"github.com/devtoc/infograph/pkg/widget"
)

// =============================================================================
// migrate
// =============================================================================

// migrateOpts holds the command-line flags for the migrate command.
type migrateOpts struct {
	output  string // records file to write; stdout when empty
	save    bool   // write the migrated document back to storage
	noCache bool   // bypass the migration cache
}

// migrateCommand creates the migrate command.
func (c *CLI) migrateCommand() *cobra.Command {
	var opts migrateOpts

	cmd := &cobra.Command{
		Use:   "migrate <file|id>",
		Short: "Upgrade every widget of a document to the current schema",
		Long: `Load a document, run every pending widget schema migration and write the
result. Without --output or --save the migrated records are printed to stdout.`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMigrate(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the migrated records to this file")
	cmd.Flags().BoolVar(&opts.save, "save", false, "save the migrated document to storage")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the migration cache")

	return cmd
}

func (c *CLI) runMigrate(ctx context.Context, ref string, opts migrateOpts) error {
	logger := loggerFromContext(ctx)

	s, err := c.newSession(ctx, opts.save, opts.noCache)
	if err != nil {
		return err
	}
	defer s.Close()

	recs, err := c.readRecords(ctx, s, ref)
	if err != nil {
		return err
	}
	raw, err := records.Assemble(recs)
	if err != nil {
		return err
	}
	pending := s.loader.Migrator.Pending(raw.Widgets)

	type decoded struct {
		doc    *document.Document
		cached bool
	}
	prog := newProgress(logger)
	res, err := withSpinner(ctx, migrateLabel(raw, len(pending)), func() (decoded, error) {
		doc, cached, err := s.loader.Decode(ctx, recs)
		return decoded{doc, cached}, err
	})
	if err != nil {
		return err
	}
	doc, cached := res.doc, res.cached
	prog.done("Migrated document", "doc", doc.ID, "upgraded", len(pending))

	if opts.output == "" && !opts.save {
		return writeDocument(doc, "-")
	}

	printSuccess("Upgraded %d of %d widgets", len(pending), len(doc.Widgets))
	printStats(len(doc.Order), len(doc.Widgets), cached)
	if opts.output != "" {
		if err := writeDocument(doc, opts.output); err != nil {
			return err
		}
		printFile(opts.output)
	}
	if opts.save {
		if err := s.loader.Save(ctx, doc); err != nil {
			return err
		}
		printDetail("Saved %s", doc.ID)
	}
	return nil
}

// =============================================================================
// validate
// =============================================================================

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|id>",
		Short: "Check the structural invariants of a document",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context(), false, true)
			if err != nil {
				return err
			}
			defer s.Close()

			recs, err := c.readRecords(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			vs, err := c.check(recs, s)
			if err != nil {
				return err
			}
			return reportViolations(args[0], vs)
		},
	}
}

// check assembles and migrates recs without the cache and returns every
// violation of the result.
func (c *CLI) check(recs []records.Record, s *session) ([]document.Violation, error) {
	doc, err := records.Assemble(recs)
	if err != nil {
		return nil, err
	}
	doc, err = s.loader.Migrator.MigrateDocument(doc)
	if err != nil {
		return nil, err
	}
	return document.Check(doc), nil
}

func reportViolations(ref string, vs []document.Violation) error {
	if len(vs) == 0 {
		printSuccess("%s is consistent", ref)
		return nil
	}

	rows := make([][]string, len(vs))
	for i, v := range vs {
		rows[i] = []string{string(v.Rule), string(v.Page), string(v.Widget), v.Message}
	}
	printError("%s has %d violations", ref, len(vs))
	fmt.Println(renderTable([]string{"Rule", "Page", "Widget", "Problem"}, rows))
	return errors.New(errors.ErrCodeInconsistent, "%s: %d violations", ref, len(vs))
}

// =============================================================================
// inspect
// =============================================================================

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var page string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "inspect <file|id>",
		Short: "Show the pages and widgets of a document",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: c.completeDocuments,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.newSession(cmd.Context(), false, noCache)
			if err != nil {
				return err
			}
			defer s.Close()

			doc, _, err := c.loadDocument(cmd.Context(), s, args[0])
			if err != nil {
				return err
			}
			if page != "" {
				return inspectPage(doc, document.PageID(page))
			}
			inspectDocument(doc)
			return nil
		},
	}

	cmd.Flags().StringVarP(&page, "page", "p", "", "list the widgets of one page")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the migration cache")

	return cmd
}

func inspectDocument(doc *document.Document) {
	fmt.Println(StyleTitle.Render(doc.Title))
	printKeyValue("ID", doc.ID)
	printKeyValue("Language", doc.Language)
	printKeyValue("Page size", fmt.Sprintf("%gx%g", doc.PageSize.Width, doc.PageSize.Height))
	printKeyValue("Swatch", strings.Join(doc.Swatch, " "))
	printNewline()

	rows := make([][]string, 0, len(doc.Order))
	for i, pid := range doc.Order {
		p, ok := doc.Page(pid)
		if !ok {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			string(pid),
			strconv.Itoa(len(p.LayerOrder)),
			strconv.Itoa(len(doc.PageWidgets(pid))),
			strconv.Itoa(len(tree.Flatten(p.Tree))),
		})
	}
	fmt.Println(renderTable([]string{"#", "Page", "Top-level", "Widgets", "Reading order"}, rows))
	printNewline()
	printNextStep("List the widgets of a page", fmt.Sprintf("%s inspect %s --page %s", appName, doc.ID, firstPage(doc)))
}

func inspectPage(doc *document.Document, pid document.PageID) error {
	p, ok := doc.Page(pid)
	if !ok {
		return errors.New(errors.ErrCodePageNotFound, "page %s not found in %s", pid, doc.ID)
	}
	parents := document.BuildParentIndex(doc)

	reading := map[widget.ID]int{}
	for i, id := range tree.Flatten(p.Tree) {
		reading[id] = i + 1
	}

	var rows [][]string
	for _, id := range doc.PageWidgets(pid) {
		w := doc.Widgets[id]
		layer, order, parent := "", "", ""
		if i := p.LayerIndex(id); i >= 0 {
			layer = strconv.Itoa(i)
		}
		if n, ok := reading[id]; ok {
			order = strconv.Itoa(n)
		}
		if owner, ok := parents.ParentID(id); ok {
			parent = string(owner)
		}
		rows = append(rows, []string{layer, order, string(id), string(w.Kind()), strconv.Itoa(w.Version()), flags(w), parent})
	}

	fmt.Println(StyleTitle.Render(fmt.Sprintf("%s / %s", doc.Title, pid)))
	fmt.Println(renderTable([]string{"Layer", "Read", "Widget", "Kind", "Ver", "Flags", "Parent"}, rows))
	return nil
}

func flags(w widget.Data) string {
	var out []string
	if w.IsHidden() {
		out = append(out, "hidden")
	}
	if w.IsLocked() {
		out = append(out, "locked")
	}
	return strings.Join(out, ",")
}

func firstPage(doc *document.Document) document.PageID {
	if len(doc.Order) == 0 {
		return ""
	}
	return doc.Order[0]
}
