package cli

import (
	"github.com/spf13/cobra"

	"github.com/devtoc/infograph/pkg/buildinfo"
	"github.com/devtoc/infograph/pkg/observability"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The persistent --config flag selects the configuration file. Before any
// subcommand runs the logger is attached to the command context and
// installed as the observability hook for every event category.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Infograph edits and inspects infographic documents",
		Long:         `Infograph loads infographic documents, migrates their widgets to the current schema, applies structural edits and renders the accessible reading order of each page.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			observability.NewLogHooks(c.Logger).Install()
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", c.ConfigPath, "configuration file (default $XDG_CONFIG_HOME/infograph/config.toml)")

	// Register all subcommands
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.applyCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
