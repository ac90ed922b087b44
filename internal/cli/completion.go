package cli

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for infograph.

To load completions:

Bash:
  $ source <(infograph completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ infograph completion bash > /etc/bash_completion.d/infograph
  # macOS:
  $ infograph completion bash > $(brew --prefix)/etc/bash_completion.d/infograph

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ infograph completion zsh > "${fpath[1]}/_infograph"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ infograph completion fish | source

  # To load completions for each session, execute once:
  $ infograph completion fish > ~/.config/fish/completions/infograph.fish

PowerShell:
  PS> infograph completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> infograph completion powershell > infograph.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(os.Stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}

	return cmd
}

// completeDocuments completes the document argument of a command with the
// ids of stored documents. Shell file completion stays on, since a records
// file is accepted as well.
func (c *CLI) completeDocuments(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ids, err := c.documentIDs(ctx, toComplete)
	if err != nil {
		c.Logger.Debug("document completion", "err", err)
		return nil, cobra.ShellCompDirectiveDefault
	}
	return ids, cobra.ShellCompDirectiveDefault
}

// documentIDs lists stored document ids starting with prefix, sorted.
func (c *CLI) documentIDs(ctx context.Context, prefix string) ([]string, error) {
	repo, err := c.openRepo(ctx)
	if err != nil {
		return nil, err
	}
	defer repo.Close()
	ids, err := repo.List(ctx)
	if err != nil {
		return nil, err
	}
	ids = slices.DeleteFunc(ids, func(id string) bool { return !strings.HasPrefix(id, prefix) })
	slices.Sort(ids)
	return ids, nil
}
