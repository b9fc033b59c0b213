package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowboard/pkg/registry"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowboard.

Bash:
  $ source <(flowboard completion bash)

Zsh:
  $ flowboard completion zsh > "${fpath[1]}/_flowboard"

Fish:
  $ flowboard completion fish > ~/.config/fish/completions/flowboard.fish

PowerShell:
  PS> flowboard completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeInstances completes the first argument with the ids on the
// saved board.
func (c *CLI) completeInstances(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := c.loadConfig(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := c.openBoard(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.store.Close()
	return s.board.Model().IDs(), cobra.ShellCompDirectiveNoFileComp
}

// completeDefinitions completes the first argument with definition ids.
func completeDefinitions(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var ids []string
	for _, d := range registry.Builtins().Definitions() {
		ids = append(ids, d.ID)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
