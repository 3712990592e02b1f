package cli

import (
	"context"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hupe1980/coursetree/internal/config"
	"github.com/hupe1980/coursetree/internal/filter"
	"github.com/hupe1980/coursetree/internal/output"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for coursetree.

Besides commands and flags, the scripts complete --profile with the
built-in profiles plus any custom profiles found in --profiles-file or
the config file, and --format with the supported output formats.

To load completions:

Bash:
  $ source <(coursetree completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ coursetree completion bash > /etc/bash_completion.d/coursetree

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ coursetree completion zsh > "${fpath[1]}/_coursetree"

Fish:
  $ coursetree completion fish > ~/.config/fish/completions/coursetree.fish

PowerShell:
  PS> coursetree completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> coursetree completion powershell > coursetree.ps1
  # and source this file from your PowerShell profile.
`,
		// Completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

// completeProfiles offers built-in profile names followed by custom ones.
// Cobra skips PersistentPreRunE while completing, so the profile sources
// are read straight from the flags.
func completeProfiles(cmd *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	names := filter.BuiltinProfileNames()

	for _, name := range customProfileNames(cmd) {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	return names, cobra.ShellCompDirectiveNoFileComp
}

// customProfileNames returns the sorted custom profile names, or nil when
// none can be read. Completion never reports errors.
func customProfileNames(cmd *cobra.Command) []string {
	cfg := config.Default()
	cfg.ProfilesFile, _ = cmd.Flags().GetString("profiles-file")

	ctx := context.Background()
	if f := cmd.Flag("config"); f != nil && f.Value.String() != "" {
		ctx = config.NewContextWithConfigFile(ctx, f.Value.String())
	}

	custom, err := loadCustomProfiles(ctx, cfg)
	if err != nil {
		return nil
	}

	return slices.Sorted(maps.Keys(custom))
}

func completeFormats(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return []string{output.FormatYAML, output.FormatJSON}, cobra.ShellCompDirectiveNoFileComp
}
