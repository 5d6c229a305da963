package cmd

import (
	"github.com/spf13/cobra"

	"github.com/derickschaefer/yojitsu/internal/model"
	"github.com/derickschaefer/yojitsu/internal/render"
)

// completionCmd wraps Cobra's built-in shell completion generator.
// Running `yojitsu completion bash` prints a script the user can source.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for yojitsu.

To load completions in the current shell session:

  # bash
  source <(yojitsu completion bash)

  # zsh
  source <(yojitsu completion zsh)

  # fish
  yojitsu completion fish | source

Persist across sessions by adding the source line to your shell profile
(~/.bashrc, ~/.zshrc, ~/.config/fish/completions/yojitsu.fish, etc.).`,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	DisableFlagsInUseLine: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return root.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return root.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
		default:
			return cmd.Help()
		}
	},
}

// ─── Value completions ───────────────────────────────────────────────────────

func fixedValues(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

func pageValues() []string {
	out := make([]string, len(model.Pages))
	for i, p := range model.Pages {
		out[i] = string(p)
	}
	return out
}

// completePageArg completes the first positional argument with page names.
func completePageArg(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	return pageValues(), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// registerCompletions attaches value completions to flags. It runs from
// Execute, after every command's init has defined its flags.
func registerCompletions() {
	kinds := fixedValues(string(model.KindPlan), string(model.KindActual))
	grans := fixedValues(string(model.GranularityHour), string(model.GranularityDay))

	for _, c := range []*cobra.Command{importCmd, storeGetCmd, storeDeleteCmd} {
		c.ValidArgsFunction = completePageArg
		_ = c.RegisterFlagCompletionFunc("kind", kinds)
	}
	for _, c := range []*cobra.Command{aggregateCmd, chartLineCmd, chartBarCmd, chartPieCmd, progressCmd, layoutApplyCmd, storeListCmd, layoutGraphsCmd} {
		_ = c.RegisterFlagCompletionFunc("page", fixedValues(pageValues()...))
	}
	for _, c := range []*cobra.Command{aggregateCmd, chartLineCmd, chartBarCmd} {
		_ = c.RegisterFlagCompletionFunc("granularity", grans)
	}
	_ = rootCmd.RegisterFlagCompletionFunc("format", fixedValues(render.Formats...))
}
