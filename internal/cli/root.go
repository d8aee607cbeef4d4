// Package cli provides the command-line interface for pseudod.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/pseudod/internal/cli/commands"
	"github.com/leapstack-labs/pseudod/internal/cli/config"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pseudod",
		Short: "pseudod - pseudocode to D transpiler",
		Long: `pseudod turns documents written in a pseudocode dialect into D source.

Each document runs through an ordered set of rewrite rules, is written beside
the input with the .d extension and is then handed to the D compiler ($DC,
default dmd). Unchanged documents are skipped using a local build cache.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			ctx := config.WithLogger(cmd.Context(), logger)
			ctx = config.WithConfig(ctx, cfg)
			cmd.SetContext(ctx)

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Pseudocode to D transpiler built with Go
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./pseudod.yaml)")
	flags.String("compiler", "", "D compiler to run (default: $DC or dmd)")
	flags.StringSlice("compiler-arg", nil, "Extra argument passed to the compiler (repeatable)")
	flags.Bool("no-cache", false, "Do not read or write the build cache")
	flags.String("cache-path", "", "Path to the build cache database")
	flags.IntP("jobs", "j", 0, "Number of documents built in parallel")
	flags.Bool("strict", false, "Fail when the compiler reports errors")
	flags.String("source-ext", "", "Extension of pseudocode documents (default: .pd)")
	flags.String("target-ext", "", "Extension of generated D sources (default: .d)")
	flags.BoolP("verbose", "v", false, "Verbose output")
	flags.StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewBuildCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewRenderCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for pseudod.

To load completions:

Bash:
  $ source <(pseudod completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ pseudod completion bash > /etc/bash_completion.d/pseudod
  # macOS:
  $ pseudod completion bash > $(brew --prefix)/etc/bash_completion.d/pseudod

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ pseudod completion zsh > "${fpath[1]}/_pseudod"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ pseudod completion fish | source

  # To load completions for each session, execute once:
  $ pseudod completion fish > ~/.config/fish/completions/pseudod.fish

PowerShell:
  PS> pseudod completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> pseudod completion powershell > pseudod.ps1
  # and source this file from your PowerShell profile.
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
	return cmd
}
