package commands

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/pseudod/internal/cli/output"
	"github.com/leapstack-labs/pseudod/internal/state"
	"github.com/spf13/cobra"
)

// DefaultHistoryLimit is the number of builds shown when no limit is given.
const DefaultHistoryLimit = 20

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent builds from the build cache",
		Long: `Show the most recent builds recorded in the build cache, newest first.

Builds that were skipped because their output was current are not recorded.`,
		Example: `  # Last 20 builds
  pseudod history

  # Last 5 builds as JSON
  pseudod history -n 5 --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", DefaultHistoryLimit, "Maximum number of builds to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	if !cmdCtx.Cfg.CacheEnabled() {
		r.Warning("Build cache is disabled; no history is kept.")
		return nil
	}

	builds, err := cmdCtx.Engine.History(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}
	entries := historyEntries(builds)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.HistoryOutput{Builds: entries, Count: len(entries)})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Build History"))
		r.Println("")
		for _, e := range entries {
			line := "- " + e.StartedAt.Local().Format(time.DateTime) + " `" + e.Source + "` **" + e.Outcome + "**"
			if e.Message != "" {
				line += " " + firstLine(e.Message)
			}
			r.Println(line)
		}
		r.Println("")
	default:
		if len(entries) == 0 {
			r.Muted("No builds recorded yet.")
			return nil
		}
		t := newTable(r.Writer())
		t.AppendHeader(table.Row{"Started", "Source", "Outcome", "Duration", "Message"})
		for _, e := range entries {
			t.AppendRow(table.Row{
				e.StartedAt.Local().Format(time.DateTime),
				e.Source,
				e.Outcome,
				e.CompletedAt.Sub(e.StartedAt).Round(time.Millisecond),
				firstLine(e.Message),
			})
		}
		t.Render()
	}
	return nil
}

func historyEntries(builds []*state.Build) []output.HistoryEntry {
	entries := make([]output.HistoryEntry, 0, len(builds))
	for _, b := range builds {
		entries = append(entries, output.HistoryEntry{
			ID:          b.ID,
			Source:      b.SourcePath,
			Output:      b.OutputPath,
			Outcome:     b.Outcome,
			Message:     b.Message,
			StartedAt:   b.StartedAt,
			CompletedAt: b.CompletedAt,
		})
	}
	return entries
}

func firstLine(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i] + " ..."
		}
	}
	return s
}
