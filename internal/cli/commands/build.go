package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/pseudod/internal/cli/output"
	"github.com/leapstack-labs/pseudod/internal/engine"
	"github.com/spf13/cobra"
)

// BuildOptions holds options for the build command.
type BuildOptions struct {
	Force bool
}

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build <path>...",
		Short: "Transpile documents to D and compile them",
		Long: `Transform each document into D source, write it beside the input with the
target extension and hand it to the compiler.

Directories are searched recursively for files with the source extension.
Unchanged documents whose previous build succeeded are skipped unless --force
is given.

Compiler output is reported as one of:
  error:   the compiler failed to run or exited non-zero
  stderr:  the compiler wrote diagnostics
  stdout:  the compiler printed something

A document that cannot be transformed fails the command. Compiler problems
only fail it with --strict.`,
		Example: `  # Build one document
  pseudod build sort.pd

  # Build every .pd file under src/
  pseudod build src/

  # Only transpile, do not compile
  pseudod build --no-compile src/

  # Fail on compiler diagnostics (for CI)
  pseudod build --strict --output json src/`,
		Aliases: []string{"run"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Rebuild even if the output is current")
	cmd.Flags().Bool("no-compile", false, "Write D sources without running the compiler")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string, opts *BuildOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	eng := cmdCtx.Engine
	r := cmdCtx.Renderer
	startTime := time.Now()

	sources, err := engine.ExpandSources(args, cmdCtx.Cfg.SourceExt, eng.TargetExt())
	if err != nil {
		return err
	}

	results, err := eng.BuildAll(cmd.Context(), sources, engine.BuildOptions{Force: opts.Force})
	if err != nil {
		return err
	}

	summary := summarize(results)
	switch r.EffectiveMode() {
	case output.ModeJSON:
		events := make([]output.BuildEvent, len(results))
		for i, res := range results {
			events[i] = buildEvent(res)
		}
		if err := r.JSON(output.BuildOutput{Builds: events, Summary: summary}); err != nil {
			return err
		}
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Build"))
		r.Println("")
		for _, res := range results {
			reportBuild(r, res)
		}
		r.Println("")
		r.Println(formatSummary(summary, time.Since(startTime)))
	default:
		for _, res := range results {
			reportBuild(r, res)
		}
		r.Println("")
		r.Muted(formatSummary(summary, time.Since(startTime)))
	}

	return buildError(results, cmdCtx.Cfg.Strict)
}

// buildError turns failed documents into the command's error.
func buildError(results []*engine.BuildResult, strict bool) error {
	if err := engine.ResultErrors(results); err != nil {
		return fmt.Errorf("%d document(s) failed to transform: %w", countTransformErrors(results), err)
	}
	if !strict {
		return nil
	}
	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d document(s) failed to compile", failed)
	}
	return nil
}

func countTransformErrors(results []*engine.BuildResult) int {
	n := 0
	for _, res := range results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func summarize(results []*engine.BuildResult) output.BuildSummary {
	s := output.BuildSummary{Total: len(results)}
	for _, res := range results {
		switch {
		case res.Failed():
			s.Failed++
		case res.Cached:
			s.Cached++
		default:
			s.Built++
		}
	}
	return s
}

func formatSummary(s output.BuildSummary, elapsed time.Duration) string {
	return fmt.Sprintf("%d built, %d cached, %d failed in %s",
		s.Built, s.Cached, s.Failed, elapsed.Round(time.Millisecond))
}

func buildEvent(res *engine.BuildResult) output.BuildEvent {
	ev := output.BuildEvent{
		Source:     res.Source,
		Output:     res.Output,
		Outcome:    res.Outcome(),
		Cached:     res.Cached,
		DurationMS: res.Duration.Milliseconds(),
	}
	switch {
	case res.Err != nil:
		ev.Message = res.Err.Error()
	case res.Compile != nil:
		ev.Message = res.Compile.Text
		ev.Command = res.Compile.Command
	}
	return ev
}

// reportBuild writes one result in text or markdown form. Compiler output is
// labelled error:, stderr: or stdout: after the status line.
func reportBuild(r *output.Renderer, res *engine.BuildResult) {
	status := res.Outcome()
	detail := res.Output
	if res.Cached {
		detail += " (up to date)"
	}
	r.StatusLine(res.Source, status, detail)

	var label, text string
	switch {
	case res.Err != nil:
		label, text = "error", res.Err.Error()
	case res.Compile != nil && res.Compile.Text != "":
		label, text = res.Compile.Outcome.String(), res.Compile.Text
	default:
		return
	}
	text = strings.TrimRight(text, "\n")

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("")
		r.Println(output.FormatCodeBlock("", label+": "+text))
		r.Println("")
		return
	}

	styles := r.Styles()
	style := styles.Warning
	if label != "stdout" {
		style = styles.Error
	}
	r.Printf("    %s %s\n", style.Render(label+":"), indentContinuation(text, "    "))
}

func indentContinuation(text, prefix string) string {
	return strings.ReplaceAll(text, "\n", "\n"+prefix)
}
