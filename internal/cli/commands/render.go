package commands

import (
	"fmt"

	"github.com/leapstack-labs/pseudod/internal/cli/output"
	"github.com/leapstack-labs/pseudod/internal/engine"
	"github.com/spf13/cobra"
)

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Print the generated D source for a file",
		Long: `Run the rewrite pipeline on a file and print the result without writing
it to disk or invoking the compiler.

This is useful for checking what a document turns into before building it.

Output adapts to environment:
  - Terminal: Plain D source
  - Piped/Scripted: Markdown with code block`,
		Example: `  # Render a document
  pseudod render sort.pd

  # Render and save to file
  pseudod render sort.pd > sort.d

  # Render as JSON
  pseudod render sort.pd --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0])
		},
	}

	return cmd
}

func runRender(cmd *cobra.Command, path string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	// Rendering needs neither the cache nor the compiler.
	eng, err := engine.New(engine.Config{
		SourceExt: cmdCtx.Cfg.SourceExt,
		TargetExt: cmdCtx.Cfg.TargetExt,
		Logger:    cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	code, err := eng.RenderFile(path)
	if err != nil {
		if engine.IsUsageError(err) {
			return err
		}
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.RenderOutput{
			File:   path,
			Output: engine.OutputPath(path, eng.TargetExt()),
			Code:   code,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Rendered D: %s", path)))
		r.Println("")
		r.Println(output.FormatCodeBlock("d", code))
	default:
		// Text mode: just output the code directly
		r.Printf("%s", code)
	}

	return nil
}
