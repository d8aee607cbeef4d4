package commands

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/pseudod/internal/cli/output"
	"github.com/leapstack-labs/pseudod/internal/rewrite"
	"github.com/spf13/cobra"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Verbose bool   // Show the keyword remap table
	Format  string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rewrite rules in the order they run",
		Long: `List every rewrite rule of the pipeline in application order.

Use --verbose to also show the keyword remap table.

Output adapts to environment:
  - Terminal: Table
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List rules
  pseudod rules

  # Include the keyword remap table
  pseudod rules -V

  # Output as JSON
  pseudod rules --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show the keyword remap table")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	pipeline := rewrite.New(cmdCtx.Logger)
	info := rulesOutput(pipeline, opts.Verbose)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeMarkdown:
		return listRulesMarkdown(r, info)
	default:
		return listRulesText(r, info)
	}
}

func rulesOutput(p *rewrite.Pipeline, verbose bool) output.RulesOutput {
	out := output.RulesOutput{Fingerprint: p.Fingerprint()}
	for i, rule := range p.Rules() {
		out.Rules = append(out.Rules, output.RuleInfo{
			Position: i + 1,
			Name:     rule.Name,
			Summary:  rule.Summary,
		})
	}
	if verbose {
		for _, s := range rewrite.Substitutions() {
			out.Substitutions = append(out.Substitutions, output.SubstitutionInfo{
				Name:    s.Name,
				Dialect: s.Dialect,
				Target:  s.Target,
			})
		}
	}
	return out
}

// listRulesText outputs rules as tables.
func listRulesText(r *output.Renderer, info output.RulesOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("Rewrite Rules (%d)", len(info.Rules))))
	r.Println("")

	rules := newTable(r.Writer())
	rules.AppendHeader(table.Row{"#", "Rule", "Summary"})
	for _, rule := range info.Rules {
		rules.AppendRow(table.Row{rule.Position, rule.Name, rule.Summary})
	}
	rules.Render()

	if len(info.Substitutions) > 0 {
		r.Println("")
		r.Println(styles.Header2.Render("Keyword Remap Table"))
		r.Println("")

		subs := newTable(r.Writer())
		subs.AppendHeader(table.Row{"Name", "Dialect", "D"})
		for _, s := range info.Substitutions {
			subs.AppendRow(table.Row{s.Name, s.Dialect, s.Target})
		}
		subs.Render()
	}

	r.Println("")
	r.Println(styles.Muted.Render("Rules run top to bottom; each sees the output of the previous one."))
	r.Println("")
	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, info output.RulesOutput) error {
	r.Println(output.FormatHeader(1, "Rewrite Rules"))
	r.Println("")
	for _, rule := range info.Rules {
		r.Printf("%d. **%s** - %s\n", rule.Position, rule.Name, rule.Summary)
	}

	if len(info.Substitutions) > 0 {
		r.Println("")
		r.Println(output.FormatHeader(2, "Keyword Remap Table"))
		r.Println("")
		r.Println("| Name | Dialect | D |")
		r.Println("|------|---------|---|")
		for _, s := range info.Substitutions {
			r.Printf("| %s | `%s` | `%s` |\n", s.Name, s.Dialect, s.Target)
		}
	}

	r.Println("")
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}
