package commands

import (
	"fmt"
	"os/exec"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/pseudod/internal/cli/config"
	"github.com/leapstack-labs/pseudod/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/pseudod/internal/config"
	"github.com/leapstack-labs/pseudod/internal/rewrite"
	"github.com/leapstack-labs/pseudod/internal/state"
	"github.com/spf13/cobra"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment can build documents",
		Long: `Check the configuration, the D compiler and the build cache.

The doctor command reports:
- Which configuration file is in use
- Whether the source and target extensions are usable
- Whether the compiler can be found on PATH
- Whether the build cache opens and which schema version it has

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run the checks
  pseudod doctor

  # Output as JSON
  pseudod doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	ConfigFile  string        `json:"config_file,omitempty"`
	ProjectRoot string        `json:"project_root"`
	Fingerprint string        `json:"fingerprint"`
	Checks      []HealthCheck `json:"checks"`
	IssueCount  int           `json:"issue_count"`
}

// HealthCheck represents a single check result.
type HealthCheck struct {
	Name    string `json:"name"`
	Group   string `json:"group"`
	Status  string `json:"status"` // "pass", "warn", "error"
	Details string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	// Override renderer if format flag is set
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	out := &DoctorOutput{
		ConfigFile:  config.GetConfigFileUsed(),
		ProjectRoot: cfg.ProjectRoot,
		Fingerprint: rewrite.New(cmdCtx.Logger).Fingerprint(),
	}
	out.Checks = append(out.Checks,
		checkConfigFile(out.ConfigFile),
		checkExtensions(cfg),
		checkCompiler(cfg),
		checkCache(cfg),
	)
	for _, c := range out.Checks {
		if c.Status == checkError {
			out.IssueCount++
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func checkConfigFile(path string) HealthCheck {
	c := HealthCheck{Name: "config file", Group: "configuration", Status: checkPass}
	if path == "" {
		c.Details = "none found, using defaults"
	} else {
		c.Details = path
	}
	return c
}

func checkExtensions(cfg *config.Config) HealthCheck {
	c := HealthCheck{Name: "extensions", Group: "configuration", Status: checkPass}
	if err := sharedcfg.ValidateExtensions(cfg.SourceExt, cfg.TargetExt); err != nil {
		c.Status = checkError
		c.Details = err.Error()
		return c
	}
	c.Details = fmt.Sprintf("%s -> %s", cfg.SourceExt, cfg.TargetExt)
	return c
}

func checkCompiler(cfg *config.Config) HealthCheck {
	c := HealthCheck{Name: "compiler", Group: "toolchain", Status: checkPass}
	if !cfg.Compile {
		c.Status = checkWarn
		c.Details = "compilation disabled"
		return c
	}
	path, err := exec.LookPath(cfg.Compiler)
	if err != nil {
		c.Status = checkError
		c.Details = fmt.Sprintf("%s not found on PATH (set $%s or compiler in %s)",
			cfg.Compiler, sharedcfg.CompilerEnvVar, config.ConfigFileName)
		return c
	}
	c.Details = path
	if len(cfg.CompilerArgs) > 0 {
		c.Details += " " + strings.Join(cfg.CompilerArgs, " ")
	}
	return c
}

func checkCache(cfg *config.Config) HealthCheck {
	c := HealthCheck{Name: "build cache", Group: "cache", Status: checkPass}
	if !cfg.CacheEnabled() {
		c.Status = checkWarn
		c.Details = "disabled, every build recompiles"
		return c
	}
	store, err := state.OpenAndMigrate(cfg.CachePath, nil)
	if err != nil {
		c.Status = checkError
		c.Details = err.Error()
		return c
	}
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion()
	if err != nil {
		c.Status = checkError
		c.Details = err.Error()
		return c
	}
	c.Details = fmt.Sprintf("%s (schema v%d)", store.Path(), version)
	return c
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("pseudod Environment Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Printf("   Project root: %s\n", styles.Path.Render(out.ProjectRoot))
	r.Printf("   Pipeline: %s\n", out.Fingerprint)
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Status {
		case checkWarn:
			icon = styles.Warning.Render("!")
		case checkError:
			icon = styles.Error.Render("✗")
		}
		r.Printf("   %s %s: %s\n", icon, check.Name, check.Details)
	}
	r.Println("")

	if out.IssueCount > 0 {
		r.Println(styles.Error.Render(fmt.Sprintf("   %d problem(s) found", out.IssueCount)))
	} else {
		r.Println(styles.Success.Render("   Ready to build"))
	}
	r.Println("")
	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# pseudod Environment Report")
	r.Println("")
	r.Printf("- **Project root**: %s\n", out.ProjectRoot)
	r.Printf("- **Pipeline**: `%s`\n", out.Fingerprint)
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("## " + titleCaser.String(currentGroup))
			r.Println("")
		}
		r.Printf("- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.Name, check.Details)
	}
	r.Println("")
	r.Printf("**%d problem(s)**\n", out.IssueCount)
	r.Println("")
	return nil
}
