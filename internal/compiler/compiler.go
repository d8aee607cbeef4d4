// Package compiler runs the external D compiler on generated files.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Outcome is the single thing reported about one compiler invocation.
type Outcome int

// Outcomes in reporting precedence: a process error hides stderr, stderr hides stdout.
const (
	OutcomeSilent       Outcome = iota // nothing worth reporting
	OutcomeProcessError                // the process failed to start or exited non-zero
	OutcomeStderr                      // the process wrote to stderr
	OutcomeStdout                      // the process wrote non-blank stdout
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSilent:
		return "ok"
	case OutcomeProcessError:
		return "error"
	case OutcomeStderr:
		return "stderr"
	case OutcomeStdout:
		return "stdout"
	default:
		return "unknown"
	}
}

// Failed reports whether the outcome indicates a failed compile.
func (o Outcome) Failed() bool {
	return o == OutcomeProcessError || o == OutcomeStderr
}

// Result describes one compiler invocation.
type Result struct {
	File     string
	Command  string
	Outcome  Outcome
	Text     string // the reported text for Outcome, empty when silent
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner compiles one generated file.
type Runner interface {
	Compile(ctx context.Context, file string) (*Result, error)
}

// Config configures a Compiler.
type Config struct {
	// Command is the compiler executable, e.g. "dmd".
	Command string
	// Args are passed before the file name.
	Args []string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Compiler runs an external compiler as a subprocess.
type Compiler struct {
	command string
	args    []string
	logger  *slog.Logger
}

// New creates a Compiler.
func New(cfg Config) *Compiler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
		logger:  logger,
	}
}

// String returns the command and arguments without a file name.
func (c *Compiler) String() string {
	return strings.Join(append([]string{c.command}, c.args...), " ")
}

// Compile runs the compiler on file from inside file's directory, passing only the
// base name. Problems with the compiler itself (missing binary, non-zero exit) are
// reported in the Result; the returned error is set only when ctx ends the run.
func (c *Compiler) Compile(ctx context.Context, file string) (*Result, error) {
	dir := filepath.Dir(file)
	base := filepath.Base(file)
	args := append(append([]string(nil), c.args...), base)

	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := strings.Join(append([]string{c.command}, args...), " ")
	c.logger.Debug("running compiler", slog.String("command", commandLine), slog.String("dir", dir))

	start := time.Now()
	runErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("compiling %s: %w", file, ctxErr)
	}

	res := &Result{
		File:     file,
		Command:  commandLine,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	res.Outcome, res.Text = Classify(commandLine, runErr, res.Stdout, res.Stderr)

	c.logger.Debug("compiler finished",
		slog.String("file", file),
		slog.String("outcome", res.Outcome.String()),
		slog.Int("exit_code", res.ExitCode),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

// Classify picks the one outcome to report for a finished process.
func Classify(commandLine string, runErr error, stdout, stderr string) (Outcome, string) {
	switch {
	case runErr != nil:
		msg := fmt.Sprintf("command failed: %s: %v", commandLine, runErr)
		if strings.TrimSpace(stderr) != "" {
			msg += "\n" + stderr
		}
		return OutcomeProcessError, msg
	case stderr != "":
		return OutcomeStderr, stderr
	case strings.TrimSpace(stdout) != "":
		return OutcomeStdout, stdout
	default:
		return OutcomeSilent, ""
	}
}
