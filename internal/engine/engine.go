// Package engine turns dialect documents into D sources on disk and hands them to
// the compiler. It owns validation, output naming, the build cache and watch mode;
// the transformation itself lives in the rewrite package.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/leapstack-labs/pseudod/internal/compiler"
	sharedcfg "github.com/leapstack-labs/pseudod/internal/config"
	"github.com/leapstack-labs/pseudod/internal/rewrite"
	"github.com/leapstack-labs/pseudod/internal/state"
)

// DefaultDebounce is how long watch mode waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// Engine builds dialect documents.
type Engine struct {
	pipeline  *rewrite.Pipeline
	compiler  compiler.Runner
	store     state.Store
	logger    *slog.Logger
	sourceExt string
	targetExt string
	compile   bool
	jobs      int
	debounce  time.Duration
}

// Config holds engine configuration.
type Config struct {
	// SourceExt selects files when a directory is given (default ".pd")
	SourceExt string
	// TargetExt is the extension of generated files (default ".d")
	TargetExt string
	// Compile runs the compiler after writing each output
	Compile bool
	// Jobs limits how many documents are built at once
	Jobs int
	// Compiler runs the external compiler; required when Compile is set
	Compiler compiler.Runner
	// Store is the build cache (optional, builds are never skipped without one)
	Store state.Store
	// Pipeline overrides the default rewrite pipeline (optional)
	Pipeline *rewrite.Pipeline
	// Debounce overrides DefaultDebounce in watch mode (optional)
	Debounce time.Duration
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	build := sharedcfg.Build{
		SourceExt: cfg.SourceExt,
		TargetExt: cfg.TargetExt,
		Jobs:      cfg.Jobs,
	}
	sharedcfg.ApplyDefaults(&build)
	if err := sharedcfg.ValidateExtensions(build.SourceExt, build.TargetExt); err != nil {
		return nil, err
	}
	if cfg.Compile && cfg.Compiler == nil {
		return nil, fmt.Errorf("compile is enabled but no compiler is configured")
	}

	pipeline := cfg.Pipeline
	if pipeline == nil {
		pipeline = rewrite.New(logger)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	logger.Debug("initializing engine",
		"source_ext", build.SourceExt,
		"target_ext", build.TargetExt,
		"compile", cfg.Compile,
		"jobs", build.Jobs,
		"cache", cfg.Store != nil,
	)

	return &Engine{
		pipeline:  pipeline,
		compiler:  cfg.Compiler,
		store:     cfg.Store,
		logger:    logger,
		sourceExt: build.SourceExt,
		targetExt: build.TargetExt,
		compile:   cfg.Compile,
		jobs:      build.Jobs,
		debounce:  debounce,
	}, nil
}

// Close releases the build cache.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	return e.store.Close()
}

// Pipeline returns the rewrite pipeline the engine applies.
func (e *Engine) Pipeline() *rewrite.Pipeline {
	return e.pipeline
}

// Store returns the build cache, or nil when caching is off.
func (e *Engine) Store() state.Store {
	return e.store
}

// TargetExt returns the extension of generated files.
func (e *Engine) TargetExt() string {
	return e.targetExt
}

// Render transforms src without touching the filesystem. name identifies the
// document in errors.
func (e *Engine) Render(name, src string) (string, error) {
	return e.pipeline.Run(name, src)
}

// RenderFile validates and reads path, then transforms it.
func (e *Engine) RenderFile(path string) (string, error) {
	if err := ValidateSource(path, e.targetExt); err != nil {
		return "", err
	}
	src, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.Render(path, string(src))
}

// History returns up to limit recent builds, newest first.
func (e *Engine) History(ctx context.Context, limit int) ([]*state.Build, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.ListBuilds(ctx, limit)
}
