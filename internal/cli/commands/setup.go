package commands

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/pseudod/internal/cli/config"
	"github.com/leapstack-labs/pseudod/internal/cli/output"
	"github.com/leapstack-labs/pseudod/internal/compiler"
	"github.com/leapstack-labs/pseudod/internal/engine"
	"github.com/leapstack-labs/pseudod/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())

	eng, err := CreateEngine(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close build cache", "error", err)
		}
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: newRenderer(cmd, cfg),
	}, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't touch the build cache or the compiler.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: newRenderer(cmd, cfg),
	}
}

func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// CreateEngine creates an engine from the current configuration. The build
// cache is opened (and migrated) only when caching is enabled.
func CreateEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	settings := cfg.BuildSettings()

	engineCfg := engine.Config{
		SourceExt: settings.SourceExt,
		TargetExt: settings.TargetExt,
		Compile:   settings.Compile,
		Jobs:      settings.Jobs,
		Logger:    logger,
	}
	if settings.Compile {
		engineCfg.Compiler = compiler.New(compiler.Config{
			Command: settings.Compiler,
			Args:    settings.CompilerArgs,
			Logger:  logger,
		})
	}

	if cfg.CacheEnabled() {
		store, err := state.OpenAndMigrate(cfg.CachePath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open build cache: %w", err)
		}
		engineCfg.Store = store
	}

	eng, err := engine.New(engineCfg)
	if err != nil {
		if engineCfg.Store != nil {
			_ = engineCfg.Store.Close()
		}
		return nil, err
	}
	return eng, nil
}
