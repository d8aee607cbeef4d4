package commands

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/pseudod/internal/cli/output"
	"github.com/leapstack-labs/pseudod/internal/engine"
	"github.com/spf13/cobra"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "watch <path>...",
		Short: "Rebuild documents when they change",
		Long: `Build the given documents, then watch them and rebuild any document that
is written or created. Directories are watched recursively.

Press Ctrl+C to stop. With --output json every build is printed as one JSON
object per line.`,
		Example: `  # Watch a directory
  pseudod watch src/

  # Watch without compiling
  pseudod watch --no-compile sort.pd`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "Rebuild everything on start")
	cmd.Flags().Bool("no-compile", false, "Write D sources without running the compiler")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, opts *BuildOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.Muted("Watching for changes. Press Ctrl+C to stop.")
	return watch(ctx, cmdCtx.Engine, r, args, engine.BuildOptions{Force: opts.Force})
}

func watch(ctx context.Context, eng *engine.Engine, r *output.Renderer, paths []string, opts engine.BuildOptions) error {
	jsonLines := r.EffectiveMode() == output.ModeJSON
	enc := json.NewEncoder(r.Writer())
	return eng.Watch(ctx, paths, opts, func(res *engine.BuildResult) {
		if jsonLines {
			_ = enc.Encode(buildEvent(res))
			return
		}
		reportBuild(r, res)
	})
}
