package engine

// build.go - transform, write, compile and record one or more documents

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/pseudod/internal/compiler"
	"github.com/leapstack-labs/pseudod/internal/state"
	"golang.org/x/sync/errgroup"
)

// BuildOptions tunes a single build invocation.
type BuildOptions struct {
	// Force rebuilds even when the cache says the output is current
	Force bool
}

// BuildResult describes what happened to one source document.
type BuildResult struct {
	Source   string
	Output   string
	Hash     string
	Cached   bool             // skipped because the output is current
	Compile  *compiler.Result // nil when the compiler did not run
	Err      error            // read, rewrite or write failure
	Duration time.Duration
}

// Outcome returns the label recorded for this build.
func (r *BuildResult) Outcome() string {
	switch {
	case r.Err != nil:
		return state.OutcomeRewriteFailed
	case r.Cached:
		return "cached"
	case r.Compile == nil:
		return state.OutcomeNotCompiled
	default:
		return r.Compile.Outcome.String()
	}
}

// Failed reports whether the document could not be transformed or failed to compile.
func (r *BuildResult) Failed() bool {
	return r.Err != nil || (r.Compile != nil && r.Compile.Outcome.Failed())
}

// Build transforms one document, writes the output beside it and runs the
// compiler. The returned error covers usage errors and context cancellation; a
// document that fails to transform is reported through BuildResult.Err.
func (e *Engine) Build(ctx context.Context, path string, opts BuildOptions) (*BuildResult, error) {
	if err := ValidateSource(path, e.targetExt); err != nil {
		return nil, err
	}
	return e.build(ctx, path, opts)
}

// BuildAll validates every path first, then builds the documents concurrently,
// at most Jobs at a time. Results keep the order of paths.
func (e *Engine) BuildAll(ctx context.Context, paths []string, opts BuildOptions) ([]*BuildResult, error) {
	for _, p := range paths {
		if err := ValidateSource(p, e.targetExt); err != nil {
			return nil, err
		}
	}

	e.logger.Info("starting build", "documents", len(paths), "jobs", e.jobs, "force", opts.Force)

	results := make([]*BuildResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)
	for i, p := range paths {
		g.Go(func() error {
			res, err := e.build(gctx, p, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	e.logger.Info("build finished", "documents", len(results), "failed", failed)
	return results, nil
}

// ResultErrors joins the transformation errors of results, or returns nil.
func ResultErrors(results []*BuildResult) error {
	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) build(ctx context.Context, path string, opts BuildOptions) (*BuildResult, error) {
	start := time.Now()
	res := &BuildResult{Source: path, Output: OutputPath(path, e.targetExt)}

	src, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		res.Err = fmt.Errorf("failed to read %s: %w", path, err)
		res.Duration = time.Since(start)
		return res, nil
	}
	res.Hash = contentHash(e.pipeline.Fingerprint(), e.compileKey(), string(src))

	if !opts.Force && e.isCurrent(ctx, res) {
		res.Cached = true
		res.Duration = time.Since(start)
		e.logger.Debug("output is current", "source", path, "output", res.Output)
		return res, nil
	}

	header, err := ParseHeader(path, string(src))
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		e.forget(ctx, path)
		e.record(ctx, res, start)
		return res, nil
	}

	out, err := e.pipeline.Run(path, string(src))
	if err != nil {
		res.Err = err
		res.Duration = time.Since(start)
		e.logger.Warn("rewrite failed", "source", path, "error", err)
		e.forget(ctx, path)
		e.record(ctx, res, start)
		return res, nil
	}

	if err := os.WriteFile(res.Output, []byte(out), 0o644); err != nil { //nolint:gosec // G306: generated source file
		res.Err = fmt.Errorf("failed to write %s: %w", res.Output, err)
		res.Duration = time.Since(start)
		e.forget(ctx, path)
		e.record(ctx, res, start)
		return res, nil
	}
	e.logger.Debug("wrote output", "source", path, "output", res.Output, "bytes", len(out))

	if e.compile && header.CompileEnabled() {
		cres, err := e.compiler.Compile(ctx, res.Output)
		if err != nil {
			return nil, err
		}
		res.Compile = cres
	}

	res.Duration = time.Since(start)
	e.remember(ctx, res)
	e.record(ctx, res, start)
	return res, nil
}
