package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/leapstack-labs/pseudod/internal/compiler"
	"github.com/leapstack-labs/pseudod/internal/state"
)

// contentHash ties a document's text to the pipeline that transforms it and to
// the compile step that follows. compileKey is empty when nothing is compiled.
func contentHash(fingerprint, compileKey, src string) string {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(compileKey))
	h.Write([]byte{0})
	h.Write([]byte(src))
	return hex.EncodeToString(h.Sum(nil))
}

// compileKey identifies the compile step, so an output written without compiling,
// or compiled by another command line, is not current once that changes.
func (e *Engine) compileKey() string {
	if !e.compile {
		return ""
	}
	if s, ok := e.compiler.(fmt.Stringer); ok {
		return "compile " + s.String()
	}
	return "compile"
}

// failedOutcome reports whether a stored outcome should force a rebuild.
func failedOutcome(outcome string) bool {
	switch outcome {
	case state.OutcomeRewriteFailed,
		compiler.OutcomeProcessError.String(),
		compiler.OutcomeStderr.String():
		return true
	}
	return false
}

// isCurrent reports whether res.Output was produced from the same text by the
// same pipeline and the last build of the source did not fail.
func (e *Engine) isCurrent(ctx context.Context, res *BuildResult) bool {
	if e.store == nil {
		return false
	}

	h, err := e.store.GetSourceHash(ctx, res.Source)
	if err != nil {
		e.logger.Warn("cache lookup failed", "source", res.Source, "error", err)
		return false
	}
	if h == nil || h.ContentHash != res.Hash || h.OutputPath != res.Output {
		return false
	}
	if _, err := os.Stat(res.Output); err != nil {
		return false
	}

	last, err := e.store.LastBuild(ctx, res.Source)
	if err != nil {
		e.logger.Warn("cache lookup failed", "source", res.Source, "error", err)
		return false
	}
	return last == nil || !failedOutcome(last.Outcome)
}

func (e *Engine) remember(ctx context.Context, res *BuildResult) {
	if e.store == nil {
		return
	}
	err := e.store.SetSourceHash(ctx, &state.SourceHash{
		SourcePath:  res.Source,
		ContentHash: res.Hash,
		OutputPath:  res.Output,
	})
	if err != nil {
		e.logger.Warn("failed to update cache", "source", res.Source, "error", err)
	}
}

func (e *Engine) forget(ctx context.Context, source string) {
	if e.store == nil {
		return
	}
	if err := e.store.DeleteSourceHash(ctx, source); err != nil {
		e.logger.Warn("failed to update cache", "source", source, "error", err)
	}
}

func (e *Engine) record(ctx context.Context, res *BuildResult, start time.Time) {
	if e.store == nil {
		return
	}

	b := &state.Build{
		SourcePath:  res.Source,
		OutputPath:  res.Output,
		ContentHash: res.Hash,
		Outcome:     res.Outcome(),
		StartedAt:   start,
		CompletedAt: start.Add(res.Duration),
	}
	switch {
	case res.Err != nil:
		b.Message = res.Err.Error()
	case res.Compile != nil:
		b.Message = res.Compile.Text
	}

	if err := e.store.RecordBuild(ctx, b); err != nil {
		e.logger.Warn("failed to record build", "source", res.Source, "error", err)
	}
}
