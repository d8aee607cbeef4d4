// Package state records builds in a SQLite database: the content hash each source
// was last built from, and a history of build outcomes.
package state

import (
	"context"
	"time"
)

// Outcome values stored for a build. Compiler outcomes use the compiler's own
// labels ("ok", "error", "stderr", "stdout").
const (
	OutcomeRewriteFailed = "rewrite-failed"
	OutcomeNotCompiled   = "not-compiled"
)

// Build is one recorded build of a source document.
type Build struct {
	ID          string
	SourcePath  string
	OutputPath  string
	ContentHash string
	Outcome     string
	Message     string
	StartedAt   time.Time
	CompletedAt time.Time
}

// SourceHash is the content hash a source was last successfully built from.
type SourceHash struct {
	SourcePath  string
	ContentHash string
	OutputPath  string
	UpdatedAt   time.Time
}

// Store is the build cache used by the engine.
type Store interface {
	RecordBuild(ctx context.Context, b *Build) error
	LastBuild(ctx context.Context, sourcePath string) (*Build, error)
	ListBuilds(ctx context.Context, limit int) ([]*Build, error)
	GetSourceHash(ctx context.Context, sourcePath string) (*SourceHash, error)
	SetSourceHash(ctx context.Context, h *SourceHash) error
	DeleteSourceHash(ctx context.Context, sourcePath string) error
	Close() error
}
