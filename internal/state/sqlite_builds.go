package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const buildColumns = `id, source_path, output_path, content_hash, outcome, message, started_at, completed_at`

// RecordBuild inserts a build. ID and timestamps are filled in when empty.
func (s *SQLiteStore) RecordBuild(ctx context.Context, b *Build) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if b.ID == "" {
		b.ID = generateID()
	}
	now := time.Now().UTC()
	if b.StartedAt.IsZero() {
		b.StartedAt = now
	}
	if b.CompletedAt.IsZero() {
		b.CompletedAt = now
	}

	s.logger.Debug("recording build",
		slog.String("id", b.ID),
		slog.String("source", b.SourcePath),
		slog.String("outcome", b.Outcome),
	)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (`+buildColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.SourcePath, b.OutputPath, b.ContentHash, b.Outcome, b.Message,
		formatTime(b.StartedAt), formatTime(b.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// LastBuild returns the most recent build of sourcePath, or nil if it was never built.
func (s *SQLiteStore) LastBuild(ctx context.Context, sourcePath string) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+buildColumns+` FROM builds WHERE source_path = ?
		 ORDER BY started_at DESC, rowid DESC LIMIT 1`,
		sourcePath,
	)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last build: %w", err)
	}
	return b, nil
}

// ListBuilds returns the most recent builds, newest first. limit <= 0 means no limit.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (*Build, error) {
	b := &Build{}
	var started, completed string
	if err := row.Scan(&b.ID, &b.SourcePath, &b.OutputPath, &b.ContentHash,
		&b.Outcome, &b.Message, &started, &completed); err != nil {
		return nil, err
	}

	var err error
	if b.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if b.CompletedAt, err = parseTime(completed); err != nil {
		return nil, err
	}
	return b, nil
}
