package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetSourceHash retrieves the stored hash for a source path, or nil if there is none.
func (s *SQLiteStore) GetSourceHash(ctx context.Context, sourcePath string) (*SourceHash, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	h := &SourceHash{SourcePath: sourcePath}
	var updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT content_hash, output_path, updated_at FROM source_hashes WHERE source_path = ?`,
		sourcePath,
	).Scan(&h.ContentHash, &h.OutputPath, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source hash: %w", err)
	}

	if h.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return h, nil
}

// SetSourceHash stores the hash for a source path, replacing any previous one.
func (s *SQLiteStore) SetSourceHash(ctx context.Context, h *SourceHash) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if h.UpdatedAt.IsZero() {
		h.UpdatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_hashes (source_path, content_hash, output_path, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(source_path) DO UPDATE SET
		     content_hash = excluded.content_hash,
		     output_path = excluded.output_path,
		     updated_at = excluded.updated_at`,
		h.SourcePath, h.ContentHash, h.OutputPath, formatTime(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to set source hash: %w", err)
	}
	return nil
}

// DeleteSourceHash removes the hash for a source path.
func (s *SQLiteStore) DeleteSourceHash(ctx context.Context, sourcePath string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM source_hashes WHERE source_path = ?`, sourcePath); err != nil {
		return fmt.Errorf("failed to delete source hash: %w", err)
	}
	return nil
}
