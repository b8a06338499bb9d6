package postgres

import (
	"context"
	"fmt"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

// ExtractionRunStore implements storage.ExtractionRunStore using PostgreSQL.
type ExtractionRunStore struct {
	pool *Pool
}

// NewExtractionRunStore creates a new ExtractionRunStore.
func NewExtractionRunStore(pool *Pool) *ExtractionRunStore {
	return &ExtractionRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ExtractionRunStore = (*ExtractionRunStore)(nil)

// Insert adds a finished run. Returns ErrDuplicateKey if run_id exists.
func (s *ExtractionRunStore) Insert(ctx context.Context, r *domain.ExtractionRun) error {
	query := `
		INSERT INTO extraction_runs (
			run_id, zap_mode, output_dir, attempted, succeeded, started_at, finished_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		r.RunID, r.ZapMode, r.OutputDir, r.Attempted, r.Succeeded, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert extraction run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ExtractionRunStore) GetByID(ctx context.Context, runID string) (*domain.ExtractionRun, error) {
	query := `
		SELECT run_id, zap_mode, output_dir, attempted, succeeded, started_at, finished_at
		FROM extraction_runs
		WHERE run_id = $1
	`

	var r domain.ExtractionRun
	err := s.pool.QueryRow(ctx, query, runID).Scan(
		&r.RunID, &r.ZapMode, &r.OutputDir, &r.Attempted, &r.Succeeded, &r.StartedAt, &r.FinishedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get extraction run by id: %w", err)
	}
	return &r, nil
}

// GetRecent retrieves the most recent runs, ordered by started_at DESC.
func (s *ExtractionRunStore) GetRecent(ctx context.Context, limit int) ([]*domain.ExtractionRun, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT run_id, zap_mode, output_dir, attempted, succeeded, started_at, finished_at
		FROM extraction_runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent extraction runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.ExtractionRun
	for rows.Next() {
		var r domain.ExtractionRun
		err := rows.Scan(
			&r.RunID, &r.ZapMode, &r.OutputDir, &r.Attempted, &r.Succeeded, &r.StartedAt, &r.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan extraction run row: %w", err)
		}
		runs = append(runs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction run rows: %w", err)
	}

	return runs, nil
}
