package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

// CandidateOutcomeStore implements storage.CandidateOutcomeStore using PostgreSQL.
type CandidateOutcomeStore struct {
	pool *Pool
}

// NewCandidateOutcomeStore creates a new CandidateOutcomeStore.
func NewCandidateOutcomeStore(pool *Pool) *CandidateOutcomeStore {
	return &CandidateOutcomeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandidateOutcomeStore = (*CandidateOutcomeStore)(nil)

const insertOutcomeQuery = `
	INSERT INTO candidate_outcomes (
		run_id, ordinal, candidate_id, snr, dm, status, stage, image_path, error
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

// Insert adds a single outcome. Returns ErrDuplicateKey if (run_id, ordinal) exists.
func (s *CandidateOutcomeStore) Insert(ctx context.Context, o *domain.CandidateOutcome) error {
	_, err := s.pool.Exec(ctx, insertOutcomeQuery,
		o.RunID, o.Ordinal, o.CandidateID, o.SNR, o.DM,
		string(o.Status), string(o.Stage), o.ImagePath, o.Error,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert candidate outcome: %w", err)
	}
	return nil
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *CandidateOutcomeStore) InsertBulk(ctx context.Context, outcomes []*domain.CandidateOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, o := range outcomes {
		_, err := tx.Exec(ctx, insertOutcomeQuery,
			o.RunID, o.Ordinal, o.CandidateID, o.SNR, o.DM,
			string(o.Status), string(o.Stage), o.ImagePath, o.Error,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert candidate outcome in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByRunID retrieves all outcomes for a run, ordered by ordinal ASC.
func (s *CandidateOutcomeStore) GetByRunID(ctx context.Context, runID string) ([]*domain.CandidateOutcome, error) {
	query := `
		SELECT run_id, ordinal, candidate_id, snr, dm, status, stage, image_path, error
		FROM candidate_outcomes
		WHERE run_id = $1
		ORDER BY ordinal ASC
	`

	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("get candidate outcomes by run id: %w", err)
	}
	defer rows.Close()

	return scanCandidateOutcomes(rows)
}

// GetByCandidateID retrieves all outcomes for a candidate across runs.
func (s *CandidateOutcomeStore) GetByCandidateID(ctx context.Context, candidateID string) ([]*domain.CandidateOutcome, error) {
	query := `
		SELECT run_id, ordinal, candidate_id, snr, dm, status, stage, image_path, error
		FROM candidate_outcomes
		WHERE candidate_id = $1
		ORDER BY run_id ASC, ordinal ASC
	`

	rows, err := s.pool.Query(ctx, query, candidateID)
	if err != nil {
		return nil, fmt.Errorf("get candidate outcomes by candidate id: %w", err)
	}
	defer rows.Close()

	return scanCandidateOutcomes(rows)
}

// scanCandidateOutcomes scans multiple rows into a slice of CandidateOutcome.
func scanCandidateOutcomes(rows pgx.Rows) ([]*domain.CandidateOutcome, error) {
	var outcomes []*domain.CandidateOutcome

	for rows.Next() {
		var o domain.CandidateOutcome
		var status, stage string

		err := rows.Scan(
			&o.RunID, &o.Ordinal, &o.CandidateID, &o.SNR, &o.DM,
			&status, &stage, &o.ImagePath, &o.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate outcome row: %w", err)
		}

		o.Status = domain.OutcomeStatus(status)
		o.Stage = domain.Stage(stage)
		outcomes = append(outcomes, &o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate outcome rows: %w", err)
	}

	return outcomes, nil
}
