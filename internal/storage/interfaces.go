package storage

import (
	"context"

	"candpipe/internal/domain"
)

// ExtractionRunStore provides access to extraction_runs storage.
type ExtractionRunStore interface {
	// Insert adds a finished run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.ExtractionRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.ExtractionRun, error)

	// GetRecent retrieves the most recent runs, ordered by started_at DESC.
	GetRecent(ctx context.Context, limit int) ([]*domain.ExtractionRun, error)
}

// CandidateOutcomeStore provides access to candidate_outcomes storage.
type CandidateOutcomeStore interface {
	// Insert adds a single outcome. Returns ErrDuplicateKey if (run_id, ordinal) exists.
	Insert(ctx context.Context, o *domain.CandidateOutcome) error

	// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, outcomes []*domain.CandidateOutcome) error

	// GetByRunID retrieves all outcomes for a run, ordered by ordinal ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.CandidateOutcome, error)

	// GetByCandidateID retrieves all outcomes for a candidate across runs.
	GetByCandidateID(ctx context.Context, candidateID string) ([]*domain.CandidateOutcome, error)
}

// CandidateArchiveStore provides access to candidate_archive storage.
type CandidateArchiveStore interface {
	// InsertBulk adds multiple candidates. Fails entire batch on duplicate (run_id, candidate_id).
	InsertBulk(ctx context.Context, rows []*domain.ArchivedCandidate) error

	// GetByRunID retrieves all candidates for a run, ordered by global_time ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.ArchivedCandidate, error)

	// GetByTimeRange retrieves candidates for a run with global_time within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, runID string, start, end float64) ([]*domain.ArchivedCandidate, error)
}
