package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

// CandidateOutcomeStore is an in-memory implementation of storage.CandidateOutcomeStore.
type CandidateOutcomeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CandidateOutcome // keyed by run_id/ordinal
}

// NewCandidateOutcomeStore creates a new in-memory outcome store.
func NewCandidateOutcomeStore() *CandidateOutcomeStore {
	return &CandidateOutcomeStore{
		data: make(map[string]*domain.CandidateOutcome),
	}
}

// Compile-time interface check.
var _ storage.CandidateOutcomeStore = (*CandidateOutcomeStore)(nil)

func outcomeKey(runID string, ordinal int) string {
	return fmt.Sprintf("%s/%d", runID, ordinal)
}

// Insert adds a single outcome. Returns ErrDuplicateKey if (run_id, ordinal) exists.
func (s *CandidateOutcomeStore) Insert(_ context.Context, o *domain.CandidateOutcome) error {
	if o == nil || o.RunID == "" || o.Ordinal < 1 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := outcomeKey(o.RunID, o.Ordinal)
	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *o
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple outcomes atomically. Fails entire batch on any duplicate.
func (s *CandidateOutcomeStore) InsertBulk(_ context.Context, outcomes []*domain.CandidateOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// First pass: check for duplicates (existing + intra-batch)
	batchKeys := make(map[string]struct{}, len(outcomes))
	for _, o := range outcomes {
		if o == nil || o.RunID == "" || o.Ordinal < 1 {
			return storage.ErrInvalidInput
		}

		key := outcomeKey(o.RunID, o.Ordinal)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, o := range outcomes {
		copy := *o
		s.data[outcomeKey(o.RunID, o.Ordinal)] = &copy
	}

	return nil
}

// GetByRunID retrieves all outcomes for a run, ordered by ordinal ASC.
func (s *CandidateOutcomeStore) GetByRunID(_ context.Context, runID string) ([]*domain.CandidateOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandidateOutcome
	for _, o := range s.data {
		if o.RunID == runID {
			copy := *o
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Ordinal < result[j].Ordinal
	})

	return result, nil
}

// GetByCandidateID retrieves all outcomes for a candidate across runs.
func (s *CandidateOutcomeStore) GetByCandidateID(_ context.Context, candidateID string) ([]*domain.CandidateOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CandidateOutcome
	for _, o := range s.data {
		if o.CandidateID == candidateID {
			copy := *o
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].RunID != result[j].RunID {
			return result[i].RunID < result[j].RunID
		}
		return result[i].Ordinal < result[j].Ordinal
	})

	return result, nil
}
