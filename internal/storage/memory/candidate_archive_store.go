package memory

import (
	"context"
	"sort"
	"sync"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

// CandidateArchiveStore is an in-memory implementation of storage.CandidateArchiveStore.
type CandidateArchiveStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ArchivedCandidate // keyed by run_id/candidate_id
}

// NewCandidateArchiveStore creates a new in-memory archive store.
func NewCandidateArchiveStore() *CandidateArchiveStore {
	return &CandidateArchiveStore{
		data: make(map[string]*domain.ArchivedCandidate),
	}
}

// Compile-time interface check.
var _ storage.CandidateArchiveStore = (*CandidateArchiveStore)(nil)

func archiveKey(runID, candidateID string) string {
	return runID + "/" + candidateID
}

// InsertBulk adds multiple candidates. Fails entire batch on duplicate (run_id, candidate_id).
func (s *CandidateArchiveStore) InsertBulk(_ context.Context, rows []*domain.ArchivedCandidate) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.CandidateID == "" {
			return storage.ErrInvalidInput
		}

		key := archiveKey(r.RunID, r.CandidateID)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, r := range rows {
		copy := *r
		s.data[archiveKey(r.RunID, r.CandidateID)] = &copy
	}

	return nil
}

// GetByRunID retrieves all candidates for a run, ordered by global_time ASC.
func (s *CandidateArchiveStore) GetByRunID(_ context.Context, runID string) ([]*domain.ArchivedCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ArchivedCandidate
	for _, r := range s.data {
		if r.RunID == runID {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortArchived(result)
	return result, nil
}

// GetByTimeRange retrieves candidates for a run with global_time within [start, end] (inclusive).
func (s *CandidateArchiveStore) GetByTimeRange(_ context.Context, runID string, start, end float64) ([]*domain.ArchivedCandidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ArchivedCandidate
	for _, r := range s.data {
		if r.RunID == runID && r.GlobalTime >= start && r.GlobalTime <= end {
			copy := *r
			result = append(result, &copy)
		}
	}

	sortArchived(result)
	return result, nil
}

func sortArchived(rows []*domain.ArchivedCandidate) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].GlobalTime != rows[j].GlobalTime {
			return rows[i].GlobalTime < rows[j].GlobalTime
		}
		return rows[i].CandidateID < rows[j].CandidateID
	})
}
