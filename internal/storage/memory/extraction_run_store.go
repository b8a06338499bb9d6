package memory

import (
	"context"
	"sort"
	"sync"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

// ExtractionRunStore is an in-memory implementation of storage.ExtractionRunStore.
type ExtractionRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ExtractionRun // keyed by run_id
}

// NewExtractionRunStore creates a new in-memory run store.
func NewExtractionRunStore() *ExtractionRunStore {
	return &ExtractionRunStore{
		data: make(map[string]*domain.ExtractionRun),
	}
}

// Compile-time interface check.
var _ storage.ExtractionRunStore = (*ExtractionRunStore)(nil)

// Insert adds a finished run. Returns ErrDuplicateKey if run_id exists.
func (s *ExtractionRunStore) Insert(_ context.Context, r *domain.ExtractionRun) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	s.data[r.RunID] = &copy
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *ExtractionRunStore) GetByID(_ context.Context, runID string) (*domain.ExtractionRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// GetRecent retrieves the most recent runs, ordered by started_at DESC.
func (s *ExtractionRunStore) GetRecent(_ context.Context, limit int) ([]*domain.ExtractionRun, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ExtractionRun
	for _, r := range s.data {
		copy := *r
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].StartedAt != result[j].StartedAt {
			return result[i].StartedAt > result[j].StartedAt
		}
		return result[i].RunID > result[j].RunID
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
