package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"candpipe/internal/domain"
	"candpipe/internal/storage"
)

// CandidateArchiveStore implements storage.CandidateArchiveStore using ClickHouse.
type CandidateArchiveStore struct {
	conn *Conn
}

// NewCandidateArchiveStore creates a new CandidateArchiveStore.
func NewCandidateArchiveStore(conn *Conn) *CandidateArchiveStore {
	return &CandidateArchiveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandidateArchiveStore = (*CandidateArchiveStore)(nil)

const archiveColumns = `
	run_id, candidate_id, snr, sample_index, local_time, global_time,
	filter_code, dm_trial, dm, cluster_count,
	source_cand_file, source_data_file, retained
`

// InsertBulk adds multiple candidates. Fails entire batch on duplicate (run_id, candidate_id).
// MergeTree does not enforce uniqueness, so duplicates are checked explicitly
// before the batch is sent.
func (s *CandidateArchiveStore) InsertBulk(ctx context.Context, rows []*domain.ArchivedCandidate) error {
	if len(rows) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID       string
		candidateID string
	}
	seen := make(map[key]struct{})
	for _, r := range rows {
		if r == nil || r.RunID == "" || r.CandidateID == "" {
			return storage.ErrInvalidInput
		}
		k := key{r.RunID, r.CandidateID}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing rows
	for _, r := range rows {
		exists, err := s.exists(ctx, r.RunID, r.CandidateID)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO candidate_archive (`+archiveColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range rows {
		retained := uint8(0)
		if r.Retained {
			retained = 1
		}
		err = batch.Append(
			r.RunID, r.CandidateID, r.SNR, uint64(r.SampleIndex), r.LocalTime, r.GlobalTime,
			uint8(r.FilterCode), uint16(r.DMTrialIndex), r.DM, uint32(r.ClusterCount),
			r.SourceCandFile, r.SourceDataFile, retained,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all candidates for a run, ordered by global_time ASC.
func (s *CandidateArchiveStore) GetByRunID(ctx context.Context, runID string) ([]*domain.ArchivedCandidate, error) {
	query := `
		SELECT ` + archiveColumns + `
		FROM candidate_archive
		WHERE run_id = ?
		ORDER BY global_time ASC, candidate_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanArchivedCandidates(rows)
}

// GetByTimeRange retrieves candidates for a run with global_time within [start, end] (inclusive).
func (s *CandidateArchiveStore) GetByTimeRange(ctx context.Context, runID string, start, end float64) ([]*domain.ArchivedCandidate, error) {
	query := `
		SELECT ` + archiveColumns + `
		FROM candidate_archive
		WHERE run_id = ? AND global_time >= ? AND global_time <= ?
		ORDER BY global_time ASC, candidate_id ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanArchivedCandidates(rows)
}

// exists checks if a row with the given key exists.
func (s *CandidateArchiveStore) exists(ctx context.Context, runID, candidateID string) (bool, error) {
	query := `
		SELECT count(*) FROM candidate_archive
		WHERE run_id = ? AND candidate_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, runID, candidateID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanArchivedCandidates scans multiple rows.
func scanArchivedCandidates(rows driver.Rows) ([]*domain.ArchivedCandidate, error) {
	var result []*domain.ArchivedCandidate

	for rows.Next() {
		var r domain.ArchivedCandidate
		var sampleIndex uint64
		var filterCode, retained uint8
		var dmTrial uint16
		var clusterCount uint32

		err := rows.Scan(
			&r.RunID, &r.CandidateID, &r.SNR, &sampleIndex, &r.LocalTime, &r.GlobalTime,
			&filterCode, &dmTrial, &r.DM, &clusterCount,
			&r.SourceCandFile, &r.SourceDataFile, &retained,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candidate archive row: %w", err)
		}

		r.SampleIndex = int64(sampleIndex)
		r.FilterCode = int(filterCode)
		r.DMTrialIndex = int(dmTrial)
		r.ClusterCount = int(clusterCount)
		r.Retained = retained != 0
		result = append(result, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate archive rows: %w", err)
	}

	return result, nil
}
