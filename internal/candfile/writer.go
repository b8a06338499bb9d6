package candfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"candpipe/internal/domain"
)

// FormatRow serializes one record back to the nine-column row schema.
// Floats use the shortest representation that round-trips exactly, so
// Load(Write(records)) reproduces the numeric fields bit for bit.
func FormatRow(rec *domain.CandidateRecord) string {
	return strings.Join([]string{
		strconv.FormatFloat(rec.SNR, 'g', -1, 64),
		strconv.FormatInt(rec.SampleIndex, 10),
		strconv.FormatFloat(rec.LocalTime, 'g', -1, 64),
		strconv.Itoa(rec.FilterCode),
		strconv.Itoa(rec.DMTrialIndex),
		strconv.FormatFloat(rec.DM, 'g', -1, 64),
		strconv.Itoa(rec.ClusterCount),
		strconv.FormatInt(rec.StartSample, 10),
		strconv.FormatInt(rec.EndSample, 10),
	}, "\t")
}

// Write serializes records to a candidate file at path.
func Write(path string, records []*domain.CandidateRecord) error {
	var sb strings.Builder
	for _, rec := range records {
		sb.WriteString(FormatRow(rec))
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("write candidate file: %w", err)
	}
	return nil
}
