package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"candpipe/internal/domain"
)

// ComputeCandidateID computes a deterministic candidate ID using SHA256.
// Formula: SHA256(cand_file|sample_index|dm_trial|filter_code)
// Returns hex-encoded hash (64 characters).
//
// The key covers the fields that uniquely identify a detection within one
// candidate file: the same pulse re-loaded from the same file always hashes
// to the same ID, so archive inserts stay idempotent.
func ComputeCandidateID(c *domain.CandidateRecord) string {
	data := fmt.Sprintf("%s|%d|%d|%d",
		c.SourceCandFile,
		c.SampleIndex,
		c.DMTrialIndex,
		c.FilterCode,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
