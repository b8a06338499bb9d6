// Package timeline merges per-file candidate sequences into one
// observation-wide timeline by assigning each file's records a cumulative
// time offset.
package timeline

import (
	"errors"
	"fmt"

	"candpipe/internal/domain"
)

// DefaultSessionGap is the assumed dead time between consecutive
// observation segments when no measured durations are available. An
// approximation, not a measured value.
const DefaultSessionGap = 60.0

// ErrInvalidGap is returned for a negative session gap.
var ErrInvalidGap = errors.New("session gap must be non-negative")

// Options configures aggregation.
type Options struct {
	// SessionGap is the inter-file dead time in seconds. Defaults to
	// DefaultSessionGap when zero-valued and Offsets is nil.
	SessionGap float64

	// Offsets, when non-nil, gives the absolute time offset per file and
	// takes precedence over SessionGap. Must have one entry per file
	// sequence and be non-decreasing. Use OffsetsFromDurations to derive
	// offsets from measured observation lengths.
	Offsets []float64
}

// Aggregate concatenates per-file record sequences (files already sorted by
// acquisition order) into one timeline, populating GlobalTime on every
// record. Relative order within each file and file order across files are
// preserved. The input records are mutated in place; the returned slice is
// the flattened timeline.
func Aggregate(files [][]*domain.CandidateRecord, opts Options) ([]*domain.CandidateRecord, error) {
	offsets := opts.Offsets
	if offsets == nil {
		gap := opts.SessionGap
		if gap == 0 {
			gap = DefaultSessionGap
		}
		if gap < 0 {
			return nil, ErrInvalidGap
		}
		offsets = make([]float64, len(files))
		for k := range files {
			offsets[k] = float64(k) * gap
		}
	}

	if len(offsets) != len(files) {
		return nil, fmt.Errorf("got %d offsets for %d files", len(offsets), len(files))
	}
	for k := 1; k < len(offsets); k++ {
		if offsets[k] < offsets[k-1] {
			return nil, fmt.Errorf("offsets must be non-decreasing: offset[%d]=%g < offset[%d]=%g",
				k, offsets[k], k-1, offsets[k-1])
		}
	}

	total := 0
	for _, f := range files {
		total += len(f)
	}

	out := make([]*domain.CandidateRecord, 0, total)
	for k, f := range files {
		for _, rec := range f {
			rec.GlobalTime = rec.LocalTime + offsets[k]
			out = append(out, rec)
		}
	}

	return out, nil
}

// OffsetsFromDurations derives per-file offsets from the measured observed
// duration of each preceding file plus the configured inter-file gap. This
// replaces the fixed-gap assumption when header metadata is available:
// offset[k] = sum(durations[0..k-1]) + k*gap.
func OffsetsFromDurations(durations []float64, gap float64) ([]float64, error) {
	if gap < 0 {
		return nil, ErrInvalidGap
	}

	offsets := make([]float64, len(durations))
	acc := 0.0
	for k, d := range durations {
		offsets[k] = acc
		if d < 0 {
			return nil, fmt.Errorf("duration[%d] is negative: %g", k, d)
		}
		acc += d + gap
	}
	return offsets, nil
}
