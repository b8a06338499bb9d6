// Package classify applies the heuristic interference cut to candidate
// records.
package classify

import (
	"errors"

	"candpipe/internal/domain"
)

// ErrInvalidThresholds is returned when a threshold configuration is
// internally inconsistent.
var ErrInvalidThresholds = errors.New("invalid classifier thresholds")

// Thresholds configures the interference cut. A candidate is retained when
// snr > MinSNR, filter_code <= MaxFilter, MinDM < dm < MaxDM and
// cluster_count > MinClusters. MaxDM <= 0 means no upper DM bound.
type Thresholds struct {
	MinSNR      float64
	MaxFilter   int
	MinDM       float64
	MaxDM       float64
	MinClusters int
}

// DefaultThresholds matches the cut used for MeerKAT L-band follow-up of a
// DM ~341 source.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSNR:      7.0,
		MaxFilter:   10,
		MinDM:       320.0,
		MaxDM:       350.0,
		MinClusters: 5,
	}
}

// Validate checks the threshold configuration.
func (th Thresholds) Validate() error {
	if th.MaxDM > 0 && th.MaxDM <= th.MinDM {
		return ErrInvalidThresholds
	}
	return nil
}

// Retain reports whether a record survives the cut. Pure and total: no
// record causes it to fail.
func (th Thresholds) Retain(rec *domain.CandidateRecord) bool {
	if rec.SNR <= th.MinSNR {
		return false
	}
	if rec.FilterCode > th.MaxFilter {
		return false
	}
	if rec.DM <= th.MinDM {
		return false
	}
	if th.MaxDM > 0 && rec.DM >= th.MaxDM {
		return false
	}
	return rec.ClusterCount > th.MinClusters
}

// Filter returns the records retained by the cut, preserving order.
func (th Thresholds) Filter(records []*domain.CandidateRecord) []*domain.CandidateRecord {
	var out []*domain.CandidateRecord
	for _, rec := range records {
		if th.Retain(rec) {
			out = append(out, rec)
		}
	}
	return out
}
