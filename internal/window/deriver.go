// Package window derives the time/frequency extraction window needed to
// regenerate the dynamic spectrum of one classified candidate.
package window

import (
	"context"
	"math"

	"candpipe/internal/domain"
	"candpipe/internal/sigproc"
)

// Overrides let the caller pin window parameters that are otherwise derived
// from the candidate. Zero values mean "derive".
type Overrides struct {
	// ChannelScrunch overrides the SNR-derived channel count. Clamped to
	// the maximum only; the caller owns the lower bound.
	ChannelScrunch int

	// BinCount overrides the filter-width-derived bin count. Used as-is.
	BinCount int

	// Length overrides the extraction length in seconds when > 0.
	Length float64
}

// Deriver computes extraction windows. Pure apart from the smearing query.
type Deriver struct {
	smear sigproc.SmearEstimator
}

// NewDeriver creates a Deriver using the given smearing estimator.
func NewDeriver(smear sigproc.SmearEstimator) *Deriver {
	return &Deriver{smear: smear}
}

// Derive computes the extraction window for one candidate given its raw
// data file's header metadata.
func (d *Deriver) Derive(ctx context.Context, rec *domain.CandidateRecord, hdr *domain.HeaderInfo, ov Overrides) (*domain.ExtractionWindow, error) {
	w := &domain.ExtractionWindow{
		CenterFrequency: hdr.CenterFrequency,
		Bandwidth:       hdr.Bandwidth,
		ChannelCount:    hdr.ChannelCount,
		SampleInterval:  hdr.SampleInterval,
		StartEpoch:      hdr.StartEpoch,
	}

	w.CandidateTime = float64(rec.SampleIndex) * hdr.SampleInterval
	w.CandidateEpoch = hdr.StartEpoch + w.CandidateTime/86400.0

	smear, err := d.smear.BandSmearing(ctx, hdr.CenterFrequency, hdr.Bandwidth, hdr.ChannelCount, rec.DM)
	if err != nil {
		return nil, err
	}
	w.SmearDuration = smear

	w.FilterDuration = float64(rec.FilterWidth()) * hdr.SampleInterval
	w.TotalSmear = w.SmearDuration + w.FilterDuration
	w.ExtractionStart = w.CandidateTime - 0.5*w.TotalSmear
	w.ExtractionLength = 2.0 * w.TotalSmear
	if ov.Length > 0 {
		w.ExtractionLength = ov.Length
	}

	w.BinCount = deriveBinCount(w.ExtractionLength, w.FilterDuration, ov.BinCount)
	w.ChannelScrunch = deriveChannelScrunch(rec.SNR, ov.ChannelScrunch)

	return w, nil
}

// deriveBinCount sizes phase bins to the matched-filter width so the pulse
// spans roughly one bin, clamped to [MinBinCount, MaxBinCount]. An explicit
// override is used unclamped.
func deriveBinCount(length, filterDuration float64, override int) int {
	if override != 0 {
		return override
	}

	nbin := int(length / filterDuration)
	if nbin < domain.MinBinCount {
		nbin = domain.MinBinCount
	}
	if nbin > domain.MaxBinCount {
		nbin = domain.MaxBinCount
	}
	return nbin
}

// deriveChannelScrunch picks the rendered channel count from the detection
// significance: brighter pulses support finer frequency resolution.
// Derived values clamp to [MinChannelScrunch, MaxChannelScrunch]; overrides
// clamp to the maximum only.
func deriveChannelScrunch(snr float64, override int) int {
	nchan := override
	if nchan == 0 {
		nchan = int(math.Round(math.Pow(snr/4.0, 2)))
		if nchan < domain.MinChannelScrunch {
			nchan = domain.MinChannelScrunch
		}
	}
	if nchan > domain.MaxChannelScrunch {
		nchan = domain.MaxChannelScrunch
	}
	return nchan
}
