package window

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candpipe/internal/domain"
)

// fixedSmear is a SmearEstimator returning a canned value.
type fixedSmear struct {
	value float64
	err   error
}

func (f fixedSmear) BandSmearing(_ context.Context, _, _ float64, _ int, _ float64) (float64, error) {
	return f.value, f.err
}

func testHeader() *domain.HeaderInfo {
	return &domain.HeaderInfo{
		SampleInterval:  0.001,
		TotalTime:       600.0,
		StartEpoch:      58567.0,
		ChannelCount:    1024,
		ChannelSpacing:  -0.8359375,
		RefFrequency:    1712.0,
		Bandwidth:       856.0,
		CenterFrequency: 1284.0,
	}
}

func TestDerive_ReferenceValues(t *testing.T) {
	// filter_code=0, dm=0, snr=4, tsamp=1 ms, sample 1000.
	rec := &domain.CandidateRecord{SNR: 4.0, SampleIndex: 1000, FilterCode: 0, DM: 0}

	d := NewDeriver(fixedSmear{value: 0})
	w, err := d.Derive(context.Background(), rec, testHeader(), Overrides{})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, w.CandidateTime, 1e-12)
	assert.InDelta(t, 58567.0+1.0/86400.0, w.CandidateEpoch, 1e-12)
	assert.InDelta(t, 0.001, w.FilterDuration, 1e-12)
	assert.InDelta(t, 0.001, w.TotalSmear, 1e-12)
	assert.InDelta(t, 1.0-0.0005, w.ExtractionStart, 1e-12)
	assert.InDelta(t, 0.002, w.ExtractionLength, 1e-12)
	assert.Equal(t, 2, w.ChannelScrunch, "snr=4 derives 1, clamped to minimum")
	assert.Equal(t, domain.MinBinCount, w.BinCount, "2 raw bins clamp up to 16")
}

func TestDerive_CopiesHeaderFields(t *testing.T) {
	rec := &domain.CandidateRecord{SNR: 10, SampleIndex: 5000, FilterCode: 2, DM: 341.3}
	hdr := testHeader()

	d := NewDeriver(fixedSmear{value: 0.01})
	w, err := d.Derive(context.Background(), rec, hdr, Overrides{})
	require.NoError(t, err)

	assert.Equal(t, hdr.CenterFrequency, w.CenterFrequency)
	assert.Equal(t, hdr.Bandwidth, w.Bandwidth)
	assert.Equal(t, hdr.ChannelCount, w.ChannelCount)
	assert.Equal(t, hdr.SampleInterval, w.SampleInterval)
	assert.Equal(t, hdr.StartEpoch, w.StartEpoch)
	assert.Equal(t, 0.01, w.SmearDuration)
}

func TestDerive_SmearFailurePropagates(t *testing.T) {
	rec := &domain.CandidateRecord{SNR: 10, SampleIndex: 5000, FilterCode: 2, DM: 341.3}

	wantErr := errors.New("smear query failed")
	d := NewDeriver(fixedSmear{err: wantErr})
	_, err := d.Derive(context.Background(), rec, testHeader(), Overrides{})
	assert.ErrorIs(t, err, wantErr)
}

func TestDerive_LengthOverride(t *testing.T) {
	rec := &domain.CandidateRecord{SNR: 10, SampleIndex: 5000, FilterCode: 0, DM: 0}

	d := NewDeriver(fixedSmear{value: 0})
	w, err := d.Derive(context.Background(), rec, testHeader(), Overrides{Length: 1.5})
	require.NoError(t, err)
	assert.Equal(t, 1.5, w.ExtractionLength)
	// Bin count follows the overridden length: 1.5/0.001 = 1500, clamped.
	assert.Equal(t, domain.MaxBinCount, w.BinCount)
}

func TestDerive_BinCountOverrideUnclamped(t *testing.T) {
	rec := &domain.CandidateRecord{SNR: 10, SampleIndex: 5000, FilterCode: 0, DM: 0}

	d := NewDeriver(fixedSmear{value: 0})
	w, err := d.Derive(context.Background(), rec, testHeader(), Overrides{BinCount: 4096})
	require.NoError(t, err)
	assert.Equal(t, 4096, w.BinCount)
}

func TestDerive_ChannelScrunchOverrideClampsMaxOnly(t *testing.T) {
	rec := &domain.CandidateRecord{SNR: 10, SampleIndex: 5000, FilterCode: 0, DM: 0}
	d := NewDeriver(fixedSmear{value: 0})

	w, err := d.Derive(context.Background(), rec, testHeader(), Overrides{ChannelScrunch: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, w.ChannelScrunch, "override below minimum is caller's responsibility")

	w, err = d.Derive(context.Background(), rec, testHeader(), Overrides{ChannelScrunch: 4096})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxChannelScrunch, w.ChannelScrunch)
}

func TestDeriveBinCount_AlwaysInRange(t *testing.T) {
	cases := []struct {
		length, filter float64
	}{
		{0.002, 0.001},
		{100.0, 0.001},
		{0.0001, 0.001},
		{1.0, 0.000306},
	}

	for _, c := range cases {
		nbin := deriveBinCount(c.length, c.filter, 0)
		assert.GreaterOrEqual(t, nbin, domain.MinBinCount, "length=%g filter=%g", c.length, c.filter)
		assert.LessOrEqual(t, nbin, domain.MaxBinCount, "length=%g filter=%g", c.length, c.filter)
	}
}

func TestDeriveChannelScrunch_AlwaysInRange(t *testing.T) {
	for _, snr := range []float64{0, 0.5, 4, 8, 20, 100, 1e6} {
		nchan := deriveChannelScrunch(snr, 0)
		assert.GreaterOrEqual(t, nchan, domain.MinChannelScrunch, "snr=%g", snr)
		assert.LessOrEqual(t, nchan, domain.MaxChannelScrunch, "snr=%g", snr)
	}
}

func TestDeriveChannelScrunch_ScalesWithSNR(t *testing.T) {
	// (8/4)^2 = 4, (16/4)^2 = 16.
	assert.Equal(t, 4, deriveChannelScrunch(8.0, 0))
	assert.Equal(t, 16, deriveChannelScrunch(16.0, 0))
}
