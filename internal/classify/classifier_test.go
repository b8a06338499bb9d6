package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"candpipe/internal/domain"
)

func goodRecord() *domain.CandidateRecord {
	return &domain.CandidateRecord{
		SNR:          9.5,
		FilterCode:   2,
		DM:           341.0,
		ClusterCount: 12,
	}
}

func TestRetain(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		mutate func(*domain.CandidateRecord)
		want   bool
	}{
		{"passes all thresholds", func(r *domain.CandidateRecord) {}, true},
		{"snr too low", func(r *domain.CandidateRecord) { r.SNR = 6.9 }, false},
		{"snr at threshold excluded", func(r *domain.CandidateRecord) { r.SNR = 7.0 }, false},
		{"filter too wide", func(r *domain.CandidateRecord) { r.FilterCode = 11 }, false},
		{"filter at threshold retained", func(r *domain.CandidateRecord) { r.FilterCode = 10 }, true},
		{"dm below window", func(r *domain.CandidateRecord) { r.DM = 320.0 }, false},
		{"dm above window", func(r *domain.CandidateRecord) { r.DM = 350.0 }, false},
		{"too few clusters", func(r *domain.CandidateRecord) { r.ClusterCount = 5 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := goodRecord()
			tt.mutate(rec)
			assert.Equal(t, tt.want, th.Retain(rec))
		})
	}
}

func TestRetain_NoUpperDMBound(t *testing.T) {
	th := Thresholds{MinSNR: 7.0, MaxFilter: 10, MinDM: 100.0, MinClusters: 4}

	rec := goodRecord()
	rec.DM = 5000.0
	assert.True(t, th.Retain(rec))
}

func TestFilter_Idempotent(t *testing.T) {
	th := DefaultThresholds()

	records := []*domain.CandidateRecord{
		goodRecord(),
		{SNR: 3.0, FilterCode: 0, DM: 341.0, ClusterCount: 10},
		goodRecord(),
		{SNR: 20.0, FilterCode: 12, DM: 341.0, ClusterCount: 10},
	}

	once := th.Filter(records)
	twice := th.Filter(once)

	assert.Len(t, once, 2)
	assert.Equal(t, once, twice)
}

func TestFilter_PreservesOrder(t *testing.T) {
	th := DefaultThresholds()

	a, b := goodRecord(), goodRecord()
	a.SNR = 8.0
	b.SNR = 15.0

	out := th.Filter([]*domain.CandidateRecord{a, b})
	assert.Same(t, a, out[0])
	assert.Same(t, b, out[1])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.NoError(t, Thresholds{MinDM: 100}.Validate())

	bad := Thresholds{MinDM: 350, MaxDM: 320}
	assert.ErrorIs(t, bad.Validate(), ErrInvalidThresholds)
}
