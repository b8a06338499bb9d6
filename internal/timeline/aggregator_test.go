package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"candpipe/internal/domain"
)

func recs(times ...float64) []*domain.CandidateRecord {
	out := make([]*domain.CandidateRecord, len(times))
	for i, tm := range times {
		out[i] = &domain.CandidateRecord{LocalTime: tm}
	}
	return out
}

func TestAggregate_FixedGapOffsets(t *testing.T) {
	files := [][]*domain.CandidateRecord{
		recs(1.0, 5.0),
		recs(0.5, 2.0),
		recs(10.0),
	}

	out, err := Aggregate(files, Options{SessionGap: 60.0})
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, 1.0, out[0].GlobalTime)
	assert.Equal(t, 5.0, out[1].GlobalTime)
	assert.Equal(t, 60.5, out[2].GlobalTime)
	assert.Equal(t, 62.0, out[3].GlobalTime)
	assert.Equal(t, 130.0, out[4].GlobalTime)
}

func TestAggregate_DefaultGap(t *testing.T) {
	files := [][]*domain.CandidateRecord{recs(0.0), recs(0.0)}

	out, err := Aggregate(files, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultSessionGap, out[1].GlobalTime)
}

func TestAggregate_GlobalTimeAtLeastLocalTime(t *testing.T) {
	files := [][]*domain.CandidateRecord{
		recs(3.0, 7.0),
		recs(0.1),
		recs(2.5, 9.9),
	}

	out, err := Aggregate(files, Options{SessionGap: 60.0})
	require.NoError(t, err)
	for i, rec := range out {
		assert.GreaterOrEqual(t, rec.GlobalTime, rec.LocalTime, "record %d", i)
	}
}

// Records sorted by time within each file must stay monotonic across the
// concatenation boundary for any adjacent file pair, provided the gap
// exceeds the span of each file.
func TestAggregate_MonotonicAcrossBoundaries(t *testing.T) {
	files := [][]*domain.CandidateRecord{
		recs(0.2, 12.0, 55.0),
		recs(1.0, 30.0),
		recs(0.0, 59.9),
	}

	out, err := Aggregate(files, Options{SessionGap: 60.0})
	require.NoError(t, err)

	for i := 1; i < len(out); i++ {
		assert.LessOrEqual(t, out[i-1].GlobalTime, out[i].GlobalTime,
			"global time decreased at index %d", i)
	}
}

func TestAggregate_PreservesOrder(t *testing.T) {
	a := recs(5.0, 1.0) // deliberately unsorted: relative order must survive
	b := recs(2.0)

	out, err := Aggregate([][]*domain.CandidateRecord{a, b}, Options{SessionGap: 10.0})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Same(t, a[0], out[0])
	assert.Same(t, a[1], out[1])
	assert.Same(t, b[0], out[2])
}

func TestAggregate_ExplicitOffsets(t *testing.T) {
	files := [][]*domain.CandidateRecord{recs(1.0), recs(1.0)}

	out, err := Aggregate(files, Options{Offsets: []float64{0, 600.5}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, out[0].GlobalTime)
	assert.Equal(t, 601.5, out[1].GlobalTime)
}

func TestAggregate_RejectsDecreasingOffsets(t *testing.T) {
	files := [][]*domain.CandidateRecord{recs(1.0), recs(1.0)}

	_, err := Aggregate(files, Options{Offsets: []float64{10, 5}})
	assert.Error(t, err)
}

func TestAggregate_RejectsOffsetCountMismatch(t *testing.T) {
	files := [][]*domain.CandidateRecord{recs(1.0)}

	_, err := Aggregate(files, Options{Offsets: []float64{0, 60}})
	assert.Error(t, err)
}

func TestOffsetsFromDurations(t *testing.T) {
	offsets, err := OffsetsFromDurations([]float64{300.0, 600.0, 450.0}, 10.0)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 310.0, 920.0}, offsets)
}

func TestOffsetsFromDurations_NegativeDuration(t *testing.T) {
	_, err := OffsetsFromDurations([]float64{300.0, -1.0}, 10.0)
	assert.Error(t, err)
}
