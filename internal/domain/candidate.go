package domain

// CandidateRecord represents one detected single-pulse candidate as emitted
// by the search backend, one row per pulse in a candidate file.
type CandidateRecord struct {
	SNR          float64 // detection significance
	SampleIndex  int64   // sample offset within the raw data file at peak
	LocalTime    float64 // seconds from the start of the file that produced it
	FilterCode   int     // log2 of the matched-filter width in samples
	DMTrialIndex int     // index of the matching DM trial
	DM           float64 // dispersion measure of the matching trial (pc/cm3)
	ClusterCount int     // number of detections merged into this candidate
	StartSample  int64   // detection window start, in samples
	EndSample    int64   // detection window end, in samples

	// Provenance, set by the loader.
	SourceCandFile string // candidate file this record was read from
	SourceDataFile string // paired raw data file

	// GlobalTime is LocalTime plus the accumulated per-file offset assigned
	// by the timeline aggregator. Zero until aggregation.
	GlobalTime float64
}

// FilterWidth returns the matched-filter width in samples (2^FilterCode).
func (c *CandidateRecord) FilterWidth() int64 {
	return int64(1) << uint(c.FilterCode)
}
