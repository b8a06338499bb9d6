package domain

// ArchivedCandidate is one aggregated candidate persisted to the analytic
// store, annotated with the run that produced it and whether classification
// retained it.
type ArchivedCandidate struct {
	RunID        string
	CandidateID  string
	SNR          float64
	SampleIndex  int64
	LocalTime    float64
	GlobalTime   float64
	FilterCode   int
	DMTrialIndex int
	DM           float64
	ClusterCount int

	SourceCandFile string
	SourceDataFile string

	Retained bool
}
