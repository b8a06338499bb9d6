package domain

// Bin count and channel scrunch clamping bounds for derived extraction
// windows.
const (
	MinBinCount       = 16
	MaxBinCount       = 1024
	MinChannelScrunch = 2
	MaxChannelScrunch = 512
)

// ExtractionWindow holds everything needed to regenerate the dynamic
// spectrum of one candidate: the header parameters of its raw data file and
// the derived time/frequency extraction bounds. Windows are ephemeral, one
// per extraction attempt.
type ExtractionWindow struct {
	// Copied from HeaderInfo for the matched raw data file.
	CenterFrequency float64
	Bandwidth       float64
	ChannelCount    int
	SampleInterval  float64
	StartEpoch      float64

	CandidateTime  float64 // SampleIndex * SampleInterval, seconds
	CandidateEpoch float64 // StartEpoch + CandidateTime/86400, MJD

	SmearDuration  float64 // dispersion smearing across the band, seconds
	FilterDuration float64 // 2^FilterCode * SampleInterval, seconds
	TotalSmear     float64 // SmearDuration + FilterDuration

	ExtractionStart  float64 // CandidateTime - 0.5*TotalSmear, seconds
	ExtractionLength float64 // 2*TotalSmear unless overridden, seconds

	BinCount       int // phase bins for the folded archive, in [16, 1024]
	ChannelScrunch int // channels to scrunch to when rendering, in [2, 512]
}

// WidthMs returns the matched-filter pulse width in milliseconds, used for
// plot annotations.
func (w *ExtractionWindow) WidthMs() float64 {
	return w.FilterDuration * 1e3
}
