package domain

// HeaderInfo holds the raw data file metadata reported by the external
// header query tool, plus the two derived band quantities.
type HeaderInfo struct {
	SampleInterval float64 // seconds (tool reports microseconds)
	TotalTime      float64 // total observed time, seconds
	StartEpoch     float64 // start of observation, MJD
	ChannelCount   int     // number of frequency channels
	ChannelSpacing float64 // channel offset, MHz (negative for descending bands)
	RefFrequency   float64 // frequency of the first channel, MHz

	// Derived: Bandwidth = |ChannelSpacing| * ChannelCount,
	// CenterFrequency = RefFrequency + 0.5 * ChannelCount * ChannelSpacing.
	Bandwidth       float64
	CenterFrequency float64
}
