package sigproc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSmearQuery is returned when the smearing estimator exits non-zero or
// produces non-numeric output.
var ErrSmearQuery = errors.New("smearing query failed")

// DefaultSmearTool is the conventional name of the smearing estimator
// binary.
const DefaultSmearTool = "dmsmear"

// SmearEstimator estimates the dispersion-smearing duration across the band
// at a given DM. Implementations return seconds.
type SmearEstimator interface {
	BandSmearing(ctx context.Context, centerFreq, bandwidth float64, channels int, dm float64) (float64, error)
}

// DMSmear queries the external dmsmear tool.
//
// The tool's native output unit differs between builds: some report seconds
// and some milliseconds. OutputScale pins the contract per deployment
// instead of guessing: the raw value is multiplied by it to yield seconds.
type DMSmear struct {
	runner      Runner
	tool        string
	outputScale float64
}

// DMSmearOptions configures the adapter.
type DMSmearOptions struct {
	// Tool is the estimator binary name. Empty selects DefaultSmearTool.
	Tool string

	// OutputScale converts the tool's native unit to seconds. Zero selects
	// 1.0 (tool reports seconds). Set 1e-3 for builds reporting
	// milliseconds.
	OutputScale float64
}

// NewDMSmear creates a DMSmear adapter.
func NewDMSmear(runner Runner, opts DMSmearOptions) *DMSmear {
	tool := opts.Tool
	if tool == "" {
		tool = DefaultSmearTool
	}
	scale := opts.OutputScale
	if scale == 0 {
		scale = 1.0
	}
	return &DMSmear{runner: runner, tool: tool, outputScale: scale}
}

// Compile-time interface check.
var _ SmearEstimator = (*DMSmear)(nil)

// BandSmearing runs the estimator and returns the smearing duration in
// seconds. dm = 0 yields a value approaching zero; no clamping is applied.
func (d *DMSmear) BandSmearing(ctx context.Context, centerFreq, bandwidth float64, channels int, dm float64) (float64, error) {
	out, err := d.runner.CombinedOutput(ctx, "", d.tool,
		"-f", formatFloat(centerFreq),
		"-b", formatFloat(bandwidth),
		"-n", strconv.Itoa(channels),
		"-d", formatFloat(dm),
		"-q")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSmearQuery, err)
	}

	raw := strings.TrimSpace(out)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: non-numeric output %q", ErrSmearQuery, raw)
	}

	return v * d.outputScale, nil
}

// formatFloat renders tool arguments without exponent notation surprises
// for the value ranges in play.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
