package sigproc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"candpipe/internal/domain"
)

// ErrHeaderQuery is returned when the header tool exits non-zero or
// produces fewer fields than expected.
var ErrHeaderQuery = errors.New("header query failed")

// DefaultHeaderTool is the conventional name of the metadata query binary.
const DefaultHeaderTool = "header"

// headerFieldCount is the number of numeric lines the tool emits for the
// flag set below, in fixed order.
const headerFieldCount = 6

// HeaderInspector queries raw data file metadata via the external header
// tool. Purely a read; no mutation of the data file.
type HeaderInspector struct {
	runner Runner
	tool   string
}

// NewHeaderInspector creates a HeaderInspector. An empty tool name selects
// DefaultHeaderTool.
func NewHeaderInspector(runner Runner, tool string) *HeaderInspector {
	if tool == "" {
		tool = DefaultHeaderTool
	}
	return &HeaderInspector{runner: runner, tool: tool}
}

// Inspect queries the metadata of one raw data file. The tool reports, one
// value per line: sample interval (microseconds), total observed time (s),
// start epoch (MJD), channel count, channel spacing (MHz), first channel
// frequency (MHz).
func (h *HeaderInspector) Inspect(ctx context.Context, dataFile string) (*domain.HeaderInfo, error) {
	out, err := h.runner.CombinedOutput(ctx, "", h.tool, dataFile,
		"-tsamp", "-tobs", "-tstart", "-nchans", "-foff", "-fch1")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHeaderQuery, err)
	}

	info, err := parseHeaderOutput(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrHeaderQuery, dataFile, err)
	}
	return info, nil
}

// parseHeaderOutput parses the tool's fixed-order output lines.
func parseHeaderOutput(out string) (*domain.HeaderInfo, error) {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < headerFieldCount {
		return nil, fmt.Errorf("expected %d fields, got %d", headerFieldCount, len(lines))
	}

	vals := make([]float64, headerFieldCount)
	for i := 0; i < headerFieldCount; i++ {
		v, err := strconv.ParseFloat(lines[i], 64)
		if err != nil {
			return nil, fmt.Errorf("field %d %q: %v", i, lines[i], err)
		}
		vals[i] = v
	}

	info := &domain.HeaderInfo{
		SampleInterval: vals[0] * 1e-6, // microseconds to seconds
		TotalTime:      vals[1],
		StartEpoch:     vals[2],
		ChannelCount:   int(vals[3]),
		ChannelSpacing: vals[4],
		RefFrequency:   vals[5],
	}

	nchan := float64(info.ChannelCount)
	info.Bandwidth = abs(info.ChannelSpacing) * nchan
	info.CenterFrequency = info.RefFrequency + 0.5*nchan*info.ChannelSpacing

	return info, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
