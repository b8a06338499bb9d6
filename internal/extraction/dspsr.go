package extraction

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"candpipe/internal/domain"
	"candpipe/internal/sigproc"
)

// ErrExtractionTool is returned when the extraction/folding tool exits
// non-zero or its output lacks the archive marker.
var ErrExtractionTool = errors.New("extraction tool failed")

// DefaultFoldTool is the conventional name of the folding binary.
const DefaultFoldTool = "dspsr"

// archiveMarker precedes the archive identifier on the tool's output
// stream. Textual contract with the external tool; parsing is confined to
// this adapter.
const archiveMarker = "seconds: "

// Folder invokes the external extraction/folding tool.
type Folder struct {
	runner  sigproc.Runner
	tool    string
	backend string
}

// FolderOptions configures the adapter.
type FolderOptions struct {
	// Tool is the folding binary name. Empty selects DefaultFoldTool.
	Tool string

	// Backend is the instrument/backend flag passed as -k. Empty omits the
	// flag.
	Backend string
}

// NewFolder creates a Folder.
func NewFolder(runner sigproc.Runner, opts FolderOptions) *Folder {
	tool := opts.Tool
	if tool == "" {
		tool = DefaultFoldTool
	}
	return &Folder{runner: runner, tool: tool, backend: opts.Backend}
}

// Extract folds the candidate's raw data file over the derived window,
// executing inside workDir. The tool writes <archive-id>.ar into its
// working directory and reports the identifier on its output stream;
// Extract returns the absolute archive path.
func (f *Folder) Extract(ctx context.Context, workDir string, rec *domain.CandidateRecord, w *domain.ExtractionWindow) (string, error) {
	dataFile, err := filepath.Abs(rec.SourceDataFile)
	if err != nil {
		return "", fmt.Errorf("%w: resolve data file: %v", ErrExtractionTool, err)
	}

	args := []string{}
	if f.backend != "" {
		args = append(args, "-k", f.backend)
	}
	args = append(args,
		dataFile,
		"-S", formatSeconds(w.ExtractionStart),
		"-b", strconv.Itoa(w.BinCount),
		"-T", formatSeconds(w.ExtractionLength),
		"-c", formatSeconds(w.ExtractionLength),
		"-D", strconv.FormatFloat(rec.DM, 'f', -1, 64),
		"-U", "1",
		"-cepoch", "start",
		"-q", "-Q",
	)

	out, err := f.runner.CombinedOutput(ctx, workDir, f.tool, args...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionTool, err)
	}

	id, err := parseArchiveID(out)
	if err != nil {
		return "", err
	}

	return filepath.Join(workDir, id+".ar"), nil
}

// parseArchiveID extracts the archive identifier following the marker.
func parseArchiveID(out string) (string, error) {
	idx := strings.Index(out, archiveMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: archive marker %q not found in output", ErrExtractionTool, archiveMarker)
	}

	rest := out[idx+len(archiveMarker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	id := strings.TrimSpace(rest)
	if id == "" {
		return "", fmt.Errorf("%w: empty archive identifier after marker", ErrExtractionTool)
	}
	return id, nil
}

// formatSeconds renders second-valued tool arguments in plain decimal
// notation.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
