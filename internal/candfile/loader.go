// Package candfile loads and serializes candidate-list files produced by
// the pulse-search backend. One whitespace-delimited row per detected
// pulse, nine fixed columns:
//
//	snr sample_index time filter_code dm_trial dm cluster_count start end
package candfile

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"candpipe/internal/domain"
)

// ErrMalformedInput is returned when a candidate file row does not match
// the nine-column schema.
var ErrMalformedInput = errors.New("malformed candidate file")

const columnCount = 9

// Options configures loading behaviour.
type Options struct {
	// DataFile overrides the paired raw data file path. When empty the
	// loader pairs by suffix swap: <name>.cand -> <name>.fil.
	DataFile string
}

// Load parses one candidate file into an ordered sequence of records with
// provenance fields set. A file containing a single row yields a
// one-element slice. Returns ErrMalformedInput (wrapped with the offending
// line) on schema violations.
func Load(path string, opts Options) ([]*domain.CandidateRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidate file: %w", err)
	}
	defer f.Close()

	dataFile := opts.DataFile
	if dataFile == "" {
		dataFile = PairedDataFile(path)
	}

	var records []*domain.CandidateRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNr := 0
	for scanner.Scan() {
		lineNr++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := ParseRow(line)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", ErrMalformedInput, path, lineNr, err)
		}

		rec.SourceCandFile = path
		rec.SourceDataFile = dataFile
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read candidate file %s: %w", path, err)
	}

	return records, nil
}

// ParseRow parses a single nine-column candidate row. Provenance fields are
// left empty.
func ParseRow(line string) (*domain.CandidateRecord, error) {
	fields := strings.Fields(line)
	if len(fields) != columnCount {
		return nil, fmt.Errorf("expected %d columns, got %d", columnCount, len(fields))
	}

	var rec domain.CandidateRecord
	var err error

	if rec.SNR, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return nil, fmt.Errorf("snr: %v", err)
	}
	if rec.SampleIndex, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return nil, fmt.Errorf("sample_index: %v", err)
	}
	if rec.LocalTime, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return nil, fmt.Errorf("time: %v", err)
	}
	if rec.FilterCode, err = strconv.Atoi(fields[3]); err != nil {
		return nil, fmt.Errorf("filter_code: %v", err)
	}
	if rec.DMTrialIndex, err = strconv.Atoi(fields[4]); err != nil {
		return nil, fmt.Errorf("dm_trial: %v", err)
	}
	if rec.DM, err = strconv.ParseFloat(fields[5], 64); err != nil {
		return nil, fmt.Errorf("dm: %v", err)
	}
	if rec.ClusterCount, err = strconv.Atoi(fields[6]); err != nil {
		return nil, fmt.Errorf("cluster_count: %v", err)
	}
	if rec.StartSample, err = strconv.ParseInt(fields[7], 10, 64); err != nil {
		return nil, fmt.Errorf("start: %v", err)
	}
	if rec.EndSample, err = strconv.ParseInt(fields[8], 10, 64); err != nil {
		return nil, fmt.Errorf("end: %v", err)
	}

	return &rec, nil
}

// PairedDataFile returns the raw data file conventionally paired with a
// candidate file: the ".cand" suffix replaced by ".fil". Paths without the
// ".cand" suffix get ".fil" appended.
func PairedDataFile(candPath string) string {
	if strings.HasSuffix(candPath, ".cand") {
		return strings.TrimSuffix(candPath, ".cand") + ".fil"
	}
	return candPath + ".fil"
}
