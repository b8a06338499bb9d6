// Package extraction drives the per-candidate diagnostic extraction chain:
// header query → window derivation → folding inside a scoped workspace →
// archive polling → rendering → cleanup.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"candpipe/internal/domain"
	"candpipe/internal/sigproc"
	"candpipe/internal/window"
	"candpipe/internal/zap"
)

// ErrMissingDataFile is returned when a candidate's raw data file does not
// exist. Fatal for that candidate only.
var ErrMissingDataFile = errors.New("raw data file does not exist")

// Default archive polling parameters. The folding tool may return before
// its output file is flushed; polling tolerates slow filesystems without
// guaranteeing the file appears.
const (
	DefaultPollAttempts = 10
	DefaultPollInterval = time.Second
)

// Orchestrator runs the extraction state machine for one candidate at a
// time. Instances are safe for concurrent Process calls: every attempt owns
// its own workspace and the collaborators are stateless.
type Orchestrator struct {
	header   *sigproc.HeaderInspector
	deriver  *window.Deriver
	folder   *Folder
	renderer *Renderer
	zaps     *zap.Registry

	zapMode   string
	outputDir string
	workDir   string
	overrides window.Overrides

	pollAttempts int
	pollInterval time.Duration
}

// Options for creating an Orchestrator.
type Options struct {
	// Required collaborators.
	Header   *sigproc.HeaderInspector
	Deriver  *window.Deriver
	Folder   *Folder
	Renderer *Renderer
	Zaps     *zap.Registry

	// ZapMode selects the frequency mask; resolved per candidate at the
	// rendering stage.
	ZapMode string

	// OutputDir receives the rendered PNGs. Empty means current directory.
	OutputDir string

	// WorkDir is the parent for temporary workspaces. Empty means the
	// system temp directory.
	WorkDir string

	// Overrides pin window parameters for every candidate.
	Overrides window.Overrides

	// Polling configuration; zero values select the defaults.
	PollAttempts int
	PollInterval time.Duration
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		header:       opts.Header,
		deriver:      opts.Deriver,
		folder:       opts.Folder,
		renderer:     opts.Renderer,
		zaps:         opts.Zaps,
		zapMode:      opts.ZapMode,
		outputDir:    opts.OutputDir,
		workDir:      opts.WorkDir,
		overrides:    opts.Overrides,
		pollAttempts: opts.PollAttempts,
		pollInterval: opts.PollInterval,
	}
	if o.pollAttempts == 0 {
		o.pollAttempts = DefaultPollAttempts
	}
	if o.pollInterval == 0 {
		o.pollInterval = DefaultPollInterval
	}
	return o
}

// Result is the terminal state of one extraction attempt. Done and Failed
// are mutually exclusive; a failed result carries the stage that triggered
// the failure and the wrapped error.
type Result struct {
	Ordinal   int
	Status    domain.OutcomeStatus
	Stage     domain.Stage
	Window    *domain.ExtractionWindow
	ImagePath string
	Err       error
}

// failed builds a failure result at the given stage.
func failed(ordinal int, stage domain.Stage, w *domain.ExtractionWindow, err error) *Result {
	return &Result{
		Ordinal: ordinal,
		Status:  domain.StatusFailed,
		Stage:   stage,
		Window:  w,
		Err:     err,
	}
}

// Process runs the full extraction chain for one candidate. The ordinal is
// the candidate's 1-based position in the batch and determines the output
// file name. The workspace created for the folding stage is removed on
// every exit path.
func (o *Orchestrator) Process(ctx context.Context, rec *domain.CandidateRecord, ordinal int) *Result {
	if _, err := os.Stat(rec.SourceDataFile); err != nil {
		return failed(ordinal, domain.StageStart, nil,
			fmt.Errorf("%w: %s", ErrMissingDataFile, rec.SourceDataFile))
	}

	hdr, err := o.header.Inspect(ctx, rec.SourceDataFile)
	if err != nil {
		return failed(ordinal, domain.StageHeaderFetched, nil, err)
	}
	log.Debug().
		Float64("tsamp", hdr.SampleInterval).
		Float64("cfreq", hdr.CenterFrequency).
		Float64("bw", hdr.Bandwidth).
		Int("nchan", hdr.ChannelCount).
		Float64("tstart", hdr.StartEpoch).
		Str("file", rec.SourceDataFile).
		Msg("header fetched")

	w, err := o.deriver.Derive(ctx, rec, hdr, o.overrides)
	if err != nil {
		return failed(ordinal, domain.StageWindowDerived, nil, err)
	}
	log.Debug().
		Int("ordinal", ordinal).
		Float64("start", w.ExtractionStart).
		Float64("length", w.ExtractionLength).
		Int("nbin", w.BinCount).
		Int("nchan", w.ChannelScrunch).
		Float64("smear", w.SmearDuration).
		Msg("window derived")

	ws, err := newWorkspace(o.workDir)
	if err != nil {
		return failed(ordinal, domain.StageExtracting, w, err)
	}
	// Workspace and archive removal on every exit path from here on.
	defer func() {
		if err := ws.Release(); err != nil {
			log.Warn().Err(err).Str("dir", ws.dir).Msg("workspace cleanup failed")
		}
	}()

	archive, err := o.folder.Extract(ctx, ws.dir, rec, w)
	if err != nil {
		return failed(ordinal, domain.StageExtracting, w, err)
	}

	// Best-effort wait for the archive to appear; a file still missing
	// afterwards surfaces at the rendering stage instead.
	if !o.waitForArchive(ctx, archive) {
		log.Warn().Str("archive", archive).Msg("archive did not appear within poll budget")
	}
	if ctx.Err() != nil {
		return failed(ordinal, domain.StagePolling, w, ctx.Err())
	}

	imagePath, err := o.render(ctx, rec, w, archive, ordinal)
	if err != nil {
		return failed(ordinal, domain.StageRendering, w, err)
	}

	return &Result{
		Ordinal:   ordinal,
		Status:    domain.StatusDone,
		Stage:     domain.StageDone,
		Window:    w,
		ImagePath: imagePath,
	}
}

// waitForArchive polls for the archive file, up to the configured attempt
// budget. Returns whether the file exists.
func (o *Orchestrator) waitForArchive(ctx context.Context, archive string) bool {
	for attempt := 0; attempt < o.pollAttempts; attempt++ {
		if _, err := os.Stat(archive); err == nil {
			return true
		}
		select {
		case <-time.After(o.pollInterval):
		case <-ctx.Done():
			return false
		}
	}
	_, err := os.Stat(archive)
	return err == nil
}

// render resolves the zap mask, composes the annotations and invokes the
// rendering tool. Returns the output PNG path.
func (o *Orchestrator) render(ctx context.Context, rec *domain.CandidateRecord, w *domain.ExtractionWindow, archive string, ordinal int) (string, error) {
	mask, err := o.zaps.Resolve(o.zapMode)
	if err != nil {
		return "", err
	}

	base := archiveBase(archive)
	outputPath := filepath.Join(o.outputDir, fmt.Sprintf("c%04d_%s.png", ordinal, base))

	req := RenderRequest{
		ArchivePath:    archive,
		MaskFile:       mask,
		ChannelScrunch: w.ChannelScrunch,
		LeftLabel: fmt.Sprintf(`Cand %d\n%s\n%.5f\n$coord`,
			ordinal, base, w.CandidateEpoch),
		RightLabel: fmt.Sprintf(`S/N %.1f; DM %.1f; w %.1f ms\n%s\n%s`,
			rec.SNR, rec.DM, w.WidthMs(),
			filepath.Base(rec.SourceDataFile), filepath.Base(rec.SourceCandFile)),
		OutputPath: outputPath,
	}

	if err := o.renderer.Render(ctx, req); err != nil {
		return "", err
	}
	return outputPath, nil
}

// archiveBase strips the directory and the ".ar" suffix.
func archiveBase(archive string) string {
	return strings.TrimSuffix(filepath.Base(archive), ".ar")
}
