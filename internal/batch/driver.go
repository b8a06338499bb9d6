// Package batch drives extraction over a classified candidate set:
// brightest candidates first, one ordinal per candidate, partial failures
// collected rather than aborting the run.
package batch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"candpipe/internal/domain"
	"candpipe/internal/extraction"
	"candpipe/internal/idhash"
	"candpipe/internal/observability"
	"candpipe/internal/storage"
)

// Processor runs one extraction attempt. Satisfied by extraction.Orchestrator.
type Processor interface {
	Process(ctx context.Context, rec *domain.CandidateRecord, ordinal int) *extraction.Result
}

// Driver coordinates a batch of extraction attempts.
type Driver struct {
	processor Processor

	runStore     storage.ExtractionRunStore
	outcomeStore storage.CandidateOutcomeStore

	zapMode   string
	outputDir string
	workers   int
	progress  bool
}

// Options for creating a Driver.
type Options struct {
	// Processor is required.
	Processor Processor

	// Optional persistence; nil disables run history.
	RunStore     storage.ExtractionRunStore
	OutcomeStore storage.CandidateOutcomeStore

	// Recorded on the run row.
	ZapMode   string
	OutputDir string

	// Workers is the number of concurrent extraction attempts. Values below
	// one select sequential processing.
	Workers int

	// Progress enables a terminal progress bar.
	Progress bool
}

// New creates a Driver.
func New(opts Options) *Driver {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Driver{
		processor:    opts.Processor,
		runStore:     opts.RunStore,
		outcomeStore: opts.OutcomeStore,
		zapMode:      opts.ZapMode,
		outputDir:    opts.OutputDir,
		workers:      workers,
		progress:     opts.Progress,
	}
}

// RunResult contains results from one batch execution.
type RunResult struct {
	RunID     string
	Attempted int
	Succeeded int
	Outcomes  []*domain.CandidateOutcome
	Errors    []string
}

// Run processes the candidate set in descending signal-to-noise order.
// Ordinals are assigned 1-based over the sorted order before dispatch, so a
// candidate keeps its ordinal regardless of worker scheduling. A cancelled
// context stops dispatching new candidates; attempts already running finish
// and are reported.
func (d *Driver) Run(ctx context.Context, candidates []*domain.CandidateRecord) (*RunResult, error) {
	runID := uuid.NewString()
	startedAt := time.Now().UnixMilli()

	ordered := make([]*domain.CandidateRecord, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SNR > ordered[j].SNR
	})

	result := &RunResult{RunID: runID}

	log.Info().
		Str("run_id", runID).
		Int("candidates", len(ordered)).
		Int("workers", d.workers).
		Msg("batch started")

	var bar *progressbar.ProgressBar
	if d.progress && len(ordered) > 0 {
		bar = progressbar.Default(int64(len(ordered)), "extracting")
	}

	results := make([]*extraction.Result, len(ordered))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < d.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				observability.RecordExtractionAttempt()
				results[i] = d.processor.Process(ctx, ordered[i], i+1)
				if bar != nil {
					_ = bar.Add(1)
				}
			}
		}()
	}

dispatch:
	for i := range ordered {
		select {
		case <-ctx.Done():
			log.Warn().Str("run_id", runID).Int("remaining", len(ordered)-i).
				Msg("batch cancelled, skipping remaining candidates")
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for i, res := range results {
		if res == nil {
			continue // never dispatched
		}
		result.Attempted++

		outcome := &domain.CandidateOutcome{
			RunID:       runID,
			Ordinal:     res.Ordinal,
			CandidateID: idhash.ComputeCandidateID(ordered[i]),
			SNR:         ordered[i].SNR,
			DM:          ordered[i].DM,
			Status:      res.Status,
			Stage:       res.Stage,
			ImagePath:   res.ImagePath,
		}

		if res.Status == domain.StatusDone {
			result.Succeeded++
			observability.RecordExtractionSuccess()
		} else {
			outcome.Error = res.Err.Error()
			observability.RecordExtractionFailure(string(res.Stage))
			result.Errors = append(result.Errors,
				fmt.Sprintf("candidate %d (snr %.1f, dm %.1f) failed at %s: %v",
					res.Ordinal, ordered[i].SNR, ordered[i].DM, res.Stage, res.Err))
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	d.persist(ctx, result, startedAt)

	log.Info().
		Str("run_id", runID).
		Int("attempted", result.Attempted).
		Int("succeeded", result.Succeeded).
		Int("errors", len(result.Errors)).
		Msg("batch finished")

	return result, nil
}

// persist records the run and its outcomes. Best-effort: storage failures
// are reported through result.Errors, not as a run failure.
func (d *Driver) persist(ctx context.Context, result *RunResult, startedAt int64) {
	if d.runStore != nil {
		run := &domain.ExtractionRun{
			RunID:      result.RunID,
			ZapMode:    d.zapMode,
			OutputDir:  d.outputDir,
			Attempted:  result.Attempted,
			Succeeded:  result.Succeeded,
			StartedAt:  startedAt,
			FinishedAt: time.Now().UnixMilli(),
		}
		if err := d.runStore.Insert(ctx, run); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persist run: %v", err))
		}
	}

	if d.outcomeStore != nil && len(result.Outcomes) > 0 {
		if err := d.outcomeStore.InsertBulk(ctx, result.Outcomes); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("persist outcomes: %v", err))
		}
	}
}
