// Package main provides the batch candidate viewer entry point.
// Flow: load candidate files → merge timelines → interference cut →
// per-candidate diagnostic extraction.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"candpipe/internal/batch"
	"candpipe/internal/candfile"
	"candpipe/internal/classify"
	"candpipe/internal/domain"
	"candpipe/internal/extraction"
	"candpipe/internal/observability"
	"candpipe/internal/sigproc"
	"candpipe/internal/storage/migrations"
	"candpipe/internal/storage/postgres"
	"candpipe/internal/timeline"
	"candpipe/internal/window"
	"candpipe/internal/zap"
)

func main() {
	defaults := classify.DefaultThresholds()

	// Parse flags
	zapMode := flag.String("zap-mode", zap.ModeNone, "Zap mask mode for rendering")
	maskDir := flag.String("mask-dir", "", "Directory containing psrsh zap masks")
	outputDir := flag.String("output-dir", ".", "Output directory for rendered plots")
	workDir := flag.String("work-dir", "", "Parent directory for temporary workspaces (default: system temp)")
	sessionGap := flag.Float64("session-gap", timeline.DefaultSessionGap, "Assumed dead time between candidate files in seconds")
	minSNR := flag.Float64("min-snr", defaults.MinSNR, "Retain candidates with snr above this")
	maxFilter := flag.Int("max-filter", defaults.MaxFilter, "Retain candidates with filter code at or below this")
	minDM := flag.Float64("min-dm", defaults.MinDM, "Retain candidates with DM above this")
	maxDM := flag.Float64("max-dm", defaults.MaxDM, "Retain candidates with DM below this (<=0 disables)")
	minClusters := flag.Int("min-clusters", defaults.MinClusters, "Retain candidates with more members than this")
	nchan := flag.Int("nchan", 0, "Override the rendered channel count (0 = derive from snr)")
	nbin := flag.Int("nbin", 0, "Override the folded profile bin count (0 = derive from filter width)")
	length := flag.Float64("length", 0, "Override the extraction length in seconds (0 = derive from smearing)")
	backend := flag.String("backend", "", "Instrument backend hint passed to the folding tool")
	workers := flag.Int("workers", 1, "Concurrent extraction attempts")
	noProgress := flag.Bool("no-progress", false, "Disable the progress bar")
	smearMs := flag.Bool("smear-ms", false, "Smearing estimator reports milliseconds instead of seconds")
	postgresDSN := flag.String("postgres-dsn", "", "Optional Postgres DSN for run history")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	setupLogging(*verbose)

	candFiles := flag.Args()
	if len(candFiles) == 0 {
		fmt.Fprintln(os.Stderr, "usage: candview [flags] <file.cand> [file.cand ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling batch")
		cancel()
	}()

	thresholds := classify.Thresholds{
		MinSNR:      *minSNR,
		MaxFilter:   *maxFilter,
		MinDM:       *minDM,
		MaxDM:       *maxDM,
		MinClusters: *minClusters,
	}
	if err := thresholds.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// Both halves of each pair must exist before anything runs.
	for _, path := range candFiles {
		if _, err := os.Stat(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: candidate file %s: %v\n", path, err)
			os.Exit(1)
		}
		dataFile := candfile.PairedDataFile(path)
		if _, err := os.Stat(dataFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: data file %s for %s: %v\n", dataFile, path, err)
			os.Exit(1)
		}
	}

	// Load and merge candidate files in acquisition order.
	perFile := make([][]*domain.CandidateRecord, 0, len(candFiles))
	for _, path := range candFiles {
		records, err := candfile.Load(path, candfile.Options{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", path, err)
			os.Exit(1)
		}
		perFile = append(perFile, records)
	}

	all, err := timeline.Aggregate(perFile, timeline.Options{SessionGap: *sessionGap})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error merging timelines: %v\n", err)
		os.Exit(1)
	}
	observability.RecordCandidatesLoaded(len(all))

	retained := thresholds.Filter(all)
	observability.RecordCandidatesRetained(len(retained))
	log.Info().Int("loaded", len(all)).Int("retained", len(retained)).Msg("classification done")

	for _, rec := range retained {
		log.Debug().
			Float64("snr", rec.SNR).
			Float64("dm", rec.DM).
			Int("filter", rec.FilterCode).
			Str("source", rec.SourceCandFile).
			Msg("candidate retained")
	}

	if len(retained) == 0 {
		fmt.Println("No candidates survive the cut; nothing to extract.")
		return
	}

	// Optional run history
	var driverOpts batch.Options
	if *postgresDSN != "" {
		pool, err := postgres.NewPool(ctx, *postgresDSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
			os.Exit(1)
		}

		driverOpts.RunStore = postgres.NewExtractionRunStore(pool)
		driverOpts.OutcomeStore = postgres.NewCandidateOutcomeStore(pool)
	}

	smearScale := 1.0
	if *smearMs {
		smearScale = 1e-3
	}

	runner := sigproc.NewExecRunner()
	orch := extraction.New(extraction.Options{
		Header:    sigproc.NewHeaderInspector(runner, ""),
		Deriver:   window.NewDeriver(sigproc.NewDMSmear(runner, sigproc.DMSmearOptions{OutputScale: smearScale})),
		Folder:    extraction.NewFolder(runner, extraction.FolderOptions{Backend: *backend}),
		Renderer:  extraction.NewRenderer(runner, ""),
		Zaps:      zap.NewDefaultRegistry(*maskDir),
		ZapMode:   *zapMode,
		OutputDir: *outputDir,
		WorkDir:   *workDir,
		Overrides: window.Overrides{
			ChannelScrunch: *nchan,
			BinCount:       *nbin,
			Length:         *length,
		},
	})

	driverOpts.Processor = orch
	driverOpts.ZapMode = *zapMode
	driverOpts.OutputDir = *outputDir
	driverOpts.Workers = *workers
	driverOpts.Progress = !*noProgress

	result, err := batch.New(driverOpts).Run(ctx, retained)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Batch error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run %s completed:\n", result.RunID)
	fmt.Printf("  Attempted: %d\n", result.Attempted)
	fmt.Printf("  Succeeded: %d\n", result.Succeeded)
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}

	if result.Attempted > 0 && result.Succeeded == 0 {
		os.Exit(1)
	}
}

// setupLogging configures the global console logger.
func setupLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
