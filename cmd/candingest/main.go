// Package main provides the live candidate ingest service. It consumes a
// detection feed over WebSocket, applies the interference cut and archives
// every candidate to ClickHouse for later analysis.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"candpipe/internal/classify"
	"candpipe/internal/domain"
	"candpipe/internal/idhash"
	"candpipe/internal/ingest"
	"candpipe/internal/observability"
	"candpipe/internal/storage"
	"candpipe/internal/storage/migrations"
	chstore "candpipe/internal/storage/clickhouse"
)

func main() {
	// Parse flags
	feedURL := flag.String("feed-url", "ws://localhost:8080/candidates", "Candidate feed WebSocket URL")
	clickhouseDSN := flag.String("clickhouse-dsn", "clickhouse://localhost:9000/candpipe", "ClickHouse DSN for the candidate archive")
	metricsAddr := flag.String("metrics-addr", ":9100", "Listen address for the /metrics endpoint")
	flushSize := flag.Int("flush-size", 500, "Archive batch size")
	flushInterval := flag.Duration("flush-interval", 10*time.Second, "Maximum time between archive flushes")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Metrics endpoint
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler())
		if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
			log.Error().Err(err).Str("addr", *metricsAddr).Msg("metrics server stopped")
		}
	}()

	conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing clickhouse: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	archive := chstore.NewCandidateArchiveStore(conn)

	client, err := ingest.NewFeedClient(ctx, *feedURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to feed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	runID := uuid.NewString()
	log.Info().Str("run_id", runID).Str("feed", *feedURL).Msg("ingest started")

	if err := consume(ctx, client, archive, runID, *flushSize, *flushInterval); err != nil {
		fmt.Fprintf(os.Stderr, "Ingest error: %v\n", err)
		os.Exit(1)
	}
}

// consume drains the feed into the archive, flushing by size and by time.
// Returns after the context is cancelled and the final flush is done.
func consume(
	ctx context.Context,
	client *ingest.FeedClient,
	archive storage.CandidateArchiveStore,
	runID string,
	flushSize int,
	flushInterval time.Duration,
) error {
	thresholds := classify.DefaultThresholds()

	var pending []*domain.ArchivedCandidate
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		// Flush with a fresh context so shutdown does not lose the tail.
		flushCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := archive.InsertBulk(flushCtx, pending); err != nil {
			log.Error().Err(err).Int("rows", len(pending)).Msg("archive flush failed")
		} else {
			log.Debug().Int("rows", len(pending)).Msg("archive flushed")
		}
		pending = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil

		case <-ticker.C:
			flush()

		case rec, ok := <-client.Candidates():
			if !ok {
				flush()
				return nil
			}
			pending = append(pending, &domain.ArchivedCandidate{
				RunID:          runID,
				CandidateID:    idhash.ComputeCandidateID(rec),
				SNR:            rec.SNR,
				SampleIndex:    rec.SampleIndex,
				LocalTime:      rec.LocalTime,
				GlobalTime:     rec.GlobalTime,
				FilterCode:     rec.FilterCode,
				DMTrialIndex:   rec.DMTrialIndex,
				ClusterCount:   rec.ClusterCount,
				DM:             rec.DM,
				SourceCandFile: rec.SourceCandFile,
				SourceDataFile: rec.SourceDataFile,
				Retained:       thresholds.Retain(rec),
			})
			if len(pending) >= flushSize {
				flush()
			}
		}
	}
}
