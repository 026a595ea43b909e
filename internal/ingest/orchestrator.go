// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

// ErrAlreadyRunning is returned when Run is called during another run.
var ErrAlreadyRunning = errors.New("ingestion already in progress")

// Orchestrator runs the fetch, validate, dedupe, embed and upsert pipeline.
type Orchestrator struct {
	source   Source
	embedder Embedder
	index    Index
	ledger   Ledger

	mu      sync.RWMutex
	running bool
	stage   Stage
}

// New creates an orchestrator.
func New(source Source, embedder Embedder, index Index, ledger Ledger) *Orchestrator {
	return &Orchestrator{
		source:   source,
		embedder: embedder,
		index:    index,
		ledger:   ledger,
	}
}

// Stage returns the current stage.
func (o *Orchestrator) Stage() Stage {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.stage
}

func (o *Orchestrator) setStage(s Stage) {
	o.mu.Lock()
	o.stage = s
	o.mu.Unlock()
	logging.Debug().Str("stage", s.String()).Msg("Ingestion stage")
}

// Run executes one ingestion pass.
//
// Per-record and per-batch failures never abort the run; they are counted in
// the report. Run returns an error only when the index cannot be prepared,
// the source cannot be read, or ctx is cancelled. On cancellation the report
// holds the counts up to the last completed batch.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	start := time.Now()
	report := &Report{RunID: uuid.New().String(), StartedAt: start.UTC()}
	log := logging.With().Str("run_id", report.RunID).Logger()

	err := o.run(ctx, opts, report)
	report.finish(start)
	metrics.RecordIngestRun(err)

	if err != nil {
		log.Error().Err(err).Int("uploaded", report.Uploaded).Int("failed", report.Failed).Msg("Ingestion stopped")
		return report, err
	}

	log.Info().
		Int("total", report.Total).
		Int("invalid", report.Invalid).
		Int("existing", report.Existing).
		Int("new", report.New).
		Int("uploaded", report.Uploaded).
		Int("failed", report.Failed).
		Int("retryable", report.Retryable).
		Float64("success_rate", report.SuccessRate).
		Dur("duration", report.Duration).
		Msg("Ingestion completed")
	return report, nil
}

func (o *Orchestrator) run(ctx context.Context, opts Options, report *Report) error {
	if err := o.index.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize index: %w", err)
	}

	o.setStage(StageFetching)
	records, err := o.source.FetchRecords(ctx)
	if err != nil {
		return fmt.Errorf("fetch records: %w", err)
	}
	report.Total = len(records)

	o.setStage(StageFiltering)
	valid, invalid := catalog.Partition(records)
	report.Valid = len(valid)
	report.Invalid = invalid
	metrics.RecordIngestRecords("invalid", invalid)

	o.setStage(StageDeduplicating)
	pending := o.dropExisting(ctx, valid, report)
	if opts.Limit > 0 && len(pending) > opts.Limit {
		pending = pending[:opts.Limit]
	}
	report.New = len(pending)

	canceled := o.processBatches(ctx, pending, opts, report)

	o.setStage(StageReporting)
	if n, err := o.ledger.Count(context.WithoutCancel(ctx)); err == nil {
		report.Retryable = n
	} else {
		logging.Warn().Err(err).Msg("Failed to count ledger entries")
	}
	o.setStage(StageDone)

	if canceled {
		report.Canceled = true
		return ctx.Err()
	}
	return nil
}

// dropExisting removes records already in the index. If the scan fails the
// records are all kept; upserts are idempotent so the cost is only work.
func (o *Orchestrator) dropExisting(ctx context.Context, valid []catalog.SourceRecord, report *Report) []catalog.SourceRecord {
	existing, err := o.index.ExistingIDs(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to list existing points, re-uploading all valid records")
		return valid
	}

	pending := make([]catalog.SourceRecord, 0, len(valid))
	for _, rec := range valid {
		if _, ok := existing[rec.ID]; ok {
			report.Existing++
			continue
		}
		pending = append(pending, rec)
	}
	metrics.RecordIngestRecords("existing", report.Existing)
	return pending
}

// processBatches reports whether ctx was cancelled before all batches ran.
func (o *Orchestrator) processBatches(ctx context.Context, pending []catalog.SourceRecord, opts Options, report *Report) bool {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	processed := 0
	for startIdx := 0; startIdx < len(pending); startIdx += size {
		if ctx.Err() != nil {
			return true
		}
		end := startIdx + size
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[startIdx:end]

		uploaded, failed := o.processBatch(ctx, batch)
		report.Uploaded += uploaded
		report.Failed += failed
		processed += len(batch)

		if opts.Progress != nil {
			opts.Progress(Progress{Processed: processed, Total: len(pending)})
		}
	}
	return ctx.Err() != nil
}

// processBatch embeds and upserts one batch. A panic anywhere in the batch
// counts every record not yet uploaded as failed.
func (o *Orchestrator) processBatch(ctx context.Context, batch []catalog.SourceRecord) (uploaded, failed int) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Int64("first_id", batch[0].ID).
				Int("size", len(batch)).
				Msg("Batch processing panicked")
			failed = len(batch) - uploaded
			metrics.RecordIngestRecords("batch_failed", failed)
		}
	}()

	o.setStage(StageEmbedding)
	texts := make([]string, len(batch))
	for i := range batch {
		texts[i] = catalog.Compose(&batch[i])
	}
	vectors := o.embedder.EmbedBatch(ctx, texts)
	if len(vectors) != len(batch) {
		logging.Error().Int("expected", len(batch)).Int("got", len(vectors)).Msg("Embedder returned a misaligned batch")
		metrics.RecordIngestRecords("batch_failed", len(batch))
		return 0, len(batch)
	}

	o.setStage(StageUpserting)
	dim := o.index.Dimension()
	embedFailed, uploadFailed := 0, 0
	for i := range batch {
		rec := &batch[i]
		vec := vectors[i]

		if vec == nil {
			embedFailed++
			continue
		}
		if len(vec) != dim {
			logging.Warn().
				Err(faults.DimensionMismatch("ingest", len(vec), dim)).
				Int64("record_id", rec.ID).
				Msg("Discarding embedding with wrong dimension")
			embedFailed++
			continue
		}

		err := o.index.Upsert(ctx, vectorindex.Point{
			ID:      rec.ID,
			Vector:  vec,
			Payload: catalog.NewPayload(rec),
		})
		if err != nil {
			uploadFailed++
			// The failure must be ledgered even when ctx expired mid-batch.
			if _, lerr := o.ledger.Record(context.WithoutCancel(ctx), rec, vec, err.Error(), faults.KindStorage); lerr != nil {
				logging.Error().Err(lerr).Int64("record_id", rec.ID).Msg("Failed to record upsert failure in ledger")
			}
			continue
		}
		uploaded++
	}

	metrics.RecordIngestRecords("embed_failed", embedFailed)
	metrics.RecordIngestRecords("upload_failed", uploadFailed)
	metrics.RecordIngestRecords("uploaded", uploaded)
	return uploaded, embedFailed + uploadFailed
}
