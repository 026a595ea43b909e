// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package ingest

import (
	"context"
	"time"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/embedding"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

// Source yields the album/review records to ingest.
type Source interface {
	FetchRecords(ctx context.Context) ([]catalog.SourceRecord, error)
}

// Embedder embeds a batch of texts; nil slots are failures.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) []embedding.Vector
}

// Index is the part of vectorindex.Index the orchestrator writes to.
type Index interface {
	Initialize(ctx context.Context) error
	ExistingIDs(ctx context.Context) (map[int64]struct{}, error)
	Upsert(ctx context.Context, p vectorindex.Point) error
	Dimension() int
}

// Ledger receives records whose upsert failed after embedding.
type Ledger interface {
	Record(ctx context.Context, rec *catalog.SourceRecord, embedding []float32, errMsg string, kind faults.Kind) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Stage is the orchestrator's position in a run. Stages only move forward.
type Stage int

const (
	StageIdle Stage = iota
	StageFetching
	StageFiltering
	StageDeduplicating
	StageEmbedding
	StageUpserting
	StageReporting
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageFetching:
		return "fetching"
	case StageFiltering:
		return "filtering"
	case StageDeduplicating:
		return "deduplicating"
	case StageEmbedding:
		return "embedding"
	case StageUpserting:
		return "upserting"
	case StageReporting:
		return "reporting"
	case StageDone:
		return "done"
	default:
		return "idle"
	}
}

// Progress is passed to Options.Progress after each batch.
type Progress struct {
	Processed int
	Total     int
}

// Percent returns Processed as a percentage of Total.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Processed) / float64(p.Total) * 100
}

// DefaultBatchSize is used when Options.BatchSize is not positive.
const DefaultBatchSize = 20

// Options control one run.
type Options struct {
	BatchSize int
	// Limit caps the number of new records processed; 0 means no cap.
	// It is applied after existing records are removed.
	Limit    int
	Progress func(Progress)
}

// Report summarizes a run.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`

	Total    int `json:"total"`
	Valid    int `json:"valid"`
	Invalid  int `json:"invalid"`
	Existing int `json:"existing"`
	New      int `json:"new"`

	Uploaded  int `json:"uploaded"`
	Failed    int `json:"failed"`
	Retryable int `json:"retryable"`

	SuccessRate float64       `json:"success_rate"`
	Duration    time.Duration `json:"duration"`
	Canceled    bool          `json:"canceled"`
}

func (r *Report) finish(start time.Time) {
	r.Duration = time.Since(start)
	if r.New > 0 {
		r.SuccessRate = float64(r.Uploaded) / float64(r.New) * 100
	}
}
