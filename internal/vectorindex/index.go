// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package vectorindex stores album embeddings and answers cosine similarity
// queries. Three backends implement Index: Qdrant (default), Postgres with
// pgvector, and an in-memory index for tests and local runs.
package vectorindex

import (
	"context"
	"fmt"
	"sort"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/faults"
)

// Backend names accepted by Open.
const (
	BackendQdrant   = "qdrant"
	BackendPgVector = "pgvector"
	BackendMemory   = "memory"
)

// Health status values.
const (
	StatusHealthy = "healthy"
	StatusError   = "error"
)

// DefaultSearchLimit is used when Search is called with limit <= 0.
const DefaultSearchLimit = 10

// Point is one indexed album. ID is the source record ID.
type Point struct {
	ID      int64
	Vector  []float32
	Payload catalog.Payload
}

// Hit is a search result.
type Hit struct {
	ID      int64           `json:"id"`
	Score   float32         `json:"score"`
	Payload catalog.Payload `json:"payload"`
}

// Filter restricts a search to points whose payload Field equals Value.
type Filter struct {
	Field string
	Value string
}

// Health reports index reachability and size.
type Health struct {
	Status     string `json:"status"`
	Collection string `json:"collection"`
	PointCount uint64 `json:"points_count"`
	Error      string `json:"error,omitempty"`
}

// Index is a vector collection with a fixed dimension and cosine distance.
type Index interface {
	// Initialize creates the collection when it does not exist.
	Initialize(ctx context.Context) error

	// ExistingIDs returns every stored point ID.
	ExistingIDs(ctx context.Context) (map[int64]struct{}, error)

	// Upsert writes p, replacing any point with the same ID.
	Upsert(ctx context.Context, p Point) error

	// Search returns up to limit hits by descending score, ties by ascending ID.
	Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]Hit, error)

	Health(ctx context.Context) Health
	Dimension() int
	Close() error
}

// Open connects to the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg config.VectorConfig) (Index, error) {
	switch cfg.Backend {
	case BackendQdrant:
		return OpenQdrant(cfg)
	case BackendPgVector:
		return OpenPgVector(ctx, cfg)
	case BackendMemory:
		return NewMemory(cfg.Collection, cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Backend)
	}
}

// SortHits orders hits by descending score, then ascending ID.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
}

func checkDimension(op string, vec []float32, want int) error {
	if len(vec) != want {
		return faults.DimensionMismatch(op, len(vec), want)
	}
	return nil
}

func storageError(op string, err error) error {
	return faults.New(faults.KindStorage, op, err)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}
