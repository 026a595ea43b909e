// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

var errNotInitialized = errors.New("collection not initialized")

// Memory is a brute-force cosine index held in a map.
type Memory struct {
	mu          sync.RWMutex
	collection  string
	dim         int
	initialized bool
	points      map[int64]Point
}

// NewMemory returns an empty, uninitialized in-memory index.
func NewMemory(collection string, dim int) *Memory {
	return &Memory{
		collection: collection,
		dim:        dim,
		points:     make(map[int64]Point),
	}
}

// Initialize implements Index.
func (m *Memory) Initialize(_ context.Context) error {
	m.mu.Lock()
	m.initialized = true
	m.mu.Unlock()
	metrics.RecordVectorOp("initialize", BackendMemory, nil)
	return nil
}

// ExistingIDs implements Index.
func (m *Memory) ExistingIDs(ctx context.Context) (map[int64]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[int64]struct{}, len(m.points))
	for id := range m.points {
		ids[id] = struct{}{}
	}
	metrics.RecordVectorOp("scroll", BackendMemory, nil)
	return ids, nil
}

// Upsert implements Index. Vectors and payloads are copied.
func (m *Memory) Upsert(ctx context.Context, p Point) error {
	const op = "vectorindex.memory.Upsert"
	err := m.upsert(ctx, op, p)
	metrics.RecordVectorOp("upsert", BackendMemory, err)
	return err
}

func (m *Memory) upsert(ctx context.Context, op string, p Point) error {
	if err := ctx.Err(); err != nil {
		return storageError(op, err)
	}
	if err := checkDimension(op, p.Vector, m.dim); err != nil {
		return err
	}
	payload, err := catalog.Normalize(p.Payload)
	if err != nil {
		return storageError(op, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized {
		return storageError(op, errNotInitialized)
	}
	m.points[p.ID] = Point{
		ID:      p.ID,
		Vector:  append([]float32(nil), p.Vector...),
		Payload: payload,
	}
	return nil
}

// Search implements Index.
func (m *Memory) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]Hit, error) {
	const op = "vectorindex.memory.Search"
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDimension(op, vector, m.dim); err != nil {
		return nil, err
	}

	m.mu.RLock()
	hits := make([]Hit, 0, len(m.points))
	for _, p := range m.points {
		if filter != nil && !matches(p.Payload, filter) {
			continue
		}
		hits = append(hits, Hit{ID: p.ID, Score: cosine(vector, p.Vector), Payload: p.Payload})
	}
	m.mu.RUnlock()

	SortHits(hits)
	if limit = normalizeLimit(limit); len(hits) > limit {
		hits = hits[:limit]
	}
	metrics.RecordVectorOp("search", BackendMemory, nil)
	return hits, nil
}

// Health implements Index.
func (m *Memory) Health(_ context.Context) Health {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := Health{Status: StatusHealthy, Collection: m.collection, PointCount: uint64(len(m.points))}
	if !m.initialized {
		h.Status = StatusError
		h.Error = errNotInitialized.Error()
	}
	return h
}

// Dimension implements Index.
func (m *Memory) Dimension() int { return m.dim }

// Close implements Index.
func (m *Memory) Close() error { return nil }

// Len returns the number of stored points.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}

func matches(p catalog.Payload, f *Filter) bool {
	v, ok := p[f.Field]
	if !ok {
		return false
	}
	if s, ok := v.(string); ok {
		return s == f.Value
	}
	return fmt.Sprint(v) == f.Value
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
