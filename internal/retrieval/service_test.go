// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/embedding"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/metrics"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

type mockEmbedder struct {
	calls atomic.Int32
	vec   embedding.Vector
	err   error
	last  string
}

func (m *mockEmbedder) EmbedOne(_ context.Context, text string) (embedding.Vector, error) {
	m.calls.Add(1)
	m.last = text
	return m.vec, m.err
}

type mockSearcher struct {
	calls      atomic.Int32
	dim        int
	hits       []vectorindex.Hit
	err        error
	lastLimit  int
	lastFilter *vectorindex.Filter
}

func (m *mockSearcher) Search(_ context.Context, _ []float32, limit int, filter *vectorindex.Filter) ([]vectorindex.Hit, error) {
	m.calls.Add(1)
	m.lastLimit = limit
	m.lastFilter = filter
	return m.hits, m.err
}

func (m *mockSearcher) Dimension() int { return m.dim }

func vectorOf(dim int) embedding.Vector {
	v := make(embedding.Vector, dim)
	v[0] = 1
	return v
}

func TestRecommendEmptyReviewDoesNoIO(t *testing.T) {
	emb := &mockEmbedder{vec: vectorOf(4)}
	idx := &mockSearcher{dim: 4}
	svc := NewService(emb, idx)

	for _, text := range []string{"", "   \n\t"} {
		hits := svc.Recommend(context.Background(), Query{ReviewText: text})
		if hits == nil || len(hits) != 0 {
			t.Errorf("Recommend(%q) = %v, want empty non-nil slice", text, hits)
		}
	}
	if emb.calls.Load() != 0 || idx.calls.Load() != 0 {
		t.Errorf("expected no provider calls, got embed=%d search=%d", emb.calls.Load(), idx.calls.Load())
	}
}

func TestRecommendDegradesWhenEmbedderFails(t *testing.T) {
	emb := &mockEmbedder{err: faults.New(faults.KindEmbedding, "embed", faults.ErrProviderUnavailable)}
	idx := &mockSearcher{dim: 4}
	before := testutil.ToFloat64(metrics.RetrievalRequests.WithLabelValues(OutcomeEmbedFailed))

	res := NewService(emb, idx).Lookup(context.Background(), Query{ReviewText: "smoky ballads"})
	if res.Hits == nil || len(res.Hits) != 0 || !res.Degraded {
		t.Fatalf("unexpected result: %+v", res)
	}
	if !faults.Is(res.Err, faults.KindRetrievalDegraded) || !errors.Is(res.Err, faults.ErrProviderUnavailable) {
		t.Errorf("unexpected cause: %v", res.Err)
	}
	if idx.calls.Load() != 0 {
		t.Error("search should not run after an embedding failure")
	}
	if got := testutil.ToFloat64(metrics.RetrievalRequests.WithLabelValues(OutcomeEmbedFailed)); got != before+1 {
		t.Errorf("embed_failed counter = %v, want %v", got, before+1)
	}
}

func TestRecommendDimensionGuard(t *testing.T) {
	emb := &mockEmbedder{vec: vectorOf(512)}
	idx := &mockSearcher{dim: 1024, hits: []vectorindex.Hit{{ID: 1}}}

	res := NewService(emb, idx).Lookup(context.Background(), Query{ReviewText: "late night trio"})
	if len(res.Hits) != 0 || !res.Degraded {
		t.Fatalf("expected empty degraded result, got %+v", res)
	}
	if !errors.Is(res.Err, faults.ErrDimensionMismatch) {
		t.Errorf("expected dimension mismatch, got %v", res.Err)
	}
	if idx.calls.Load() != 0 {
		t.Error("search must not be called on dimension mismatch")
	}
}

func TestRecommendDegradesWhenSearchFails(t *testing.T) {
	emb := &mockEmbedder{vec: vectorOf(4)}
	idx := &mockSearcher{dim: 4, err: errors.New("deadline exceeded")}

	hits := NewService(emb, idx).Recommend(context.Background(), Query{ReviewText: "bebop"})
	if hits == nil || len(hits) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", hits)
	}
}

func TestRecommendBuildsQueryAndFilter(t *testing.T) {
	emb := &mockEmbedder{vec: vectorOf(4)}
	want := []vectorindex.Hit{
		{ID: 7, Score: 0.9, Payload: catalog.Payload{catalog.FieldTitle: "Moanin'"}},
		{ID: 3, Score: 0.8},
	}
	idx := &mockSearcher{dim: 4, hits: want}
	svc := NewService(emb, idx)

	hits := svc.Recommend(context.Background(), Query{ReviewText: "hard bop drive", Artist: " Art Blakey "})
	if len(hits) != 2 || hits[0].ID != 7 {
		t.Fatalf("unexpected hits: %+v", hits)
	}
	if idx.lastLimit != DefaultLimit {
		t.Errorf("limit = %d, want %d", idx.lastLimit, DefaultLimit)
	}
	if idx.lastFilter == nil || idx.lastFilter.Field != catalog.FieldArtist || idx.lastFilter.Value != "Art Blakey" {
		t.Errorf("unexpected filter: %+v", idx.lastFilter)
	}
	if !strings.HasPrefix(emb.last, "리뷰 요약: hard bop drive") {
		t.Errorf("query text not composed: %q", emb.last)
	}

	svc.Recommend(context.Background(), Query{ReviewText: "x", Limit: 3})
	if idx.lastLimit != 3 || idx.lastFilter != nil {
		t.Errorf("limit/filter = %d/%v, want 3/nil", idx.lastLimit, idx.lastFilter)
	}
}

func TestRecommendNilHitsBecomeEmpty(t *testing.T) {
	hits := NewService(&mockEmbedder{vec: vectorOf(2)}, &mockSearcher{dim: 2}).
		Recommend(context.Background(), Query{ReviewText: "anything"})
	if hits == nil {
		t.Error("Recommend returned nil slice")
	}
}
