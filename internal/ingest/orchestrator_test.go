// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package ingest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/embedding"
	"github.com/tomtom215/jazzmate/internal/ledger"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

const testDim = 4

type staticSource struct {
	records []catalog.SourceRecord
	err     error
}

func (s *staticSource) FetchRecords(_ context.Context) ([]catalog.SourceRecord, error) {
	return s.records, s.err
}

// mockEmbedder returns a vector per text. Texts containing a substring in
// fail get nil; texts containing a substring in short get a 2-dim vector.
type mockEmbedder struct {
	calls atomic.Int32
	fail  []string
	short []string
	panic bool
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) []embedding.Vector {
	m.calls.Add(1)
	if m.panic {
		panic("embedder exploded")
	}
	out := make([]embedding.Vector, len(texts))
	for i, text := range texts {
		switch {
		case containsAny(text, m.fail):
			out[i] = nil
		case containsAny(text, m.short):
			out[i] = embedding.Vector{1, 0}
		default:
			out[i] = embedding.Vector{1, float32(i), 0, 0.5}
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// flakyIndex wraps the memory backend and fails upserts for chosen IDs.
type flakyIndex struct {
	*vectorindex.Memory
	mu      sync.Mutex
	failIDs map[int64]bool
	upserts int
}

func (f *flakyIndex) Upsert(ctx context.Context, p vectorindex.Point) error {
	f.mu.Lock()
	f.upserts++
	fail := f.failIDs[p.ID]
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return f.Memory.Upsert(ctx, p)
}

func newFlakyIndex(t *testing.T, existing ...int64) *flakyIndex {
	t.Helper()
	mem := vectorindex.NewMemory("albums", testDim)
	ctx := context.Background()
	if err := mem.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize index: %v", err)
	}
	for _, id := range existing {
		p := vectorindex.Point{ID: id, Vector: []float32{0, 1, 0, 0}, Payload: catalog.Payload{"id": id}}
		if err := mem.Upsert(ctx, p); err != nil {
			t.Fatalf("Failed to seed point %d: %v", id, err)
		}
	}
	return &flakyIndex{Memory: mem, failIDs: map[int64]bool{}}
}

func openLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(config.LedgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open ledger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func album(id int64, title string) catalog.SourceRecord {
	return catalog.SourceRecord{
		ID:            id,
		Artist:        "Sonny Rollins",
		Title:         title,
		ReviewContent: "Muscular tenor improvisation over a loose rhythm section.",
		ReviewSummary: "Saxophone colossus.",
	}
}

func TestRunSkipsExistingRecords(t *testing.T) {
	records := []catalog.SourceRecord{
		album(1, "Album One"),
		album(2, "Album Two"),
		album(3, "Album Three"),
		album(4, "Album Four"),
		album(5, "Album Five"),
	}
	invalid := album(6, "No Summary")
	invalid.ReviewSummary = ""
	records = append(records, invalid)

	idx := newFlakyIndex(t, 2, 4)
	orch := New(&staticSource{records: records}, &mockEmbedder{}, idx, openLedger(t))

	var progress []Progress
	report, err := orch.Run(context.Background(), Options{
		BatchSize: 2,
		Progress:  func(p Progress) { progress = append(progress, p) },
	})
	if err != nil {
		t.Fatalf("Failed to run ingestion: %v", err)
	}

	if report.Total != 6 || report.Valid != 5 || report.Invalid != 1 {
		t.Errorf("counts total/valid/invalid = %d/%d/%d, want 6/5/1", report.Total, report.Valid, report.Invalid)
	}
	if report.Existing != 2 {
		t.Errorf("Existing = %d, want 2", report.Existing)
	}
	if report.New != 3 || report.Uploaded != 3 || report.Failed != 0 {
		t.Errorf("new/uploaded/failed = %d/%d/%d, want 3/3/0", report.New, report.Uploaded, report.Failed)
	}
	if report.SuccessRate != 100 {
		t.Errorf("SuccessRate = %v, want 100", report.SuccessRate)
	}
	if report.RunID == "" {
		t.Error("RunID should be set")
	}
	if idx.Len() != 5 {
		t.Errorf("index holds %d points, want 5", idx.Len())
	}
	if orch.Stage() != StageDone {
		t.Errorf("Stage = %v, want done", orch.Stage())
	}

	if len(progress) != 2 {
		t.Fatalf("expected 2 progress callbacks, got %d", len(progress))
	}
	last := progress[len(progress)-1]
	if last.Processed != 3 || last.Total != 3 || last.Percent() != 100 {
		t.Errorf("final progress = %+v", last)
	}
}

func TestRunLedgersUpsertFailures(t *testing.T) {
	records := []catalog.SourceRecord{album(10, "Ten"), album(11, "Eleven"), album(12, "Twelve")}
	idx := newFlakyIndex(t)
	idx.failIDs[11] = true
	l := openLedger(t)

	report, err := New(&staticSource{records: records}, &mockEmbedder{}, idx, l).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Failed to run ingestion: %v", err)
	}
	if report.Uploaded != 2 || report.Failed != 1 || report.Retryable != 1 {
		t.Errorf("uploaded/failed/retryable = %d/%d/%d, want 2/1/1", report.Uploaded, report.Failed, report.Retryable)
	}

	entries, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("Failed to list ledger: %v", err)
	}
	if len(entries) != 1 || entries[0].Record.ID != 11 {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
	if !entries[0].HasEmbedding() || entries[0].ErrorMessage != "connection reset" {
		t.Errorf("ledger entry missing embedding or message: %+v", entries[0])
	}
}

func TestRunEmbeddingFailuresAreNotLedgered(t *testing.T) {
	records := []catalog.SourceRecord{album(20, "Broken"), album(21, "Narrow"), album(22, "Fine")}
	emb := &mockEmbedder{fail: []string{"Broken"}, short: []string{"Narrow"}}
	idx := newFlakyIndex(t)
	l := openLedger(t)

	report, err := New(&staticSource{records: records}, emb, idx, l).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Failed to run ingestion: %v", err)
	}
	if report.Uploaded != 1 || report.Failed != 2 {
		t.Errorf("uploaded/failed = %d/%d, want 1/2", report.Uploaded, report.Failed)
	}
	if report.Retryable != 0 {
		t.Errorf("Retryable = %d, want 0", report.Retryable)
	}
	if idx.upserts != 1 {
		t.Errorf("upserts = %d, want 1", idx.upserts)
	}
}

func TestRunLimitAppliesAfterDedupe(t *testing.T) {
	records := []catalog.SourceRecord{album(1, "A"), album(2, "B"), album(3, "C"), album(4, "D")}
	idx := newFlakyIndex(t, 1)

	report, err := New(&staticSource{records: records}, &mockEmbedder{}, idx, openLedger(t)).
		Run(context.Background(), Options{Limit: 2})
	if err != nil {
		t.Fatalf("Failed to run ingestion: %v", err)
	}
	if report.Existing != 1 || report.New != 2 || report.Uploaded != 2 {
		t.Errorf("existing/new/uploaded = %d/%d/%d, want 1/2/2", report.Existing, report.New, report.Uploaded)
	}
}

func TestRunRecoversBatchPanic(t *testing.T) {
	records := []catalog.SourceRecord{album(1, "A"), album(2, "B"), album(3, "C")}
	emb := &mockEmbedder{panic: true}

	report, err := New(&staticSource{records: records}, emb, newFlakyIndex(t), openLedger(t)).
		Run(context.Background(), Options{BatchSize: 2})
	if err != nil {
		t.Fatalf("Failed to run ingestion: %v", err)
	}
	if report.Failed != 3 || report.Uploaded != 0 {
		t.Errorf("failed/uploaded = %d/%d, want 3/0", report.Failed, report.Uploaded)
	}
	if got := emb.calls.Load(); got != 2 {
		t.Errorf("embedder called %d times, want 2 (processing continues after a panic)", got)
	}
}

func TestRunSourceError(t *testing.T) {
	src := &staticSource{err: errors.New("relation does not exist")}
	report, err := New(src, &mockEmbedder{}, newFlakyIndex(t), openLedger(t)).Run(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error when the source fails")
	}
	if report == nil || report.Total != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestRunCancelledStopsAtBatchBoundary(t *testing.T) {
	records := []catalog.SourceRecord{album(1, "A"), album(2, "B"), album(3, "C"), album(4, "D")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report, err := New(&staticSource{records: records}, &mockEmbedder{}, newFlakyIndex(t), openLedger(t)).
		Run(ctx, Options{
			BatchSize: 2,
			Progress:  func(Progress) { cancel() },
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Canceled || report.Uploaded != 2 {
		t.Errorf("canceled/uploaded = %v/%d, want true/2", report.Canceled, report.Uploaded)
	}
}

// cancelingEmbedder cancels the run after returning its vectors, as a
// deadline firing between embedding and upsert would.
type cancelingEmbedder struct {
	mockEmbedder
	cancel context.CancelFunc
}

func (c *cancelingEmbedder) EmbedBatch(ctx context.Context, texts []string) []embedding.Vector {
	out := c.mockEmbedder.EmbedBatch(ctx, texts)
	c.cancel()
	return out
}

func TestRunCancelledMidBatchLedgersUpsertFailures(t *testing.T) {
	records := []catalog.SourceRecord{album(21, "Twenty-One"), album(22, "Twenty-Two")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := openLedger(t)

	report, err := New(&staticSource{records: records}, &cancelingEmbedder{cancel: cancel}, newFlakyIndex(t), l).
		Run(ctx, Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !report.Canceled || report.Uploaded != 0 || report.Failed != 2 || report.Retryable != 2 {
		t.Errorf("canceled/uploaded/failed/retryable = %v/%d/%d/%d, want true/0/2/2",
			report.Canceled, report.Uploaded, report.Failed, report.Retryable)
	}

	entries, err := l.List(context.Background())
	if err != nil {
		t.Fatalf("Failed to list ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both records ledgered, got %d", len(entries))
	}
	for _, e := range entries {
		if !e.HasEmbedding() {
			t.Errorf("record %d ledgered without its embedding", e.Record.ID)
		}
	}
}

func TestStageString(t *testing.T) {
	if StageDeduplicating.String() != "deduplicating" || Stage(99).String() != "idle" {
		t.Error("unexpected stage names")
	}
}
