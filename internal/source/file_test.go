// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
)

func TestFileFetchRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	data := `[
  {"id": 1, "album_artist": "John Coltrane", "album_title": "Blue Train", "album_year": 1958,
   "track_listing": "{\"1\": \"Blue Train\"}", "content": "Hard bop", "review_summary": "Essential"},
  {"id": 2, "album_artist": "Thelonious Monk", "album_title": "Brilliant Corners", "content": "", "review_summary": "Angular"}
]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	records, err := File{Path: path}.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("Failed to fetch records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Year == nil || *records[0].Year != 1958 {
		t.Errorf("year not decoded: %+v", records[0].Year)
	}
	if records[0].TrackListing.Decode()["1"] != "Blue Train" {
		t.Errorf("string-encoded track listing not decoded: %s", records[0].TrackListing)
	}

	valid, invalid := catalog.Partition(records)
	if len(valid) != 1 || invalid != 1 {
		t.Errorf("valid/invalid = %d/%d, want 1/1", len(valid), invalid)
	}
}

func TestFileFetchRecordsErrors(t *testing.T) {
	if _, err := (File{Path: filepath.Join(t.TempDir(), "missing.json")}).FetchRecords(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id": 1}`), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := (File{Path: bad}).FetchRecords(context.Background()); err == nil {
		t.Error("expected error for non-array JSON")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (File{Path: bad}).FetchRecords(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOpenPostgresRequiresDSN(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), config.SourceConfig{}); !errors.Is(err, ErrNoDSN) {
		t.Errorf("expected ErrNoDSN, got %v", err)
	}
}
