// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

//go:build integration

package source

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/testinfra"
)

const fixtureSQL = `
CREATE TABLE critics_review (
  id serial PRIMARY KEY,
  title text,
  reviewer text,
  content text,
  album_info text,
  track_listing text,
  personnel text,
  review_summary text
);
CREATE TABLE album (
  id serial PRIMARY KEY,
  album_artist varchar(255),
  album_title varchar(255),
  album_year integer,
  album_label varchar(255),
  track_listing jsonb,
  critics_review_id integer REFERENCES critics_review(id)
);
INSERT INTO critics_review (id, title, content, review_summary) VALUES
  (1, 'Miles Davis: Kind of Blue', 'Modal landmark', 'Essential'),
  (2, 'Unsummarized', 'Some text', NULL),
  (3, 'Art Pepper: Meets the Rhythm Section', 'West coast alto', 'Relaxed');
INSERT INTO album (id, album_artist, album_title, album_year, album_label, track_listing, critics_review_id) VALUES
  (10, 'Miles Davis', 'Kind of Blue', 1959, 'Columbia', '{"1": "So What"}', 1),
  (11, 'Nobody', 'No Summary', NULL, NULL, NULL, 2),
  (12, 'Art Pepper', 'Meets the Rhythm Section', NULL, 'Contemporary', NULL, 3);
`

func TestPostgresIntegration(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	pg, err := testinfra.NewPgVectorContainer(ctx)
	if err != nil {
		t.Fatalf("Failed to start postgres: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, pg)

	conn, err := pgx.Connect(ctx, pg.DSN)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	if _, err := conn.Exec(ctx, fixtureSQL); err != nil {
		t.Fatalf("Failed to load fixture: %v", err)
	}
	conn.Close(ctx)

	src, err := OpenPostgres(ctx, config.SourceConfig{DSN: pg.DSN, MaxConns: 2})
	if err != nil {
		t.Fatalf("Failed to open source: %v", err)
	}
	defer src.Close()

	records, err := src.FetchRecords(ctx)
	if err != nil {
		t.Fatalf("FetchRecords failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != 10 || records[1].ID != 12 {
		t.Fatalf("unexpected records: %+v", records)
	}
	if records[0].Year == nil || *records[0].Year != 1959 {
		t.Errorf("year = %v", records[0].Year)
	}
	if records[0].TrackListing.Decode()["1"] != "So What" {
		t.Errorf("track listing = %s", records[0].TrackListing)
	}
	if records[1].Year != nil || records[1].TrackListing.Present() {
		t.Errorf("nullable columns should stay empty: %+v", records[1])
	}

	reviews, err := src.FetchReviewRange(ctx, 2, 3)
	if err != nil {
		t.Fatalf("FetchReviewRange failed: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != 2 || reviews[0].ReviewSummary != "" {
		t.Errorf("unexpected reviews: %+v", reviews)
	}
}
