// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package source reads album and critics review records from the shop's
// relational store, or from a JSON export of the same records.
package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/logging"
)

// ErrNoDSN is returned by OpenPostgres when no connection string is configured.
var ErrNoDSN = errors.New("source DSN not configured")

// albumsWithReviewsSQL joins each album to its critics review and keeps only
// rows where both review fields are present.
const albumsWithReviewsSQL = `
SELECT a.id,
       COALESCE(a.album_artist, ''),
       COALESCE(a.album_title, ''),
       a.album_year,
       COALESCE(a.album_label, ''),
       a.track_listing::text,
       a.critics_review_id,
       cr.content,
       cr.review_summary
FROM album a
JOIN critics_review cr ON cr.id = a.critics_review_id
WHERE cr.content IS NOT NULL
  AND cr.review_summary IS NOT NULL
ORDER BY a.id`

const reviewRangeSQL = `
SELECT id,
       COALESCE(title, ''),
       COALESCE(reviewer, ''),
       COALESCE(content, ''),
       COALESCE(album_info, ''),
       COALESCE(track_listing, ''),
       COALESCE(personnel, ''),
       COALESCE(review_summary, '')
FROM critics_review
WHERE id BETWEEN $1 AND $2
ORDER BY id`

// CriticsReview is one row of the critics_review table.
type CriticsReview struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Reviewer      string `json:"reviewer"`
	Content       string `json:"content"`
	AlbumInfo     string `json:"album_info"`
	TrackListing  string `json:"track_listing"`
	Personnel     string `json:"personnel"`
	ReviewSummary string `json:"review_summary"`
}

// Postgres reads records through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to cfg.DSN.
func OpenPostgres(ctx context.Context, cfg config.SourceConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, ErrNoDSN
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse source DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to source: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// FetchRecords returns every album that has a critics review with content
// and a summary, ordered by album ID.
func (p *Postgres) FetchRecords(ctx context.Context) ([]catalog.SourceRecord, error) {
	rows, err := p.pool.Query(ctx, albumsWithReviewsSQL)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("scan albums: %w", err)
	}
	logging.Info().Int("records", len(records)).Msg("Fetched album review records")
	return records, nil
}

func scanRecord(row pgx.CollectableRow) (catalog.SourceRecord, error) {
	var (
		rec      catalog.SourceRecord
		year     *int32
		listing  *string
		reviewID *int64
	)
	err := row.Scan(
		&rec.ID,
		&rec.Artist,
		&rec.Title,
		&year,
		&rec.Label,
		&listing,
		&reviewID,
		&rec.ReviewContent,
		&rec.ReviewSummary,
	)
	if err != nil {
		return rec, err
	}
	if year != nil {
		y := int(*year)
		rec.Year = &y
	}
	if listing != nil {
		rec.TrackListing = catalog.TrackListing(*listing)
	}
	rec.CriticsReviewID = reviewID
	return rec, nil
}

// FetchReviewRange returns critics reviews with from <= id <= to.
func (p *Postgres) FetchReviewRange(ctx context.Context, from, to int64) ([]CriticsReview, error) {
	if to < from {
		return []CriticsReview{}, nil
	}
	rows, err := p.pool.Query(ctx, reviewRangeSQL, from, to)
	if err != nil {
		return nil, fmt.Errorf("query critics reviews: %w", err)
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (CriticsReview, error) {
		var r CriticsReview
		err := row.Scan(&r.ID, &r.Title, &r.Reviewer, &r.Content, &r.AlbumInfo, &r.TrackListing, &r.Personnel, &r.ReviewSummary)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan critics reviews: %w", err)
	}
	return reviews, nil
}

// Ping checks connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close releases the pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
