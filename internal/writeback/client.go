// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package writeback persists recommendations to the JazzMate shop backend.
//
// Each recommended album is first registered as a track with POST /api/tracks,
// then linked to the user review with POST /api/recommend-tracks. Failures are
// logged per hit; a failed hit never affects the others.
package writeback

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/jazzmate/internal/breaker"
	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

const (
	tracksPath          = "/api/tracks"
	recommendTracksPath = "/api/recommend-tracks"
	maxResponseBytes    = 1 << 20
)

// Track is the body of POST /api/tracks. Optional attributes are copied from
// the payload when present and sent as null otherwise.
type Track struct {
	TrackTitle      string `json:"trackTitle"`
	ArtistName      string `json:"artistName"`
	Genre           any    `json:"genre"`
	Mood            any    `json:"mood"`
	Energy          any    `json:"energy"`
	BPM             any    `json:"bpm"`
	VocalStyle      any    `json:"vocalStyle"`
	Instrumentation any    `json:"instrumentation"`
}

// RecommendTrack is the body of POST /api/recommend-tracks.
type RecommendTrack struct {
	UserReviewID         int64   `json:"userReviewId"`
	TrackID              int64   `json:"trackId"`
	RecommendationScore  float32 `json:"recommendationScore"`
	RecommendationReason string  `json:"recommendationReason"`
}

// Recommendation is one hit to persist.
type Recommendation struct {
	Score   float32
	Payload catalog.Payload
	// Reason is stored as the recommendation reason. When empty a
	// similarity-score sentence is used.
	Reason string
}

// Result counts persisted and failed hits.
type Result struct {
	Saved  int `json:"saved"`
	Failed int `json:"failed"`
}

// Client talks to the shop backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// New creates a write-back client.
func New(cfg config.WriteBackConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb:         breaker.New[[]byte]("writeback", metrics.WriteBackCircuitState),
		logger:     logging.WithComponent("writeback"),
	}
}

// SaveRecommendations stores each recommendation against reviewID.
func (c *Client) SaveRecommendations(ctx context.Context, reviewID int64, recs []Recommendation) Result {
	var res Result
	for i := range recs {
		if ctx.Err() != nil {
			res.Failed += len(recs) - i
			break
		}
		if err := c.saveOne(ctx, reviewID, &recs[i]); err != nil {
			res.Failed++
			c.logger.Error().Err(err).
				Int64("review_id", reviewID).
				Str("title", recs[i].Payload.Title()).
				Msg("Failed to save recommendation")
			continue
		}
		res.Saved++
	}
	c.logger.Info().Int64("review_id", reviewID).Int("saved", res.Saved).Int("failed", res.Failed).Msg("Recommendations written back")
	return res
}

func (c *Client) saveOne(ctx context.Context, reviewID int64, rec *Recommendation) error {
	trackID, err := c.CreateTrack(ctx, TrackFromPayload(rec.Payload))
	if err != nil {
		return err
	}

	reason := rec.Reason
	if reason == "" {
		reason = fmt.Sprintf("감상문 기반 추천 (유사도: %.3f)", rec.Score)
	}
	return c.SaveRecommendTrack(ctx, RecommendTrack{
		UserReviewID:         reviewID,
		TrackID:              trackID,
		RecommendationScore:  rec.Score,
		RecommendationReason: reason,
	})
}

// TrackFromPayload maps an index payload to a track body.
func TrackFromPayload(p catalog.Payload) Track {
	t := Track{
		TrackTitle:      p.Title(),
		ArtistName:      p.Artist(),
		Genre:           p["genre"],
		Mood:            p["mood"],
		Energy:          p["energy"],
		BPM:             p["bpm"],
		VocalStyle:      p["vocal_style"],
		Instrumentation: p["instrumentation"],
	}
	if t.TrackTitle == "" {
		t.TrackTitle = "Unknown"
	}
	if t.ArtistName == "" {
		t.ArtistName = "Unknown"
	}
	return t
}

// CreateTrack registers a track and returns its backend ID.
func (c *Client) CreateTrack(ctx context.Context, t Track) (int64, error) {
	data, err := c.post(ctx, "create_track", tracksPath, t)
	if err != nil {
		return 0, err
	}
	var out struct {
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode track response: %w", err)
	}
	if out.ID == nil {
		return 0, fmt.Errorf("track response has no id")
	}
	return *out.ID, nil
}

// SaveRecommendTrack links a track to a user review.
func (c *Client) SaveRecommendTrack(ctx context.Context, r RecommendTrack) error {
	_, err := c.post(ctx, "save_recommendation", recommendTracksPath, r)
	return err
}

func (c *Client) post(ctx context.Context, op, path string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	data, err := c.cb.Execute(func() ([]byte, error) {
		return c.do(ctx, path, payload)
	})
	metrics.RecordWriteBack(op, err)

	if breaker.Rejected(err) {
		return nil, fmt.Errorf("%w: %v", faults.ErrCircuitOpen, err)
	}
	return data, err
}

func (c *Client) do(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return data, nil
}
