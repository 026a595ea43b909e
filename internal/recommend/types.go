// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package recommend

import (
	"context"
	"time"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/reason"
	"github.com/tomtom215/jazzmate/internal/retrieval"
	"github.com/tomtom215/jazzmate/internal/writeback"
)

// Retriever finds similar albums.
type Retriever interface {
	Lookup(ctx context.Context, q retrieval.Query) retrieval.Result
}

// Reasoner explains a single recommendation.
type Reasoner interface {
	ReasonFor(ctx context.Context, review string, payload catalog.Payload) reason.Reason
}

// Writer persists recommendations for a user review.
type Writer interface {
	SaveRecommendations(ctx context.Context, reviewID int64, recs []writeback.Recommendation) writeback.Result
}

// Reranker reorders hits before reasons are generated.
type Reranker interface {
	Name() string
	Rerank(items []Item, k int) []Item
}

// Request is one recommendation request.
type Request struct {
	// RequestID is generated when empty.
	RequestID  string `json:"request_id,omitempty"`
	ReviewText string `json:"review_text"`
	// ReviewID, when non-zero, identifies the user review the results are
	// written back against.
	ReviewID int64  `json:"review_id,omitempty"`
	Artist   string `json:"artist,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Item is one recommended album.
type Item struct {
	ID           int64           `json:"id"`
	Score        float32         `json:"score"`
	Payload      catalog.Payload `json:"payload"`
	Reason       string          `json:"reason"`
	ReasonSource reason.Source   `json:"reason_source"`
}

// Response is the result of Recommend.
type Response struct {
	Items    []Item           `json:"recommendations"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata describes how a response was produced.
type ResponseMetadata struct {
	RequestID string    `json:"request_id"`
	LatencyMS int64     `json:"latency_ms"`
	Degraded  bool      `json:"degraded"`
	CacheHit  bool      `json:"cache_hit"`
	Reranker  string    `json:"reranker,omitempty"`
	WriteBack bool      `json:"write_back"`
	Timestamp time.Time `json:"timestamp"`
}

// Metrics are engine counters since start.
type Metrics struct {
	Requests    int64 `json:"requests"`
	Degraded    int64 `json:"degraded"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	WriteBacks  int64 `json:"write_backs"`
}
