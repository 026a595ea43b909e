// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package retrieval turns a free-text review into similar albums from the
// vector index. It never fails: any provider problem degrades to an empty
// result.
package retrieval

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/embedding"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

// DefaultLimit is used when Query.Limit is not positive.
const DefaultLimit = 10

// Outcome labels for metrics.RecordRetrieval.
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty_query"
	OutcomeEmbedFailed = "embed_failed"
	OutcomeDimension   = "dimension_mismatch"
	OutcomeSearchError = "search_failed"
)

// QueryEmbedder embeds a single query text.
type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) (embedding.Vector, error)
}

// Searcher is the read side of vectorindex.Index.
type Searcher interface {
	Search(ctx context.Context, vector []float32, limit int, filter *vectorindex.Filter) ([]vectorindex.Hit, error)
	Dimension() int
}

// Query describes one recommendation lookup.
type Query struct {
	ReviewText string
	// Summary defaults to ReviewText when empty.
	Summary string
	// Artist restricts results to one album artist when set.
	Artist string
	Limit  int
}

// Service answers similarity queries.
type Service struct {
	embedder QueryEmbedder
	index    Searcher
	logger   zerolog.Logger
}

// NewService creates a retrieval service.
func NewService(embedder QueryEmbedder, index Searcher) *Service {
	return &Service{
		embedder: embedder,
		index:    index,
		logger:   logging.WithComponent("retrieval"),
	}
}

// Result carries the hits plus why they may be empty.
type Result struct {
	Hits []vectorindex.Hit
	// Degraded is set when a provider failure emptied the result.
	Degraded bool
	Err      error
}

// Recommend returns albums similar to q.ReviewText, best first. The slice is
// never nil.
func (s *Service) Recommend(ctx context.Context, q Query) []vectorindex.Hit {
	return s.Lookup(ctx, q).Hits
}

// Lookup is Recommend with the degradation cause exposed.
func (s *Service) Lookup(ctx context.Context, q Query) Result {
	if strings.TrimSpace(q.ReviewText) == "" {
		metrics.RecordRetrieval(OutcomeEmpty)
		return Result{Hits: []vectorindex.Hit{}}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	text := catalog.ComposeQuery(q.ReviewText, q.Summary)
	vec, err := s.embedder.EmbedOne(ctx, text)
	if err != nil {
		return s.degrade(OutcomeEmbedFailed, err)
	}

	if want := s.index.Dimension(); len(vec) != want {
		return s.degrade(OutcomeDimension, faults.DimensionMismatch("retrieval.Recommend", len(vec), want))
	}

	var filter *vectorindex.Filter
	if artist := strings.TrimSpace(q.Artist); artist != "" {
		filter = &vectorindex.Filter{Field: catalog.FieldArtist, Value: artist}
	}

	hits, err := s.index.Search(ctx, vec, limit, filter)
	if err != nil {
		return s.degrade(OutcomeSearchError, err)
	}
	if hits == nil {
		hits = []vectorindex.Hit{}
	}

	metrics.RecordRetrieval(OutcomeOK)
	s.logger.Debug().Int("hits", len(hits)).Int("limit", limit).Bool("filtered", filter != nil).Msg("Retrieval completed")
	return Result{Hits: hits}
}

func (s *Service) degrade(outcome string, cause error) Result {
	metrics.RecordRetrieval(outcome)
	err := faults.New(faults.KindRetrievalDegraded, "retrieval."+outcome, cause)
	s.logger.Warn().Err(cause).Str("outcome", outcome).Msg("Retrieval degraded to empty result")
	return Result{Hits: []vectorindex.Hit{}, Degraded: true, Err: err}
}
