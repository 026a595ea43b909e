// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/jazzmate/internal/cache"
	"github.com/tomtom215/jazzmate/internal/retrieval"
	"github.com/tomtom215/jazzmate/internal/writeback"
)

// ErrEmptyReview is returned for a request whose review text is blank.
var ErrEmptyReview = errors.New("review text is required")

// Engine coordinates retrieval, reranking, reasons and write-back.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	retriever Retriever
	reasoner  Reasoner
	writer    Writer
	rerankers []Reranker
	mu        sync.RWMutex

	requestCount atomic.Int64
	degraded     atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	writeBacks   atomic.Int64

	cache *cache.LRU[*Response]

	pending sync.WaitGroup
}

// NewEngine creates an engine. A nil cfg uses DefaultConfig.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, retriever Retriever, reasoner Reasoner, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		config:    cfg,
		logger:    logger.With().Str("component", "recommend").Logger(),
		retriever: retriever,
		reasoner:  reasoner,
		cache:     cache.NewLRU[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL),
	}
	if cfg.Diversity.Enabled {
		e.RegisterReranker(NewMMR(cfg.Diversity.Lambda))
	}
	return e, nil
}

// SetWriter enables write-back of results for requests with a review ID.
func (e *Engine) SetWriter(w Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writer = w
}

// RegisterReranker adds a reranker to the post-retrieval pipeline.
func (e *Engine) RegisterReranker(rr Reranker) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rerankers = append(e.rerankers, rr)
	e.logger.Info().
		Str("reranker", rr.Name()).
		Msg("registered reranker")
}

// Recommend produces explained recommendations for req.
//
// A blank review returns ErrEmptyReview. Every other failure degrades to an
// empty response with Metadata.Degraded set.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if strings.TrimSpace(req.ReviewText) == "" {
		return nil, ErrEmptyReview
	}

	req = e.prepareRequest(req)
	logger := e.logger.With().
		Str("request_id", req.RequestID).
		Int64("review_id", req.ReviewID).
		Int("limit", req.Limit).
		Logger()
	logger.Debug().Msg("processing recommendation request")

	resp := e.tryGetCachedResponse(req, start)
	if resp == nil {
		resp = e.compute(ctx, req, start)
		if !resp.Metadata.Degraded && len(resp.Items) > 0 {
			e.cacheResponse(req, resp)
		}
	} else {
		logger.Debug().Msg("cache hit")
	}

	resp.Metadata.WriteBack = e.scheduleWriteBack(ctx, req, resp.Items, logger)

	logger.Info().
		Int("returned", len(resp.Items)).
		Bool("degraded", resp.Metadata.Degraded).
		Bool("cache_hit", resp.Metadata.CacheHit).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")
	return resp, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}
	if req.Limit <= 0 {
		req.Limit = e.config.Limits.DefaultLimit
	}
	if req.Limit > e.config.Limits.MaxLimit {
		req.Limit = e.config.Limits.MaxLimit
	}
	return req
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) compute(ctx context.Context, req Request, start time.Time) *Response {
	rerankers := e.getRerankers()

	fetch := req.Limit
	if len(rerankers) > 0 && e.config.Diversity.Overfetch > 1 {
		fetch *= e.config.Diversity.Overfetch
	}

	result := e.retriever.Lookup(ctx, retrieval.Query{
		ReviewText: req.ReviewText,
		Artist:     req.Artist,
		Limit:      fetch,
	})
	if result.Degraded {
		e.degraded.Add(1)
	}

	items := make([]Item, 0, len(result.Hits))
	for _, h := range result.Hits {
		items = append(items, Item{ID: h.ID, Score: h.Score, Payload: h.Payload})
	}

	var rerankerName string
	for _, rr := range rerankers {
		items = rr.Rerank(items, req.Limit)
		rerankerName = rr.Name()
	}
	if len(items) > req.Limit {
		items = items[:req.Limit]
	}

	// Reasons are generated sequentially so rank order is preserved and the
	// LLM provider sees at most one call per request at a time.
	for i := range items {
		r := e.reasoner.ReasonFor(ctx, req.ReviewText, items[i].Payload)
		items[i].Reason = r.Text
		items[i].ReasonSource = r.Source
	}

	return &Response{
		Items: items,
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			LatencyMS: time.Since(start).Milliseconds(),
			Degraded:  result.Degraded,
			Reranker:  rerankerName,
			Timestamp: time.Now(),
		},
	}
}

func (e *Engine) getRerankers() []Reranker {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Reranker, len(e.rerankers))
	copy(out, e.rerankers)
	return out
}

// scheduleWriteBack persists items in the background and reports whether a
// write-back was started.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scheduleWriteBack(ctx context.Context, req Request, items []Item, logger zerolog.Logger) bool {
	e.mu.RLock()
	w := e.writer
	e.mu.RUnlock()

	if w == nil || req.ReviewID == 0 || len(items) == 0 {
		return false
	}

	recs := make([]writeback.Recommendation, len(items))
	for i, it := range items {
		recs[i] = writeback.Recommendation{Score: it.Score, Payload: it.Payload, Reason: it.Reason}
	}

	e.writeBacks.Add(1)
	e.pending.Add(1)
	go func() {
		defer e.pending.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.config.WriteBackTimeout)
		defer cancel()

		res := w.SaveRecommendations(wctx, req.ReviewID, recs)
		if res.Failed > 0 {
			logger.Warn().Int("saved", res.Saved).Int("failed", res.Failed).Msg("write-back incomplete")
		}
	}()
	return true
}

// Wait blocks until all background write-backs have finished.
func (e *Engine) Wait() {
	e.pending.Wait()
}

// GetMetrics returns a snapshot of the engine counters.
func (e *Engine) GetMetrics() Metrics {
	return Metrics{
		Requests:    e.requestCount.Load(),
		Degraded:    e.degraded.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		WriteBacks:  e.writeBacks.Load(),
	}
}

// GetConfig returns the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config
}
