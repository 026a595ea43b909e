// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/jazzmate/internal/breaker"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

// Vector is a dense embedding.
type Vector []float32

// Input markers understood by the e5 model family.
const (
	QueryPrefix   = "query: "
	PassagePrefix = "passage: "
)

// Prefix prepends QueryPrefix unless text already carries an input marker.
func Prefix(text string) string {
	if strings.HasPrefix(text, QueryPrefix) || strings.HasPrefix(text, PassagePrefix) {
		return text
	}
	return QueryPrefix + text
}

// Client calls a Hugging Face feature-extraction endpoint.
//
// A Client without an API key never performs network I/O: EmbedOne fails with
// faults.ErrNoCredential and EmbedBatch returns all-absent results.
type Client struct {
	baseURL      string
	model        string
	apiKey       string
	batchTimeout time.Duration

	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker[[]Vector]
}

// New creates a client from configuration.
func New(cfg config.EmbeddingConfig) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.ProviderURL, "/"),
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		batchTimeout: cfg.BatchTimeout,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(limit, burst),
		cb:           breaker.New[[]Vector]("embedding-api", metrics.EmbeddingCircuitState),
	}
}

// Available reports whether a credential is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// EmbedOne embeds a single text.
func (c *Client) EmbedOne(ctx context.Context, text string) (Vector, error) {
	const op = "embedding.EmbedOne"

	if !c.Available() {
		return nil, faults.New(faults.KindEmbedding, op, faults.ErrNoCredential)
	}

	vecs, err := c.call(ctx, "single", []string{Prefix(text)}, false)
	if err != nil {
		return nil, faults.New(faults.KindEmbedding, op, err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, faults.New(faults.KindEmbedding, op, errors.New("empty embedding in response"))
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts and returns one slot per input, in input order. A
// nil slot means that position could not be embedded.
//
// A single batched request is tried first. If it fails or the response does
// not line up with the input, each text is embedded on its own so one bad
// input cannot sink its neighbours.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) []Vector {
	out := make([]Vector, len(texts))
	if len(texts) == 0 || !c.Available() {
		return out
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = Prefix(t)
	}

	batchCtx, cancel := ctx, context.CancelFunc(func() {})
	if c.batchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, c.batchTimeout)
	}
	vecs, err := c.call(batchCtx, "batch", inputs, true)
	cancel()

	if err == nil && wellFormed(vecs, len(texts)) {
		copy(out, vecs)
		return out
	}

	event := logging.Warn().Int("count", len(texts))
	if err != nil {
		event = event.Err(err)
	} else {
		event = event.Int("returned", len(vecs))
	}
	event.Msg("Batch embedding failed, falling back to per-item requests")

	for i, text := range inputs {
		if ctx.Err() != nil {
			break
		}
		v, err := c.EmbedOne(ctx, text)
		if err != nil {
			logging.Debug().Err(err).Int("position", i).Msg("Embedding failed")
			continue
		}
		out[i] = v
	}
	return out
}

func wellFormed(vecs []Vector, n int) bool {
	if len(vecs) != n {
		return false
	}
	for _, v := range vecs {
		if len(v) == 0 {
			return false
		}
	}
	return true
}

// call runs one provider request through the rate limiter and circuit breaker.
func (c *Client) call(ctx context.Context, op string, inputs []string, batch bool) ([]Vector, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	vecs, err := c.cb.Execute(func() ([]Vector, error) {
		return c.doRequest(ctx, inputs, batch)
	})
	metrics.RecordEmbedding(op, time.Since(start), err)

	if breaker.Rejected(err) {
		return nil, fmt.Errorf("%w: %v", faults.ErrCircuitOpen, err)
	}
	return vecs, err
}
