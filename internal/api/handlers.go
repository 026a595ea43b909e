// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/recommend"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

// ServiceName identifies the API in the root and health responses.
const ServiceName = "JazzMate AI Recommendation API"

const (
	maxRequestBodyBytes = 1 << 20
	healthCheckTimeout  = 5 * time.Second
)

// Recommender produces recommendations. *recommend.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Response, error)
}

// HealthChecker reports vector index health. Every vectorindex.Index implements it.
type HealthChecker interface {
	Health(ctx context.Context) vectorindex.Health
}

// Handler serves the API routes.
type Handler struct {
	recommender  Recommender
	index        HealthChecker
	defaultLimit int
	timeout      time.Duration
	startTime    time.Time
}

// NewHandler creates a Handler.
func NewHandler(recommender Recommender, index HealthChecker, cfg config.ServerConfig) *Handler {
	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 3
	}
	return &Handler{
		recommender:  recommender,
		index:        index,
		defaultLimit: defaultLimit,
		timeout:      cfg.Timeout,
		startTime:    time.Now(),
	}
}

// RootResponse is the GET / payload.
type RootResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Root handles GET /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, RootResponse{Message: ServiceName, Status: "running"}, 0)
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status        string             `json:"status"`
	Service       string             `json:"service"`
	Index         vectorindex.Health `json:"index"`
	UptimeSeconds int64              `json:"uptime_seconds"`
}

// Health handles GET /health. It answers 503 when the index is unhealthy.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	indexHealth := h.index.Health(ctx)
	resp := HealthResponse{
		Status:        "healthy",
		Service:       ServiceName,
		Index:         indexHealth,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
	}

	status := http.StatusOK
	if indexHealth.Status != vectorindex.StatusHealthy {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
		logging.Ctx(r.Context()).Warn().
			Str("collection", indexHealth.Collection).
			Str("error", indexHealth.Error).
			Msg("Health check failed: vector index unavailable")
	}

	respondJSON(w, status, &APIResponse{
		Status:   StatusSuccess,
		Data:     resp,
		Metadata: Metadata{Timestamp: time.Now()},
	})
}

// RecommendByReview handles POST /recommend/by-review.
func (h *Handler) RecommendByReview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req RecommendByReviewRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be a JSON object", err)
		return
	}
	req.normalize()
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.recommender.Recommend(ctx, recommend.Request{
		RequestID:  logging.RequestIDFromContext(r.Context()),
		ReviewText: req.ReviewText,
		ReviewID:   req.ReviewID,
		Artist:     req.Artist,
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrEmptyReview) {
			respondValidationError(w, &APIError{Code: "VALIDATION_ERROR", Message: err.Error()})
			return
		}
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Failed to generate recommendations", err)
		return
	}

	items := resp.Items
	if items == nil {
		items = []recommend.Item{}
	}
	var reviewID *int64
	if req.ReviewID != 0 {
		reviewID = &req.ReviewID
	}

	respondSuccess(w, r, RecommendByReviewResponse{
		Success:         true,
		ReviewID:        reviewID,
		Count:           len(items),
		Recommendations: items,
		Degraded:        resp.Metadata.Degraded,
		WriteBack:       resp.Metadata.WriteBack,
	}, time.Since(start))
}

// NotFound answers unknown routes in the standard envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Route "+sanitizeLogValue(r.URL.Path)+" not found", nil)
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
		"Method "+strings.ToUpper(sanitizeLogValue(r.Method))+" not allowed", nil)
}
