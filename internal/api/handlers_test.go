// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/recommend"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

type fakeRecommender struct {
	mu    sync.Mutex
	calls []recommend.Request
	resp  *recommend.Response
	err   error
}

func (f *fakeRecommender) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.resp != nil {
		return f.resp, nil
	}
	return &recommend.Response{Metadata: recommend.ResponseMetadata{Degraded: true}}, nil
}

func (f *fakeRecommender) lastCall(t *testing.T) recommend.Request {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("recommender was not called")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeRecommender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeIndex struct {
	health vectorindex.Health
}

func (f *fakeIndex) Health(context.Context) vectorindex.Health { return f.health }

func healthyIndex() *fakeIndex {
	return &fakeIndex{health: vectorindex.Health{
		Status:     vectorindex.StatusHealthy,
		Collection: "allthatjazz_album",
		PointCount: 1200,
	}}
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Host:               "127.0.0.1",
		Port:               8000,
		Timeout:            5 * time.Second,
		AllowedOrigins:     []string{"http://localhost:3000"},
		RateLimitPerMinute: 0,
		DefaultLimit:       3,
	}
}

func newTestServer(rec Recommender, idx HealthChecker, cfg config.ServerConfig) http.Handler {
	h := NewHandler(rec, idx, cfg)
	return NewRouter(h, NewMiddleware(MiddlewareConfigFrom(cfg))).SetupChi()
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Error    *APIError       `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

func postReview(t *testing.T, srv http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recommend/by-review", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRecommender{}, healthyIndex(), testServerConfig())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	var root RootResponse
	if err := json.Unmarshal(env.Data, &root); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if root.Message != ServiceName || root.Status != "running" {
		t.Errorf("unexpected root payload: %+v", root)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("response should carry a request ID")
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		index      *fakeIndex
		wantCode   int
		wantStatus string
	}{
		{"healthy index", healthyIndex(), http.StatusOK, "healthy"},
		{"index down", &fakeIndex{health: vectorindex.Health{
			Status:     vectorindex.StatusError,
			Collection: "allthatjazz_album",
			Error:      "connection refused",
		}}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeRecommender{}, tt.index, testServerConfig())
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
			var health HealthResponse
			if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &health); err != nil {
				t.Fatalf("Failed to decode health: %v", err)
			}
			if health.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", health.Status, tt.wantStatus)
			}
			if health.Index.Collection != "allthatjazz_album" {
				t.Errorf("index health not included: %+v", health.Index)
			}
		})
	}
}

func TestRecommendByReview(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{resp: &recommend.Response{
		Items: []recommend.Item{{
			ID:      42,
			Score:   0.91,
			Payload: catalog.Payload{catalog.FieldTitle: "Kind of Blue", catalog.FieldArtist: "Miles Davis"},
			Reason:  "모달 재즈의 여유로운 분위기가 감상문과 닮았습니다.",
		}},
		Metadata: recommend.ResponseMetadata{WriteBack: true},
	}}
	srv := newTestServer(fake, healthyIndex(), testServerConfig())

	rec := postReview(t, srv, `{"review_text": "  비 오는 밤의 트럼펫  ", "review_id": 7, "artist": " Miles Davis "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if env.Status != StatusSuccess {
		t.Errorf("status = %q", env.Status)
	}
	var data RecommendByReviewResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if !data.Success || data.Count != 1 || data.ReviewID == nil || *data.ReviewID != 7 || !data.WriteBack {
		t.Errorf("unexpected data: %+v", data)
	}
	if data.Recommendations[0].ID != 42 {
		t.Errorf("recommendation id = %d", data.Recommendations[0].ID)
	}

	call := fake.lastCall(t)
	if call.ReviewText != "비 오는 밤의 트럼펫" || call.Artist != "Miles Davis" {
		t.Errorf("request not normalized: %+v", call)
	}
	if call.Limit != 3 {
		t.Errorf("default limit = %d, want 3", call.Limit)
	}
	if call.ReviewID != 7 {
		t.Errorf("review id = %d", call.ReviewID)
	}
	if call.RequestID == "" || call.RequestID != rec.Header().Get(RequestIDHeader) {
		t.Errorf("request ID %q not propagated (header %q)", call.RequestID, rec.Header().Get(RequestIDHeader))
	}
}

func TestRecommendByReviewExplicitLimitAndRequestID(t *testing.T) {
	t.Parallel()

	fake := &fakeRecommender{}
	srv := newTestServer(fake, healthyIndex(), testServerConfig())

	req := httptest.NewRequest(http.MethodPost, "/recommend/by-review",
		strings.NewReader(`{"review_text": "hard bop", "limit": 10}`))
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	call := fake.lastCall(t)
	if call.Limit != 10 || call.RequestID != "req-123" {
		t.Errorf("unexpected request: %+v", call)
	}
}

func TestRecommendByReviewDegradedIsEmptySuccess(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeRecommender{}, healthyIndex(), testServerConfig())
	rec := postReview(t, srv, `{"review_text": "쿨 재즈"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"recommendations":[]`) {
		t.Errorf("degraded response should carry an empty list: %s", rec.Body.String())
	}
	var data RecommendByReviewResponse
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &data); err != nil {
		t.Fatalf("Failed to decode data: %v", err)
	}
	if data.Count != 0 || !data.Degraded || data.ReviewID != nil {
		t.Errorf("unexpected degraded data: %+v", data)
	}
}

func TestRecommendByReviewRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"empty review", `{"review_text": ""}`, "VALIDATION_ERROR"},
		{"whitespace review", `{"review_text": "   "}`, "VALIDATION_ERROR"},
		{"missing review", `{"limit": 3}`, "VALIDATION_ERROR"},
		{"limit too large", `{"review_text": "bop", "limit": 51}`, "VALIDATION_ERROR"},
		{"negative limit", `{"review_text": "bop", "limit": -1}`, "VALIDATION_ERROR"},
		{"negative review id", `{"review_text": "bop", "review_id": -4}`, "VALIDATION_ERROR"},
		{"malformed json", `{"review_text": `, "INVALID_JSON"},
		{"wrong type", `{"review_text": 12}`, "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fake := &fakeRecommender{}
			srv := newTestServer(fake, healthyIndex(), testServerConfig())

			rec := postReview(t, srv, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Status != StatusError || env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("unexpected error envelope: %+v", env)
			}
			if fake.callCount() != 0 {
				t.Error("recommender should not be called for invalid input")
			}
		})
	}
}

func TestRecommendByReviewEngineErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode string
	}{
		{"empty review from engine", recommend.ErrEmptyReview, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unexpected failure", errors.New("boom"), http.StatusInternalServerError, "RECOMMENDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeRecommender{err: tt.err}, healthyIndex(), testServerConfig())
			rec := postReview(t, srv, `{"review_text": "ballad"}`)
			if rec.Code != tt.wantHTTP {
				t.Fatalf("Expected status %d, got %d", tt.wantHTTP, rec.Code)
			}
			if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("unexpected error: %+v", env.Error)
			}
		})
	}
}

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("line\nforged"); got != `line\x0aforged` {
		t.Errorf("sanitizeLogValue = %q", got)
	}
	if got := sanitizeLogValue("재즈"); got != "재즈" {
		t.Errorf("non-ASCII should pass through: %q", got)
	}
}
