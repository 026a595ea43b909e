// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package api

import (
	"strings"

	"github.com/tomtom215/jazzmate/internal/recommend"
)

// RecommendByReviewRequest is the POST /recommend/by-review body.
type RecommendByReviewRequest struct {
	ReviewText string `json:"review_text" validate:"required,max=10000"`
	ReviewID   int64  `json:"review_id" validate:"omitempty,gt=0"`
	Limit      int    `json:"limit" validate:"omitempty,min=1,max=50"`
	Artist     string `json:"artist" validate:"omitempty,max=200"`
}

// normalize trims free-text fields so a whitespace-only review fails "required".
func (r *RecommendByReviewRequest) normalize() {
	r.ReviewText = strings.TrimSpace(r.ReviewText)
	r.Artist = strings.TrimSpace(r.Artist)
}

// RecommendByReviewResponse is the data member of a recommendation response.
type RecommendByReviewResponse struct {
	Success         bool             `json:"success"`
	ReviewID        *int64           `json:"review_id"`
	Count           int              `json:"count"`
	Recommendations []recommend.Item `json:"recommendations"`
	Degraded        bool             `json:"degraded"`
	WriteBack       bool             `json:"write_back"`
}
