// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package catalog holds the album review records that feed the vector index:
// the joined source record, the record validator, the text composer that
// renders a record for embedding, and the payload stored next to each vector.
package catalog

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jazzmate/internal/validation"
)

// TrackListing is the raw track listing blob of an album. The relational
// store holds it either as a JSON object mapping track index to track name,
// or as a JSON string containing such an object.
type TrackListing []byte

// MarshalJSON writes the listing verbatim, or null when empty.
func (t TrackListing) MarshalJSON() ([]byte, error) {
	if len(bytes.TrimSpace(t)) == 0 {
		return []byte("null"), nil
	}
	return t, nil
}

// UnmarshalJSON keeps a copy of the raw bytes.
func (t *TrackListing) UnmarshalJSON(data []byte) error {
	*t = append((*t)[:0], data...)
	return nil
}

// Present reports whether the listing carries any value other than null.
func (t TrackListing) Present() bool {
	trimmed := bytes.TrimSpace(t)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// Decode returns the listing as a mapping. It returns nil when the listing is
// absent or malformed.
func (t TrackListing) Decode() map[string]interface{} {
	if !t.Present() || !validation.IsJSONObject(t) {
		return nil
	}
	raw := bytes.TrimSpace(t)
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		raw = []byte(inner)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// SourceRecord is one album joined with its critics review.
//
// ID is the album primary key in the relational store and is reused as the
// point identity in the vector index.
type SourceRecord struct {
	ID              int64        `json:"id"`
	Artist          string       `json:"album_artist"`
	Title           string       `json:"album_title"`
	Year            *int         `json:"album_year,omitempty"`
	Label           string       `json:"album_label"`
	TrackListing    TrackListing `json:"track_listing,omitempty" validate:"jsonobject"`
	CriticsReviewID *int64       `json:"critics_review_id,omitempty"`
	ReviewContent   string       `json:"content" validate:"required"`
	ReviewSummary   string       `json:"review_summary" validate:"required"`
}

// DisplayTitle returns a label for listings and logs.
func (r *SourceRecord) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return "ID: " + itoa(r.ID)
}
