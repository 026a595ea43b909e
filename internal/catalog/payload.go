// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package catalog

import (
	"fmt"
	"math"
	"sort"
)

// Payload field names.
const (
	FieldID              = "id"
	FieldArtist          = "album_artist"
	FieldTitle           = "album_title"
	FieldYear            = "album_year"
	FieldLabel           = "album_label"
	FieldTrackListing    = "track_listing"
	FieldCriticsReviewID = "critics_review_id"
	FieldContent         = "content"
	FieldSummary         = "review_summary"
)

// Payload is the metadata stored next to a vector and returned with each
// search hit. Values are restricted to string, int64, float64, bool, nested
// Payload and []interface{} of those kinds; Normalize enforces this.
type Payload map[string]interface{}

// NewPayload builds the payload for a validated record.
func NewPayload(rec *SourceRecord) Payload {
	p := Payload{
		FieldID:      rec.ID,
		FieldArtist:  rec.Artist,
		FieldTitle:   rec.Title,
		FieldLabel:   rec.Label,
		FieldContent: rec.ReviewContent,
		FieldSummary: rec.ReviewSummary,
	}
	if rec.Year != nil {
		p[FieldYear] = int64(*rec.Year)
	}
	if rec.CriticsReviewID != nil {
		p[FieldCriticsReviewID] = *rec.CriticsReviewID
	}
	if listing := rec.TrackListing.Decode(); listing != nil {
		p[FieldTrackListing] = listing
	}
	// Decoded listings may carry float64 or nested kinds; normalize once here.
	if n, err := Normalize(map[string]interface{}(p)); err == nil {
		return n
	}
	delete(p, FieldTrackListing)
	return p
}

// Normalize converts a loosely typed mapping into a Payload of the closed
// value kinds. Whole float64 values stay float64; Go integer types become
// int64. It fails on any other kind.
func Normalize(in map[string]interface{}) (Payload, error) {
	out := make(Payload, len(in))
	for k, v := range in {
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, fmt.Errorf("payload field %q: %w", k, err)
		}
		out[k] = nv
	}
	return out, nil
}

func normalizeValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string, bool, int64, float64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case float32:
		return float64(x), nil
	case Payload:
		return normalizeNested(x)
	case map[string]interface{}:
		return normalizeNested(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i := range x {
			nv, err := normalizeValue(x[i])
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	case []string:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// Nested mappings are stored as plain map[string]interface{} so that
// provider codecs see a standard map type.
func normalizeNested(in map[string]interface{}) (interface{}, error) {
	n, err := Normalize(in)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}(n), nil
}

// String returns the string value at key, or "".
func (p Payload) String(key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer value at key. JSON numbers decoded as float64 are
// accepted when they hold a whole number.
func (p Payload) Int(key string) (int64, bool) {
	switch v := p[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	}
	return 0, false
}

// Keys returns the payload keys in sorted order.
func (p Payload) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Artist returns the album artist.
func (p Payload) Artist() string { return p.String(FieldArtist) }

// Title returns the album title.
func (p Payload) Title() string { return p.String(FieldTitle) }
