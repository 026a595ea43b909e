// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package catalog

import (
	"strconv"
	"strings"
)

// Content and summary budgets, counted in runes.
const (
	ContentBudget      = 500
	QuerySummaryBudget = 300
)

// Segment labels, in composition order.
const (
	labelTitle   = "앨범 제목: "
	labelArtist  = "아티스트: "
	labelYear    = "발매년도: "
	labelLabel   = "레이블: "
	labelSummary = "리뷰 요약: "
	labelContent = "리뷰 내용: "
)

// Compose renders a record as the text sent to the embedding provider.
//
// Segments appear in a fixed order (title, artist, year, label, review
// summary, review content), each prefixed with its label and joined by a
// single space. Empty fields are skipped. Content is cut to ContentBudget
// runes. The same record always yields byte-identical output.
func Compose(rec *SourceRecord) string {
	if rec == nil {
		return ""
	}
	parts := make([]string, 0, 6)
	add := func(label, value string) {
		if value != "" {
			parts = append(parts, label+value)
		}
	}

	add(labelTitle, rec.Title)
	add(labelArtist, rec.Artist)
	if rec.Year != nil && *rec.Year != 0 {
		add(labelYear, strconv.Itoa(*rec.Year))
	}
	add(labelLabel, rec.Label)
	add(labelSummary, rec.ReviewSummary)
	add(labelContent, Truncate(rec.ReviewContent, ContentBudget))

	return strings.Join(parts, " ")
}

// ComposeQuery renders a free-text listening review with the same composer
// used at ingestion. When summary is empty, the review cut to
// QuerySummaryBudget runes stands in for it.
func ComposeQuery(review, summary string) string {
	review = strings.TrimSpace(review)
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = Truncate(review, QuerySummaryBudget)
	}
	return Compose(&SourceRecord{ReviewContent: review, ReviewSummary: summary})
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
