// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package ledger

import "context"

// Summary is an overview of the ledger for operators.
type Summary struct {
	Total            int     `json:"total"`
	WithEmbedding    int     `json:"with_embedding"`
	WithoutEmbedding int     `json:"without_embedding"`
	Entries          []Entry `json:"entries"`
}

// Summary returns counts over all entries and the first limit entries in ID
// order. A limit <= 0 returns counts only.
func (l *Ledger) Summary(ctx context.Context, limit int) (Summary, error) {
	entries, err := l.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{Total: len(entries)}
	for i := range entries {
		if entries[i].HasEmbedding() {
			s.WithEmbedding++
		} else {
			s.WithoutEmbedding++
		}
	}
	if limit > 0 {
		if limit > len(entries) {
			limit = len(entries)
		}
		s.Entries = entries[:limit]
	}
	return s, nil
}
