// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package recommend

import (
	"strings"

	"github.com/tomtom215/jazzmate/internal/catalog"
)

// MMR implements Maximal Marginal Relevance reranking.
// It balances relevance and diversity by iteratively selecting albums
// that are both relevant and dissimilar to the albums already selected.
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Album similarity is 1 for the same artist, 0.5 for the same label and 0
// otherwise, so a list dominated by one artist is spread out.
type MMR struct {
	lambda float64
}

// NewMMR creates an MMR reranker. lambda is clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank selects up to k items from items, which must be in relevance order.
//
//nolint:gocritic // rangeValCopy: Item passed by value in range, acceptable for clarity
func (m *MMR) Rerank(items []Item, k int) []Item {
	if len(items) == 0 || k <= 0 {
		return items
	}
	if k > len(items) {
		k = len(items)
	}
	if m.lambda >= 1.0 {
		return items[:k]
	}

	selected := make([]Item, 0, k)
	used := make([]bool, len(items))

	for len(selected) < k {
		bestIdx := -1
		bestMMR := 0.0

		for i, item := range items {
			if used[i] {
				continue
			}
			maxSim := 0.0
			for _, s := range selected {
				if sim := albumSimilarity(item.Payload, s.Payload); sim > maxSim {
					maxSim = sim
				}
			}
			score := m.lambda*float64(item.Score) - (1-m.lambda)*maxSim
			// Strict comparison keeps the earlier (more relevant) item on ties.
			if bestIdx < 0 || score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}

		used[bestIdx] = true
		selected = append(selected, items[bestIdx])
	}
	return selected
}

func albumSimilarity(a, b catalog.Payload) float64 {
	if artist := normalize(a.Artist()); artist != "" && artist == normalize(b.Artist()) {
		return 1
	}
	if label := normalize(a.String(catalog.FieldLabel)); label != "" && label == normalize(b.String(catalog.FieldLabel)) {
		return 0.5
	}
	return 0
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
