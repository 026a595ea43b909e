// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package reason

import (
	"strings"

	"github.com/tomtom215/jazzmate/internal/catalog"
)

type keyword struct {
	name     string
	variants []string
	// album marks entries that are also looked for in critic text.
	album bool
}

// vocabulary is ordered; extracted keywords keep this order.
var vocabulary = []keyword{
	{"피아노", []string{"피아노", "piano"}, true},
	{"트럼펫", []string{"트럼펫", "trumpet"}, true},
	{"색소폰", []string{"색소폰", "saxophone"}, true},
	{"드럼", []string{"드럼", "drum"}, true},
	{"베이스", []string{"베이스", "bass"}, false},
	{"빅밴드", []string{"빅밴드", "big band"}, true},
	{"재즈", []string{"재즈", "jazz"}, true},
	{"스윙", []string{"스윙", "swing"}, true},
	{"블루스", []string{"블루스", "blues"}, true},
	{"솔로", []string{"솔로", "solo"}, true},
	{"편곡", []string{"편곡", "arrangement"}, true},
	{"하모니", []string{"하모니", "harmony"}, true},
	{"리듬", []string{"리듬", "rhythm"}, false},
	{"멜로디", []string{"멜로디", "melody"}, false},
	{"감성", []string{"감성", "emotional"}, false},
	{"우아", []string{"우아", "elegant"}, false},
	{"세련", []string{"세련", "sophisticated"}, false},
	{"따뜻", []string{"따뜻", "warm"}, false},
	{"밝", []string{"밝", "bright"}, false},
	{"편안", []string{"편안", "comfortable"}, false},
}

// Keywords returns the vocabulary entries mentioned in text.
func Keywords(text string) []string {
	return match(text, false)
}

// AlbumFeatures returns the instrument, style and arrangement entries
// mentioned in critic text. Mood stems such as "밝" are left out.
func AlbumFeatures(text string) []string {
	return match(text, true)
}

func match(text string, albumOnly bool) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range vocabulary {
		if albumOnly && !kw.album {
			continue
		}
		for _, v := range kw.variants {
			if strings.Contains(lower, v) {
				found = append(found, kw.name)
				break
			}
		}
	}
	return found
}

// CommonKeywords returns the keywords of review that are also album
// features of the critic content or summary, in vocabulary order.
func CommonKeywords(review string, p catalog.Payload) []string {
	albumText := p.String(catalog.FieldContent) + " " + p.String(catalog.FieldSummary)
	inAlbum := make(map[string]bool)
	for _, kw := range AlbumFeatures(albumText) {
		inAlbum[kw] = true
	}

	var common []string
	for _, kw := range Keywords(review) {
		if inAlbum[kw] {
			common = append(common, kw)
		}
	}
	return common
}

// Fallback builds a deterministic reason without calling a model.
func Fallback(review string, p catalog.Payload) string {
	info := infoFrom(p)
	head := "'" + info.artist + " - " + info.title + "'을 추천합니다. "

	common := CommonKeywords(review, p)
	if len(common) > 2 {
		common = common[:2]
	}
	if len(common) > 0 {
		return head + "사용자의 감상문에서 언급한 " + strings.Join(common, ", ") +
			"와 같은 특징을 가지고 있어 비슷한 음악적 경험을 제공할 것입니다."
	}
	return head + "사용자의 감상문과 유사한 분위기와 스타일을 가지고 있어 새로운 음악적 발견의 기회가 될 것입니다."
}
