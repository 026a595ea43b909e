// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package reason

import (
	"strings"

	"github.com/tomtom215/jazzmate/internal/catalog"
)

// SystemMessage is the fixed system instruction for the chat model.
const SystemMessage = "당신은 음악 추천 전문가입니다. 사용자의 감상문을 바탕으로 추천된 곡에 대한 추천 사유를 간결하고 명확하게 작성해주세요."

// Truncation limits, in runes, for the critic text embedded in the prompt.
const (
	promptContentRunes = 500
	promptSummaryRunes = 300
)

const (
	unknownTitle  = "Unknown Title"
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

type albumInfo struct {
	title, artist, album, content, summary string
}

func infoFrom(p catalog.Payload) albumInfo {
	info := albumInfo{
		title:   p.Title(),
		artist:  p.Artist(),
		album:   p.Title(),
		content: p.String(catalog.FieldContent),
		summary: p.String(catalog.FieldSummary),
	}
	if info.title == "" {
		info.title = unknownTitle
		info.album = unknownAlbum
	}
	if info.artist == "" {
		info.artist = unknownArtist
	}
	return info
}

// Prompt renders the user message for one recommendation.
func Prompt(review string, p catalog.Payload) string {
	info := infoFrom(p)

	var b strings.Builder
	b.WriteString("\n당신은 음악 추천 전문가입니다. 사용자의 감상문을 바탕으로 추천된 곡에 대한 추천 사유를 작성해주세요.\n\n")
	b.WriteString("**사용자 감상문:**\n")
	b.WriteString(review)
	b.WriteString("\n\n**추천된 곡 정보:**\n")
	b.WriteString("- 아티스트: " + info.artist + "\n")
	b.WriteString("- 곡명: " + info.title + "\n")
	b.WriteString("- 앨범: " + info.album + "\n\n")
	b.WriteString("**추천된 곡에 대한 전문가 리뷰 내용:**\n")
	b.WriteString(catalog.Truncate(info.content, promptContentRunes) + "...\n\n")
	b.WriteString("**추천된 곡에 대한 리뷰 요약:**\n")
	b.WriteString(catalog.Truncate(info.summary, promptSummaryRunes) + "...\n\n")
	b.WriteString(`**요구사항:**
1. 사용자의 감상문과 추천된 곡의 공통점을 찾아 설명하세요
2. 추천된 곡의 특징과 매력을 간결하게 설명하세요
3. 왜 이 곡을 추천하는지 구체적인 이유를 제시하세요
4. 한국어로 작성하세요
5. 완전한 문장으로 마무리하세요 (문장이 중간에 끊어지지 않도록 주의)
6. 2-3문장으로 간결하게 작성하되, 반드시 완전한 문장으로 끝내세요

**중요:**
- 문장이 중간에 끊어지지 않도록 주의하세요
- 추천 사유만 작성하고, 다른 설명이나 부가 정보는 포함하지 마세요

**추천 사유:**
`)
	return b.String()
}
