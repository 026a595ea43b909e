// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package reason writes the short Korean explanation shown next to each
// recommended album. Reasons come from an LLM when one is configured and
// from a keyword-overlap template otherwise.
package reason

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

// Source tells where a reason came from.
type Source string

const (
	SourceLLM         Source = "llm"
	SourceFallback    Source = "fallback"
	SourceRateLimited Source = "rate_limited"
)

// RateLimitedText is returned when the LLM provider rejects the call for quota.
const RateLimitedText = "⚠️ OpenAI API 할당량이 초과되어 추천 사유를 생성할 수 없습니다. 관리자에게 문의하세요."

// Reason is one generated explanation.
type Reason struct {
	Text   string `json:"text"`
	Source Source `json:"source"`
}

// Completer sends a system and user message to a chat model and returns the reply.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Generator produces reasons. A nil Completer always uses the fallback.
type Generator struct {
	completer Completer
	logger    zerolog.Logger
}

// NewGenerator creates a generator.
func NewGenerator(c Completer) *Generator {
	return &Generator{
		completer: c,
		logger:    logging.WithComponent("reason"),
	}
}

// ReasonFor explains why the album in payload suits the given review.
func (g *Generator) ReasonFor(ctx context.Context, review string, payload catalog.Payload) Reason {
	r := g.reasonFor(ctx, review, payload)
	metrics.RecordReason(string(r.Source))
	return r
}

func (g *Generator) reasonFor(ctx context.Context, review string, payload catalog.Payload) Reason {
	if g.completer == nil {
		return Reason{Text: Fallback(review, payload), Source: SourceFallback}
	}

	text, err := g.completer.Complete(ctx, SystemMessage, Prompt(review, payload))
	switch {
	case faults.Is(err, faults.KindRateLimited):
		g.logger.Warn().Err(err).Msg("LLM quota exceeded")
		return Reason{Text: RateLimitedText, Source: SourceRateLimited}
	case err != nil:
		if !errors.Is(err, faults.ErrNoCredential) {
			g.logger.Warn().Err(err).Int64("album_id", albumID(payload)).Msg("LLM reason failed, using fallback")
		}
		return Reason{Text: Fallback(review, payload), Source: SourceFallback}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		g.logger.Warn().Int64("album_id", albumID(payload)).Msg("LLM returned an empty reason, using fallback")
		return Reason{Text: Fallback(review, payload), Source: SourceFallback}
	}
	return Reason{Text: text, Source: SourceLLM}
}

func albumID(p catalog.Payload) int64 {
	id, _ := p.Int(catalog.FieldID)
	return id
}
