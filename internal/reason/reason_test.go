// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package reason

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"charm.land/fantasy"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/faults"
)

type mockCompleter struct {
	calls      atomic.Int32
	text       string
	err        error
	lastSystem string
	lastPrompt string
}

func (m *mockCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	m.calls.Add(1)
	m.lastSystem = system
	m.lastPrompt = prompt
	return m.text, m.err
}

func pianoAlbum() catalog.Payload {
	return catalog.Payload{
		catalog.FieldID:      int64(9),
		catalog.FieldArtist:  "Bill Evans",
		catalog.FieldTitle:   "Waltz for Debby",
		catalog.FieldContent: "Delicate piano voicings and a warm, conversational bass.",
		catalog.FieldSummary: "Elegant trio jazz.",
	}
}

func TestReasonForUsesLLM(t *testing.T) {
	mc := &mockCompleter{text: "  잔잔한 피아노 트리오가 감상문의 분위기와 잘 맞습니다.  "}
	r := NewGenerator(mc).ReasonFor(context.Background(), "조용한 밤의 피아노", pianoAlbum())

	if r.Source != SourceLLM {
		t.Fatalf("Source = %q, want llm", r.Source)
	}
	if r.Text != "잔잔한 피아노 트리오가 감상문의 분위기와 잘 맞습니다." {
		t.Errorf("text not trimmed: %q", r.Text)
	}
	if mc.lastSystem != SystemMessage {
		t.Errorf("unexpected system message: %q", mc.lastSystem)
	}
	for _, want := range []string{"조용한 밤의 피아노", "- 아티스트: Bill Evans", "- 곡명: Waltz for Debby", "Elegant trio jazz...."} {
		if !strings.Contains(mc.lastPrompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestReasonForRateLimited(t *testing.T) {
	mc := &mockCompleter{err: faults.New(faults.KindRateLimited, "test", errors.New("429"))}
	r := NewGenerator(mc).ReasonFor(context.Background(), "piano", pianoAlbum())
	if r.Source != SourceRateLimited || r.Text != RateLimitedText {
		t.Errorf("unexpected reason: %+v", r)
	}
}

func TestReasonForFallsBack(t *testing.T) {
	tests := []struct {
		name string
		c    Completer
	}{
		{"no completer", nil},
		{"provider error", &mockCompleter{err: errors.New("connection refused")}},
		{"no credential", &mockCompleter{err: faults.ErrNoCredential}},
		{"empty reply", &mockCompleter{text: "   "}},
	}

	want := Fallback("piano", pianoAlbum())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewGenerator(tt.c).ReasonFor(context.Background(), "piano", pianoAlbum())
			if r.Source != SourceFallback || r.Text != want {
				t.Errorf("unexpected reason: %+v", r)
			}
		})
	}
}

func TestFallbackDeterministicAcrossLanguages(t *testing.T) {
	album := pianoAlbum()
	korean := Fallback("피아노 소리가 좋아요", album)
	english := Fallback("I love the piano here", album)

	if korean != english {
		t.Errorf("Korean and English mentions should produce the same reason:\n%q\n%q", korean, english)
	}
	if korean != Fallback("피아노 소리가 좋아요", album) {
		t.Error("Fallback is not deterministic")
	}
	want := "'Bill Evans - Waltz for Debby'을 추천합니다. 사용자의 감상문에서 언급한 피아노와 같은 특징을 가지고 있어 비슷한 음악적 경험을 제공할 것입니다."
	if korean != want {
		t.Errorf("Fallback() =\n%q\nwant\n%q", korean, want)
	}
}

func TestFallbackNamesAtMostTwoKeywords(t *testing.T) {
	got := Fallback("piano, trumpet, jazz and swing", pianoAlbum())
	if !strings.Contains(got, "언급한 피아노, 재즈와 같은") {
		t.Errorf("expected first two common keywords in vocabulary order, got %q", got)
	}
}

func TestFallbackIgnoresMoodWordsInCriticText(t *testing.T) {
	// The critic text mentions bass, warm and elegant; none are album features.
	got := Fallback("warm, elegant bass lines", pianoAlbum())
	if !strings.Contains(got, "유사한 분위기와 스타일") {
		t.Errorf("mood words should not count as shared album features, got %q", got)
	}

	p := pianoAlbum()
	p[catalog.FieldSummary] = "밝은 스윙"
	if got := AlbumFeatures(p.String(catalog.FieldSummary)); strings.Join(got, ",") != "스윙" {
		t.Errorf("AlbumFeatures() = %v, want [스윙]", got)
	}
}

func TestFallbackGeneric(t *testing.T) {
	got := Fallback("trumpet fireworks", catalog.Payload{})
	want := "'Unknown Artist - Unknown Title'을 추천합니다. 사용자의 감상문과 유사한 분위기와 스타일을 가지고 있어 새로운 음악적 발견의 기회가 될 것입니다."
	if got != want {
		t.Errorf("Fallback() = %q, want %q", got, want)
	}
}

func TestKeywordsKeepVocabularyOrder(t *testing.T) {
	got := Keywords("Comfortable SWING with a bright Piano")
	want := []string{"피아노", "스윙", "밝", "편안"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Keywords() = %v, want %v", got, want)
	}
}

func TestPromptTruncatesCriticText(t *testing.T) {
	p := pianoAlbum()
	p[catalog.FieldContent] = strings.Repeat("가", 700)
	prompt := Prompt("review", p)
	if strings.Contains(prompt, strings.Repeat("가", 501)) {
		t.Error("content should be cut to 500 runes")
	}
	if !strings.Contains(prompt, strings.Repeat("가", 500)+"...") {
		t.Error("truncated content should end with an ellipsis")
	}
}

func TestClassifyRateLimit(t *testing.T) {
	err := classify(&fantasy.ProviderError{StatusCode: 429})
	if !faults.Is(err, faults.KindRateLimited) {
		t.Errorf("429 should be rate limited, got %v", err)
	}
	err = classify(&fantasy.ProviderError{StatusCode: 500})
	if faults.Is(err, faults.KindRateLimited) || !errors.Is(err, faults.ErrProviderUnavailable) {
		t.Errorf("500 should be provider unavailable, got %v", err)
	}
}

func TestNewLLMRequiresKey(t *testing.T) {
	if _, err := NewLLM(context.Background(), config.ReasonConfig{Provider: "openai", Model: "gpt-3.5-turbo"}); !errors.Is(err, faults.ErrNoCredential) {
		t.Errorf("expected ErrNoCredential, got %v", err)
	}
}
