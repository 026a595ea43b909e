// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package reason

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openrouter"

	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/faults"
)

// LLM is a Completer backed by a fantasy language model.
type LLM struct {
	model       fantasy.LanguageModel
	temperature float64
	maxTokens   int64
	timeout     time.Duration
}

var _ Completer = (*LLM)(nil)

// NewLLM builds a chat model client from cfg. It returns faults.ErrNoCredential
// when no API key is configured.
func NewLLM(ctx context.Context, cfg config.ReasonConfig) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, faults.ErrNoCredential
	}

	var provider fantasy.Provider
	var err error

	switch cfg.Provider {
	case "", "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		provider, err = openrouter.New(openrouter.WithAPIKey(cfg.APIKey))

	default:
		return nil, fmt.Errorf("unsupported reason provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	return &LLM{
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}, nil
}

// Complete implements Completer. A provider 429 is returned as a
// faults.KindRateLimited error.
func (l *LLM) Complete(ctx context.Context, system, prompt string) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	temperature := l.temperature
	maxTokens := l.maxTokens
	resp, err := l.model.Generate(ctx, fantasy.Call{
		Prompt: fantasy.Prompt{
			fantasy.NewSystemMessage(system),
			fantasy.NewUserMessage(prompt),
		},
		Temperature:     &temperature,
		MaxOutputTokens: &maxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	return resp.Content.Text(), nil
}

func classify(err error) error {
	var perr *fantasy.ProviderError
	if errors.As(err, &perr) && perr.StatusCode == http.StatusTooManyRequests {
		return faults.New(faults.KindRateLimited, "reason.Complete", err)
	}
	return fmt.Errorf("%w: %w", faults.ErrProviderUnavailable, err)
}
