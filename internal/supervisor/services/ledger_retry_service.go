// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tomtom215/jazzmate/internal/ledger"
	"github.com/tomtom215/jazzmate/internal/logging"
)

// Retrier re-uploads ledgered failures. *ledger.Ledger implements it.
type Retrier interface {
	Retry(ctx context.Context, w ledger.PointWriter, maxRetries int) (ledger.RetryResult, error)
}

// LedgerRetryService periodically retries failed uploads whose embedding was
// stored in the failure ledger.
//
// A closed ledger is fatal and returned to the supervisor. Any other pass
// error is logged and the next tick tries again.
type LedgerRetryService struct {
	ledger     Retrier
	writer     ledger.PointWriter
	maxRetries int
	interval   time.Duration
	name       string

	passes atomic.Int64
}

// NewLedgerRetryService creates the retry loop. writer is usually the vector index.
func NewLedgerRetryService(l Retrier, writer ledger.PointWriter, maxRetries int, interval time.Duration) *LedgerRetryService {
	return &LedgerRetryService{
		ledger:     l,
		writer:     writer,
		maxRetries: maxRetries,
		interval:   interval,
		name:       "ledger-retry-loop",
	}
}

// Serve implements suture.Service.
func (s *LedgerRetryService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("%s: interval must be positive, got %v", s.name, s.interval)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	logging.Info().
		Dur("interval", s.interval).
		Int("max_retries", s.maxRetries).
		Msg("Ledger retry loop started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Int64("passes", s.passes.Load()).Msg("Ledger retry loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				return err
			}
		}
	}
}

// RunOnce performs a single retry pass. Only a closed ledger is returned as an error.
func (s *LedgerRetryService) RunOnce(ctx context.Context) error {
	s.passes.Add(1)
	res, err := s.ledger.Retry(ctx, s.writer, s.maxRetries)
	if err != nil {
		if errors.Is(err, ledger.ErrClosed) {
			return fmt.Errorf("%s: %w", s.name, err)
		}
		logging.Warn().Err(err).Msg("Ledger retry pass failed")
		return nil
	}

	if res.Success+res.Failed+res.Skipped == 0 {
		logging.Debug().Msg("Ledger retry pass: nothing to retry")
		return nil
	}
	logging.Info().
		Int("success", res.Success).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("Ledger retry pass completed")
	return nil
}

// Passes returns how many retry passes have run.
func (s *LedgerRetryService) Passes() int64 {
	return s.passes.Load()
}

func (s *LedgerRetryService) String() string {
	return s.name
}
