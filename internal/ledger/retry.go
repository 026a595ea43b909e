// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package ledger

import (
	"context"
	"errors"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

var errNoEmbedding = errors.New("entry has no stored embedding")

// PointWriter is the subset of vectorindex.Index used by Retry.
type PointWriter interface {
	Upsert(ctx context.Context, p vectorindex.Point) error
}

// RetryResult counts retry outcomes.
type RetryResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type retryOutcome struct {
	id  int64
	err error
}

// Retry re-upserts every entry's stored embedding through w.
//
// Entries are snapshotted first and outcomes applied afterwards, so the
// ledger is never mutated while it is being walked. Entries that already
// reached maxRetries are skipped and left untouched. Successful entries are
// deleted; failed ones get RetryCount+1 and the new error message.
//
// If ctx is cancelled, outcomes gathered so far are still applied and the
// remaining entries are left as they were.
func (l *Ledger) Retry(ctx context.Context, w PointWriter, maxRetries int) (RetryResult, error) {
	var result RetryResult

	snapshot, err := l.List(ctx)
	if err != nil {
		return result, err
	}

	outcomes := make([]retryOutcome, 0, len(snapshot))
	for i := range snapshot {
		if ctx.Err() != nil {
			break
		}
		e := &snapshot[i]
		if e.RetryCount >= maxRetries {
			result.Skipped++
			metrics.RecordLedgerRetry("skipped")
			continue
		}
		outcomes = append(outcomes, retryOutcome{id: e.Record.ID, err: l.retryOne(ctx, w, e)})
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	byID := make(map[int64]*Entry, len(snapshot))
	for i := range snapshot {
		byID[snapshot[i].Record.ID] = &snapshot[i]
	}

	var applyErr error
	for _, o := range outcomes {
		if o.err == nil {
			if err := l.remove(o.id); err != nil {
				applyErr = errors.Join(applyErr, err)
				continue
			}
			result.Success++
			metrics.RecordLedgerRetry("recovered")
			continue
		}

		e := byID[o.id]
		e.RetryCount++
		e.ErrorMessage = o.err.Error()
		e.LastAttempt = l.now()
		if err := l.put(e); err != nil {
			applyErr = errors.Join(applyErr, err)
			continue
		}
		result.Failed++
		metrics.RecordLedgerRetry("failed")
	}

	l.publishCount()

	logging.Info().
		Int("success", result.Success).
		Int("failed", result.Failed).
		Int("skipped", result.Skipped).
		Msg("Ledger retry finished")

	return result, applyErr
}

func (l *Ledger) retryOne(ctx context.Context, w PointWriter, e *Entry) error {
	if !e.HasEmbedding() {
		return errNoEmbedding
	}
	return w.Upsert(ctx, vectorindex.Point{
		ID:      e.Record.ID,
		Vector:  e.Embedding,
		Payload: catalog.NewPayload(&e.Record),
	})
}
