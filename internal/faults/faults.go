// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package faults defines the failure taxonomy shared by the ingestion and
// retrieval pipelines.
//
// Every error that crosses a provider boundary (embedding API, vector index,
// LLM) is converted by the calling component into an *Error tagged with a
// Kind, so callers branch on KindOf instead of matching message text:
//
//	switch faults.KindOf(err) {
//	case faults.KindStorage:
//	    ledger.Record(ctx, rec, vec, err.Error(), faults.KindStorage)
//	case faults.KindEmbedding:
//	    failed++
//	}
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is returned by KindOf for untagged errors.
	KindUnknown Kind = iota

	// KindValidation marks a record permanently excluded by the validator.
	KindValidation

	// KindEmbedding marks a provider outage, missing credential or a vector
	// with the wrong dimensionality. Nothing is preserved in the ledger.
	KindEmbedding

	// KindStorage marks an index write that failed after embedding
	// succeeded. The embedding is preserved in the ledger.
	KindStorage

	// KindRateLimited marks an LLM call rejected with HTTP 429.
	KindRateLimited

	// KindRetrievalDegraded marks a query-time failure that was converted to
	// an empty result.
	KindRetrievalDegraded
)

// String returns the snake_case name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindEmbedding:
		return "embedding"
	case KindStorage:
		return "storage"
	case KindRateLimited:
		return "rate_limited"
	case KindRetrievalDegraded:
		return "retrieval_degraded"
	default:
		return "unknown"
	}
}

// Sentinel errors wrapped inside *Error values.
var (
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrNoCredential        = fmt.Errorf("%w: no credential configured", ErrProviderUnavailable)
	ErrCircuitOpen         = fmt.Errorf("%w: circuit breaker open", ErrProviderUnavailable)
	ErrDimensionMismatch   = errors.New("embedding dimension mismatch")
)

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// New wraps err with a kind and operation name. It returns nil when err is nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Error implements error.
func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// DimensionMismatch builds a KindEmbedding error for a vector of the wrong size.
func DimensionMismatch(op string, got, want int) error {
	return &Error{
		Kind: KindEmbedding,
		Op:   op,
		Err:  fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, got, want),
	}
}
