// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package faults

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrappedError(t *testing.T) {
	t.Parallel()

	base := errors.New("connection reset")
	err := fmt.Errorf("batch 3: %w", New(KindStorage, "upsert", base))

	if got := KindOf(err); got != KindStorage {
		t.Errorf("KindOf = %v, want %v", got, KindStorage)
	}
	if !Is(err, KindStorage) {
		t.Error("expected Is(err, KindStorage) to be true")
	}
	if !errors.Is(err, base) {
		t.Error("expected underlying error to be reachable via errors.Is")
	}
}

func TestKindOfUntagged(t *testing.T) {
	t.Parallel()

	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf = %v, want unknown", got)
	}
	if Is(nil, KindUnknown) {
		t.Error("nil error must not match any kind")
	}
	if New(KindEmbedding, "op", nil) != nil {
		t.Error("New with nil error must return nil")
	}
}

func TestSentinelChain(t *testing.T) {
	t.Parallel()

	if !errors.Is(ErrNoCredential, ErrProviderUnavailable) {
		t.Error("ErrNoCredential should wrap ErrProviderUnavailable")
	}
	if !errors.Is(ErrCircuitOpen, ErrProviderUnavailable) {
		t.Error("ErrCircuitOpen should wrap ErrProviderUnavailable")
	}

	err := DimensionMismatch("retrieve", 512, 1024)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Error("DimensionMismatch should wrap ErrDimensionMismatch")
	}
	if KindOf(err) != KindEmbedding {
		t.Errorf("DimensionMismatch kind = %v, want embedding", KindOf(err))
	}
	want := "retrieve: embedding: embedding dimension mismatch: got 512, want 1024"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := map[Kind]string{
		KindValidation:        "validation",
		KindEmbedding:         "embedding",
		KindStorage:           "storage",
		KindRateLimited:       "rate_limited",
		KindRetrievalDegraded: "retrieval_degraded",
		Kind(99):              "unknown",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
