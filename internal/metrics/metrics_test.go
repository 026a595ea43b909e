// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordEmbedding(t *testing.T) {
	before := testutil.ToFloat64(EmbeddingRequests.WithLabelValues("single", StatusError))
	RecordEmbedding("single", 20*time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(EmbeddingRequests.WithLabelValues("single", StatusError))
	if after-before != 1 {
		t.Errorf("error counter delta = %v, want 1", after-before)
	}

	before = testutil.ToFloat64(EmbeddingRequests.WithLabelValues("batch", StatusSuccess))
	RecordEmbedding("batch", time.Second, nil)
	after = testutil.ToFloat64(EmbeddingRequests.WithLabelValues("batch", StatusSuccess))
	if after-before != 1 {
		t.Errorf("success counter delta = %v, want 1", after-before)
	}
}

func TestRecordIngestRecordsSkipsZero(t *testing.T) {
	before := testutil.ToFloat64(IngestRecords.WithLabelValues("uploaded"))
	RecordIngestRecords("uploaded", 0)
	RecordIngestRecords("uploaded", -2)
	RecordIngestRecords("uploaded", 3)
	after := testutil.ToFloat64(IngestRecords.WithLabelValues("uploaded"))
	if after-before != 3 {
		t.Errorf("uploaded delta = %v, want 3", after-before)
	}
}

func TestSetLedgerEntries(t *testing.T) {
	SetLedgerEntries(7)
	if got := testutil.ToFloat64(LedgerEntries); got != 7 {
		t.Errorf("ledger gauge = %v, want 7", got)
	}
	SetLedgerEntries(0)
	if got := testutil.ToFloat64(LedgerEntries); got != 0 {
		t.Errorf("ledger gauge = %v, want 0", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("POST", "/recommend/by-review", 200, 15*time.Millisecond)
	if n := testutil.CollectAndCount(HTTPRequestDuration); n == 0 {
		t.Error("expected at least one HTTP duration series")
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(HTTPActiveRequests); got-base != 1 {
		t.Errorf("in-flight delta = %v, want 1", got-base)
	}
	TrackActiveRequest(false)
}
