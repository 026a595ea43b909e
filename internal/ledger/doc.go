// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

/*
Package ledger keeps records whose embedding succeeded but whose vector index
write failed, so they can be retried later without paying for the embedding
again.

Entries live in BadgerDB under the "failed:" prefix, one per record ID, and
are JSON encoded with goccy/go-json. With SyncWrites enabled every mutation
is fsynced before the call returns. float32 embeddings are written in their
shortest round-trip form and decode to identical values.

Retry is two-phase: it snapshots the entries, re-upserts each stored
embedding, and only then applies the outcomes:

	result, err := l.Retry(ctx, index, cfg.Ledger.MaxRetries)
	// result.Success entries were deleted
	// result.Failed entries have RetryCount+1
	// result.Skipped entries were already exhausted and left alone
*/
package ledger
