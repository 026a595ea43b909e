// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

/*
Package embedding turns text into dense vectors using the Hugging Face
Inference feature-extraction API (intfloat/multilingual-e5-large by default).

Every request passes a token-bucket rate limiter (golang.org/x/time/rate) and
a circuit breaker (internal/breaker). When the breaker is open, calls fail
immediately with faults.ErrCircuitOpen.

The client never decides what to do with a failure. Ingestion counts absent
vectors as failed records; retrieval turns an error into an empty result. The
failure ledger is written only by the orchestrator.
*/
package embedding
