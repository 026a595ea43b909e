// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package recommend turns a user's listening review into explained album
// recommendations.
//
// # Pipeline
//
// For each request the engine:
//
//  1. Retrieves similar albums from the vector index (package retrieval)
//  2. Optionally diversifies the list with MMR reranking
//  3. Writes a reason for every album, in rank order (package reason)
//  4. Writes the results back to the shop backend when a review ID is
//     given (package writeback)
//
// Retrieval never fails: provider problems produce an empty, degraded
// response. Write-back runs in the background and its failures are only
// logged.
//
// # Usage
//
//	engine, err := recommend.NewEngine(recommend.DefaultConfig(), retriever, reasons, logger)
//	engine.SetWriter(writebackClient)
//
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    ReviewText: "비 오는 밤에 듣기 좋은 피아노 트리오",
//	    Limit:      3,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Call Wait before shutdown to let
// pending write-backs finish.
package recommend
