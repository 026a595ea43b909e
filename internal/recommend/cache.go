// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package recommend

import (
	"strings"
	"time"

	"github.com/tomtom215/jazzmate/internal/cache"
)

type cacheParams struct {
	Review string `json:"review"`
	Artist string `json:"artist"`
	Limit  int    `json:"limit"`
}

// cacheKey identifies a request by its normalized review, artist and limit.
// The review ID is not part of the key: it only affects write-back.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func cacheKey(req Request) string {
	return cache.Key("recommend", cacheParams{
		Review: strings.TrimSpace(req.ReviewText),
		Artist: strings.TrimSpace(req.Artist),
		Limit:  req.Limit,
	})
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, start time.Time) *Response {
	if !e.config.Cache.Enabled {
		return nil
	}

	resp := e.checkCache(cacheKey(req))
	if resp == nil {
		e.cacheMisses.Add(1)
		return nil
	}

	e.cacheHits.Add(1)
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	resp.Metadata.Timestamp = time.Now()
	return resp
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, resp *Response) {
	if e.config.Cache.Enabled {
		e.storeCache(cacheKey(req), copyResponse(resp))
	}
}

// checkCache returns a copy of a live entry, or nil.
func (e *Engine) checkCache(key string) *Response {
	resp, ok := e.cache.Get(key)
	if !ok {
		return nil
	}
	return copyResponse(resp)
}

func copyResponse(resp *Response) *Response {
	items := make([]Item, len(resp.Items))
	copy(items, resp.Items)
	return &Response{Items: items, Metadata: resp.Metadata}
}

func (e *Engine) storeCache(key string, resp *Response) {
	e.cache.Add(key, resp)
}

// ClearCache removes all cached responses. It is called after ingestion
// changes the index.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}
