// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

/*
Package cache provides a thread-safe, generic LRU cache with TTL expiration.

The recommend engine keeps recent responses here so that the same review,
artist filter and limit are answered without another embedding call or LLM
round-trip.

# Usage

	c := cache.NewLRU[*recommend.Response](1000, 10*time.Minute)
	c.Add(cache.Key("recommend", req), resp)
	if resp, ok := c.Get(key); ok {
	    // served from cache
	}

# Eviction

Entries expire lazily on Get. When the cache is full, Add first drops
expired entries from the cold end and then the least recently used entry.
CleanupExpired sweeps the whole list and can be called periodically.

# Thread Safety

All methods are safe for concurrent use. Get takes the write lock because
it moves the entry to the front of the recency list.
*/
package cache
