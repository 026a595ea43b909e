// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

/*
Package api provides the HTTP API for review-based album recommendations.

Routes:

	GET  /                     service banner
	GET  /health               service and vector index health (503 when the index is down)
	POST /recommend/by-review  recommendations for a free-text review
	GET  /metrics              Prometheus metrics

Middleware stack, applied in order:

  - RequestIDWithLogging: X-Request-ID header and logging context
  - chi RealIP and Recoverer
  - CORS (go-chi/cors) restricted to server.allowed_origins
  - PrometheusMetrics: request duration by route pattern

The recommendation route is additionally rate limited per client IP with
go-chi/httprate.

Every response uses the APIResponse envelope:

	{
	  "status": "success" | "error",
	  "data": {...},
	  "error": {"code": "...", "message": "..."},
	  "metadata": {"timestamp": "...", "query_time_ms": 12}
	}

A degraded recommendation (embedding or index unavailable) is still a 200
with an empty recommendations list.
*/
package api
