// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Command jazzmate indexes critic-reviewed jazz albums into a vector store and
// recommends albums for free-text listener reviews.
//
// Commands:
//
//	jazzmate ingest [--limit N] [--batch-size N] [--from-file albums.json]
//	jazzmate status
//	jazzmate retry [--max-retries N]
//	jazzmate failures show|clear
//	jazzmate recommend --review-text T [--review-id N] [--limit N] [--artist A]
//	jazzmate serve
//
// Configuration is layered defaults, then config.yaml (or --config), then
// environment variables such as HF_TOKEN, QDRANT_URL, SUPABASE_DB_URL and
// OPENAI_API_KEY.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, NewRootCmd(version)); err != nil {
		stop()
		os.Exit(1)
	}
}
