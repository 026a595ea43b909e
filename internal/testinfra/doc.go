// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package testinfra starts real vector stores in Docker for integration tests.
//
// Containers are managed with testcontainers-go and are only compiled with the
// integration build tag:
//
//	go test -tags integration ./internal/vectorindex/...
//
// Tests call SkipIfNoDocker first so they are skipped, not failed, on machines
// without a Docker daemon.
package testinfra
