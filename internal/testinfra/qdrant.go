// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultQdrantImage is the official Qdrant image.
	DefaultQdrantImage = "qdrant/qdrant:v1.14.0"

	qdrantHTTPPort = "6333/tcp"
	qdrantGRPCPort = "6334/tcp"
)

// QdrantContainer is a running Qdrant instance.
type QdrantContainer struct {
	testcontainers.Container
	// URL addresses the gRPC port, which is what the Go client speaks.
	URL string
}

// NewQdrantContainer starts Qdrant and waits for its readiness probe.
func NewQdrantContainer(ctx context.Context) (*QdrantContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultQdrantImage,
		ExposedPorts: []string{qdrantHTTPPort, qdrantGRPCPort},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(qdrantGRPCPort),
			wait.ForHTTP("/readyz").WithPort(qdrantHTTPPort),
		).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant container: %w", err)
	}

	host, port, err := endpoint(ctx, container, qdrantGRPCPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get qdrant endpoint: %w", err)
	}

	return &QdrantContainer{
		Container: container,
		URL:       fmt.Sprintf("http://%s:%s", host, port),
	}, nil
}
