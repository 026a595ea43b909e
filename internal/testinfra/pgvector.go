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
	// DefaultPgVectorImage ships Postgres with the vector extension available.
	DefaultPgVectorImage = "pgvector/pgvector:pg16"

	pgPort     = "5432/tcp"
	pgUser     = "jazzmate"
	pgPassword = "jazzmate"
	pgDatabase = "jazzmate"
)

// PgVectorContainer is a running Postgres+pgvector instance.
type PgVectorContainer struct {
	testcontainers.Container
	DSN string
}

// NewPgVectorContainer starts Postgres with pgvector and waits until it
// accepts connections.
func NewPgVectorContainer(ctx context.Context) (*PgVectorContainer, error) {
	req := testcontainers.ContainerRequest{
		Image:        DefaultPgVectorImage,
		ExposedPorts: []string{pgPort},
		Env: map[string]string{
			"POSTGRES_USER":     pgUser,
			"POSTGRES_PASSWORD": pgPassword,
			"POSTGRES_DB":       pgDatabase,
		},
		// Postgres logs readiness twice: once for the init server, once for the real one.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create pgvector container: %w", err)
	}

	host, port, err := endpoint(ctx, container, pgPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get pgvector endpoint: %w", err)
	}

	return &PgVectorContainer{
		Container: container,
		DSN:       fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", pgUser, pgPassword, host, port, pgDatabase),
	}, nil
}
