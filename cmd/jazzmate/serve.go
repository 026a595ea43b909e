// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/jazzmate/internal/api"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/supervisor"
	"github.com/tomtom215/jazzmate/internal/supervisor/services"
)

func NewServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ledger retry loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg

	idx, err := a.openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeQuietly("vector index", idx.Close)

	if err := idx.Initialize(ctx); err != nil {
		logging.Warn().Err(err).Msg("Vector index not ready; /health will report it")
	}

	engine, err := a.newEngine(ctx, idx)
	if err != nil {
		return err
	}
	defer engine.Wait()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return err
	}

	if cfg.Ledger.RetryEnabled {
		led, err := a.openLedger()
		if err != nil {
			return err
		}
		defer closeQuietly("ledger", led.Close)
		tree.AddDataService(services.NewLedgerRetryService(led, idx, cfg.Ledger.MaxRetries, cfg.Ledger.RetryInterval))
	}

	handler := api.NewHandler(engine, idx, cfg.Server)
	router := api.NewRouter(handler, api.NewMiddleware(api.MiddlewareConfigFrom(cfg.Server)))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	logging.Info().
		Str("addr", server.Addr).
		Str("backend", cfg.Vector.Backend).
		Bool("writeback", cfg.WriteBack.Enabled).
		Bool("ledger_retry", cfg.Ledger.RetryEnabled).
		Msg("Starting JazzMate API")

	err = tree.Serve(ctx)

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("JazzMate stopped gracefully")
	return nil
}
