// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/embedding"
	"github.com/tomtom215/jazzmate/internal/faults"
	"github.com/tomtom215/jazzmate/internal/ingest"
	"github.com/tomtom215/jazzmate/internal/ledger"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/reason"
	"github.com/tomtom215/jazzmate/internal/recommend"
	"github.com/tomtom215/jazzmate/internal/retrieval"
	"github.com/tomtom215/jazzmate/internal/source"
	"github.com/tomtom215/jazzmate/internal/vectorindex"
	"github.com/tomtom215/jazzmate/internal/writeback"
)

// app holds the loaded configuration and builds components on demand, so
// each command only opens what it needs.
type app struct {
	configPath string
	cfg        *config.Config
}

func (a *app) load(cmd *cobra.Command) error {
	if !cmd.HasParent() || a.cfg != nil {
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    cmd.ErrOrStderr(),
	})
	a.cfg = cfg
	return nil
}

func (a *app) openIndex(ctx context.Context) (vectorindex.Index, error) {
	idx, err := vectorindex.Open(ctx, a.cfg.Vector)
	if err != nil {
		return nil, fmt.Errorf("open vector index: %w", err)
	}
	return idx, nil
}

func (a *app) openLedger() (*ledger.Ledger, error) {
	led, err := ledger.Open(a.cfg.Ledger)
	if err != nil {
		return nil, fmt.Errorf("open failure ledger: %w", err)
	}
	return led, nil
}

// openSource returns the JSON file source when fromFile is set, otherwise
// the Postgres album store. The returned func releases it.
func (a *app) openSource(ctx context.Context, fromFile string) (ingest.Source, func(), error) {
	if fromFile != "" {
		return source.File{Path: fromFile}, func() {}, nil
	}
	pg, err := source.OpenPostgres(ctx, a.cfg.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("open album source: %w", err)
	}
	return pg, pg.Close, nil
}

func (a *app) newEmbedder() *embedding.Client {
	emb := embedding.New(a.cfg.Embedding)
	if !emb.Available() {
		logging.Warn().Msg("No embedding API key configured (HF_TOKEN); embeddings will fail")
	}
	return emb
}

// newReasoner uses the configured LLM when a key is present and the keyword
// fallback otherwise.
func (a *app) newReasoner(ctx context.Context) *reason.Generator {
	llm, err := reason.NewLLM(ctx, a.cfg.Reason)
	if err != nil {
		if !errors.Is(err, faults.ErrNoCredential) {
			logging.Warn().Err(err).Str("provider", a.cfg.Reason.Provider).Msg("LLM unavailable, using fallback reasons")
		}
		return reason.NewGenerator(nil)
	}
	return reason.NewGenerator(llm)
}

func (a *app) newEngine(ctx context.Context, idx vectorindex.Index) (*recommend.Engine, error) {
	recCfg := recommend.DefaultConfig()
	recCfg.Limits.DefaultLimit = a.cfg.Server.DefaultLimit

	engine, err := recommend.NewEngine(
		recCfg,
		retrieval.NewService(a.newEmbedder(), idx),
		a.newReasoner(ctx),
		logging.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("create recommendation engine: %w", err)
	}
	if a.cfg.WriteBack.Enabled {
		engine.SetWriter(writeback.New(a.cfg.WriteBack))
	}
	return engine, nil
}

func closeQuietly(name string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logging.Error().Err(err).Str("component", name).Msg("Close failed")
	}
}
