// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package vectorindex

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

// PgVector is an Index backed by a Postgres table with a pgvector column.
// The collection name is used as the table name.
type PgVector struct {
	pool     *pgxpool.Pool
	table    string
	dim      int
	pageSize int
}

// OpenPgVector connects a pool to cfg.DSN.
func OpenPgVector(ctx context.Context, cfg config.VectorConfig) (*PgVector, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pageSize := cfg.ScrollPageSize
	if pageSize <= 0 {
		pageSize = 1000
	}
	return &PgVector{
		pool:     pool,
		table:    pgx.Identifier{cfg.Collection}.Sanitize(),
		dim:      cfg.Dimension,
		pageSize: pageSize,
	}, nil
}

func schemaSQL(table string, dim int) string {
	return fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS %[1]s (
  id          bigint PRIMARY KEY,
  payload     jsonb NOT NULL DEFAULT '{}'::jsonb,
  embedding   vector(%[2]d) NOT NULL,
  updated_at  timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS %[3]s ON %[1]s USING hnsw (embedding vector_cosine_ops);
CREATE INDEX IF NOT EXISTS %[4]s ON %[1]s USING gin (payload);
`, table, dim, indexName(table, "embedding_idx"), indexName(table, "payload_idx"))
}

func indexName(table, suffix string) string {
	// table is already quoted; derive an unquoted, then re-quoted name.
	var raw string
	if len(table) >= 2 && table[0] == '"' {
		raw = table[1 : len(table)-1]
	} else {
		raw = table
	}
	return pgx.Identifier{raw + "_" + suffix}.Sanitize()
}

func upsertSQL(table string) string {
	return fmt.Sprintf(`INSERT INTO %s (id, payload, embedding, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE SET
  payload = EXCLUDED.payload,
  embedding = EXCLUDED.embedding,
  updated_at = now()`, table)
}

// searchSQL orders by cosine distance, then id, so equal scores come back
// in a stable order.
func searchSQL(table string, filtered bool) string {
	where := ""
	if filtered {
		where = "WHERE payload->>$3 = $4\n"
	}
	return fmt.Sprintf(`SELECT id, payload, 1 - (embedding <=> $1) AS score
FROM %s
%sORDER BY embedding <=> $1, id
LIMIT $2`, table, where)
}

func scanSQL(table string, first bool) string {
	if first {
		return fmt.Sprintf(`SELECT id FROM %s ORDER BY id LIMIT $1`, table)
	}
	return fmt.Sprintf(`SELECT id FROM %s WHERE id > $2 ORDER BY id LIMIT $1`, table)
}

func searchArgs(vector []float32, limit int, filter *Filter) []any {
	args := []any{pgvector.NewVector(vector), limit}
	if filter != nil && filter.Field != "" {
		args = append(args, filter.Field, filter.Value)
	}
	return args
}

// Initialize implements Index.
func (s *PgVector) Initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL(s.table, s.dim))
	metrics.RecordVectorOp("initialize", BackendPgVector, err)
	if err != nil {
		return storageError("vectorindex.pgvector.Initialize", err)
	}
	logging.Info().Str("table", s.table).Int("dimension", s.dim).Msg("pgvector table ready")
	return nil
}

// ExistingIDs implements Index using keyset pagination on id.
func (s *PgVector) ExistingIDs(ctx context.Context) (map[int64]struct{}, error) {
	const op = "vectorindex.pgvector.ExistingIDs"

	ids := make(map[int64]struct{})
	var last int64
	first := true
	for {
		args := []any{s.pageSize}
		if !first {
			args = append(args, last)
		}
		rows, err := s.pool.Query(ctx, scanSQL(s.table, first), args...)
		if err != nil {
			metrics.RecordVectorOp("scroll", BackendPgVector, err)
			return nil, storageError(op, err)
		}
		page, err := pgx.CollectRows(rows, pgx.RowTo[int64])
		if err != nil {
			metrics.RecordVectorOp("scroll", BackendPgVector, err)
			return nil, storageError(op, err)
		}
		for _, id := range page {
			ids[id] = struct{}{}
		}
		if len(page) < s.pageSize {
			break
		}
		last = page[len(page)-1]
		first = false
	}
	metrics.RecordVectorOp("scroll", BackendPgVector, nil)
	return ids, nil
}

// Upsert implements Index.
func (s *PgVector) Upsert(ctx context.Context, p Point) error {
	const op = "vectorindex.pgvector.Upsert"

	if err := checkDimension(op, p.Vector, s.dim); err != nil {
		return err
	}
	payload, err := catalog.Normalize(p.Payload)
	if err != nil {
		return storageError(op, err)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return storageError(op, fmt.Errorf("marshal payload: %w", err))
	}

	_, err = s.pool.Exec(ctx, upsertSQL(s.table), p.ID, data, pgvector.NewVector(p.Vector))
	metrics.RecordVectorOp("upsert", BackendPgVector, err)
	if err != nil {
		return storageError(op, err)
	}
	return nil
}

// Search implements Index.
func (s *PgVector) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]Hit, error) {
	const op = "vectorindex.pgvector.Search"

	if err := checkDimension(op, vector, s.dim); err != nil {
		return nil, err
	}

	filtered := filter != nil && filter.Field != ""
	rows, err := s.pool.Query(ctx, searchSQL(s.table, filtered), searchArgs(vector, normalizeLimit(limit), filter)...)
	if err != nil {
		metrics.RecordVectorOp("search", BackendPgVector, err)
		return nil, storageError(op, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var (
			id      int64
			raw     []byte
			score   float64
			payload catalog.Payload
		)
		if err := rows.Scan(&id, &raw, &score); err != nil {
			metrics.RecordVectorOp("search", BackendPgVector, err)
			return nil, storageError(op, err)
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			logging.Warn().Err(err).Int64("id", id).Msg("Undecodable payload in pgvector row")
		}
		hits = append(hits, Hit{ID: id, Score: float32(score), Payload: payload})
	}
	if err := rows.Err(); err != nil {
		metrics.RecordVectorOp("search", BackendPgVector, err)
		return nil, storageError(op, err)
	}
	metrics.RecordVectorOp("search", BackendPgVector, nil)
	return hits, nil
}

// Health implements Index.
func (s *PgVector) Health(ctx context.Context) Health {
	h := Health{Collection: s.table}
	var count int64
	err := s.pool.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&count)
	if err != nil {
		h.Status = StatusError
		h.Error = err.Error()
		return h
	}
	h.Status = StatusHealthy
	h.PointCount = uint64(count)
	return h
}

// Dimension implements Index.
func (s *PgVector) Dimension() int { return s.dim }

// Close implements Index.
func (s *PgVector) Close() error {
	s.pool.Close()
	return nil
}
