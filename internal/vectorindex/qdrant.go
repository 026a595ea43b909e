// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/config"
	"github.com/tomtom215/jazzmate/internal/logging"
	"github.com/tomtom215/jazzmate/internal/metrics"
)

const defaultQdrantGRPCPort = 6334

var errNegativeID = errors.New("qdrant point IDs must be non-negative")

// Qdrant is an Index backed by a Qdrant collection over gRPC.
type Qdrant struct {
	client     *qdrant.Client
	collection string
	dim        int
	pageSize   uint32
}

// OpenQdrant connects to the Qdrant instance at cfg.URL.
func OpenQdrant(cfg config.VectorConfig) (*Qdrant, error) {
	host, port, useTLS, err := parseEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant at %s: %w", cfg.URL, err)
	}

	pageSize := cfg.ScrollPageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	logging.Info().Str("host", host).Int("port", port).Bool("tls", useTLS).Str("collection", cfg.Collection).Msg("Qdrant client created")

	return &Qdrant{
		client:     client,
		collection: cfg.Collection,
		dim:        cfg.Dimension,
		pageSize:   uint32(pageSize),
	}, nil
}

// parseEndpoint splits a URL such as https://xyz.cloud.qdrant.io:6334 into
// gRPC connection parameters. A bare host defaults to plain text on 6334.
func parseEndpoint(raw string) (host string, port int, useTLS bool, err error) {
	endpoint := raw
	if !strings.Contains(raw, "://") {
		// Accept "host:port" without a scheme.
		endpoint = "http://" + raw
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant URL %q", raw)
	}

	useTLS = u.Scheme == "https"
	host = u.Hostname()
	port = defaultQdrantGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid qdrant port %q", p)
		}
	}
	if host == "" {
		return "", 0, false, fmt.Errorf("invalid qdrant URL %q", raw)
	}
	return host, port, useTLS, nil
}

// Initialize implements Index.
func (q *Qdrant) Initialize(ctx context.Context) error {
	const op = "vectorindex.qdrant.Initialize"

	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		metrics.RecordVectorOp("initialize", BackendQdrant, err)
		return storageError(op, err)
	}
	if exists {
		metrics.RecordVectorOp("initialize", BackendQdrant, nil)
		return nil
	}

	err = q.client.CreateCollection(ctx, buildCreateCollection(q.collection, q.dim))
	metrics.RecordVectorOp("initialize", BackendQdrant, err)
	if err != nil {
		return storageError(op, err)
	}
	logging.Info().Str("collection", q.collection).Int("dimension", q.dim).Msg("Created qdrant collection")
	return nil
}

// ExistingIDs implements Index. Points are scrolled in ID order without
// payloads or vectors.
func (q *Qdrant) ExistingIDs(ctx context.Context) (map[int64]struct{}, error) {
	const op = "vectorindex.qdrant.ExistingIDs"

	ids := make(map[int64]struct{})
	var offset *qdrant.PointId
	for {
		points, err := q.client.Scroll(ctx, buildScroll(q.collection, q.pageSize, offset))
		if err != nil {
			metrics.RecordVectorOp("scroll", BackendQdrant, err)
			return nil, storageError(op, err)
		}

		var last uint64
		for _, p := range points {
			last = p.GetId().GetNum()
			ids[int64(last)] = struct{}{}
		}
		if uint32(len(points)) < q.pageSize {
			break
		}
		offset = qdrant.NewIDNum(last + 1)
	}
	metrics.RecordVectorOp("scroll", BackendQdrant, nil)
	return ids, nil
}

// Upsert implements Index.
func (q *Qdrant) Upsert(ctx context.Context, p Point) error {
	const op = "vectorindex.qdrant.Upsert"

	if err := checkDimension(op, p.Vector, q.dim); err != nil {
		return err
	}
	req, err := buildUpsert(q.collection, p)
	if err != nil {
		return storageError(op, err)
	}

	_, err = q.client.Upsert(ctx, req)
	metrics.RecordVectorOp("upsert", BackendQdrant, err)
	if err != nil {
		return storageError(op, err)
	}
	return nil
}

// Search implements Index.
func (q *Qdrant) Search(ctx context.Context, vector []float32, limit int, filter *Filter) ([]Hit, error) {
	const op = "vectorindex.qdrant.Search"

	if err := checkDimension(op, vector, q.dim); err != nil {
		return nil, err
	}

	scored, err := q.client.Query(ctx, buildQuery(q.collection, vector, normalizeLimit(limit), filter))
	metrics.RecordVectorOp("search", BackendQdrant, err)
	if err != nil {
		return nil, storageError(op, err)
	}
	return hitsFromScored(scored), nil
}

// Health implements Index.
func (q *Qdrant) Health(ctx context.Context) Health {
	h := Health{Collection: q.collection}
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		h.Status = StatusError
		h.Error = err.Error()
		return h
	}
	h.Status = StatusHealthy
	h.PointCount = count
	return h
}

// Dimension implements Index.
func (q *Qdrant) Dimension() int { return q.dim }

// Close implements Index.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

func buildCreateCollection(collection string, dim int) *qdrant.CreateCollection {
	return &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	}
}

func buildScroll(collection string, pageSize uint32, offset *qdrant.PointId) *qdrant.ScrollPoints {
	return &qdrant.ScrollPoints{
		CollectionName: collection,
		Offset:         offset,
		Limit:          qdrant.PtrOf(pageSize),
		WithPayload:    qdrant.NewWithPayload(false),
		WithVectors:    qdrant.NewWithVectors(false),
	}
}

func buildUpsert(collection string, p Point) (*qdrant.UpsertPoints, error) {
	if p.ID < 0 {
		return nil, errNegativeID
	}
	normalized, err := catalog.Normalize(p.Payload)
	if err != nil {
		return nil, err
	}
	payload, err := qdrant.TryValueMap(normalized)
	if err != nil {
		return nil, fmt.Errorf("convert payload: %w", err)
	}

	return &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDNum(uint64(p.ID)),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		}},
	}, nil
}

func buildQuery(collection string, vector []float32, limit int, filter *Filter) *qdrant.QueryPoints {
	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if filter != nil && filter.Field != "" {
		req.Filter = &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(filter.Field, filter.Value)},
		}
	}
	return req
}

func hitsFromScored(scored []*qdrant.ScoredPoint) []Hit {
	hits := make([]Hit, 0, len(scored))
	for _, sp := range scored {
		hits = append(hits, Hit{
			ID:      int64(sp.GetId().GetNum()),
			Score:   sp.GetScore(),
			Payload: payloadFromValues(sp.GetPayload()),
		})
	}
	SortHits(hits)
	return hits
}

func payloadFromValues(values map[string]*qdrant.Value) catalog.Payload {
	p := make(catalog.Payload, len(values))
	for k, v := range values {
		p[k] = fromValue(v)
	}
	return p
}

func fromValue(v *qdrant.Value) interface{} {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		out := make(map[string]interface{}, len(kind.StructValue.GetFields()))
		for k, fv := range kind.StructValue.GetFields() {
			out[k] = fromValue(fv)
		}
		return out
	case *qdrant.Value_ListValue:
		list := kind.ListValue.GetValues()
		out := make([]interface{}, len(list))
		for i, lv := range list {
			out[i] = fromValue(lv)
		}
		return out
	default:
		return nil
	}
}
