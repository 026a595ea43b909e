// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package vectorindex

import (
	"strings"
	"testing"

	pgvector "github.com/pgvector/pgvector-go"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/proto"

	"github.com/tomtom215/jazzmate/internal/catalog"
)

func samplePoint() Point {
	return Point{
		ID:     42,
		Vector: []float32{0.1, 0.2, 0.3},
		Payload: catalog.Payload{
			catalog.FieldArtist:       "Miles Davis",
			catalog.FieldYear:         int64(1959),
			catalog.FieldTrackListing: map[string]interface{}{"1": "So What"},
		},
	}
}

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw    string
		host   string
		port   int
		useTLS bool
	}{
		{"http://localhost:6334", "localhost", 6334, false},
		{"https://abc.cloud.qdrant.io:6334", "abc.cloud.qdrant.io", 6334, true},
		{"https://abc.cloud.qdrant.io", "abc.cloud.qdrant.io", 6334, true},
		{"qdrant:7000", "qdrant", 7000, false},
	}
	for _, tt := range tests {
		host, port, useTLS, err := parseEndpoint(tt.raw)
		if err != nil {
			t.Errorf("parseEndpoint(%q) failed: %v", tt.raw, err)
			continue
		}
		if host != tt.host || port != tt.port || useTLS != tt.useTLS {
			t.Errorf("parseEndpoint(%q) = %s %d %v", tt.raw, host, port, useTLS)
		}
	}
	for _, raw := range []string{"http://", "https://", "https://:6334", ""} {
		if _, _, _, err := parseEndpoint(raw); err == nil {
			t.Errorf("parseEndpoint(%q) should fail on an empty host", raw)
		}
	}
}

func TestBuildUpsertIsIdempotentByID(t *testing.T) {
	first, err := buildUpsert("albums", samplePoint())
	if err != nil {
		t.Fatalf("buildUpsert failed: %v", err)
	}
	second, _ := buildUpsert("albums", samplePoint())
	if !proto.Equal(first, second) {
		t.Error("same point should build identical requests")
	}

	pt := first.GetPoints()[0]
	if pt.GetId().GetNum() != 42 {
		t.Errorf("point id = %v", pt.GetId())
	}
	if !first.GetWait() {
		t.Error("upsert should wait for the write")
	}
	if pt.GetPayload()[catalog.FieldArtist].GetStringValue() != "Miles Davis" {
		t.Errorf("artist payload = %v", pt.GetPayload()[catalog.FieldArtist])
	}
	if pt.GetPayload()[catalog.FieldYear].GetIntegerValue() != 1959 {
		t.Errorf("year payload = %v", pt.GetPayload()[catalog.FieldYear])
	}
}

func TestBuildUpsertRejects(t *testing.T) {
	p := samplePoint()
	p.ID = -1
	if _, err := buildUpsert("albums", p); err == nil {
		t.Error("negative ID should be rejected")
	}
	p = samplePoint()
	p.Payload["bad"] = struct{}{}
	if _, err := buildUpsert("albums", p); err == nil {
		t.Error("unsupported payload kind should be rejected")
	}
}

func TestBuildQuery(t *testing.T) {
	req := buildQuery("albums", []float32{1, 0}, 3, nil)
	if req.GetLimit() != 3 || req.GetFilter() != nil {
		t.Errorf("unfiltered query = %v", req)
	}

	req = buildQuery("albums", []float32{1, 0}, 3, &Filter{Field: catalog.FieldArtist, Value: "Monk"})
	must := req.GetFilter().GetMust()
	if len(must) != 1 {
		t.Fatalf("filter = %v", req.GetFilter())
	}
	field := must[0].GetField()
	if field.GetKey() != catalog.FieldArtist || field.GetMatch().GetKeyword() != "Monk" {
		t.Errorf("condition = %v", must[0])
	}
}

func TestBuildCreateCollection(t *testing.T) {
	req := buildCreateCollection("albums", 1024)
	params := req.GetVectorsConfig().GetParams()
	if params.GetSize() != 1024 || params.GetDistance() != qdrant.Distance_Cosine {
		t.Errorf("vector params = %v", params)
	}
}

func TestHitsFromScoredSortsAndConverts(t *testing.T) {
	scored := []*qdrant.ScoredPoint{
		{Id: qdrant.NewIDNum(8), Score: 0.5, Payload: qdrant.NewValueMap(map[string]any{"album_title": "B"})},
		{Id: qdrant.NewIDNum(2), Score: 0.9, Payload: qdrant.NewValueMap(map[string]any{
			"album_title": "A",
			"album_year":  1959,
			"tags":        []any{"modal", true},
			"nested":      map[string]any{"x": 1.5},
		})},
		{Id: qdrant.NewIDNum(1), Score: 0.5, Payload: nil},
	}

	hits := hitsFromScored(scored)
	if hits[0].ID != 2 || hits[1].ID != 1 || hits[2].ID != 8 {
		t.Fatalf("order = %d %d %d", hits[0].ID, hits[1].ID, hits[2].ID)
	}
	if hits[0].Payload.Title() != "A" {
		t.Errorf("title = %q", hits[0].Payload.Title())
	}
	if year, ok := hits[0].Payload.Int(catalog.FieldYear); !ok || year != 1959 {
		t.Errorf("year = %v", hits[0].Payload[catalog.FieldYear])
	}
	tags, _ := hits[0].Payload["tags"].([]interface{})
	if len(tags) != 2 || tags[0] != "modal" || tags[1] != true {
		t.Errorf("tags = %#v", hits[0].Payload["tags"])
	}
	nested, _ := hits[0].Payload["nested"].(map[string]interface{})
	if nested["x"] != 1.5 {
		t.Errorf("nested = %#v", hits[0].Payload["nested"])
	}
}

func TestPgVectorSQL(t *testing.T) {
	table := `"allthatjazz_album"`

	ddl := schemaSQL(table, 1024)
	for _, want := range []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		"CREATE TABLE IF NOT EXISTS " + table,
		"vector(1024)",
		"vector_cosine_ops",
		`"allthatjazz_album_embedding_idx"`,
	} {
		if !strings.Contains(ddl, want) {
			t.Errorf("schema missing %q:\n%s", want, ddl)
		}
	}

	up := upsertSQL(table)
	if !strings.Contains(up, "ON CONFLICT (id) DO UPDATE") {
		t.Errorf("upsert is not idempotent by id:\n%s", up)
	}

	search := searchSQL(table, false)
	if strings.Contains(search, "WHERE") || !strings.Contains(search, "ORDER BY embedding <=> $1, id") {
		t.Errorf("unfiltered search:\n%s", search)
	}
	if !strings.Contains(searchSQL(table, true), "payload->>$3 = $4") {
		t.Error("filtered search should match on payload field")
	}

	if strings.Contains(scanSQL(table, true), "WHERE") || !strings.Contains(scanSQL(table, false), "id > $2") {
		t.Error("scan should use keyset pagination after the first page")
	}
}

func TestPgVectorSearchArgs(t *testing.T) {
	args := searchArgs([]float32{1, 2}, 5, &Filter{Field: "album_artist", Value: "Evans"})
	if len(args) != 4 || args[1] != 5 || args[2] != "album_artist" || args[3] != "Evans" {
		t.Errorf("args = %v", args)
	}
	vec, ok := args[0].(pgvector.Vector)
	if !ok || len(vec.Slice()) != 2 {
		t.Errorf("vector arg = %#v", args[0])
	}
	if got := searchArgs([]float32{1}, 3, nil); len(got) != 2 {
		t.Errorf("unfiltered args = %v", got)
	}
}

func TestIndexName(t *testing.T) {
	if got := indexName(`"albums"`, "payload_idx"); got != `"albums_payload_idx"` {
		t.Errorf("indexName = %s", got)
	}
}
