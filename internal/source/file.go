// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package source

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/jazzmate/internal/catalog"
)

// File reads records from a JSON array on disk, in the same shape the
// relational join produces.
type File struct {
	Path string
}

// FetchRecords implements ingest.Source.
func (f File) FetchRecords(ctx context.Context) ([]catalog.SourceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	var records []catalog.SourceRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode records file %s: %w", f.Path, err)
	}
	return records, nil
}
