// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

// maxResponseBytes caps the decoded response; a 1024-dim batch of 20 is ~400KB.
const maxResponseBytes = 32 << 20

type featureRequest struct {
	Inputs  interface{}    `json:"inputs"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/%s/pipeline/feature-extraction", c.baseURL, c.model)
}

func (c *Client) doRequest(ctx context.Context, inputs []string, batch bool) ([]Vector, error) {
	payload := featureRequest{Options: requestOptions{WaitForModel: true}}
	if batch {
		payload.Inputs = inputs
	} else {
		payload.Inputs = inputs[0]
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, truncateBody(data))
	}

	return decodeVectors(data, batch)
}

// decodeVectors accepts the pooled shapes returned by feature-extraction:
// a flat vector for a single input, or a list of vectors.
func decodeVectors(data []byte, batch bool) ([]Vector, error) {
	if !batch {
		var flat Vector
		if err := json.Unmarshal(data, &flat); err == nil {
			return []Vector{flat}, nil
		}
	}

	var nested []Vector
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if !batch && len(nested) != 1 {
		return nil, errors.New("unexpected token-level embedding response")
	}
	return nested, nil
}

func truncateBody(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
