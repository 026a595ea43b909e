// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/jazzmate/internal/recommend"
)

var errNoReview = errors.New("--review-text is required")

func NewRecommendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend albums for a listener review",
		Long: `Embed the review, find similar albums and explain each one. With --review-id
and write-back enabled, the results are saved to the shop backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			text, _ := cmd.Flags().GetString("review-text")
			reviewID, _ := cmd.Flags().GetInt64("review-id")
			limit, _ := cmd.Flags().GetInt("limit")
			artist, _ := cmd.Flags().GetString("artist")
			if strings.TrimSpace(text) == "" {
				return errNoReview
			}

			idx, err := a.openIndex(ctx)
			if err != nil {
				return err
			}
			defer closeQuietly("vector index", idx.Close)

			engine, err := a.newEngine(ctx, idx)
			if err != nil {
				return err
			}

			resp, err := engine.Recommend(ctx, recommend.Request{
				ReviewText: text,
				ReviewID:   reviewID,
				Artist:     artist,
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			// Write-back runs in the background; finish it before exiting.
			engine.Wait()

			if resp.Items == nil {
				resp.Items = []recommend.Item{}
			}
			data, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("encode response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().String("review-text", "", "Listener review to match")
	cmd.Flags().Int64("review-id", 0, "User review ID to write results back against")
	cmd.Flags().Int("limit", 0, "Number of recommendations (default from config)")
	cmd.Flags().String("artist", "", "Only recommend albums by this artist")
	return cmd
}
