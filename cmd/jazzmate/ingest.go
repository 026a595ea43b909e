// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/jazzmate/internal/ingest"
)

func NewIngestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed reviewed albums and upload them to the vector index",
		Long: `Fetch albums with critic reviews, drop invalid and already indexed records,
embed the rest in batches and upload them. Upload failures are kept in the
failure ledger with their embeddings for "jazzmate retry".`,
		RunE: makeIngestRunner(a),
	}

	cmd.Flags().Int("limit", 0, "Maximum number of new albums to process (0 = all)")
	cmd.Flags().Int("batch-size", 0, "Records per embedding batch (default from config)")
	cmd.Flags().String("from-file", "", "Read records from a JSON file instead of Postgres")
	return cmd
}

func makeIngestRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		limit, _ := cmd.Flags().GetInt("limit")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		fromFile, _ := cmd.Flags().GetString("from-file")
		if limit == 0 {
			limit = a.cfg.Ingest.Limit
		}
		if batchSize <= 0 {
			batchSize = a.cfg.Ingest.BatchSize
		}

		src, release, err := a.openSource(ctx, fromFile)
		if err != nil {
			return err
		}
		defer release()

		idx, err := a.openIndex(ctx)
		if err != nil {
			return err
		}
		defer closeQuietly("vector index", idx.Close)

		led, err := a.openLedger()
		if err != nil {
			return err
		}
		defer closeQuietly("ledger", led.Close)

		orch := ingest.New(src, a.newEmbedder(), idx, led)
		report, err := orch.Run(ctx, ingest.Options{
			BatchSize: batchSize,
			Limit:     limit,
			Progress: func(p ingest.Progress) {
				fmt.Fprintf(out, "Progress: %d/%d (%.1f%%)\n", p.Processed, p.Total, p.Percent())
			},
		})
		if report != nil {
			printReport(out, report)
		}
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		return nil
	}
}

func printReport(out io.Writer, r *ingest.Report) {
	fmt.Fprintln(out, "Ingestion report")
	fmt.Fprintf(out, "  run:           %s\n", r.RunID)
	fmt.Fprintf(out, "  total:         %d\n", r.Total)
	fmt.Fprintf(out, "  valid:         %d\n", r.Valid)
	fmt.Fprintf(out, "  invalid:       %d\n", r.Invalid)
	fmt.Fprintf(out, "  existing:      %d\n", r.Existing)
	fmt.Fprintf(out, "  new:           %d\n", r.New)
	fmt.Fprintf(out, "  uploaded:      %d\n", r.Uploaded)
	fmt.Fprintf(out, "  failed:        %d\n", r.Failed)
	fmt.Fprintf(out, "  success rate:  %.1f%%\n", r.SuccessRate)
	fmt.Fprintf(out, "  duration:      %s\n", r.Duration.Round(time.Millisecond))
	if r.Canceled {
		fmt.Fprintln(out, "  run was canceled before all batches completed")
	}
	if r.Retryable > 0 {
		fmt.Fprintf(out, "\n%d failed upload(s) can be retried with stored embeddings: jazzmate retry\n", r.Retryable)
	}
}
