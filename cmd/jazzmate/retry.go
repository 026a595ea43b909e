// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRetryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Re-upload failed albums using their stored embeddings",
		Long: `Retry every ledgered upload failure. Successful entries are removed from the
ledger; entries that reached --max-retries (default ledger.max_retries) are
skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			maxRetries, _ := cmd.Flags().GetInt("max-retries")
			if !cmd.Flags().Changed("max-retries") {
				maxRetries = a.cfg.Ledger.MaxRetries
			}

			idx, err := a.openIndex(ctx)
			if err != nil {
				return err
			}
			defer closeQuietly("vector index", idx.Close)
			if err := idx.Initialize(ctx); err != nil {
				return fmt.Errorf("initialize vector index: %w", err)
			}

			led, err := a.openLedger()
			if err != nil {
				return err
			}
			defer closeQuietly("ledger", led.Close)

			res, err := led.Retry(ctx, idx, maxRetries)
			if err != nil {
				return fmt.Errorf("retry failed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Retry result")
			fmt.Fprintf(out, "  success: %d\n", res.Success)
			fmt.Fprintf(out, "  failed:  %d\n", res.Failed)
			fmt.Fprintf(out, "  skipped: %d\n", res.Skipped)
			return nil
		},
	}
	cmd.Flags().Int("max-retries", 3, "Skip entries that already failed this many retries (default from ledger.max_retries)")
	return cmd
}
