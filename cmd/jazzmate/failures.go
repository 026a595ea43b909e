// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/tomtom215/jazzmate/internal/catalog"
	"github.com/tomtom215/jazzmate/internal/ledger"
)

const (
	failuresShown   = 10
	titleWidth      = 40
	errorWidth      = 20
	embeddingMarker = "✓"
)

func NewFailuresCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "Inspect or clear the failure ledger",
	}
	cmd.AddCommand(newFailuresShowCmd(a), newFailuresClearCmd(a))
	return cmd
}

func newFailuresShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List ledgered upload failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			led, err := a.openLedger()
			if err != nil {
				return err
			}
			defer closeQuietly("ledger", led.Close)

			summary, err := led.Summary(cmd.Context(), failuresShown)
			if err != nil {
				return fmt.Errorf("read ledger: %w", err)
			}
			printFailures(cmd.OutOrStdout(), summary)
			return nil
		},
	}
}

func printFailures(out io.Writer, s ledger.Summary) {
	if s.Total == 0 {
		fmt.Fprintln(out, "No failed records.")
		return
	}

	fmt.Fprintf(out, "Failed records: %d\n\n", s.Total)
	fmt.Fprintf(out, "%-8s %-40s %-20s %-7s %s\n", "ID", "Title", "Error", "Retries", "Embedding")
	for i := range s.Entries {
		e := &s.Entries[i]
		marker := "-"
		if e.HasEmbedding() {
			marker = embeddingMarker
		}
		fmt.Fprintf(out, "%-8d %-40s %-20s %-7d %s\n",
			e.Record.ID,
			catalog.Truncate(e.Record.Title, titleWidth),
			catalog.Truncate(e.ErrorMessage, errorWidth),
			e.RetryCount,
			marker,
		)
	}
	if more := s.Total - len(s.Entries); more > 0 {
		fmt.Fprintf(out, "... and %d more\n", more)
	}
	fmt.Fprintf(out, "\nWith embedding: %d, without embedding: %d\n", s.WithEmbedding, s.WithoutEmbedding)
}

func newFailuresClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every ledger entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			led, err := a.openLedger()
			if err != nil {
				return err
			}
			defer closeQuietly("ledger", led.Close)

			n, err := led.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("read ledger: %w", err)
			}
			if err := led.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear ledger: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d failed record(s).\n", n)
			return nil
		},
	}
}
