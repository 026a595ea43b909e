// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/jazzmate/internal/vectorindex"
)

var errIndexUnhealthy = errors.New("vector index is not healthy")

func NewStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show vector index health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, err := a.openIndex(cmd.Context())
			if err != nil {
				return err
			}
			defer closeQuietly("vector index", idx.Close)

			h := idx.Health(cmd.Context())
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Backend:    %s\n", a.cfg.Vector.Backend)
			fmt.Fprintf(out, "Collection: %s\n", h.Collection)
			fmt.Fprintf(out, "Status:     %s\n", h.Status)
			if h.Status != vectorindex.StatusHealthy {
				fmt.Fprintf(out, "Error:      %s\n", h.Error)
				return errIndexUnhealthy
			}
			fmt.Fprintf(out, "Points:     %d\n", h.PointCount)
			return nil
		},
	}
}
