// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the jazzmate command tree.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "jazzmate",
		Short:         "Review-based jazz album recommendations",
		Long:          `Index critic-reviewed jazz albums as embeddings and recommend albums for listener reviews.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config.yaml (default: CONFIG_PATH or ./config.yaml)")

	rootCmd.AddCommand(
		NewIngestCmd(a),
		NewStatusCmd(a),
		NewRetryCmd(a),
		NewFailuresCmd(a),
		NewRecommendCmd(a),
		NewServeCmd(a),
	)
	return rootCmd
}
