// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. The returned app must be torn down
// after Execute whether or not the command succeeded.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and maintain a run catalog",
		Long: `catalog reports and maintains the run catalog that tracks which
documents belong to which collections and which pipeline runs are
complete, outstanding or failed for each of them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.output, "output", "", "output style: standard, minimal, machine")

	root.AddCommand(
		newReportCmd(a),
		newPruneCmd(a),
		newOutstandingCmd(a),
		newCollectionCmd(a),
		newPipelineCmd(a),
		newErrorsCmd(a),
		newConfigCmd(a),
	)
	return root, a
}
