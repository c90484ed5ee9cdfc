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
	"context"

	"github.com/spf13/cobra"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/ux"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/report"
)

func newReportCmd(a *app) *cobra.Command {
	var textfile string

	cmd := &cobra.Command{
		Use:   "report <catalog-dir>",
		Short: "Print document and run-status counts for every collection",
		Long: `report prints, for each collection sorted by short name, its member
count and for each run key the total, complete, outstanding and error
counts. Read failures are printed and do not change the exit status.
The command exits 1 when the catalog cannot be opened and 2 when it
fails to close.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if textfile == "" {
				textfile = a.cfg.Report.Textfile
			}
			p := a.printer(cmd.OutOrStdout())

			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				r := report.New(c, a.cfg.Report.Workers, a.logger.Slog())
				var summary *report.Summary
				err := ux.WithSpinner(cmd.ErrOrStderr(), "summarizing catalog", func() error {
					var err error
					summary, err = r.Summarize(ctx)
					return err
				})
				if err != nil {
					a.logger.Error("report failed", "error", err)
					p.Error(err.Error())
					return nil
				}
				report.Render(p, summary)

				if textfile != "" {
					report.NewMetrics(a.registry).Observe(summary)
					if err := report.WriteTextfile(textfile, a.registry); err != nil {
						a.logger.Error("write metrics textfile", "error", err)
						p.Warning(err.Error())
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&textfile, "textfile", "", "also write Prometheus gauges to this file")
	return cmd
}

func newPruneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "prune <catalog-dir>",
		Short: "Remove collections that have no member documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer(cmd.OutOrStdout())
			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				_, err := report.New(c, 1, a.logger.Slog()).Prune(ctx, p)
				return err
			})
		},
	}
}
