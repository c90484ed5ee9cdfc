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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/validation"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

func newOutstandingCmd(a *app) *cobra.Command {
	var collection, runKey, version string

	cmd := &cobra.Command{
		Use:   "outstanding <catalog-dir>",
		Short: "List the files still to be processed for a run key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := model.ParseFileVersion(version)
			if err != nil {
				return NewCommandError(cmd.CommandPath(), exitFailure, err)
			}
			p := a.printer(cmd.OutOrStdout())

			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				items, err := c.FilesToProcess(ctx, collection, runKey, v)
				if err != nil {
					return err
				}
				for _, it := range items {
					if p.Machine() {
						p.Record(it.Document.ID, it.File)
					} else {
						p.Info(it.Document.ID + "  " + it.File)
					}
				}
				p.Muted(pluralize(len(items), "document") + " outstanding")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&collection, "collection", "", "collection short name")
	cmd.Flags().StringVar(&runKey, "run-key", "", "run key")
	cmd.Flags().StringVar(&version, "version", "source", "file version: source or text")
	cmd.MarkFlagRequired("collection")
	cmd.MarkFlagRequired("run-key")
	return cmd
}

func newCollectionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collection",
		Short: "Inspect collections and maintain their run keys",
	}

	list := &cobra.Command{
		Use:   "list <catalog-dir>",
		Short: "List collections and their run keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer(cmd.OutOrStdout())
			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				colls, err := c.ListCollections(ctx)
				if err != nil {
					return err
				}
				for _, coll := range colls {
					p.Record(append([]any{coll.ShortName}, toAny(coll.RunKeys)...)...)
				}
				return nil
			})
		},
	}

	addKey := &cobra.Command{
		Use:   "add-key <catalog-dir> <short-name> <run-key>",
		Short: "Register a run key on a collection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := validation.SanitizeSegment(args[2])
			if err != nil {
				return NewCommandError(cmd.CommandPath(), exitFailure, err)
			}
			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				return c.AddRunKey(ctx, args[1], key)
			})
		},
	}

	removeKey := &cobra.Command{
		Use:   "remove-key <catalog-dir> <short-name> <run-key>",
		Short: "Remove a run key from a collection",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				return c.RemoveRunKey(ctx, args[1], args[2])
			})
		},
	}

	cmd.AddCommand(list, addKey, removeKey)
	return cmd
}

func newPipelineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Inspect registered annotation pipelines",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list <catalog-dir>",
		Short: "List registered pipelines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.printer(cmd.OutOrStdout())
			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				pipelines, err := c.Store().ListPipelines(ctx)
				if err != nil {
					return err
				}
				for _, pl := range pipelines {
					p.Record(pl.Name, pl.Version, pl.ImplementationRef)
				}
				return nil
			})
		},
	})
	return cmd
}

func newErrorsCmd(a *app) *cobra.Command {
	var idType string

	cmd := &cobra.Command{
		Use:   "errors <catalog-dir> <document-id>",
		Short: "Show the run status and error history of a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseIdentifierType(idType)
			if err != nil {
				return NewCommandError(cmd.CommandPath(), exitFailure, err)
			}
			p := a.printer(cmd.OutOrStdout())

			return a.run(cmd, args[0], func(ctx context.Context, c *catalog.Catalog) error {
				doc, err := c.Store().FindDocument(ctx, t, args[1])
				if err != nil {
					return err
				}
				if doc == nil {
					p.Warning("document not found: " + args[1])
					return nil
				}
				for _, id := range doc.Identifiers() {
					p.Record("identifier", id)
				}
				colls, err := c.Store().DocumentCollections(ctx, doc.ID)
				if err != nil {
					return err
				}
				for _, coll := range colls {
					runs, err := c.RunsMap(ctx, coll)
					if err != nil {
						return err
					}
					for _, key := range runs.Keys() {
						if st, ok := runs.StatusOf(key, doc.ID); ok {
							p.Record("status", coll, key, st)
						}
					}
				}
				if e := doc.Error; e != nil {
					if p.Machine() {
						p.Record("current", e.PipelineKey, e.Component, e.Message)
					} else {
						p.Box("Current error: "+e.PipelineKey, e.Component+": "+e.Message)
					}
				}
				history, err := c.Store().DocumentErrors(ctx, doc.ID)
				if err != nil {
					return err
				}
				for _, rec := range history {
					p.Record("history", rec.PipelineKey, rec.Component, rec.Message)
				}
				if doc.Error == nil && len(history) == 0 {
					p.Muted("no errors recorded")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&idType, "id-type", "collection", "identifier type: collection or pmid")
	return cmd
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
