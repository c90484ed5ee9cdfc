// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report summarizes a catalog for operators: member counts per
// collection and completion counts per run key.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/ux"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// Source is the read side of the catalog needed by a report.
type Source interface {
	ListCollections(ctx context.Context) ([]model.DocumentCollection, error)
	DocumentCount(ctx context.Context, shortName string) (int, error)
	RunsMap(ctx context.Context, shortName string) (catalog.RunsMap, error)
	RemoveEmptyDocumentCollections(ctx context.Context) ([]string, error)
}

// RunCounts are the status counts for one run key.
type RunCounts struct {
	RunKey      string
	Total       int
	Complete    int
	Outstanding int
	Error       int
}

// CollectionSummary describes one collection.
type CollectionSummary struct {
	ShortName string
	LongName  string
	Documents int
	Runs      []RunCounts
}

// Summary is the report for a whole catalog.
type Summary struct {
	Collections []CollectionSummary
	GeneratedAt time.Time
}

// Reporter builds summaries from a Source.
type Reporter struct {
	src     Source
	workers int
	logger  *slog.Logger
}

// New creates a reporter. workers bounds concurrent collection reads.
func New(src Source, workers int, logger *slog.Logger) *Reporter {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Reporter{src: src, workers: workers, logger: logger.With("component", "report")}
}

// Summarize reads every collection. Collections come back sorted by
// short name and run keys sorted ascending.
func (r *Reporter) Summarize(ctx context.Context) (*Summary, error) {
	colls, err := r.src.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	out := make([]CollectionSummary, len(colls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, c := range colls {
		g.Go(func() error {
			s, err := r.summarizeCollection(gctx, c)
			if err != nil {
				return fmt.Errorf("summarize %s: %w", c.ShortName, err)
			}
			out[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Summary{Collections: out, GeneratedAt: time.Now().UTC()}, nil
}

func (r *Reporter) summarizeCollection(ctx context.Context, c model.DocumentCollection) (CollectionSummary, error) {
	n, err := r.src.DocumentCount(ctx, c.ShortName)
	if err != nil {
		return CollectionSummary{}, err
	}
	runs, err := r.src.RunsMap(ctx, c.ShortName)
	if err != nil {
		return CollectionSummary{}, err
	}

	s := CollectionSummary{ShortName: c.ShortName, LongName: c.LongName, Documents: n}
	for _, key := range runs.Keys() {
		sets := runs[key]
		s.Runs = append(s.Runs, RunCounts{
			RunKey:      key,
			Total:       sets.Total(),
			Complete:    len(sets.Complete),
			Outstanding: len(sets.Outstanding),
			Error:       len(sets.Error),
		})
	}
	return s, nil
}

// Prune removes every collection without members and reports each
// removal on p.
func (r *Reporter) Prune(ctx context.Context, p *ux.Printer) ([]string, error) {
	removed, err := r.src.RemoveEmptyDocumentCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	for _, name := range removed {
		if p.Machine() {
			p.Record("removed", name)
		} else {
			p.Success("removed empty collection " + name)
		}
	}
	if len(removed) == 0 {
		p.Muted("no empty collections")
	}
	r.logger.Info("prune finished", "removed", len(removed))
	return removed, nil
}
