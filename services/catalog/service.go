// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catalog is the Run Catalog: the ledger of which documents
// belong to which collections, which runs have been scheduled against
// them, and whether each (document, run key) pair is complete,
// outstanding or failed.
package catalog

import (
	"context"
	"log/slog"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/graph"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// Service is the Run Catalog contract used by ingestion, pipeline stages
// and schedulers.
//
// Lookups that miss return nil or zero values and log a warning. Errors
// are returned for storage failures, a closed or contended handle, and
// misuse such as an unsupported identifier type or file version.
type Service interface {
	UpsertCollection(ctx context.Context, c model.DocumentCollection) error
	AddRunKey(ctx context.Context, shortName, runKey string) error
	RemoveRunKey(ctx context.Context, shortName, runKey string) error
	AddDocument(ctx context.Context, doc model.Document, c model.DocumentCollection) error
	AddFileVersion(ctx context.Context, documentID, file string, version model.FileVersion) error
	AddAnnotationPipeline(ctx context.Context, p model.AnnotationPipeline) (*model.AnnotationPipeline, Implementation, error)
	AddAnnotationOutput(ctx context.Context, documentID string, out model.AnnotationOutput) (*model.AnnotationOutput, error)
	LogError(ctx context.Context, e graph.ErrorEntry) error
	RunsMap(ctx context.Context, shortName string) (RunsMap, error)
	FilesToProcess(ctx context.Context, shortName, runKey string, version model.FileVersion) ([]WorkItem, error)
	DocumentCount(ctx context.Context, shortName string) (int, error)
	RemoveEmptyDocumentCollections(ctx context.Context) ([]string, error)
}

// Catalog implements Service on a graph.Store.
//
// The store handle is owned by the caller; Catalog never opens or closes
// it.
type Catalog struct {
	store    *graph.Store
	registry *Registry
	logger   *slog.Logger
}

var _ Service = (*Catalog)(nil)

// New creates a Catalog. A nil registry resolves nothing; a nil logger
// discards output.
func New(store *graph.Store, registry *Registry, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.Discard()
	}
	if registry == nil {
		registry = NewRegistry(logger)
	}
	return &Catalog{
		store:    store,
		registry: registry,
		logger:   logger.With("component", "catalog"),
	}
}

// Store returns the underlying store.
func (c *Catalog) Store() *graph.Store { return c.store }

// Registry returns the stage registry.
func (c *Catalog) Registry() *Registry { return c.registry }

func (c *Catalog) UpsertCollection(ctx context.Context, coll model.DocumentCollection) error {
	return c.store.UpsertCollection(ctx, coll)
}

func (c *Catalog) AddRunKey(ctx context.Context, shortName, runKey string) error {
	return c.store.AddRunKey(ctx, shortName, runKey)
}

func (c *Catalog) RemoveRunKey(ctx context.Context, shortName, runKey string) error {
	return c.store.RemoveRunKey(ctx, shortName, runKey)
}

func (c *Catalog) AddDocument(ctx context.Context, doc model.Document, coll model.DocumentCollection) error {
	return c.store.AddDocument(ctx, doc, coll)
}

func (c *Catalog) AddFileVersion(ctx context.Context, documentID, file string, version model.FileVersion) error {
	return c.store.AddFileVersion(ctx, documentID, file, version)
}

// AddAnnotationPipeline registers p and resolves its implementation.
// An unresolved implementation is not an error.
func (c *Catalog) AddAnnotationPipeline(ctx context.Context, p model.AnnotationPipeline) (*model.AnnotationPipeline, Implementation, error) {
	stored, err := c.store.AddAnnotationPipeline(ctx, p)
	if err != nil {
		return nil, nil, err
	}
	return stored, c.registry.Resolve(*stored), nil
}

func (c *Catalog) AddAnnotationOutput(ctx context.Context, documentID string, out model.AnnotationOutput) (*model.AnnotationOutput, error) {
	return c.store.AddAnnotationOutput(ctx, documentID, out)
}

func (c *Catalog) LogError(ctx context.Context, e graph.ErrorEntry) error {
	return c.store.LogError(ctx, e)
}

// RunsMap classifies every member of the collection for every run key
// registered on it. An unknown collection yields an empty map.
func (c *Catalog) RunsMap(ctx context.Context, shortName string) (RunsMap, error) {
	snap, err := c.store.Snapshot(ctx, shortName)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return RunsMap{}, nil
	}
	return ComputeRunsMap(snap), nil
}

func (c *Catalog) DocumentCount(ctx context.Context, shortName string) (int, error) {
	return c.store.DocumentCount(ctx, shortName)
}

func (c *Catalog) RemoveEmptyDocumentCollections(ctx context.Context) ([]string, error) {
	return c.store.RemoveEmptyDocumentCollections(ctx)
}

// ListCollections returns every collection ordered by short name.
func (c *Catalog) ListCollections(ctx context.Context) ([]model.DocumentCollection, error) {
	return c.store.ListCollections(ctx)
}
