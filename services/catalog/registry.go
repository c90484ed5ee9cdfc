// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// ErrDuplicateStage is returned when a reference is registered twice.
var ErrDuplicateStage = errors.New("stage already registered")

// StageResult is what a stage produced for one document.
type StageResult struct {
	LocalFile       string
	AnnotationCount int
}

// Stage is one annotation pipeline stage run over a single document.
type Stage interface {
	Process(ctx context.Context, doc model.Document, inputFile string) (StageResult, error)
}

// StageFunc adapts a function to Stage.
type StageFunc func(ctx context.Context, doc model.Document, inputFile string) (StageResult, error)

// Process calls f.
func (f StageFunc) Process(ctx context.Context, doc model.Document, inputFile string) (StageResult, error) {
	return f(ctx, doc, inputFile)
}

// Implementation is the outcome of resolving a pipeline's implementation
// reference: either Resolved or Unresolved.
type Implementation interface {
	Ref() string
	implementation()
}

// Resolved is an implementation reference bound to a stage.
type Resolved struct {
	Reference string
	Stage     Stage
}

// Ref returns the implementation reference.
func (r Resolved) Ref() string { return r.Reference }

func (Resolved) implementation() {}

// Unresolved is an implementation reference with no registered stage.
type Unresolved struct {
	Reference string
}

// Ref returns the implementation reference.
func (u Unresolved) Ref() string { return u.Reference }

func (Unresolved) implementation() {}

// Registry maps implementation references to stages.
//
// Thread Safety:
//
//	Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	stages map[string]Stage
	logger *slog.Logger
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		stages: make(map[string]Stage),
		logger: logger.With("component", "registry"),
	}
}

// Register binds ref to stage.
func (r *Registry) Register(ref string, stage Stage) error {
	if ref == "" || stage == nil {
		return errors.New("register stage: reference and stage are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stages[ref]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateStage, ref)
	}
	r.stages[ref] = stage
	return nil
}

// Refs returns the registered references in order.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	refs := make([]string, 0, len(r.stages))
	for ref := range r.stages {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Resolve looks up the stage for p. The reference is p.ImplementationRef,
// or p.Name when that is empty. An unknown reference yields Unresolved
// and a warning.
func (r *Registry) Resolve(p model.AnnotationPipeline) Implementation {
	ref := p.ImplementationRef
	if ref == "" {
		ref = p.Name
	}

	r.mu.RLock()
	stage, ok := r.stages[ref]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("pipeline implementation unresolved",
			"pipeline", p.Name, "ref", ref, "known", r.Refs())
		return Unresolved{Reference: ref}
	}
	return Resolved{Reference: ref, Stage: stage}
}
