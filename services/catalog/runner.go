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
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/graph"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// ErrUnresolvedStage is returned when a runner is built for a pipeline
// whose implementation could not be resolved.
var ErrUnresolvedStage = errors.New("pipeline implementation is unresolved")

// RunSummary counts what one Run did.
type RunSummary struct {
	Processed int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Runner drives one pipeline stage over the outstanding documents of a
// collection and records every outcome in the catalog.
type Runner struct {
	catalog  Service
	pipeline model.AnnotationPipeline
	stage    Stage
	workers  int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of documents processed at once.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRateLimit caps stage invocations at perSecond across all workers,
// allowing bursts of up to burst calls. Stages that call a remote
// annotation service use this to stay under its quota.
func WithRateLimit(perSecond float64, burst int) RunnerOption {
	return func(r *Runner) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
		}
	}
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner for pipeline. impl must be Resolved.
func NewRunner(svc Service, pipeline model.AnnotationPipeline, impl Implementation, opts ...RunnerOption) (*Runner, error) {
	resolved, ok := impl.(Resolved)
	if !ok {
		ref := ""
		if impl != nil {
			ref = impl.Ref()
		}
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnresolvedStage, pipeline.Name, ref)
	}

	r := &Runner{
		catalog:  svc,
		pipeline: pipeline,
		stage:    resolved.Stage,
		workers:  runtime.NumCPU(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "runner", "pipeline", pipeline.Name)
	return r, nil
}

// Run processes every outstanding document of collection for runKey.
//
// Description:
//
//	Each document's file of the given version is passed to the stage.
//	A success records an AnnotationOutput. A failure, including a panic
//	inside the stage, is logged against the document with the pipeline
//	name as the component at fault. Stage failures do not stop the run;
//	catalog write failures and context cancellation do.
//
// Outputs:
//
//	RunSummary - Counts of processed, succeeded and failed documents.
//	error - The first catalog error, or the context error.
func (r *Runner) Run(ctx context.Context, collection, runKey string, version model.FileVersion) (RunSummary, error) {
	start := time.Now()
	items, err := r.catalog.FilesToProcess(ctx, collection, runKey, version)
	if err != nil {
		return RunSummary{}, err
	}

	r.logger.Info("run starting",
		"collection", collection, "run_key", runKey, "documents", len(items), "workers", r.workers)

	var succeeded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if r.limiter != nil {
				if err := r.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			res, stack, err := r.process(gctx, item)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				r.logger.Warn("stage failed", "id", item.Document.ID, "error", err)
				return r.catalog.LogError(gctx, graph.ErrorEntry{
					PipelineKey: runKey,
					IDType:      model.IdentifierCollection,
					DocumentID:  item.Document.ID,
					Component:   r.pipeline.Name,
					Message:     err.Error(),
					StackTrace:  stack,
				})
			}

			succeeded.Add(1)
			_, err = r.catalog.AddAnnotationOutput(gctx, item.Document.ID, model.AnnotationOutput{
				LocalFile:       res.LocalFile,
				RunKey:          runKey,
				Timestamp:       time.Now().UTC(),
				AnnotationCount: res.AnnotationCount,
			})
			return err
		})
	}

	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	summary := RunSummary{
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
		Duration:  time.Since(start),
	}
	summary.Processed = summary.Succeeded + summary.Failed

	r.logger.Info("run finished",
		"collection", collection, "run_key", runKey,
		"succeeded", summary.Succeeded, "failed", summary.Failed,
		"duration", summary.Duration)
	return summary, err
}

// process runs the stage for one item, converting a panic into an error
// with its stack trace.
func (r *Runner) process(ctx context.Context, item WorkItem) (res StageResult, stack string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("stage panicked: %v", p)
			stack = string(debug.Stack())
		}
	}()
	res, err = r.stage.Process(ctx, item.Document, item.File)
	switch {
	case err != nil:
	case res.LocalFile == "":
		err = errors.New("stage returned no output file")
	case res.AnnotationCount < 0:
		err = fmt.Errorf("stage returned a negative annotation count %d", res.AnnotationCount)
	}
	return res, "", err
}
