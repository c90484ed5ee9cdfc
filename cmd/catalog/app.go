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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/ux"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/config"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/graph"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/lock"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/telemetry"
)

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	output     string

	cfg      config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	shutdown func(context.Context) error
}

// setup loads configuration and installs logging and telemetry.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "catalog",
		JSON:    cfg.Logging.JSON,
		Quiet:   cfg.Logging.Quiet,
		Output:  cmd.ErrOrStderr(),
	})

	if a.output != "" {
		ux.SetPersonality(ux.ParsePersonalityLevel(a.output))
	} else {
		ux.InitPersonality(os.Stdout)
	}

	a.registry = prometheus.NewRegistry()
	tcfg := telemetry.DefaultConfig()
	tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	tcfg.Registerer = a.registry
	tcfg.Output = cmd.ErrOrStderr()

	a.shutdown, err = telemetry.Init(cmd.Context(), tcfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	return nil
}

// teardown flushes telemetry and closes the logger. It is safe to call
// more than once and before setup.
func (a *app) teardown() error {
	var errs []error
	if a.shutdown != nil {
		errs = append(errs, a.shutdown(context.Background()))
		a.shutdown = nil
	}
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
		a.logger = nil
	}
	return errors.Join(errs...)
}

func (a *app) printer(w io.Writer) *ux.Printer {
	return ux.NewPrinter(w)
}

// storeOptions builds store options for dir.
func (a *app) storeOptions(dir, component string) graph.Options {
	return graph.Options{
		Path:           dir,
		Component:      component,
		SyncWrites:     a.cfg.Catalog.SyncWrites,
		GCInterval:     a.cfg.Catalog.GCInterval,
		GCDiscardRatio: a.cfg.Catalog.GCDiscardRatio,
		Logger:         a.logger.Slog(),
	}
}

// openStore opens the catalog at dir. When another process owns it and
// an owner wait is configured, it waits for the release and tries once
// more.
func (a *app) openStore(ctx context.Context, dir, component string) (*graph.Store, error) {
	opts := a.storeOptions(dir, component)
	store, err := graph.Open(ctx, opts)
	if err == nil || !errors.Is(err, lock.ErrOwned) || a.cfg.Catalog.OwnerWait <= 0 {
		return store, err
	}

	a.logger.Info("catalog is owned, waiting for release",
		"path", dir, "error", err, "timeout", a.cfg.Catalog.OwnerWait)
	wctx, cancel := context.WithTimeout(ctx, a.cfg.Catalog.OwnerWait)
	defer cancel()
	if werr := lock.WaitReleased(wctx, dir); werr != nil {
		return nil, errors.Join(err, werr)
	}
	return graph.Open(ctx, opts)
}

// withCatalog opens the catalog, runs fn with a service bound to it and
// closes the store on every path, including SIGINT and SIGTERM.
//
// Outputs:
//
//	runErr - Error from opening the store or from fn.
//	closeErr - Error from closing the store.
func (a *app) withCatalog(ctx context.Context, dir, component string, fn func(context.Context, *catalog.Catalog) error) (runErr, closeErr error) {
	store, err := a.openStore(ctx, dir, component)
	if err != nil {
		return err, nil
	}

	ctx, stop := catalog.CloseOnSignal(ctx, store, a.logger.Slog())
	defer stop()

	runErr = fn(ctx, catalog.New(store, nil, a.logger.Slog()))
	closeErr = store.Close()
	return runErr, closeErr
}

// run adapts withCatalog to cobra: open and run errors exit 1, close
// errors exit 2.
func (a *app) run(cmd *cobra.Command, dir string, fn func(context.Context, *catalog.Catalog) error) error {
	runErr, closeErr := a.withCatalog(cmd.Context(), dir, cmd.CommandPath(), fn)
	if closeErr != nil {
		return NewCommandError(cmd.CommandPath(), exitCloseFailed, errors.Join(runErr, closeErr))
	}
	if runErr != nil {
		return NewCommandError(cmd.CommandPath(), exitFailure, runErr)
	}
	return nil
}
