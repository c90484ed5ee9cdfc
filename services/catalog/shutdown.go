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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// CloseOnSignal closes closer when the process receives SIGINT or
// SIGTERM, so the catalog directory is never left locked.
//
// The returned context is cancelled when a signal arrives. Call stop
// once the work is done to detach the hook; it does not close closer.
func CloseOnSignal(ctx context.Context, closer io.Closer, logger *slog.Logger) (context.Context, func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	ctx, stop := watchSignals(ctx, sigs, closer, logger)
	return ctx, func() {
		signal.Stop(sigs)
		stop()
	}
}

func watchSignals(parent context.Context, sigs <-chan os.Signal, closer io.Closer, logger *slog.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		select {
		case sig := <-sigs:
			logger.Info("signal received, closing catalog", "signal", sig.String())
			cancel()
			if err := closer.Close(); err != nil {
				logger.Error("close catalog on signal", "error", err)
			}
		case <-done:
		}
	}()

	return ctx, func() {
		close(done)
		<-finished
		cancel()
	}
}
