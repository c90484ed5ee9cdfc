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
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
)

type countingCloser struct{ closed atomic.Int32 }

func (c *countingCloser) Close() error {
	c.closed.Add(1)
	return nil
}

func TestWatchSignals_ClosesOnSignal(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	closer := &countingCloser{}

	ctx, stop := watchSignals(context.Background(), sigs, closer, logging.Discard())
	sigs <- syscall.SIGTERM

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not cancelled after signal")
	}
	stop()
	assert.Equal(t, int32(1), closer.closed.Load())
}

func TestWatchSignals_StopDetaches(t *testing.T) {
	sigs := make(chan os.Signal, 1)
	closer := &countingCloser{}

	ctx, stop := watchSignals(context.Background(), sigs, closer, logging.Discard())
	stop()

	assert.Error(t, ctx.Err())
	assert.Zero(t, closer.closed.Load())
}

func TestCloseOnSignal_Stop(t *testing.T) {
	closer := &countingCloser{}
	_, stop := CloseOnSignal(context.Background(), closer, logging.Discard())
	stop()
	assert.Zero(t, closer.closed.Load())
}
