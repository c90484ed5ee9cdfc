// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/lock"
	storage "github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/storage/badger"
)

// Options configures a catalog store handle.
type Options struct {
	// Path is the catalog directory. Ignored when InMemory is set.
	Path string

	// InMemory opens a private, throwaway catalog. Used by tests.
	InMemory bool

	// Component names the holder in the owner record and in logs.
	Component string

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// GCInterval is how often value log GC runs. Zero disables it.
	GCInterval time.Duration

	// GCDiscardRatio defaults to 0.5.
	GCDiscardRatio float64

	// Logger receives store diagnostics. Nil uses logging.Discard().
	Logger *slog.Logger
}

// Store is a handle on one catalog directory.
//
// Description:
//
//	A directory admits one open handle at a time. Open registers the
//	handle process-wide and writes the owner record; a second Open on the
//	same directory fails with ErrHandleHeld (same process) or an error
//	wrapping lock.ErrOwned (another process). The handle is passed to
//	its users explicitly; nothing in this package caches it.
//
//	Close is idempotent. After Close every operation fails with ErrClosed
//	until Reopen succeeds.
//
// Thread Safety:
//
//	Safe for concurrent use. Close waits for in-flight operations.
type Store struct {
	opts   Options
	logger *slog.Logger

	mu    sync.RWMutex
	db    *storage.DB
	owner *lock.Owner
	key   string
}

var handles = struct {
	sync.Mutex
	open map[string]*Store
}{open: make(map[string]*Store)}

// Open opens the catalog described by opts.
//
// Outputs:
//
//	*Store - The open handle. Call Close when done.
//	error - ErrHandleHeld, a lock.ErrOwned wrapper, ErrSchemaMismatch, or
//	        an I/O error.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if !opts.InMemory && opts.Path == "" {
		return nil, errors.New("catalog path is required")
	}
	if opts.Component == "" {
		opts.Component = "catalog"
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Store{
		opts:   opts,
		logger: logger.With("component", "graph"),
	}
	if err := s.open(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Use opens a store, runs fn with it and closes it on every path,
// including a panic inside fn.
func Use(ctx context.Context, opts Options, fn func(*Store) error) (err error) {
	s, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close catalog: %w", cerr))
		}
	}()
	return fn(s)
}

// open must be called with mu held for writing or before s is shared.
func (s *Store) open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := ""
	if !s.opts.InMemory {
		abs, err := filepath.Abs(s.opts.Path)
		if err != nil {
			return fmt.Errorf("resolve catalog path: %w", err)
		}
		key = abs

		handles.Lock()
		if holder, ok := handles.open[key]; ok {
			handles.Unlock()
			return fmt.Errorf("%w: %s (held by %s)", ErrHandleHeld, key, holder.opts.Component)
		}
		handles.open[key] = s
		handles.Unlock()
	}

	var owner *lock.Owner
	if key != "" {
		o, err := lock.Acquire(key, s.opts.Component)
		if err != nil {
			unregister(key)
			return err
		}
		if o.Stale != nil {
			s.logger.Warn("taking over stale owner record",
				"path", key, "previous", o.Stale.String())
		}
		owner = o
	}

	cfg := storage.InMemoryConfig()
	if key != "" {
		cfg = storage.DefaultConfig(key)
		cfg.SyncWrites = s.opts.SyncWrites
		cfg.GCInterval = s.opts.GCInterval
		if s.opts.GCDiscardRatio > 0 {
			cfg.GCDiscardRatio = s.opts.GCDiscardRatio
		}
	}
	cfg.Logger = s.logger

	db, err := storage.OpenDB(cfg)
	if err == nil {
		err = checkSchema(ctx, db)
		if err != nil {
			db.Close()
		}
	}
	if err != nil {
		if owner != nil {
			owner.Release()
		}
		if key != "" {
			unregister(key)
		}
		return fmt.Errorf("open catalog: %w", err)
	}

	s.db = db
	s.owner = owner
	s.key = key
	s.logger.Info("catalog store opened",
		"path", key, "in_memory", db.InMemory(), "holder", s.opts.Component)
	return nil
}

func checkSchema(ctx context.Context, db *storage.DB) error {
	k := key(kindMeta, "schema")
	return db.WithTxn(ctx, func(txn *badger.Txn) error {
		v, err := getString(txn, k)
		if err != nil {
			return err
		}
		switch v {
		case "":
			return txn.Set(k, []byte(schemaVersion))
		case schemaVersion:
			return nil
		default:
			return fmt.Errorf("%w: found %q, want %q", ErrSchemaMismatch, v, schemaVersion)
		}
	})
}

func unregister(key string) {
	handles.Lock()
	delete(handles.open, key)
	handles.Unlock()
}

// Close releases the handle. Calling Close on a closed store is a no-op.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	if s.owner != nil {
		if err := s.owner.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release owner record: %w", err))
		}
	}
	if s.key != "" {
		unregister(s.key)
	}

	s.db = nil
	s.owner = nil
	s.logger.Info("catalog store closed", "path", s.key)
	return errors.Join(errs...)
}

// Reopen reopens a closed handle on the same directory. It is a no-op on
// an open handle. An in-memory store comes back empty.
func (s *Store) Reopen(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	return s.open(ctx)
}

// IsOpen reports whether the handle is usable.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Path returns the absolute catalog directory, empty in memory.
func (s *Store) Path() string {
	if s.opts.InMemory {
		return ""
	}
	if abs, err := filepath.Abs(s.opts.Path); err == nil {
		return abs
	}
	return s.opts.Path
}

// Logger returns the store's logger.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// update runs fn in a read-write transaction with tracing and metrics.
func (s *Store) update(ctx context.Context, op string, fn func(txn *badger.Txn) error) (err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	ctx, span := startOpSpan(ctx, op)
	start := time.Now()
	defer func() {
		recordOpMetrics(ctx, op, time.Since(start), err)
		endOpSpan(span, err)
	}()

	if err = s.db.WithTxn(ctx, fn); err != nil {
		err = fmt.Errorf("%s: %w", op, err)
	}
	return err
}

// view runs fn in a read-only transaction with tracing and metrics.
func (s *Store) view(ctx context.Context, op string, fn func(txn *badger.Txn) error) (err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}

	ctx, span := startOpSpan(ctx, op)
	start := time.Now()
	defer func() {
		recordOpMetrics(ctx, op, time.Since(start), err)
		endOpSpan(span, err)
	}()

	if err = s.db.WithReadTxn(ctx, fn); err != nil {
		err = fmt.Errorf("%s: %w", op, err)
	}
	return err
}
