// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOpenInMemory verifies in-memory database creation works.
func TestOpenInMemory(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	assert.True(t, db.InMemory())
	assert.Empty(t, db.Path())
	assert.NoError(t, db.Sync())
}

// TestOpenPersistentReopen verifies data survives close and reopen.
func TestOpenPersistentReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig(dir)
	cfg.GCInterval = time.Hour

	db, err := OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, db.WithTxn(context.Background(), func(txn *badger.Txn) error {
		return txn.Set([]byte("c\x00pmc"), []byte("{}"))
	}))
	require.NoError(t, db.Close())

	db2, err := OpenDB(cfg)
	require.NoError(t, err)
	defer db2.Close()

	err = db2.WithReadTxn(context.Background(), func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("c\x00pmc"))
		return err
	})
	assert.NoError(t, err)
}

// TestOpenSameDirectoryTwice verifies the directory lock is reported.
func TestOpenSameDirectoryTwice(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer db.Close()

	_, err = Open(DefaultConfig(dir))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirectoryLocked), "got %v", err)
}

// TestOpenRequiresPath verifies that persistent mode requires a path.
func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestNewGCRunner_Validation(t *testing.T) {
	db, err := Open(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	_, err = NewGCRunner(nil, time.Minute, 0.5, nil)
	assert.Error(t, err)
	_, err = NewGCRunner(db, 0, 0.5, nil)
	assert.Error(t, err)
	_, err = NewGCRunner(db, time.Minute, 1.5, nil)
	assert.Error(t, err)

	runner, err := NewGCRunner(db, time.Millisecond, 0.5, nil)
	require.NoError(t, err)
	runner.Start()
	time.Sleep(5 * time.Millisecond)
	runner.Stop()
}

func TestWithTxn_RollsBackOnError(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	boom := errors.New("boom")
	err = db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := txn.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		_, err := txn.Get([]byte("k"))
		return err
	})
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestWithTxn_CancelledContext(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = db.WithTxn(ctx, func(*badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	err = db.WithReadTxn(ctx, func(*badger.Txn) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanPrefix(t *testing.T) {
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, db.WithTxn(ctx, func(txn *badger.Txn) error {
		for _, k := range []string{"m\x00a\x00d1", "m\x00a\x00d2", "m\x00ab\x00d3", "n\x00x"} {
			if err := txn.Set([]byte(k), nil); err != nil {
				return err
			}
		}
		return nil
	}))

	prefix := []byte("m\x00a\x00")
	require.NoError(t, db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var got []string
		err := ScanPrefix(txn, prefix, true, func(key []byte, _ *badger.Item) error {
			got = append(got, string(TrimPrefix(key, prefix)))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"d1", "d2"}, got)

		assert.Equal(t, 2, CountPrefix(txn, prefix))
		assert.True(t, HasPrefix(txn, []byte("n\x00")))
		assert.False(t, HasPrefix(txn, []byte("z\x00")))

		stops := 0
		err = ScanPrefix(txn, []byte("m\x00"), true, func([]byte, *badger.Item) error {
			stops++
			return ErrStopScan
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, stops)
		return nil
	}))
}
