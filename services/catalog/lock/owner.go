// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Owner is a held owner record for one catalog directory.
//
// # Thread Safety
//
// Release is safe to call from multiple goroutines; only the first call
// does anything.
type Owner struct {
	dir    string
	path   string
	file   *os.File
	locker FileLocker
	info   OwnerInfo

	// Stale is the previous record when it was left behind by a holder
	// that no longer has the lock (typically a crashed process).
	Stale *OwnerInfo

	mu       sync.Mutex
	released bool
}

// Acquire takes ownership of dir on behalf of component.
//
// Description:
//
//	Creates dir if needed, opens the owner record, and takes an exclusive
//	advisory lock on it without blocking. If the lock is held, the current
//	record is read and returned inside an *OwnedError. On success the
//	record is rewritten with this process's details.
//
//	A releasing owner deletes the record before unlocking it, so a lock
//	won on an already-unlinked file is retried against the new file.
//
// Inputs:
//
//	dir - Catalog directory.
//	component - Free-text name of the acquiring component.
//
// Outputs:
//
//	*Owner - The held record. Call Release when done.
//	error - *OwnedError if another handle owns dir; other errors on I/O failure.
func Acquire(dir, component string) (*Owner, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create catalog directory %s: %w", dir, err)
	}

	locker := newFileLocker()
	path := filepath.Join(dir, OwnerFileName)

	for attempt := 0; attempt < 3; attempt++ {
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0640)
		if err != nil {
			return nil, fmt.Errorf("open owner record: %w", err)
		}

		if err := locker.Lock(f); err != nil {
			holder, _ := readInfo(f)
			f.Close()
			if errors.Is(err, ErrFileLocked) {
				return nil, &OwnedError{Dir: dir, Owner: holder}
			}
			return nil, fmt.Errorf("lock owner record: %w", err)
		}

		if !samePath(f, path) {
			locker.Unlock(f)
			f.Close()
			continue
		}

		stale, _ := readInfo(f)
		host, _ := os.Hostname()
		o := &Owner{
			dir:    dir,
			path:   path,
			file:   f,
			locker: locker,
			info: OwnerInfo{
				PID:        os.Getpid(),
				Hostname:   host,
				Component:  component,
				AcquiredAt: time.Now().UTC(),
			},
			Stale: stale,
		}
		if err := o.writeInfo(); err != nil {
			locker.Unlock(f)
			f.Close()
			return nil, fmt.Errorf("write owner record: %w", err)
		}
		return o, nil
	}
	return nil, &OwnedError{Dir: dir}
}

// Info returns the record written by this owner.
func (o *Owner) Info() OwnerInfo {
	return o.info
}

// Dir returns the owned directory.
func (o *Owner) Dir() string {
	return o.dir
}

// Release deletes the record and drops the lock.
//
// Outputs:
//
//	error - ErrReleased on a second call; otherwise the first cleanup error.
func (o *Owner) Release() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.released {
		return ErrReleased
	}
	o.released = true

	var errs []error
	if err := os.Remove(o.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, fmt.Errorf("remove owner record: %w", err))
	}
	if err := o.locker.Unlock(o.file); err != nil {
		errs = append(errs, fmt.Errorf("unlock owner record: %w", err))
	}
	if err := o.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close owner record: %w", err))
	}
	return errors.Join(errs...)
}

func (o *Owner) writeInfo() error {
	data, err := json.Marshal(o.info)
	if err != nil {
		return err
	}
	if err := o.file.Truncate(0); err != nil {
		return err
	}
	if _, err := o.file.WriteAt(data, 0); err != nil {
		return err
	}
	return o.file.Sync()
}

// Current reads the owner record of dir without taking the lock.
//
// Outputs:
//
//	*OwnerInfo - The live holder, or nil if nobody holds dir.
//	error - Non-nil on I/O failure.
func Current(dir string) (*OwnerInfo, error) {
	f, err := os.OpenFile(filepath.Join(dir, OwnerFileName), os.O_RDWR, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	locker := newFileLocker()
	if err := locker.Lock(f); err == nil {
		// Nobody holds it: the record, if any, is stale.
		locker.Unlock(f)
		return nil, nil
	} else if !errors.Is(err, ErrFileLocked) {
		return nil, err
	}
	return readInfo(f)
}

// WaitReleased blocks until nobody owns dir or ctx is done.
//
// Description:
//
//	Watches dir with fsnotify and re-checks ownership whenever the owner
//	record is removed, renamed or rewritten. A poll every second covers
//	filesystems that do not deliver events.
//
// Outputs:
//
//	error - ctx.Err() if the context ends first.
func WaitReleased(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create owner watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	record := filepath.Join(dir, OwnerFileName)
	for {
		holder, err := Current(dir)
		if err != nil {
			return err
		}
		if holder == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("owner watcher closed")
			}
			if filepath.Clean(event.Name) != record {
				continue
			}
		case err, ok := <-watcher.Errors:
			if ok && err != nil {
				return fmt.Errorf("owner watcher: %w", err)
			}
		case <-ticker.C:
		}
	}
}

func readInfo(f *os.File) (*OwnerInfo, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var info OwnerInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode owner record: %w", err)
	}
	return &info, nil
}

// samePath reports whether f is still the file at path.
func samePath(f *os.File, path string) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	pi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(fi, pi)
}
