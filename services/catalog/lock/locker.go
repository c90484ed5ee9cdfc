// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lock records which process and component own a catalog directory.
//
// Badger already refuses a second handle on a locked directory, but its
// error says nothing about who holds it. Owner keeps an advisory-locked
// record file beside the database naming the holder, so contention errors
// can say "held by pid 4242 (annotate)" and a reader can wait for a writer
// phase to end with WaitReleased.
//
// The lock is released by the kernel if the owning process dies, so a
// leftover record with no lock behind it is stale and is taken over.
package lock

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// OwnerFileName is the record file created inside the catalog directory.
const OwnerFileName = "catalog.owner"

var (
	// ErrFileLocked is returned by a FileLocker when the lock is held elsewhere.
	ErrFileLocked = errors.New("file is locked")

	// ErrOwned is wrapped by OwnedError.
	ErrOwned = errors.New("catalog is owned by another handle")

	// ErrReleased is returned when releasing an Owner twice.
	ErrReleased = errors.New("owner already released")
)

// OwnerInfo is the content of the owner record.
type OwnerInfo struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname,omitempty"`
	Component  string    `json:"component,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// String returns "pid N (component) since T".
func (i OwnerInfo) String() string {
	s := fmt.Sprintf("pid %d", i.PID)
	if i.Component != "" {
		s += " (" + i.Component + ")"
	}
	if !i.AcquiredAt.IsZero() {
		s += " since " + i.AcquiredAt.Format(time.RFC3339)
	}
	return s
}

// OwnedError reports that a catalog directory is held by someone else.
type OwnedError struct {
	Dir   string
	Owner *OwnerInfo
}

func (e *OwnedError) Error() string {
	if e.Owner == nil {
		return fmt.Sprintf("catalog %s: %v", e.Dir, ErrOwned)
	}
	return fmt.Sprintf("catalog %s: %v: held by %s", e.Dir, ErrOwned, e.Owner)
}

// Unwrap lets errors.Is match ErrOwned.
func (e *OwnedError) Unwrap() error {
	return ErrOwned
}

// FileLocker abstracts platform-specific advisory locking.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use on different files.
type FileLocker interface {
	// Lock takes an exclusive lock without blocking.
	// Returns ErrFileLocked if the lock is held elsewhere.
	Lock(f *os.File) error

	// Unlock releases the lock. Safe to call when not locked.
	Unlock(f *os.File) error
}

// newFileLocker returns the platform locker.
func newFileLocker() FileLocker {
	return newPlatformLocker()
}
