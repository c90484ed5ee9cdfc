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

import "errors"

var (
	// ErrClosed is returned by every operation on a store whose handle
	// has been closed. Reopen explicitly with Store.Reopen.
	ErrClosed = errors.New("catalog store is closed")

	// ErrHandleHeld is returned when a second handle is opened on a
	// directory that this process already holds.
	ErrHandleHeld = errors.New("catalog handle already held in this process")

	// ErrSchemaMismatch is returned when the directory was written by an
	// incompatible layout.
	ErrSchemaMismatch = errors.New("catalog schema version mismatch")
)
