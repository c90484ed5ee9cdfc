// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-provided names before they become part of
// a storage key.
//
// The catalog builds keys by joining segments with a NUL byte. A segment
// that itself contains NUL, or any other control character, would let one
// name address another record's keyspace, so every collection short name,
// run key, document id and pipeline name passes through ValidateSegment
// before it is written.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxSegmentLen bounds a single key segment in bytes.
const MaxSegmentLen = 512

// ErrInvalidSegment is wrapped by every ValidateSegment failure.
var ErrInvalidSegment = errors.New("invalid key segment")

// ValidateSegment validates one key segment.
//
// Valid segments:
//   - 1 to MaxSegmentLen bytes of valid UTF-8
//   - No control characters (NUL, newline, tab, DEL, ...)
//   - No leading or trailing white space
//
// Example:
//
//	if err := validation.ValidateSegment(shortName); err != nil {
//	    return fmt.Errorf("collection: %w", err)
//	}
func ValidateSegment(s string) error {
	switch {
	case s == "":
		return fmt.Errorf("%w: empty", ErrInvalidSegment)
	case len(s) > MaxSegmentLen:
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidSegment, len(s), MaxSegmentLen)
	case !utf8.ValidString(s):
		return fmt.Errorf("%w: %q is not valid UTF-8", ErrInvalidSegment, s)
	case strings.TrimSpace(s) != s:
		return fmt.Errorf("%w: %q has surrounding white space", ErrInvalidSegment, s)
	}
	if i := strings.IndexFunc(s, unicode.IsControl); i >= 0 {
		return fmt.Errorf("%w: %q has a control character at byte %d", ErrInvalidSegment, s, i)
	}
	return nil
}

// SanitizeSegment trims surrounding white space and validates the result.
//
// Use this for names typed on a command line:
//
//	key, err := validation.SanitizeSegment(args[1])
//	if err != nil {
//	    return err
//	}
func SanitizeSegment(s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := ValidateSegment(s); err != nil {
		return "", err
	}
	return s, nil
}
