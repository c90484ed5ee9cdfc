// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupportedFileVersion is returned for a FileVersion the catalog
// does not know how to store or resolve.
var ErrUnsupportedFileVersion = errors.New("unsupported file version")

// FileFormat is the declared format of a document's source file.
type FileFormat string

const (
	FormatXML  FileFormat = "xml"
	FormatText FileFormat = "text"
)

// FileVersion selects one of a document's write-once file fields.
type FileVersion int

const (
	// VersionSource is the original source file (XML or plain text).
	VersionSource FileVersion = iota + 1

	// VersionText is the plain-text file derived from the source.
	VersionText
)

// String returns "source", "text" or "unknown".
func (v FileVersion) String() string {
	switch v {
	case VersionSource:
		return "source"
	case VersionText:
		return "text"
	default:
		return "unknown"
	}
}

// ParseFileVersion converts "source" or "text" into a FileVersion.
func ParseFileVersion(name string) (FileVersion, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "source", "original":
		return VersionSource, nil
	case "text", "plaintext", "txt":
		return VersionText, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFileVersion, name)
	}
}

// Document is one corpus item.
//
// ID is the collection-id-style identifier and the document's identity:
// two documents with the same ID are the same document whatever collection
// they were registered through. SourceFile and TextFile are write-once.
//
// Error is the single error slot. It holds the most recent failure for
// the document regardless of which run key caused it, so a document can
// report at most one ERROR status at a time.
type Document struct {
	ID           string       `json:"id" validate:"required,keysegment"`
	PMID         string       `json:"pmid,omitempty" validate:"omitempty,numeric"`
	SourceFile   string       `json:"source_file,omitempty"`
	SourceFormat FileFormat   `json:"source_format,omitempty" validate:"omitempty,oneof=xml text"`
	TextFile     string       `json:"text_file,omitempty"`
	SourceURL    string       `json:"source_url,omitempty" validate:"omitempty,url"`
	License      string       `json:"license,omitempty"`
	Journal      string       `json:"journal,omitempty"`
	Citation     string       `json:"citation,omitempty"`
	Error        *ErrorRecord `json:"error,omitempty"`
}

// File returns the path stored for the requested version.
//
// Outputs:
//
//	string - The path, empty if the field has not been set.
//	error - Wraps ErrUnsupportedFileVersion for an unknown version.
func (d Document) File(v FileVersion) (string, error) {
	switch v {
	case VersionSource:
		return d.SourceFile, nil
	case VersionText:
		return d.TextFile, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrUnsupportedFileVersion, int(v))
	}
}

// Identifiers returns every external identifier the document carries.
func (d Document) Identifiers() []ExternalIdentifier {
	ids := []ExternalIdentifier{{Type: IdentifierCollection, Value: d.ID}}
	if d.PMID != "" {
		ids = append(ids, ExternalIdentifier{Type: IdentifierPubMed, Value: d.PMID})
	}
	return ids
}

// ErrorRecord describes one failed stage run for a document.
type ErrorRecord struct {
	PipelineKey string    `json:"pipeline_key" validate:"required,keysegment"`
	Component   string    `json:"component,omitempty"`
	Message     string    `json:"message"`
	StackTrace  string    `json:"stack_trace,omitempty"`
	LoggedAt    time.Time `json:"logged_at"`
}
