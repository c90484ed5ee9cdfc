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

import "time"

// AnnotationPipeline describes a repeatable processing stage.
//
// ImplementationRef names the code that runs the stage. The catalog
// resolves it through a registry and tolerates references it cannot
// resolve. Pipelines are unique by Name and immutable once registered.
type AnnotationPipeline struct {
	Name              string `json:"name" validate:"required,keysegment"`
	Description       string `json:"description,omitempty"`
	ImplementationRef string `json:"implementation_ref,omitempty"`
	Version           string `json:"version,omitempty"`
}

// AnnotationOutput is evidence that run RunKey succeeded for a document.
// ID is assigned by the store when the output is recorded.
type AnnotationOutput struct {
	ID              string    `json:"id,omitempty"`
	DocumentID      string    `json:"document_id,omitempty"`
	LocalFile       string    `json:"local_file" validate:"required"`
	RunKey          string    `json:"run_key" validate:"required,keysegment"`
	Timestamp       time.Time `json:"timestamp"`
	AnnotationCount int       `json:"annotation_count" validate:"gte=0"`
}

// RunStatus classifies one (document, run key) pair.
type RunStatus int

const (
	StatusComplete RunStatus = iota
	StatusOutstanding
	StatusError
)

// RunStatuses lists every status in display order.
var RunStatuses = []RunStatus{StatusComplete, StatusOutstanding, StatusError}

// String returns "COMPLETE", "OUTSTANDING", "ERROR" or "UNKNOWN".
func (s RunStatus) String() string {
	switch s {
	case StatusComplete:
		return "COMPLETE"
	case StatusOutstanding:
		return "OUTSTANDING"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
