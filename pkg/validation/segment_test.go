// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		wantErr bool
	}{
		// Valid segments
		{"short name", "pmc-oa", false},
		{"run key", "ner:v2@2025-01", false},
		{"document id", "PMC1234567", false},
		{"inner space", "PubMed Central", false},
		{"unicode", "Gesundheitsämter", false},
		{"max length", strings.Repeat("a", MaxSegmentLen), false},

		// Invalid segments
		{"empty", "", true},
		{"nul separator", "pmc\x00ner", true},
		{"newline", "pmc\nner", true},
		{"tab", "pmc\tner", true},
		{"del", "pmc\x7f", true},
		{"leading space", " pmc", true},
		{"trailing space", "pmc ", true},
		{"invalid utf8", "pmc\xff", true},
		{"too long", strings.Repeat("a", MaxSegmentLen+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSegment(tt.segment)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSegment(%q) error = %v, wantErr %v", tt.segment, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidSegment) {
				t.Errorf("error %v does not wrap ErrInvalidSegment", err)
			}
		})
	}
}

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		name    string
		segment string
		want    string
		wantErr bool
	}{
		{"passthrough", "ner", "ner", false},
		{"trimmed", "  ner\n", "ner", false},
		{"blank rejected", "   ", "", true},
		{"inner control rejected", "n\x00r", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeSegment(tt.segment)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeSegment(%q) error = %v, wantErr %v", tt.segment, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeSegment(%q) = %q, want %q", tt.segment, got, tt.want)
			}
		})
	}
}
