// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model defines the plain records stored in the run catalog.
//
// The records carry no behavior beyond small accessors and validation.
// Everything that reads or writes them lives in the graph and catalog
// packages.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedIdentifierType is returned when a caller asks for a lookup
// by an identifier type the catalog does not index.
var ErrUnsupportedIdentifierType = errors.New("unsupported identifier type")

// IdentifierType names a kind of external document identifier.
type IdentifierType string

const (
	// IdentifierCollection is the collection-id-style identifier
	// (for example "PMC1234567"). It is the primary key of a Document.
	IdentifierCollection IdentifierType = "collection"

	// IdentifierPubMed is the numeric PubMed identifier.
	IdentifierPubMed IdentifierType = "pmid"
)

// ParseIdentifierType converts a name into an IdentifierType.
//
// Description:
//
//	Accepts "collection", "pmcid" and "id" for IdentifierCollection and
//	"pmid" or "pubmed" for IdentifierPubMed, case-insensitively.
//
// Outputs:
//
//	IdentifierType - The parsed type.
//	error - Wraps ErrUnsupportedIdentifierType for anything else.
func ParseIdentifierType(name string) (IdentifierType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "collection", "pmcid", "id":
		return IdentifierCollection, nil
	case "pmid", "pubmed":
		return IdentifierPubMed, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedIdentifierType, name)
	}
}

// Valid reports whether t is one of the known identifier types.
func (t IdentifierType) Valid() bool {
	return t == IdentifierCollection || t == IdentifierPubMed
}

// ExternalIdentifier pairs an identifier value with its type.
type ExternalIdentifier struct {
	Type  IdentifierType `json:"type" validate:"required,oneof=collection pmid"`
	Value string         `json:"value" validate:"required"`
}

// String returns "type:value".
func (e ExternalIdentifier) String() string {
	return string(e.Type) + ":" + e.Value
}

// sourceSuffixes are stripped, repeatedly, from identifiers that were
// derived from file names. Longer suffixes come first.
var sourceSuffixes = []string{
	".tar.gz",
	".tgz",
	".gz",
	".bz2",
	".zip",
	".nxml",
	".xml",
	".txt",
}

// NormalizeIdentifier turns a file-derived identifier into a bare one.
//
// Description:
//
//	Drops any directory component and strips known archive and text
//	suffixes until none remain, so "PMC123.nxml.gz", "/in/PMC123.txt"
//	and "PMC123" all normalize to "PMC123". Suffix matching is
//	case-insensitive.
//
// Inputs:
//
//	id - Identifier or file name.
//
// Outputs:
//
//	string - The normalized identifier.
func NormalizeIdentifier(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndexAny(id, `/\`); i >= 0 {
		id = id[i+1:]
	}
	for {
		lower := strings.ToLower(id)
		stripped := false
		for _, suffix := range sourceSuffixes {
			if len(id) > len(suffix) && strings.HasSuffix(lower, suffix) {
				id = id[:len(id)-len(suffix)]
				stripped = true
				break
			}
		}
		if !stripped {
			return id
		}
	}
}
