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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"PMC123", "PMC123"},
		{"PMC123.nxml.gz", "PMC123"},
		{"PMC123.tar.gz", "PMC123"},
		{"PMC123.TGZ", "PMC123"},
		{"PMC123.xml", "PMC123"},
		{"PMC123.txt", "PMC123"},
		{"/data/oa/PMC123.nxml", "PMC123"},
		{`C:\corpus\PMC123.txt.gz`, "PMC123"},
		{"  PMC123.zip ", "PMC123"},
		{".gz", ".gz"},
		{"PMC123.pdf", "PMC123.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeIdentifier(tt.in))
		})
	}
}

func TestParseIdentifierType(t *testing.T) {
	got, err := ParseIdentifierType("PMID")
	require.NoError(t, err)
	assert.Equal(t, IdentifierPubMed, got)

	got, err = ParseIdentifierType("pmcid")
	require.NoError(t, err)
	assert.Equal(t, IdentifierCollection, got)

	_, err = ParseIdentifierType("doi")
	assert.True(t, errors.Is(err, ErrUnsupportedIdentifierType))
}

func TestParseFileVersion(t *testing.T) {
	v, err := ParseFileVersion("source")
	require.NoError(t, err)
	assert.Equal(t, VersionSource, v)

	v, err = ParseFileVersion("TEXT")
	require.NoError(t, err)
	assert.Equal(t, VersionText, v)

	_, err = ParseFileVersion("pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFileVersion)
}

func TestDocument_File(t *testing.T) {
	doc := Document{ID: "PMC1", SourceFile: "/in/PMC1.nxml", TextFile: "/txt/PMC1.txt"}

	src, err := doc.File(VersionSource)
	require.NoError(t, err)
	assert.Equal(t, "/in/PMC1.nxml", src)

	txt, err := doc.File(VersionText)
	require.NoError(t, err)
	assert.Equal(t, "/txt/PMC1.txt", txt)

	_, err = doc.File(FileVersion(42))
	assert.ErrorIs(t, err, ErrUnsupportedFileVersion)
}

func TestDocument_Identifiers(t *testing.T) {
	doc := Document{ID: "PMC1", PMID: "12345"}
	ids := doc.Identifiers()
	require.Len(t, ids, 2)
	assert.Equal(t, "collection:PMC1", ids[0].String())
	assert.Equal(t, "pmid:12345", ids[1].String())

	assert.Len(t, Document{ID: "PMC2"}.Identifiers(), 1)
}

func TestDocumentCollection_RunKeys(t *testing.T) {
	c := &DocumentCollection{ShortName: "C"}

	assert.True(t, c.AddRunKey("stage2"))
	assert.True(t, c.AddRunKey("stage1"))
	assert.False(t, c.AddRunKey("stage1"), "duplicate add is a no-op")
	assert.Equal(t, []string{"stage1", "stage2"}, c.RunKeys)
	assert.True(t, c.HasRunKey("stage2"))

	assert.False(t, c.RemoveRunKey("absent"), "removing an absent key is a no-op")
	assert.True(t, c.RemoveRunKey("stage1"))
	assert.Equal(t, []string{"stage2"}, c.RunKeys)
	assert.False(t, c.HasRunKey("stage1"))
}

func TestValidate(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := &Document{ID: "PMC1", PMID: "42", SourceFormat: FormatXML, SourceURL: "https://example.org/PMC1"}
		assert.NoError(t, Validate(doc))
	})

	t.Run("missing id", func(t *testing.T) {
		err := Validate(&Document{})
		require.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "Document.ID")
	})

	t.Run("non numeric pmid", func(t *testing.T) {
		err := Validate(&Document{ID: "PMC1", PMID: "abc"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("bad format", func(t *testing.T) {
		err := Validate(&Document{ID: "PMC1", SourceFormat: "pdf"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("collection keys are normalized", func(t *testing.T) {
		c := &DocumentCollection{ShortName: "C", RunKeys: []string{"b", "a", "b"}}
		require.NoError(t, Validate(c))
		assert.Equal(t, []string{"a", "b"}, c.RunKeys)
	})

	t.Run("key separator in short name", func(t *testing.T) {
		err := Validate(&DocumentCollection{ShortName: "pmc\x00ner"})
		require.ErrorIs(t, err, ErrInvalid)
		assert.Contains(t, err.Error(), "keysegment")
	})

	t.Run("control character in run key", func(t *testing.T) {
		err := Validate(&DocumentCollection{ShortName: "C", RunKeys: []string{"ner\n"}})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("output requires run key", func(t *testing.T) {
		err := Validate(&AnnotationOutput{LocalFile: "/out/a.bionlp"})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("negative annotation count", func(t *testing.T) {
		err := Validate(&AnnotationOutput{LocalFile: "f", RunKey: "k", AnnotationCount: -1})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestRunStatus_String(t *testing.T) {
	assert.Equal(t, "COMPLETE", StatusComplete.String())
	assert.Equal(t, "OUTSTANDING", StatusOutstanding.String())
	assert.Equal(t, "ERROR", StatusError.String())
	assert.Equal(t, "UNKNOWN", RunStatus(9).String())
}
