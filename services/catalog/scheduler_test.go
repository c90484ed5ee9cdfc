// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/logging"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/graph"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

func TestFilesToProcess(t *testing.T) {
	c, exporter := newTestCatalog(t)
	ctx := context.Background()
	coll := model.DocumentCollection{ShortName: "C", RunKeys: []string{"stage1"}}
	seed(t, c, coll, "d4", "d2", "d1", "d3")

	for _, id := range []string{"d1", "d2", "d4"} {
		require.NoError(t, c.AddFileVersion(ctx, id, "/src/"+id+".nxml", model.VersionSource))
	}
	require.NoError(t, c.AddFileVersion(ctx, "d2", "/txt/d2.txt", model.VersionText))

	_, err := c.AddAnnotationOutput(ctx, "d1", model.AnnotationOutput{LocalFile: "o", RunKey: "stage1"})
	require.NoError(t, err)
	require.NoError(t, c.LogError(ctx, graph.ErrorEntry{PipelineKey: "stage1", IDType: model.IdentifierCollection, DocumentID: "d4"}))

	items, err := c.FilesToProcess(ctx, "C", "stage1", model.VersionSource)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "d2", items[0].Document.ID)
	assert.Equal(t, "/src/d2.nxml", items[0].File)
	assert.True(t, exporter.Contains(logging.LevelWarn, "document has no file for version"))

	items, err = c.FilesToProcess(ctx, "C", "stage1", model.VersionText)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/txt/d2.txt", items[0].File)
}

func TestFilesToProcess_Sorted(t *testing.T) {
	c, _ := newTestCatalog(t)
	ctx := context.Background()
	seed(t, c, model.DocumentCollection{ShortName: "C", RunKeys: []string{"k"}}, "b", "c", "a")
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, c.AddFileVersion(ctx, id, id+".txt", model.VersionText))
	}

	items, err := c.FilesToProcess(ctx, "C", "k", model.VersionText)
	require.NoError(t, err)
	var ids []string
	for _, it := range items {
		ids = append(ids, it.Document.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestFilesToProcess_Empty(t *testing.T) {
	c, exporter := newTestCatalog(t)
	ctx := context.Background()
	seed(t, c, model.DocumentCollection{ShortName: "C"}, "d1")

	items, err := c.FilesToProcess(ctx, "C", "unknown-key", model.VersionSource)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.True(t, exporter.Contains(logging.LevelWarn, "run key not registered on collection"))

	items, err = c.FilesToProcess(ctx, "missing", "k", model.VersionSource)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFilesToProcess_UnsupportedVersion(t *testing.T) {
	c, _ := newTestCatalog(t)
	_, err := c.FilesToProcess(context.Background(), "C", "k", model.FileVersion(7))
	assert.ErrorIs(t, err, model.ErrUnsupportedFileVersion)
}
