// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/pkg/validation"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/config"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/graph"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

const quietConfig = `
logging:
  quiet: true
telemetry:
  trace_exporter: none
  metric_exporter: none
report:
  workers: 2
`

// execute runs the command tree with machine output and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(quietConfig), 0o600))

	root, a := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", cfgPath, "--output", "machine"}, args...))

	err := root.ExecuteContext(context.Background())
	require.NoError(t, a.teardown())
	return out.String(), err
}

// seedCatalog writes one collection with three documents: d1 complete,
// d2 failed and d3 outstanding for run key "ner".
func seedCatalog(t *testing.T, dir string) {
	t.Helper()
	ctx := context.Background()
	err := graph.Use(ctx, graph.Options{Path: dir, Component: "seed"}, func(s *graph.Store) error {
		c := catalog.New(s, nil, nil)
		coll := model.DocumentCollection{ShortName: "pmc", RunKeys: []string{"ner"}}
		for _, id := range []string{"d1", "d2", "d3"} {
			if err := c.AddDocument(ctx, model.Document{ID: id}, coll); err != nil {
				return err
			}
		}
		if err := c.AddFileVersion(ctx, "d3", "/text/d3.txt", model.VersionText); err != nil {
			return err
		}
		if _, err := c.AddAnnotationOutput(ctx, "d1", model.AnnotationOutput{LocalFile: "/out/d1", RunKey: "ner"}); err != nil {
			return err
		}
		if err := c.LogError(ctx, graph.ErrorEntry{
			PipelineKey: "ner", IDType: model.IdentifierCollection, DocumentID: "d2",
			Component: "tagger", Message: "tokenizer crashed",
		}); err != nil {
			return err
		}
		return c.UpsertCollection(ctx, model.DocumentCollection{ShortName: "empty"})
	})
	require.NoError(t, err)
}

func TestReport_MachineOutput(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	out, err := execute(t, "report", dir)
	require.NoError(t, err)
	assert.Equal(t,
		"collection\tempty\t0\n"+
			"collection\tpmc\t3\n"+
			"run\tpmc\tner\t3\t1\t1\t1\n",
		out)
}

func TestReport_Textfile(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)
	textfile := filepath.Join(t.TempDir(), "catalog.prom")

	_, err := execute(t, "report", dir, "--textfile", textfile)
	require.NoError(t, err)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `catalog_collection_documents{collection="pmc"} 3`)
	assert.Contains(t, string(data), `catalog_run_documents{collection="pmc",run_key="ner",status="ERROR"} 1`)
}

func TestReport_HeldCatalogFailsWithExitOne(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	held, err := graph.Open(context.Background(), graph.Options{Path: dir, Component: "holder"})
	require.NoError(t, err)
	defer held.Close()

	_, err = execute(t, "report", dir)
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, exitFailure, cmdErr.ExitCode)
	assert.ErrorIs(t, err, graph.ErrHandleHeld)
}

func TestOutstanding(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	out, err := execute(t, "outstanding", dir, "--collection", "pmc", "--run-key", "ner", "--version", "text")
	require.NoError(t, err)
	assert.Equal(t, "d3\t/text/d3.txt\n", out)
}

func TestOutstanding_BadVersion(t *testing.T) {
	_, err := execute(t, "outstanding", t.TempDir(), "--collection", "pmc", "--run-key", "ner", "--version", "pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnsupportedFileVersion)
}

func TestCollection_AddAndRemoveKey(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	_, err := execute(t, "collection", "add-key", dir, "pmc", "concepts")
	require.NoError(t, err)
	out, err := execute(t, "collection", "list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "pmc\tconcepts\tner\n")

	_, err = execute(t, "collection", "remove-key", dir, "pmc", "ner")
	require.NoError(t, err)
	out, err = execute(t, "collection", "list", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "pmc\tconcepts\n")
}

func TestCollection_AddKeyRejectsSeparator(t *testing.T) {
	_, err := execute(t, "collection", "add-key", t.TempDir(), "pmc", "ner\x00v2")
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidSegment)
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	out, err := execute(t, "prune", dir)
	require.NoError(t, err)
	assert.Equal(t, "removed\tempty\n", out)

	out, err = execute(t, "collection", "list", dir)
	require.NoError(t, err)
	assert.NotContains(t, out, "empty")
}

func TestErrors(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	out, err := execute(t, "errors", dir, "d2")
	require.NoError(t, err)
	assert.Contains(t, out, "identifier\tcollection:d2\n")
	assert.Contains(t, out, "status\tpmc\tner\tERROR\n")
	assert.Contains(t, out, "current\tner\ttagger\ttokenizer crashed\n")
	assert.Contains(t, out, "history\tner\ttagger\ttokenizer crashed\n")

	out, err = execute(t, "errors", dir, "missing")
	require.NoError(t, err)
	assert.Equal(t, "WARN: document not found: missing\n", out)
}

func TestErrors_CompleteDocumentHasNoErrorLines(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	out, err := execute(t, "errors", dir, "d1")
	require.NoError(t, err)
	assert.Equal(t, "identifier\tcollection:d1\nstatus\tpmc\tner\tCOMPLETE\n", out)
}

func TestConfigInit_WritesLoadableDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Equal(t, "OK: wrote "+path+"\n", out)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Report, cfg.Report)
	assert.Equal(t, config.Default().Catalog.OwnerWait, cfg.Catalog.OwnerWait)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("report:\n  workers: 7\n"), 0o600))

	_, err := execute(t, "config", "init", path)
	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, exitFailure, cmdErr.ExitCode)

	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Report.Workers, cfg.Report.Workers)
}

func TestPipelineList_Empty(t *testing.T) {
	dir := t.TempDir()
	seedCatalog(t, dir)

	out, err := execute(t, "pipeline", "list", dir)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCommandError(t *testing.T) {
	inner := errors.New("boom")
	err := NewCommandError("catalog report", exitCloseFailed, inner)

	assert.Equal(t, "catalog report (exit 2): boom", err.Error())
	assert.ErrorIs(t, err, inner)
}
