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

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// WorkItem is one document still to be processed for a run key, with
// the file the stage should read.
type WorkItem struct {
	Document model.Document
	File     string
}

// FilesToProcess lists the OUTSTANDING documents of a collection for
// runKey, resolved to the requested file version and ordered by
// document id.
//
// Description:
//
//	Documents in the ERROR set are not retried. Documents without the
//	requested file are skipped with a warning. An unknown collection or
//	a run key not registered on it yields an empty list.
//
// Outputs:
//
//	[]WorkItem - Work still to do.
//	error - Wraps model.ErrUnsupportedFileVersion for an unknown version.
func (c *Catalog) FilesToProcess(ctx context.Context, shortName, runKey string, version model.FileVersion) ([]WorkItem, error) {
	if _, err := (model.Document{}).File(version); err != nil {
		return nil, err
	}

	snap, err := c.store.Snapshot(ctx, shortName)
	if err != nil || snap == nil {
		return nil, err
	}

	sets, ok := ComputeRunsMap(snap)[runKey]
	if !ok {
		c.logger.Warn("run key not registered on collection",
			"short_name", shortName, "run_key", runKey)
		return nil, nil
	}

	// Members are in id order already.
	var items []WorkItem
	for _, m := range snap.Members {
		if !sets.Outstanding.Has(m.Document.ID) {
			continue
		}
		file, _ := m.Document.File(version)
		if file == "" {
			c.logger.Warn("document has no file for version",
				"id", m.Document.ID, "version", version.String())
			continue
		}
		items = append(items, WorkItem{Document: m.Document, File: file})
	}
	return items, nil
}
