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
	"slices"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/graph"
	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// DocumentSet is a set of document ids.
type DocumentSet map[string]struct{}

// Add inserts id.
func (s DocumentSet) Add(id string) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s DocumentSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s DocumentSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// StatusSets partitions a collection's members for one run key.
type StatusSets struct {
	Complete    DocumentSet
	Outstanding DocumentSet
	Error       DocumentSet
}

func newStatusSets() *StatusSets {
	return &StatusSets{
		Complete:    DocumentSet{},
		Outstanding: DocumentSet{},
		Error:       DocumentSet{},
	}
}

// Get returns the set for status, nil for an unknown status.
func (s *StatusSets) Get(status model.RunStatus) DocumentSet {
	switch status {
	case model.StatusComplete:
		return s.Complete
	case model.StatusOutstanding:
		return s.Outstanding
	case model.StatusError:
		return s.Error
	default:
		return nil
	}
}

// Total is the number of classified documents.
func (s *StatusSets) Total() int {
	return len(s.Complete) + len(s.Outstanding) + len(s.Error)
}

// RunsMap maps each run key registered on a collection to the status
// partition of its members.
type RunsMap map[string]*StatusSets

// Keys returns the run keys in ascending order.
func (m RunsMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// StatusOf returns the status of a document for a run key.
func (m RunsMap) StatusOf(runKey, documentID string) (model.RunStatus, bool) {
	sets, ok := m[runKey]
	if !ok {
		return 0, false
	}
	for _, st := range model.RunStatuses {
		if sets.Get(st).Has(documentID) {
			return st, true
		}
	}
	return 0, false
}

// ComputeRunsMap classifies every member of snap for every run key
// registered on the collection.
//
// Description:
//
//	A run key with at least one output for a document is COMPLETE. Of
//	the remaining keys, the one named by the document's error slot is
//	ERROR. Everything else is OUTSTANDING. The error slot names one key,
//	so a document reports ERROR for at most one key even when it has
//	failed for several.
//
//	Outputs for run keys no longer registered on the collection are
//	ignored.
func ComputeRunsMap(snap *graph.Snapshot) RunsMap {
	runs := make(RunsMap, len(snap.Collection.RunKeys))
	for _, k := range snap.Collection.RunKeys {
		runs[k] = newStatusSets()
	}

	for _, m := range snap.Members {
		id := m.Document.ID

		remaining := make(map[string]bool, len(runs))
		for k := range runs {
			remaining[k] = true
		}

		for _, k := range m.Produced {
			if sets, ok := runs[k]; ok {
				sets.Complete.Add(id)
				delete(remaining, k)
			}
		}

		if e := m.Document.Error; e != nil && remaining[e.PipelineKey] {
			runs[e.PipelineKey].Error.Add(id)
			delete(remaining, e.PipelineKey)
		}

		for k := range remaining {
			runs[k].Outstanding.Add(id)
		}
	}
	return runs
}
