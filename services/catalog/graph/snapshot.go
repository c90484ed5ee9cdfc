// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"

	"github.com/dgraph-io/badger/v4"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
)

// Member is the evidence held for one member document.
type Member struct {
	Document model.Document

	// Produced lists the run keys with at least one output, ascending.
	Produced []string
}

// Snapshot is a consistent read of a collection and all evidence needed
// to classify its members.
type Snapshot struct {
	Collection model.DocumentCollection
	Members    []Member
}

// Snapshot reads a collection, its members, their produced run keys and
// error slots in one transaction. An unknown collection returns nil and
// logs a warning.
func (s *Store) Snapshot(ctx context.Context, shortName string) (*Snapshot, error) {
	var snap *Snapshot
	err := s.view(ctx, "Snapshot", func(txn *badger.Txn) error {
		c, err := getJSON[model.DocumentCollection](txn, key(kindCollection, shortName))
		if err != nil || c == nil {
			return err
		}

		ids, err := memberIDs(txn, shortName)
		if err != nil {
			return err
		}

		snap = &Snapshot{Collection: *c, Members: make([]Member, 0, len(ids))}
		for _, id := range ids {
			doc, err := getJSON[model.Document](txn, key(kindDocument, id))
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			produced, err := producedRunKeys(txn, id)
			if err != nil {
				return err
			}
			snap.Members = append(snap.Members, Member{Document: *doc, Produced: produced})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if snap == nil {
		s.logger.Warn("collection not found", "short_name", shortName)
	}
	return snap, nil
}
