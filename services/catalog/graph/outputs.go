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
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
	storage "github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/storage/badger"
)

// AddAnnotationOutput records that run out.RunKey succeeded for a document.
//
// Description:
//
//	The output gets a fresh id and is linked to the document. Its run key
//	is added to every collection containing the document. If the
//	document's error slot holds the same run key, the slot is cleared.
//	Several outputs per (document, run key) are allowed.
//
// Outputs:
//
//	*model.AnnotationOutput - The stored output, nil if the document is unknown.
//	error - Wraps model.ErrInvalid for an invalid output.
func (s *Store) AddAnnotationOutput(ctx context.Context, documentID string, out model.AnnotationOutput) (*model.AnnotationOutput, error) {
	if err := model.Validate(&out); err != nil {
		return nil, err
	}
	documentID = model.NormalizeIdentifier(documentID)
	out.ID = uuid.NewString()
	out.DocumentID = documentID
	if out.Timestamp.IsZero() {
		out.Timestamp = time.Now().UTC()
	}

	found := false
	err := s.update(ctx, "AddAnnotationOutput", func(txn *badger.Txn) error {
		dk := key(kindDocument, documentID)
		doc, err := getJSON[model.Document](txn, dk)
		if err != nil {
			return err
		}
		found = doc != nil
		if !found {
			return nil
		}

		if err := putJSON(txn, key(kindOutput, documentID, out.RunKey, out.ID), out); err != nil {
			return err
		}

		names, err := containingCollections(txn, documentID)
		if err != nil {
			return err
		}
		for _, name := range names {
			ck := key(kindCollection, name)
			c, err := getJSON[model.DocumentCollection](txn, ck)
			if err != nil {
				return err
			}
			if c == nil || !c.AddRunKey(out.RunKey) {
				continue
			}
			if err := putJSON(txn, ck, c); err != nil {
				return err
			}
		}

		if doc.Error != nil && doc.Error.PipelineKey == out.RunKey {
			doc.Error = nil
			return putJSON(txn, dk, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn("document not found", "id", documentID, "run_key", out.RunKey)
		return nil, nil
	}
	return &out, nil
}

// DocumentOutputs returns every output of a document ordered by run key.
func (s *Store) DocumentOutputs(ctx context.Context, documentID string) ([]model.AnnotationOutput, error) {
	documentID = model.NormalizeIdentifier(documentID)
	var outs []model.AnnotationOutput
	err := s.view(ctx, "DocumentOutputs", func(txn *badger.Txn) error {
		return storage.ScanPrefix(txn, prefix(kindOutput, documentID), false, func(_ []byte, item *badger.Item) error {
			o, err := decodeItem[model.AnnotationOutput](item)
			if err != nil {
				return err
			}
			outs = append(outs, o)
			return nil
		})
	})
	return outs, err
}

// producedRunKeys returns the distinct run keys with at least one output
// for the document, in ascending order.
func producedRunKeys(txn *badger.Txn, documentID string) ([]string, error) {
	p := prefix(kindOutput, documentID)
	var keys []string
	err := storage.ScanPrefix(txn, p, true, func(k []byte, _ *badger.Item) error {
		parts := splitKey(storage.TrimPrefix(k, p))
		if len(parts) != 2 {
			return nil
		}
		if n := len(keys); n == 0 || keys[n-1] != parts[0] {
			keys = append(keys, parts[0])
		}
		return nil
	})
	return keys, err
}
