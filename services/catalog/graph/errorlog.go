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
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
	storage "github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/storage/badger"
)

// ErrorEntry is one failure as passed to LogError.
type ErrorEntry struct {
	PipelineKey string
	IDType      model.IdentifierType
	DocumentID  string
	Component   string
	Message     string
	StackTrace  string
}

// LogError records a failed stage run for a document.
//
// Description:
//
//	The document is looked up by e.IDType after normalizing e.DocumentID.
//	The document's single error slot is overwritten whatever run key it
//	held before, and the per-(document, pipeline key) history record is
//	replaced. An unknown document logs a warning and changes nothing.
//
// Outputs:
//
//	error - Wraps model.ErrUnsupportedIdentifierType for an unknown type.
func (s *Store) LogError(ctx context.Context, e ErrorEntry) error {
	if !e.IDType.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnsupportedIdentifierType, string(e.IDType))
	}
	id := model.NormalizeIdentifier(e.DocumentID)
	rec := model.ErrorRecord{
		PipelineKey: e.PipelineKey,
		Component:   e.Component,
		Message:     e.Message,
		StackTrace:  e.StackTrace,
		LoggedAt:    time.Now().UTC(),
	}
	if err := model.Validate(&rec); err != nil {
		return err
	}

	found := false
	err := s.update(ctx, "LogError", func(txn *badger.Txn) error {
		doc, err := resolveDocument(txn, e.IDType, id)
		if err != nil {
			return err
		}
		found = doc != nil
		if !found {
			return nil
		}

		doc.Error = &rec
		if err := putJSON(txn, key(kindDocument, doc.ID), doc); err != nil {
			return err
		}
		return putJSON(txn, key(kindError, doc.ID, rec.PipelineKey), rec)
	})
	if err != nil {
		return err
	}
	if !found {
		s.logger.Warn("document not found",
			"id_type", string(e.IDType), "id", id, "pipeline_key", e.PipelineKey)
	}
	return nil
}

// DocumentErrors returns the latest error per pipeline key for a
// document, ordered by pipeline key. It is diagnostic only; run status
// is derived from the error slot.
func (s *Store) DocumentErrors(ctx context.Context, documentID string) ([]model.ErrorRecord, error) {
	documentID = model.NormalizeIdentifier(documentID)
	var recs []model.ErrorRecord
	err := s.view(ctx, "DocumentErrors", func(txn *badger.Txn) error {
		return storage.ScanPrefix(txn, prefix(kindError, documentID), false, func(_ []byte, item *badger.Item) error {
			r, err := decodeItem[model.ErrorRecord](item)
			if err != nil {
				return err
			}
			recs = append(recs, r)
			return nil
		})
	})
	return recs, err
}
