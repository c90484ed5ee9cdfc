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
	storage "github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/storage/badger"
)

// AddAnnotationPipeline registers p unless a pipeline with the same name
// exists, and returns the stored record. A differing re-registration is
// logged and ignored.
func (s *Store) AddAnnotationPipeline(ctx context.Context, p model.AnnotationPipeline) (*model.AnnotationPipeline, error) {
	if err := model.Validate(&p); err != nil {
		return nil, err
	}

	var stored *model.AnnotationPipeline
	err := s.update(ctx, "AddAnnotationPipeline", func(txn *badger.Txn) error {
		k := key(kindPipeline, p.Name)
		existing, err := getJSON[model.AnnotationPipeline](txn, k)
		if err != nil {
			return err
		}
		if existing != nil {
			stored = existing
			return nil
		}
		stored = &p
		return putJSON(txn, k, p)
	})
	if err != nil {
		return nil, err
	}
	if *stored != p {
		s.logger.Warn("pipeline already registered with a different definition",
			"name", p.Name, "version", stored.Version, "rejected_version", p.Version)
	}
	return stored, nil
}

// GetPipeline returns the named pipeline, or nil with a warning.
func (s *Store) GetPipeline(ctx context.Context, name string) (*model.AnnotationPipeline, error) {
	var p *model.AnnotationPipeline
	err := s.view(ctx, "GetPipeline", func(txn *badger.Txn) error {
		var err error
		p, err = getJSON[model.AnnotationPipeline](txn, key(kindPipeline, name))
		return err
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		s.logger.Warn("pipeline not found", "name", name)
	}
	return p, nil
}

// ListPipelines returns every pipeline ordered by name.
func (s *Store) ListPipelines(ctx context.Context) ([]model.AnnotationPipeline, error) {
	var out []model.AnnotationPipeline
	err := s.view(ctx, "ListPipelines", func(txn *badger.Txn) error {
		return storage.ScanPrefix(txn, prefix(kindPipeline), false, func(_ []byte, item *badger.Item) error {
			p, err := decodeItem[model.AnnotationPipeline](item)
			if err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	return out, err
}
