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

// UpsertCollection registers c, or merges it into the existing node with
// the same short name. Merging only adds run keys; descriptive fields of
// an existing node are left unchanged.
func (s *Store) UpsertCollection(ctx context.Context, c model.DocumentCollection) error {
	if err := model.Validate(&c); err != nil {
		return err
	}

	return s.update(ctx, "UpsertCollection", func(txn *badger.Txn) error {
		k := key(kindCollection, c.ShortName)
		existing, err := getJSON[model.DocumentCollection](txn, k)
		if err != nil {
			return err
		}
		if existing == nil {
			s.logger.Debug("collection registered", "short_name", c.ShortName)
			return putJSON(txn, k, c)
		}

		if !mergeRunKeys(existing, c.RunKeys) {
			return nil
		}
		return putJSON(txn, k, existing)
	})
}

// mergeRunKeys adds keys to c and reports whether anything changed.
func mergeRunKeys(c *model.DocumentCollection, keys []string) bool {
	changed := false
	for _, rk := range keys {
		if c.AddRunKey(rk) {
			changed = true
		}
	}
	return changed
}

// AddRunKey records that run runKey applies to the collection.
// Adding a key already present is a no-op.
func (s *Store) AddRunKey(ctx context.Context, shortName, runKey string) error {
	return s.mutateRunKeys(ctx, "AddRunKey", shortName, func(c *model.DocumentCollection) bool {
		return c.AddRunKey(runKey)
	})
}

// RemoveRunKey drops runKey from the collection's run-key set. Removing
// a key that is not present logs a warning and changes nothing.
func (s *Store) RemoveRunKey(ctx context.Context, shortName, runKey string) error {
	return s.mutateRunKeys(ctx, "RemoveRunKey", shortName, func(c *model.DocumentCollection) bool {
		if c.RemoveRunKey(runKey) {
			return true
		}
		s.logger.Warn("run key not present on collection",
			"short_name", shortName, "run_key", runKey)
		return false
	})
}

func (s *Store) mutateRunKeys(ctx context.Context, op, shortName string, mutate func(*model.DocumentCollection) bool) error {
	return s.update(ctx, op, func(txn *badger.Txn) error {
		k := key(kindCollection, shortName)
		c, err := getJSON[model.DocumentCollection](txn, k)
		if err != nil {
			return err
		}
		if c == nil {
			s.logger.Warn("collection not found", "short_name", shortName)
			return nil
		}
		if !mutate(c) {
			return nil
		}
		if err := model.Validate(c); err != nil {
			return err
		}
		return putJSON(txn, k, c)
	})
}

// GetCollection returns the collection, or nil with a warning if unknown.
func (s *Store) GetCollection(ctx context.Context, shortName string) (*model.DocumentCollection, error) {
	var c *model.DocumentCollection
	err := s.view(ctx, "GetCollection", func(txn *badger.Txn) error {
		var err error
		c, err = getJSON[model.DocumentCollection](txn, key(kindCollection, shortName))
		return err
	})
	if err != nil {
		return nil, err
	}
	if c == nil {
		s.logger.Warn("collection not found", "short_name", shortName)
	}
	return c, nil
}

// ListCollections returns every collection ordered by short name.
func (s *Store) ListCollections(ctx context.Context) ([]model.DocumentCollection, error) {
	var out []model.DocumentCollection
	err := s.view(ctx, "ListCollections", func(txn *badger.Txn) error {
		return storage.ScanPrefix(txn, prefix(kindCollection), false, func(_ []byte, item *badger.Item) error {
			c, err := decodeItem[model.DocumentCollection](item)
			if err != nil {
				return err
			}
			out = append(out, c)
			return nil
		})
	})
	return out, err
}

// DocumentCount returns the number of member documents. An unknown
// collection counts as zero and logs a warning.
func (s *Store) DocumentCount(ctx context.Context, shortName string) (int, error) {
	n := 0
	found := false
	err := s.view(ctx, "DocumentCount", func(txn *badger.Txn) error {
		ok, err := exists(txn, key(kindCollection, shortName))
		if err != nil || !ok {
			return err
		}
		found = true
		n = storage.CountPrefix(txn, prefix(kindMember, shortName))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		s.logger.Warn("collection not found", "short_name", shortName)
	}
	return n, nil
}

// RemoveEmptyDocumentCollections deletes every collection without member
// documents and returns their short names in order.
//
// Description:
//
//	The collection node is read before it is deleted and AddDocument
//	always rewrites it, so a membership committed while the prune runs
//	makes the prune conflict and retry against the new state.
func (s *Store) RemoveEmptyDocumentCollections(ctx context.Context) ([]string, error) {
	var removed []string
	err := s.update(ctx, "RemoveEmptyDocumentCollections", func(txn *badger.Txn) error {
		var err error
		removed, err = pruneEmpty(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, name := range removed {
		s.logger.Info("removed empty collection", "short_name", name)
	}
	return removed, nil
}

// pruneEmpty deletes the member-less collections visible to txn.
func pruneEmpty(txn *badger.Txn) ([]string, error) {
	var names []string
	err := storage.ScanPrefix(txn, prefix(kindCollection), true, func(k []byte, _ *badger.Item) error {
		names = append(names, lastPart(k))
		return nil
	})
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, name := range names {
		if storage.HasPrefix(txn, prefix(kindMember, name)) {
			continue
		}
		ck := key(kindCollection, name)
		ok, err := exists(txn, ck)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := txn.Delete(ck); err != nil {
			return nil, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}
