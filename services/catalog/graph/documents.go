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

	"github.com/dgraph-io/badger/v4"

	"github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/model"
	storage "github.com/UCDenver-ccp/ccp-nlp-pipelines-sub000/services/catalog/storage/badger"
)

// AddDocument registers doc as a member of collection.
//
// Description:
//
//	The collection is upserted first. Documents are unique by ID: adding
//	a known document links it to collection and fills descriptive fields
//	that are still empty, but never overwrites a value already stored.
//	A PubMed id is indexed for FindDocument. doc.ID is normalized like
//	every lookup, so "PMC1.nxml.gz" registers document "PMC1".
//
// Outputs:
//
//	error - Wraps model.ErrInvalid for an invalid doc or collection.
func (s *Store) AddDocument(ctx context.Context, doc model.Document, collection model.DocumentCollection) error {
	doc.ID = model.NormalizeIdentifier(doc.ID)
	if err := model.Validate(&doc); err != nil {
		return err
	}
	if err := model.Validate(&collection); err != nil {
		return err
	}
	doc.Error = nil

	return s.update(ctx, "AddDocument", func(txn *badger.Txn) error {
		ck := key(kindCollection, collection.ShortName)
		existingColl, err := getJSON[model.DocumentCollection](txn, ck)
		if err != nil {
			return err
		}
		if existingColl == nil {
			existingColl = &collection
		} else {
			mergeRunKeys(existingColl, collection.RunKeys)
		}
		// Written even when unchanged: a prune that read this node must
		// conflict with the new membership.
		if err := putJSON(txn, ck, existingColl); err != nil {
			return err
		}

		dk := key(kindDocument, doc.ID)
		stored, err := getJSON[model.Document](txn, dk)
		if err != nil {
			return err
		}
		if stored == nil {
			stored = &doc
		} else {
			mergeDocument(stored, doc)
		}
		if err := putJSON(txn, dk, stored); err != nil {
			return err
		}

		if stored.PMID != "" {
			if err := s.indexPMID(txn, stored.PMID, stored.ID); err != nil {
				return err
			}
		}

		if err := txn.Set(key(kindMember, collection.ShortName, doc.ID), nil); err != nil {
			return err
		}
		return txn.Set(key(kindMemberOf, doc.ID, collection.ShortName), nil)
	})
}

// mergeDocument fills empty fields of stored from incoming.
func mergeDocument(stored *model.Document, incoming model.Document) {
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&stored.PMID, incoming.PMID)
	fill(&stored.SourceFile, incoming.SourceFile)
	fill(&stored.TextFile, incoming.TextFile)
	fill(&stored.SourceURL, incoming.SourceURL)
	fill(&stored.License, incoming.License)
	fill(&stored.Journal, incoming.Journal)
	fill(&stored.Citation, incoming.Citation)
	if stored.SourceFormat == "" {
		stored.SourceFormat = incoming.SourceFormat
	}
}

func (s *Store) indexPMID(txn *badger.Txn, pmid, docID string) error {
	k := key(kindIndex, string(model.IdentifierPubMed), pmid)
	current, err := getString(txn, k)
	if err != nil {
		return err
	}
	switch current {
	case docID:
		return nil
	case "":
		return txn.Set(k, []byte(docID))
	default:
		s.logger.Warn("pmid already indexed to another document",
			"pmid", pmid, "document", current, "rejected", docID)
		return nil
	}
}

// AddFileVersion sets the source or text file path of a document.
//
// Description:
//
//	Both fields are write-once. Setting a field that already holds a value
//	logs a warning and keeps the stored value. An unknown document logs a
//	warning and changes nothing.
//
// Outputs:
//
//	error - Wraps model.ErrUnsupportedFileVersion for an unknown version.
func (s *Store) AddFileVersion(ctx context.Context, documentID, file string, version model.FileVersion) error {
	if _, err := (model.Document{}).File(version); err != nil {
		return err
	}
	documentID = model.NormalizeIdentifier(documentID)

	return s.update(ctx, "AddFileVersion", func(txn *badger.Txn) error {
		dk := key(kindDocument, documentID)
		doc, err := getJSON[model.Document](txn, dk)
		if err != nil {
			return err
		}
		if doc == nil {
			s.logger.Warn("document not found", "id", documentID)
			return nil
		}

		current, _ := doc.File(version)
		if current != "" {
			s.logger.Warn("write-once field already set",
				"id", documentID, "version", version.String(),
				"stored", current, "rejected", file)
			return nil
		}

		switch version {
		case model.VersionSource:
			doc.SourceFile = file
		case model.VersionText:
			doc.TextFile = file
		}
		return putJSON(txn, dk, doc)
	})
}

// GetDocument returns the document with the given collection-native id,
// or nil with a warning.
func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	return s.FindDocument(ctx, model.IdentifierCollection, id)
}

// FindDocument resolves an external identifier to a document.
//
// Description:
//
//	id is normalized first, so a file name such as "PMC1234.nxml.gz"
//	finds document "PMC1234". An unknown document returns nil and logs
//	a warning.
//
// Outputs:
//
//	*model.Document - The document, nil if not found.
//	error - Wraps model.ErrUnsupportedIdentifierType for an unknown type.
func (s *Store) FindDocument(ctx context.Context, idType model.IdentifierType, id string) (*model.Document, error) {
	if !idType.Valid() {
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedIdentifierType, string(idType))
	}
	id = model.NormalizeIdentifier(id)

	var doc *model.Document
	err := s.view(ctx, "FindDocument", func(txn *badger.Txn) error {
		var err error
		doc, err = resolveDocument(txn, idType, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		s.logger.Warn("document not found", "id_type", string(idType), "id", id)
	}
	return doc, nil
}

// resolveDocument loads the document for a normalized identifier.
func resolveDocument(txn *badger.Txn, idType model.IdentifierType, id string) (*model.Document, error) {
	docID := id
	if idType == model.IdentifierPubMed {
		var err error
		docID, err = getString(txn, key(kindIndex, string(model.IdentifierPubMed), id))
		if err != nil || docID == "" {
			return nil, err
		}
	}
	return getJSON[model.Document](txn, key(kindDocument, docID))
}

// CollectionMembers returns the member documents ordered by id. An
// unknown collection returns nil and logs a warning.
func (s *Store) CollectionMembers(ctx context.Context, shortName string) ([]model.Document, error) {
	var docs []model.Document
	found := false
	err := s.view(ctx, "CollectionMembers", func(txn *badger.Txn) error {
		ok, err := exists(txn, key(kindCollection, shortName))
		if err != nil || !ok {
			return err
		}
		found = true

		ids, err := memberIDs(txn, shortName)
		if err != nil {
			return err
		}
		for _, id := range ids {
			doc, err := getJSON[model.Document](txn, key(kindDocument, id))
			if err != nil {
				return err
			}
			if doc != nil {
				docs = append(docs, *doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.Warn("collection not found", "short_name", shortName)
	}
	return docs, nil
}

// DocumentCollections returns the short names of every collection that
// contains the document.
func (s *Store) DocumentCollections(ctx context.Context, documentID string) ([]string, error) {
	documentID = model.NormalizeIdentifier(documentID)
	var names []string
	err := s.view(ctx, "DocumentCollections", func(txn *badger.Txn) error {
		var err error
		names, err = containingCollections(txn, documentID)
		return err
	})
	return names, err
}

func memberIDs(txn *badger.Txn, shortName string) ([]string, error) {
	var ids []string
	err := storage.ScanPrefix(txn, prefix(kindMember, shortName), true, func(k []byte, _ *badger.Item) error {
		ids = append(ids, lastPart(k))
		return nil
	})
	return ids, err
}

func containingCollections(txn *badger.Txn, documentID string) ([]string, error) {
	var names []string
	err := storage.ScanPrefix(txn, prefix(kindMemberOf, documentID), true, func(k []byte, _ *badger.Item) error {
		names = append(names, lastPart(k))
		return nil
	})
	return names, err
}
