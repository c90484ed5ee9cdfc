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
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Keyspace
//
// Nodes and relationships are stored as badger keys made of a one-letter
// kind followed by NUL-separated parts. Relationships are keys with empty
// values, so membership and output lookups are keys-only prefix scans.
//
//	c ∅ <short>                       collection node
//	d ∅ <doc>                         document node (error slot inline)
//	x ∅ pmid ∅ <pmid>                 PubMed id → document id
//	m ∅ <short> ∅ <doc>               has-member edge
//	r ∅ <doc> ∅ <short>               member-of edge (reverse of m)
//	o ∅ <doc> ∅ <runKey> ∅ <output>   has-outputs edge + output node
//	e ∅ <doc> ∅ <runKey>              error record per (document, run key)
//	p ∅ <name>                        pipeline node
//	meta ∅ schema                     schema version
const (
	kindCollection = "c"
	kindDocument   = "d"
	kindIndex      = "x"
	kindMember     = "m"
	kindMemberOf   = "r"
	kindOutput     = "o"
	kindError      = "e"
	kindPipeline   = "p"
	kindMeta       = "meta"
)

const sep = byte(0)

// schemaVersion is written on first open and checked on every later open.
const schemaVersion = "1"

// key joins parts into a node or edge key.
func key(parts ...string) []byte {
	var b bytes.Buffer
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(p)
	}
	return b.Bytes()
}

// prefix is key with a trailing separator, for scanning children.
func prefix(parts ...string) []byte {
	return append(key(parts...), sep)
}

// lastPart returns the final NUL-separated part of k.
func lastPart(k []byte) string {
	if i := bytes.LastIndexByte(k, sep); i >= 0 {
		return string(k[i+1:])
	}
	return string(k)
}

// splitKey splits k into its parts.
func splitKey(k []byte) []string {
	raw := bytes.Split(k, []byte{sep})
	parts := make([]string, len(raw))
	for i, r := range raw {
		parts[i] = string(r)
	}
	return parts
}

// getJSON decodes the value at k into a new T.
// A missing key yields (nil, nil).
func getJSON[T any](txn *badger.Txn, k []byte) (*T, error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("decode %q: %w", k, err)
	}
	return &v, nil
}

// decodeItem decodes an iterator item's value into a T.
func decodeItem[T any](item *badger.Item) (T, error) {
	var v T
	err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	return v, err
}

// putJSON encodes v and stores it at k.
func putJSON(txn *badger.Txn, k []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", k, err)
	}
	return txn.Set(k, data)
}

// getString returns the raw string value at k, empty if absent.
func getString(txn *badger.Txn, k []byte) (string, error) {
	item, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	return string(val), err
}

// exists reports whether k is present.
func exists(txn *badger.Txn, k []byte) (bool, error) {
	_, err := txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}
