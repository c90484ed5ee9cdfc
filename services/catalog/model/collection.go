// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"slices"
)

// DocumentCollection is a named, long-lived grouping of documents.
//
// ShortName is globally unique. RunKeys holds every run key ever
// scheduled against the collection, kept sorted; keys leave the set only
// through an explicit removal.
type DocumentCollection struct {
	ShortName   string   `json:"short_name" validate:"required,keysegment"`
	LongName    string   `json:"long_name,omitempty"`
	Description string   `json:"description,omitempty"`
	RunKeys     []string `json:"run_keys,omitempty" validate:"dive,required,keysegment"`
}

// HasRunKey reports whether key is registered on the collection.
func (c *DocumentCollection) HasRunKey(key string) bool {
	_, found := slices.BinarySearch(c.RunKeys, key)
	return found
}

// AddRunKey inserts key, keeping RunKeys sorted.
// It returns false when the key was already present.
func (c *DocumentCollection) AddRunKey(key string) bool {
	i, found := slices.BinarySearch(c.RunKeys, key)
	if found {
		return false
	}
	c.RunKeys = slices.Insert(c.RunKeys, i, key)
	return true
}

// RemoveRunKey deletes key. It returns false when the key was absent.
func (c *DocumentCollection) RemoveRunKey(key string) bool {
	i, found := slices.BinarySearch(c.RunKeys, key)
	if !found {
		return false
	}
	c.RunKeys = slices.Delete(c.RunKeys, i, i+1)
	return true
}

// normalizeRunKeys sorts and de-duplicates RunKeys in place.
func (c *DocumentCollection) normalizeRunKeys() {
	slices.Sort(c.RunKeys)
	c.RunKeys = slices.Compact(c.RunKeys)
}
