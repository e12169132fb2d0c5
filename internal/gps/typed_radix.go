// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"github.com/armon/go-radix"
)

// Typed wrapper around a radix tree, so the rest of the cache never has to
// type assert.

// fileTrie maps file paths to the packages which own them.
type fileTrie struct {
	t *radix.Tree
}

func newFileTrie() fileTrie {
	return fileTrie{
		t: radix.New(),
	}
}

// Add records p as an owner of path. Owners are kept in the order they were
// added, without duplicates.
func (t fileTrie) Add(path string, p *Package) {
	owners, _ := t.Get(path)
	for _, o := range owners {
		if o == p {
			return
		}
	}
	t.t.Insert(path, append(owners, p))
}

// Get returns the owners of path, if any.
func (t fileTrie) Get(path string) ([]*Package, bool) {
	if v, has := t.t.Get(path); has {
		return v.([]*Package), has
	}
	return nil, false
}

// Len returns the number of distinct paths in the tree.
func (t fileTrie) Len() int {
	return t.t.Len()
}

// WalkPrefix calls fn, in lexical order, for every path under prefix. The
// walk stops early if fn returns true.
func (t fileTrie) WalkPrefix(prefix string, fn func(path string, owners []*Package) bool) {
	t.t.WalkPrefix(prefix, func(s string, v interface{}) bool {
		return fn(s, v.([]*Package))
	})
}
