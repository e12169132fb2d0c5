// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

type pkgState uint8

const (
	stKeep pkgState = iota
	stInstall
	stRemove
)

// selection is the set of package changes made so far by a run. Packages not
// in it keep their installed state from the cache.
type selection struct {
	ops   map[*Package]pkgState
	order []*Package
	// origin maps a changed package to the index of the request which
	// changed it, or -1 for default actions.
	origin map[*Package]int
}

func newSelection() *selection {
	return &selection{
		ops:    make(map[*Package]pkgState),
		origin: make(map[*Package]int),
	}
}

// clone returns a snapshot which the run can restore on failure.
func (s *selection) clone() *selection {
	c := &selection{
		ops:    make(map[*Package]pkgState, len(s.ops)),
		order:  make([]*Package, len(s.order)),
		origin: make(map[*Package]int, len(s.origin)),
	}
	for p, st := range s.ops {
		c.ops[p] = st
	}
	for p, o := range s.origin {
		c.origin[p] = o
	}
	copy(c.order, s.order)
	return c
}

func (s *selection) get(p *Package) pkgState {
	return s.ops[p]
}

func (s *selection) set(p *Package, st pkgState, origin int) {
	if _, has := s.ops[p]; !has {
		s.order = append(s.order, p)
		s.origin[p] = origin
	}
	s.ops[p] = st
}

// installed reports whether p is in the final installed set.
func (s *selection) installed(p *Package) bool {
	switch s.ops[p] {
	case stInstall:
		return true
	case stRemove:
		return false
	}
	return p.Installed
}

// plan returns the sorted install and remove sets.
func (s *selection) plan() (install, remove []*Package) {
	for _, p := range s.order {
		switch s.ops[p] {
		case stInstall:
			install = append(install, p)
		case stRemove:
			remove = append(remove, p)
		}
	}
	SortPackages(install)
	SortPackages(remove)
	return install, remove
}
