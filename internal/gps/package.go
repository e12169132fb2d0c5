// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"fmt"
	"sort"
)

// Kind distinguishes package flavors contributed by different backends. Two
// packages are unified only if their kinds match.
type Kind uint8

const (
	GenericKind Kind = iota
	RPMKind
)

func (k Kind) String() string {
	switch k {
	case GenericKind:
		return "generic"
	case RPMKind:
		return "rpm"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind parses the name of a package kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "", "generic":
		return GenericKind, true
	case "rpm":
		return RPMKind, true
	}
	return GenericKind, false
}

// PackageID is the unification key of a package. Every loader reporting a
// package with the same ID contributes to a single Package in the cache.
type PackageID struct {
	Kind    Kind
	Name    string
	Version string
}

func (id PackageID) String() string {
	return id.Name + "-" + id.Version
}

// Package is a unified package node. Its relations are the union of what
// every contributing loader reported.
type Package struct {
	PackageID
	// Installed is true if any contributing loader reports the package as
	// present on the system.
	Installed bool

	provides  RelationSet
	requires  RelationSet
	upgrades  RelationSet
	conflicts RelationSet

	infos []loaderInfo
	// order is the position at which the package was first seen during the
	// load pass which built it.
	order int
}

type loaderInfo struct {
	l    Loader
	info PackageInfo
}

// EVR returns the epoch:version-release part of the package version.
func (p *Package) EVR() string {
	evr, _ := SplitArch(p.Version)
	return evr
}

// Arch returns the architecture folded into the package version, if any.
func (p *Package) Arch() string {
	_, arch := SplitArch(p.Version)
	return arch
}

// Provides returns the capabilities the package offers, including its own
// name.
func (p *Package) Provides() []Relation { return p.provides.All() }

// Requires returns the package's requirements.
func (p *Package) Requires() []Relation { return p.requires.All() }

// Upgrades returns the constraints naming packages this one may replace.
func (p *Package) Upgrades() []Relation { return p.upgrades.All() }

// Conflicts returns the package's conflicts and obsoletes.
func (p *Package) Conflicts() []Relation { return p.conflicts.All() }

// Loaders returns the loaders which contributed the package, in load order.
func (p *Package) Loaders() []Loader {
	ls := make([]Loader, len(p.infos))
	for k, li := range p.infos {
		ls[k] = li.l
	}
	return ls
}

// Info returns the metadata reported for the package by the first loader
// which produced it. Loaders may compute further details on demand.
func (p *Package) Info() (PackageInfo, error) {
	if len(p.infos) == 0 {
		return PackageInfo{}, nil
	}
	return p.infos[0].l.Info(p)
}

// LoaderInfo returns the metadata a specific loader reported at load time.
func (p *Package) LoaderInfo(l Loader) (PackageInfo, bool) {
	for _, li := range p.infos {
		if li.l == l {
			return li.info, true
		}
	}
	return PackageInfo{}, false
}

// provide reports the first provide of p satisfying r.
func (p *Package) provide(r Relation) (Relation, bool) {
	for _, prv := range p.provides.All() {
		if r.SatisfiedBy(prv) {
			return prv, true
		}
	}
	return Relation{}, false
}

func (p *Package) String() string {
	return p.PackageID.String()
}

// SortPackages orders packages by name, then by version (CompareVersions),
// then by architecture and kind.
func SortPackages(pkgs []*Package) {
	sort.Slice(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := CompareVersions(a.Version, b.Version); c != 0 {
			return c < 0
		}
		if a.Arch() != b.Arch() {
			return a.Arch() < b.Arch()
		}
		return a.Kind < b.Kind
	})
}
