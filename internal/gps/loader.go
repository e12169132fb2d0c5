// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

// PackageInfo is descriptive metadata about a package. None of it takes part
// in resolution.
type PackageInfo struct {
	URL           string
	Size          int64
	InstalledSize int64
	Summary       string
	Description   string
	Group         string
	// Checksums maps a digest algorithm name to its hex value.
	Checksums map[string]string
}

// PackageData is everything a loader reports about one package.
type PackageData struct {
	ID        PackageID
	Installed bool

	Provides  []Relation
	Requires  []Relation
	Upgrades  []Relation
	Conflicts []Relation
	// Files are paths owned by the package. They become provides only when
	// some requirement names them; see Cache.ResolveFileProvides.
	Files []string

	Info PackageInfo
}

// Ingester receives packages from a Loader during a cache load pass.
type Ingester interface {
	// NewPackage unifies the data into the cache and returns the resulting
	// package. Reporting the same ID again merges relation sets.
	NewPackage(PackageData) *Package
	// Step advances load progress by one unit.
	Step()
}

// A Loader is a source of packages. Loaders are registered with a Cache and
// run, in registration order, each time the cache is loaded.
type Loader interface {
	// Name identifies the loader, typically by its channel alias.
	Name() string
	// Reset discards any state retained from a previous load.
	Reset()
	// Load reports every package of the source to the ingester.
	Load(Ingester) error
	// LoadSteps estimates how many progress steps Load will take.
	LoadSteps() int
	// Info returns metadata for a package this loader contributed.
	Info(*Package) (PackageInfo, error)
}

// Progress observes cache load passes.
type Progress interface {
	Start(total int)
	Step()
}
