// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Cache is the unified view over every package reported by its loaders. It
// is rebuilt from scratch by each call to Load.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	l        *logrus.Logger
	loaders  []Loader
	progress Progress
	m        *Metrics

	// idx is nil until a load pass succeeds.
	idx *cacheIndex
}

// NewCache returns an empty cache. A nil logger discards all output.
func NewCache(l *logrus.Logger) *Cache {
	if l == nil {
		l = discardLogger()
	}
	return &Cache{l: l}
}

// AddLoader registers a loader. Loaders run in registration order.
func (c *Cache) AddLoader(l Loader) {
	for _, have := range c.loaders {
		if have == l {
			return
		}
	}
	c.loaders = append(c.loaders, l)
}

// RemoveLoader unregisters a loader. Its packages disappear at the next
// load.
func (c *Cache) RemoveLoader(l Loader) {
	for k, have := range c.loaders {
		if have == l {
			c.loaders = append(c.loaders[:k:k], c.loaders[k+1:]...)
			return
		}
	}
}

// Loaders returns the registered loaders in registration order.
func (c *Cache) Loaders() []Loader {
	out := make([]Loader, len(c.loaders))
	copy(out, c.loaders)
	return out
}

// SetProgress sets the observer notified during load passes.
func (c *Cache) SetProgress(p Progress) { c.progress = p }

// SetMetrics attaches collectors updated after each load pass.
func (c *Cache) SetMetrics(m *Metrics) { c.m = m }

// Reset discards all packages and resets every loader.
func (c *Cache) Reset() {
	c.idx = nil
	for _, l := range c.loaders {
		l.Reset()
	}
}

// LoadSteps is the sum of the registered loaders' step estimates.
func (c *Cache) LoadSteps() int {
	var n int
	for _, l := range c.loaders {
		n += l.LoadSteps()
	}
	return n
}

// Load rebuilds the cache by running every loader in order. If any loader
// fails, a *LoadError is returned and the cache is left empty.
func (c *Cache) Load() error {
	start := time.Now()
	c.Reset()

	pass := &loadPass{c: c, idx: newCacheIndex()}
	if c.progress != nil {
		c.progress.Start(c.LoadSteps())
	}
	for _, l := range c.loaders {
		pass.cur = l
		if err := l.Load(pass); err != nil {
			var le *LoadError
			if !errors.As(err, &le) {
				le = &LoadError{Loader: l.Name(), Err: err}
			}
			c.l.WithFields(logrus.Fields{
				"loader": l.Name(),
				"err":    le.Err,
			}).Error("cache load failed")
			if c.m != nil {
				c.m.loadErrors.Inc()
			}
			return le
		}
	}
	c.idx = pass.idx

	if c.l.Level >= logrus.DebugLevel {
		c.l.WithFields(logrus.Fields{
			"loaders":  len(c.loaders),
			"packages": len(c.idx.packages),
			"files":    c.idx.files.Len(),
			"took":     time.Since(start),
		}).Debug("cache loaded")
	}
	if c.m != nil {
		c.m.packages.Set(float64(len(c.idx.packages)))
		c.m.phase.WithLabelValues("load").Observe(time.Since(start).Seconds())
	}
	return nil
}

// Len returns the number of unified packages.
func (c *Cache) Len() int {
	if c.idx == nil {
		return 0
	}
	return len(c.idx.packages)
}

// Packages returns, in first-seen order, every package whose name or
// provides equal filter. An empty filter returns all packages.
func (c *Cache) Packages(filter string) []*Package {
	if c.idx == nil {
		return nil
	}
	if filter == "" {
		out := make([]*Package, len(c.idx.packages))
		copy(out, c.idx.packages)
		return out
	}
	return c.WhoProvides(filter)
}

// Package returns the package with the given ID.
func (c *Cache) Package(id PackageID) (*Package, bool) {
	if c.idx == nil {
		return nil, false
	}
	p, ok := c.idx.byID[id]
	return p, ok
}

// WhoProvides returns the packages providing name with any version, in
// first-seen order.
func (c *Cache) WhoProvides(name string) []*Package {
	return c.lookup(func(x *cacheIndex) []*Package { return x.provided[name] })
}

// WhoProvidesRel returns the packages with a provide satisfying r, in
// first-seen order.
func (c *Cache) WhoProvidesRel(r Relation) []*Package {
	var out []*Package
	for _, p := range c.WhoProvides(r.Name) {
		if _, ok := p.provide(r); ok {
			out = append(out, p)
		}
	}
	return out
}

// WhoRequires returns the packages with a requirement on name.
func (c *Cache) WhoRequires(name string) []*Package {
	return c.lookup(func(x *cacheIndex) []*Package { return x.required[name] })
}

// WhoConflicts returns the packages with a conflict or obsoletes on name.
func (c *Cache) WhoConflicts(name string) []*Package {
	return c.lookup(func(x *cacheIndex) []*Package { return x.conflicted[name] })
}

// WhoUpgrades returns the packages with an upgrade relation on name.
func (c *Cache) WhoUpgrades(name string) []*Package {
	return c.lookup(func(x *cacheIndex) []*Package { return x.upgraded[name] })
}

func (c *Cache) lookup(fn func(*cacheIndex) []*Package) []*Package {
	if c.idx == nil {
		return nil
	}
	src := fn(c.idx)
	if len(src) == 0 {
		return nil
	}
	out := make([]*Package, len(src))
	copy(out, src)
	return out
}

// RequiredFiles returns the set of file paths named by any requirement.
func (c *Cache) RequiredFiles() map[string]struct{} {
	files := make(map[string]struct{})
	if c.idx == nil {
		return files
	}
	for name := range c.idx.required {
		if len(name) > 0 && name[0] == '/' {
			files[name] = struct{}{}
		}
	}
	return files
}

// ResolveFileProvides turns each pending file ownership named in paths into
// a real provide on its owners. Paths which no package owns are ignored.
func (c *Cache) ResolveFileProvides(paths map[string]struct{}) int {
	if c.idx == nil {
		return 0
	}
	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	var n int
	for _, path := range sorted {
		owners, has := c.idx.files.Get(path)
		if !has {
			continue
		}
		for _, p := range owners {
			if c.idx.addProvide(p, Relation{Kind: Provides, Name: path}) {
				n++
			}
		}
	}
	if n > 0 && c.l.Level >= logrus.DebugLevel {
		c.l.WithFields(logrus.Fields{
			"requested": len(paths),
			"added":     n,
		}).Debug("resolved file provides")
	}
	return n
}

// PendingFileProvides returns, sorted, the owned file paths under prefix.
func (c *Cache) PendingFileProvides(prefix string) []string {
	if c.idx == nil {
		return nil
	}
	var out []string
	c.idx.files.WalkPrefix(prefix, func(path string, _ []*Package) bool {
		out = append(out, path)
		return false
	})
	return out
}

// loadPass is the Ingester handed to loaders. It builds into a private index
// which is only published once every loader has succeeded.
type loadPass struct {
	c   *Cache
	idx *cacheIndex
	cur Loader
}

func (lp *loadPass) NewPackage(d PackageData) *Package {
	return lp.idx.unify(lp.cur, d)
}

func (lp *loadPass) Step() {
	if lp.c.progress != nil {
		lp.c.progress.Step()
	}
}

type cacheIndex struct {
	packages []*Package
	byID     map[PackageID]*Package

	provided   map[string][]*Package
	required   map[string][]*Package
	upgraded   map[string][]*Package
	conflicted map[string][]*Package

	files fileTrie
}

func newCacheIndex() *cacheIndex {
	return &cacheIndex{
		byID:       make(map[PackageID]*Package),
		provided:   make(map[string][]*Package),
		required:   make(map[string][]*Package),
		upgraded:   make(map[string][]*Package),
		conflicted: make(map[string][]*Package),
		files:      newFileTrie(),
	}
}

// unify merges d into the package with the same ID, creating it if needed.
// A new package implicitly provides its own name at its version and
// upgrades any older package of the same name.
func (x *cacheIndex) unify(l Loader, d PackageData) *Package {
	p, ok := x.byID[d.ID]
	if !ok {
		p = &Package{PackageID: d.ID, order: len(x.packages)}
		x.byID[d.ID] = p
		x.packages = append(x.packages, p)

		evr := p.EVR()
		x.addProvide(p, Relation{Kind: NameProvides, Name: p.Name, Version: evr})
		x.addEdge(p, &p.upgrades, x.upgraded, Relation{Kind: Upgrades, Name: p.Name, Op: OpLT, Version: evr})
	}
	if d.Installed {
		p.Installed = true
	}

	evr := p.EVR()
	for _, r := range d.Provides {
		if r.Name == p.Name && r.Version == evr {
			r.Kind = NameProvides
		}
		x.addProvide(p, r)
	}
	for _, r := range d.Requires {
		r.Kind = Requires
		x.addEdge(p, &p.requires, x.required, r)
	}
	for _, r := range d.Upgrades {
		r.Kind = Upgrades
		x.addEdge(p, &p.upgrades, x.upgraded, r)
	}
	for _, r := range d.Conflicts {
		if r.Kind != Obsoletes {
			r.Kind = Conflicts
		}
		x.addEdge(p, &p.conflicts, x.conflicted, r)
	}
	for _, f := range d.Files {
		x.files.Add(f, p)
	}

	for _, li := range p.infos {
		if li.l == l {
			return p
		}
	}
	p.infos = append(p.infos, loaderInfo{l: l, info: d.Info})
	return p
}

func (x *cacheIndex) addProvide(p *Package, r Relation) bool {
	if r.Kind != NameProvides {
		r.Kind = Provides
	}
	return x.addEdge(p, &p.provides, x.provided, r)
}

func (x *cacheIndex) addEdge(p *Package, set *RelationSet, rev map[string][]*Package, r Relation) bool {
	if !set.InsertUnique(r) {
		return false
	}
	rev[r.Name] = insertOrdered(rev[r.Name], p)
	return true
}

// insertOrdered adds p to list, keeping it sorted by first-seen order.
func insertOrdered(list []*Package, p *Package) []*Package {
	k := sort.Search(len(list), func(i int) bool { return list[i].order >= p.order })
	if k < len(list) && list[k] == p {
		return list
	}
	list = append(list, nil)
	copy(list[k+1:], list[k:])
	list[k] = p
	return list
}
