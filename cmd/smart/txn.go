// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/endianspa/smart"
	"github.com/endianspa/smart/internal/feedback"
	"github.com/endianspa/smart/internal/gps"
	"github.com/pkg/errors"
)

// matchSpecs returns, for each spec, the cached packages it selects. A spec
// selecting nothing is an error.
func matchSpecs(cache *gps.Cache, specs []string, installedOnly bool) ([][]*gps.Package, error) {
	out := make([][]*gps.Package, 0, len(specs))
	for _, spec := range specs {
		m, err := gps.NewMatcher(spec)
		if err != nil {
			return nil, err
		}
		var pkgs []*gps.Package
		for _, p := range m.Filter(cache.Packages(m.Name())) {
			if p.Installed || !installedOnly {
				pkgs = append(pkgs, p)
			}
		}
		if len(pkgs) == 0 {
			if installedOnly {
				return nil, errors.Errorf("no installed package matches %q", spec)
			}
			return nil, errors.Errorf("no package matches %q", spec)
		}
		out = append(out, pkgs)
	}
	return out, nil
}

// newest returns the highest versioned package, the first one on ties.
func newest(pkgs []*gps.Package) *gps.Package {
	var best *gps.Package
	for _, p := range pkgs {
		if best == nil || gps.CompareVersions(p.Version, best.Version) > 0 {
			best = p
		}
	}
	return best
}

// runTransaction resolves reqs and prints the resulting plan.
func runTransaction(ctx *smart.Ctx, cache *gps.Cache, policy gps.Policy, reqs []gps.Request) error {
	txn, err := ctx.NewTransaction(cache, policy)
	if err != nil {
		return err
	}
	for _, r := range reqs {
		if err := txn.Enqueue(r.Package, r.Action); err != nil {
			return err
		}
	}

	queue := txn.Queue()
	if ctx.Verbose {
		for _, r := range queue {
			ctx.Err.Printf("queued %s", r)
		}
	}

	res := txn.Run()
	if !res.OK() {
		feedback.LogFailures(ctx.Err, res.Failures)
		return errors.Errorf("%d of %d requests could not be satisfied", len(res.Failures), len(queue))
	}
	feedback.LogResult(ctx.Out, res)
	return nil
}
