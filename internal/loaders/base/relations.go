// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package base

import (
	"strings"

	"github.com/endianspa/smart/internal/gps"
	"github.com/pkg/errors"
)

// Targets holds the relations of a package written as target strings, e.g.
// "libfoo >= 1.2".
type Targets struct {
	Provides  []string
	Requires  []string
	Conflicts []string
	Obsoletes []string
	Upgrades  []string
}

// Apply parses every target into d. Provides naming a path become pending
// file provides, and each obsoletes becomes both an upgrade and a conflict.
func (t Targets) Apply(d *gps.PackageData) error {
	for _, s := range t.Provides {
		name, op, version, err := gps.ParseTarget(s)
		if err != nil {
			return err
		}
		if strings.HasPrefix(name, "/") {
			d.Files = append(d.Files, name)
			continue
		}
		if op != gps.OpNone && op != gps.OpEQ {
			return errors.Errorf("provide %q must use =", s)
		}
		d.Provides = append(d.Provides, gps.Relation{Kind: gps.Provides, Name: name, Version: version})
	}

	var err error
	if d.Requires, err = appendRelations(d.Requires, gps.Requires, t.Requires); err != nil {
		return err
	}
	if d.Conflicts, err = appendRelations(d.Conflicts, gps.Conflicts, t.Conflicts); err != nil {
		return err
	}
	if d.Upgrades, err = appendRelations(d.Upgrades, gps.Upgrades, t.Upgrades); err != nil {
		return err
	}
	obs, err := appendRelations(nil, gps.Obsoletes, t.Obsoletes)
	if err != nil {
		return err
	}
	for _, r := range obs {
		d.Conflicts = append(d.Conflicts, r)
		r.Kind = gps.Upgrades
		d.Upgrades = append(d.Upgrades, r)
	}
	return nil
}

func appendRelations(out []gps.Relation, kind gps.RelKind, targets []string) ([]gps.Relation, error) {
	for _, s := range targets {
		name, op, version, err := gps.ParseTarget(s)
		if err != nil {
			return nil, err
		}
		out = append(out, gps.Relation{Kind: kind, Name: name, Op: op, Version: version})
	}
	return out, nil
}
