// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "regexp"

// targetRE matches "name", "name op version" and the spaceless "nameopversion".
// The name is the longest run of characters which are neither whitespace nor
// comparison operators.
var targetRE = regexp.MustCompile(`^\s*([^\s<>=]+)\s*(?:([<>=]+)\s*(\S+))?\s*$`)

// ParseTarget splits a target string such as "foo >= 1.0" into its name,
// operator and version. A target without a version yields OpNone.
func ParseTarget(target string) (name string, op Op, version string, err error) {
	m := targetRE.FindStringSubmatch(target)
	if m == nil {
		return "", OpNone, "", &InvalidTargetError{Target: target}
	}
	name, version = m[1], m[3]
	if m[2] == "" {
		return name, OpNone, "", nil
	}
	op, err = ParseOp(m[2])
	if err != nil {
		return "", OpNone, "", &InvalidTargetError{Target: target}
	}
	return name, op, version, nil
}

// Matcher selects packages by name and an optional version constraint.
type Matcher struct {
	target  string
	name    string
	op      Op
	version string
}

// NewMatcher parses target into a Matcher.
func NewMatcher(target string) (*Matcher, error) {
	name, op, version, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	return &Matcher{target: target, name: name, op: op, version: version}, nil
}

func (m *Matcher) String() string { return m.target }

// Name returns the package name the matcher selects.
func (m *Matcher) Name() string { return m.name }

// Matches reports whether p has the matcher's name and a version satisfying
// its constraint.
func (m *Matcher) Matches(p *Package) bool {
	return p.Name == m.name && MatchVersion(p.Version, m.op, m.version)
}

// Filter returns the packages matching m, preserving their order.
func (m *Matcher) Filter(pkgs []*Package) []*Package {
	var out []*Package
	for _, p := range pkgs {
		if m.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Filter returns the packages matching target, preserving their order.
func Filter(pkgs []*Package, target string) ([]*Package, error) {
	m, err := NewMatcher(target)
	if err != nil {
		return nil, err
	}
	return m.Filter(pkgs), nil
}
