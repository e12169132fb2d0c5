// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "sort"

// Well known package flags.
const (
	// FlagLock pins the install state of matching packages.
	FlagLock = "lock"
	// FlagMultiVersion lets several versions of a package be installed side
	// by side.
	FlagMultiVersion = "multi-version"
	// FlagMultiArch lets the same version of a package be installed for
	// several architectures.
	FlagMultiArch = "multi-arch"
	// FlagNew marks packages which appeared since the last cache update.
	FlagNew = "new"
)

// FlagTarget is one version restriction attached to a flagged package name.
// A target with OpNone matches every version.
type FlagTarget struct {
	Op      Op
	Version string
}

func (t FlagTarget) String() string {
	if t.Op == OpNone {
		return ""
	}
	return t.Op.String() + " " + t.Version
}

func (t FlagTarget) matches(version string) bool {
	return MatchVersion(version, t.Op, t.Version)
}

// PackageFlags maps flag names to package names to version targets. It is
// not safe for concurrent use.
type PackageFlags struct {
	m map[string]map[string][]FlagTarget
}

// NewPackageFlags returns an empty flag set.
func NewPackageFlags() *PackageFlags {
	return &PackageFlags{m: make(map[string]map[string][]FlagTarget)}
}

// Set adds a target for name under flag. Adding a target which is already
// present is a no-op.
func (f *PackageFlags) Set(flag, name string, op Op, version string) {
	if f.m == nil {
		f.m = make(map[string]map[string][]FlagTarget)
	}
	names, ok := f.m[flag]
	if !ok {
		names = make(map[string][]FlagTarget)
		f.m[flag] = names
	}
	t := FlagTarget{Op: op, Version: version}
	for _, have := range names[name] {
		if have == t {
			return
		}
	}
	names[name] = append(names[name], t)
}

// Remove deletes the given target and reports whether it was present. Empty
// names and flags are pruned.
func (f *PackageFlags) Remove(flag, name string, op Op, version string) bool {
	names, ok := f.m[flag]
	if !ok {
		return false
	}
	ts := names[name]
	t := FlagTarget{Op: op, Version: version}
	for k, have := range ts {
		if have != t {
			continue
		}
		ts = append(ts[:k:k], ts[k+1:]...)
		if len(ts) == 0 {
			delete(names, name)
		} else {
			names[name] = ts
		}
		if len(names) == 0 {
			delete(f.m, flag)
		}
		return true
	}
	return false
}

// SetTarget parses a target string such as "foo >= 1.0" and sets it under
// flag.
func (f *PackageFlags) SetTarget(flag, target string) error {
	name, op, version, err := ParseTarget(target)
	if err != nil {
		return err
	}
	f.Set(flag, name, op, version)
	return nil
}

// RemoveTarget parses a target string and removes it from flag.
func (f *PackageFlags) RemoveTarget(flag, target string) (bool, error) {
	name, op, version, err := ParseTarget(target)
	if err != nil {
		return false, err
	}
	return f.Remove(flag, name, op, version), nil
}

// Matches reports whether any target of name under flag admits version.
func (f *PackageFlags) Matches(flag, name, version string) bool {
	if f == nil {
		return false
	}
	for _, t := range f.m[flag][name] {
		if t.matches(version) {
			return true
		}
	}
	return false
}

// Test reports whether p carries flag.
func (f *PackageFlags) Test(flag string, p *Package) bool {
	return f.Matches(flag, p.Name, p.Version)
}

// Flags returns the names of all flags with at least one target, sorted.
func (f *PackageFlags) Flags() []string {
	if f == nil {
		return nil
	}
	flags := make([]string, 0, len(f.m))
	for flag := range f.m {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	return flags
}

// Names returns the package names flagged with flag, sorted.
func (f *PackageFlags) Names(flag string) []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.m[flag]))
	for name := range f.m[flag] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Targets returns the targets of name under flag, in insertion order.
func (f *PackageFlags) Targets(flag, name string) []FlagTarget {
	if f == nil {
		return nil
	}
	ts := f.m[flag][name]
	out := make([]FlagTarget, len(ts))
	copy(out, ts)
	return out
}

// TargetStrings returns every target of flag rendered as a target string,
// e.g. "foo" or "foo >= 1.0", sorted by name.
func (f *PackageFlags) TargetStrings(flag string) []string {
	var out []string
	for _, name := range f.Names(flag) {
		for _, t := range f.m[flag][name] {
			if t.Op == OpNone {
				out = append(out, name)
			} else {
				out = append(out, name+" "+t.String())
			}
		}
	}
	return out
}
