// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package feedback renders transaction results for humans.
package feedback

import (
	"fmt"
	"log"
	"sort"

	"github.com/endianspa/smart/internal/gps"
)

// Change types
const (
	ChangeInstall   = "Installing"
	ChangeRemove    = "Removing"
	ChangeUpgrade   = "Upgrading"
	ChangeDowngrade = "Downgrading"
)

// VersionDiff is the before and after version of a package. Either side is
// empty when the package is only installed or only removed.
type VersionDiff struct {
	Previous string
	Current  string
}

func (diff VersionDiff) String() string {
	switch {
	case diff.Previous == "":
		return "+ " + diff.Current
	case diff.Current == "":
		return "- " + diff.Previous
	case diff.Previous == diff.Current:
		return diff.Current
	}
	return diff.Previous + " -> " + diff.Current
}

// ChangeFeedback holds one line of a plan.
type ChangeFeedback struct {
	Change  string
	Name    string
	Version VersionDiff
}

// LogFeedback logs the change.
func (cf ChangeFeedback) LogFeedback(logger *log.Logger) {
	logger.Printf("  %v", GetChangeFeedback(cf.Change, cf.Name, cf.Version))
}

// GetChangeFeedback returns a plan line.
// Example:
// Installing lib (+ 2.0-1)
// Upgrading app (1.0-1 -> 1.1-1)
func GetChangeFeedback(change, name string, v VersionDiff) string {
	return fmt.Sprintf("%s %s (%s)", change, name, v)
}

// NewChangeSet turns a plan into feedback lines sorted by package name. A
// removal and an install of packages sharing name and architecture is reported
// as a single upgrade or downgrade.
func NewChangeSet(res gps.Result) []ChangeFeedback {
	type key struct{ name, arch string }
	removed := make(map[key]*gps.Package, len(res.Remove))
	for _, p := range res.Remove {
		removed[key{p.Name, p.Arch()}] = p
	}

	var out []ChangeFeedback
	paired := make(map[*gps.Package]bool)
	for _, p := range res.Install {
		cf := ChangeFeedback{
			Change:  ChangeInstall,
			Name:    p.Name,
			Version: VersionDiff{Current: p.Version},
		}
		if old, ok := removed[key{p.Name, p.Arch()}]; ok && !paired[old] {
			paired[old] = true
			cf.Version.Previous = old.Version
			cf.Change = ChangeUpgrade
			if gps.CompareVersions(p.Version, old.Version) < 0 {
				cf.Change = ChangeDowngrade
			}
		}
		out = append(out, cf)
	}
	for _, p := range res.Remove {
		if !paired[p] {
			out = append(out, ChangeFeedback{
				Change:  ChangeRemove,
				Name:    p.Name,
				Version: VersionDiff{Previous: p.Version},
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LogResult logs the plan of res, or its failures if it has any.
func LogResult(logger *log.Logger, res gps.Result) {
	if !res.OK() {
		LogFailures(logger, res.Failures)
		return
	}
	if res.Empty() {
		logger.Println("Nothing to do.")
		return
	}
	changes := NewChangeSet(res)
	for _, cf := range changes {
		cf.LogFeedback(logger)
	}
	logger.Println(GetSummary(changes))
}

// LogFailures logs one line per failed request.
func LogFailures(logger *log.Logger, failures []gps.Failure) {
	for _, f := range failures {
		logger.Printf("  %s: %s: %v", f.Kind, f.Request, f.Err)
	}
}

// GetSummary returns the closing line of a plan.
// Example:
// 2 to install, 1 to upgrade, 0 to downgrade, 0 to remove
func GetSummary(changes []ChangeFeedback) string {
	counts := make(map[string]int)
	for _, cf := range changes {
		counts[cf.Change]++
	}
	return fmt.Sprintf("%d to install, %d to upgrade, %d to downgrade, %d to remove",
		counts[ChangeInstall], counts[ChangeUpgrade], counts[ChangeDowngrade], counts[ChangeRemove])
}
