// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import "fmt"

// Action is a change requested for a package, or applied by default to
// packages nobody asked about.
type Action uint8

const (
	Keep Action = iota
	Install
	Remove
	Upgrade
	Fix
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Install:
		return "install"
	case Remove:
		return "remove"
	case Upgrade:
		return "upgrade"
	case Fix:
		return "fix"
	}
	return fmt.Sprintf("Action(%d)", uint8(a))
}

// Preference orders the candidates for a requirement.
type Preference uint8

const (
	// PreferHighest tries newer versions first.
	PreferHighest Preference = iota
	// PreferLowest tries older versions first.
	PreferLowest
)

// Policy tunes how a transaction resolves its requests.
type Policy struct {
	Name string
	// Default is the action applied to every package not named by a
	// request. Only Keep and Fix are meaningful.
	Default Action
	Prefer  Preference
	// AllowRemovals permits removing installed packages which are not
	// themselves the subject of a Remove request.
	AllowRemovals bool
	// InstallAlternatives lets the engine install another provider for a
	// requirement broken by a removal, rather than removing the dependent.
	InstallAlternatives bool
	// BestEffort turns an upgrade with no installable candidate into a
	// no-op instead of a failure.
	BestEffort bool
}

var (
	PolicyInstall = Policy{
		Name:                "install",
		Default:             Keep,
		Prefer:              PreferHighest,
		AllowRemovals:       true,
		InstallAlternatives: true,
	}
	PolicyRemove = Policy{
		Name:          "remove",
		Default:       Keep,
		Prefer:        PreferHighest,
		AllowRemovals: true,
	}
	PolicyUpgrade = Policy{
		Name:                "upgrade",
		Default:             Keep,
		Prefer:              PreferHighest,
		AllowRemovals:       true,
		InstallAlternatives: true,
		BestEffort:          true,
	}
	PolicyFixBroken = Policy{
		Name:                "fix",
		Default:             Fix,
		Prefer:              PreferHighest,
		AllowRemovals:       true,
		InstallAlternatives: true,
	}
	// PolicyMinimal changes as little as possible: it prefers the oldest
	// satisfying versions and never removes packages it was not asked to.
	PolicyMinimal = Policy{
		Name:                "minimal",
		Default:             Keep,
		Prefer:              PreferLowest,
		InstallAlternatives: true,
	}
)

// Policies lists the predefined policies by name.
var Policies = map[string]Policy{
	PolicyInstall.Name:   PolicyInstall,
	PolicyRemove.Name:    PolicyRemove,
	PolicyUpgrade.Name:   PolicyUpgrade,
	PolicyFixBroken.Name: PolicyFixBroken,
	PolicyMinimal.Name:   PolicyMinimal,
}
