// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/endianspa/smart"
	"github.com/endianspa/smart/internal/gps"
)

const upgradeShortHelp = `Plan upgrades of installed packages`
const upgradeLongHelp = `
Plan the upgrade of the installed packages matching each spec, or of every
installed package when no spec is given. Packages without a newer candidate
are left alone. Packages obsoleting an installed one count as its upgrades.

Nothing is changed on the system: the plan is printed.
`

func (cmd *upgradeCommand) Name() string      { return "upgrade" }
func (cmd *upgradeCommand) Args() string      { return "[spec...]" }
func (cmd *upgradeCommand) ShortHelp() string { return upgradeShortHelp }
func (cmd *upgradeCommand) LongHelp() string  { return upgradeLongHelp }
func (cmd *upgradeCommand) Hidden() bool      { return false }

func (cmd *upgradeCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.strict, "strict", false, "fail when a package has no installable upgrade")
}

type upgradeCommand struct {
	strict bool
}

func (cmd *upgradeCommand) Run(ctx *smart.Ctx, args []string) error {
	cache, err := ctx.LoadCache()
	if err != nil {
		return err
	}

	var targets []*gps.Package
	if len(args) == 0 {
		for _, p := range cache.Packages("") {
			if p.Installed {
				targets = append(targets, p)
			}
		}
	} else {
		matches, err := matchSpecs(cache, args, true)
		if err != nil {
			return err
		}
		for _, pkgs := range matches {
			targets = append(targets, pkgs...)
		}
	}

	reqs := make([]gps.Request, 0, len(targets))
	for _, p := range targets {
		reqs = append(reqs, gps.Request{Package: p, Action: gps.Upgrade})
	}

	policy := gps.PolicyUpgrade
	policy.BestEffort = !cmd.strict
	return runTransaction(ctx, cache, policy, reqs)
}
