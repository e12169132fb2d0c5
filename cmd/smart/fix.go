// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/endianspa/smart"
	"github.com/endianspa/smart/internal/gps"
)

const fixShortHelp = `Plan repairs of broken installed packages`
const fixLongHelp = `
Plan the changes needed to repair installed packages with unsatisfied
requirements or conflicts. With specs, only the matching installed packages
are repaired; otherwise every broken installed package is.

Nothing is changed on the system: the plan is printed.
`

func (cmd *fixCommand) Name() string      { return "fix" }
func (cmd *fixCommand) Args() string      { return "[spec...]" }
func (cmd *fixCommand) ShortHelp() string { return fixShortHelp }
func (cmd *fixCommand) LongHelp() string  { return fixLongHelp }
func (cmd *fixCommand) Hidden() bool      { return false }

func (cmd *fixCommand) Register(fs *flag.FlagSet) {}

type fixCommand struct{}

func (cmd *fixCommand) Run(ctx *smart.Ctx, args []string) error {
	cache, err := ctx.LoadCache()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return runTransaction(ctx, cache, gps.PolicyFixBroken, nil)
	}

	matches, err := matchSpecs(cache, args, true)
	if err != nil {
		return err
	}
	var reqs []gps.Request
	for _, pkgs := range matches {
		for _, p := range pkgs {
			reqs = append(reqs, gps.Request{Package: p, Action: gps.Fix})
		}
	}
	policy := gps.PolicyFixBroken
	policy.Default = gps.Keep
	return runTransaction(ctx, cache, policy, reqs)
}
