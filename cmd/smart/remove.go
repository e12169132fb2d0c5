// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/endianspa/smart"
	"github.com/endianspa/smart/internal/gps"
	"github.com/pkg/errors"
)

const removeShortHelp = `Plan the removal of packages`
const removeLongHelp = `
Plan the removal of every installed package matching each spec. Installed
packages that depend on a removed package are removed as well, unless
-alternatives is given and another provider can be installed for them.

Nothing is changed on the system: the plan is printed.
`

func (cmd *removeCommand) Name() string      { return "remove" }
func (cmd *removeCommand) Args() string      { return "<spec> [spec...]" }
func (cmd *removeCommand) ShortHelp() string { return removeShortHelp }
func (cmd *removeCommand) LongHelp() string  { return removeLongHelp }
func (cmd *removeCommand) Hidden() bool      { return false }

func (cmd *removeCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.alternatives, "alternatives", false, "switch dependents to other providers instead of removing them")
}

type removeCommand struct {
	alternatives bool
}

func (cmd *removeCommand) Run(ctx *smart.Ctx, args []string) error {
	if len(args) == 0 {
		return errors.New("remove requires at least one spec")
	}

	cache, err := ctx.LoadCache()
	if err != nil {
		return err
	}
	matches, err := matchSpecs(cache, args, true)
	if err != nil {
		return err
	}

	var reqs []gps.Request
	for _, pkgs := range matches {
		for _, p := range pkgs {
			reqs = append(reqs, gps.Request{Package: p, Action: gps.Remove})
		}
	}

	policy := gps.PolicyRemove
	policy.InstallAlternatives = cmd.alternatives
	return runTransaction(ctx, cache, policy, reqs)
}
