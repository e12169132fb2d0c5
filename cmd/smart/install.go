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

const installShortHelp = `Plan the installation of packages`
const installLongHelp = `
Plan the installation of the packages matching each spec, along with whatever
they require. A spec is a package name with an optional version constraint,
e.g. "bash" or "bash >= 5". The newest matching package is chosen; specs
matching an installed package are skipped.

Nothing is changed on the system: the plan is printed.
`

func (cmd *installCommand) Name() string      { return "install" }
func (cmd *installCommand) Args() string      { return "<spec> [spec...]" }
func (cmd *installCommand) ShortHelp() string { return installShortHelp }
func (cmd *installCommand) LongHelp() string  { return installLongHelp }
func (cmd *installCommand) Hidden() bool      { return false }

func (cmd *installCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.policy, "policy", gps.PolicyInstall.Name, "resolution policy: install or minimal")
}

type installCommand struct {
	policy string
}

func (cmd *installCommand) Run(ctx *smart.Ctx, args []string) error {
	if len(args) == 0 {
		return errors.New("install requires at least one spec")
	}
	if _, ok := gps.Policies[cmd.policy]; !ok {
		return errors.Errorf("unknown policy %q", cmd.policy)
	}

	cache, err := ctx.LoadCache()
	if err != nil {
		return err
	}
	matches, err := matchSpecs(cache, args, false)
	if err != nil {
		return err
	}

	var reqs []gps.Request
	for k, pkgs := range matches {
		if installed := installedOf(pkgs); installed != nil {
			ctx.Err.Printf("%s is already installed as %s", args[k], installed)
			continue
		}
		reqs = append(reqs, gps.Request{Package: newest(pkgs), Action: gps.Install})
	}

	return runTransaction(ctx, cache, gps.Policies[cmd.policy], reqs)
}

func installedOf(pkgs []*gps.Package) *gps.Package {
	for _, p := range pkgs {
		if p.Installed {
			return p
		}
	}
	return nil
}
