// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"strings"

	"github.com/endianspa/smart"
	"github.com/pkg/errors"
)

const flagShortHelp = `Manage package flags`
const flagLongHelp = `
Set, remove or show package flags. Flags tag packages matching a target:

  lock           the package must not be installed or removed
  multi-version  several versions of the package may be installed together
  multi-arch     the package may be installed for several architectures
  new            the package is new in its channel

Examples:

  smart flag -set lock 'glibc >= 2.17'
  smart flag -remove lock glibc
  smart flag -show lock

Removing a flag without targets removes every target of it.
`

func (cmd *flagCommand) Name() string      { return "flag" }
func (cmd *flagCommand) Args() string      { return "-set|-remove|-show [flag] [target...]" }
func (cmd *flagCommand) ShortHelp() string { return flagShortHelp }
func (cmd *flagCommand) LongHelp() string  { return flagLongHelp }
func (cmd *flagCommand) Hidden() bool      { return false }

func (cmd *flagCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.set, "set", false, "add targets to a flag")
	fs.BoolVar(&cmd.remove, "remove", false, "remove targets from a flag")
	fs.BoolVar(&cmd.show, "show", false, "show flags and their targets")
}

type flagCommand struct {
	set, remove, show bool
}

func (cmd *flagCommand) validateFlags() error {
	n := 0
	for _, b := range []bool{cmd.set, cmd.remove, cmd.show} {
		if b {
			n++
		}
	}
	if n != 1 {
		return errors.New("exactly one of -set, -remove and -show is required")
	}
	return nil
}

func (cmd *flagCommand) Run(ctx *smart.Ctx, args []string) error {
	if err := cmd.validateFlags(); err != nil {
		return err
	}

	if cmd.show {
		var buf strings.Builder
		if err := ctx.Config.ShowFlags(&buf, args...); err != nil {
			return err
		}
		ctx.Out.Print(buf.String())
		return nil
	}

	if len(args) == 0 {
		return errors.New("a flag name is required")
	}
	name, targets := args[0], args[1:]
	if cmd.set && len(targets) == 0 {
		return errors.New("-set requires at least one target")
	}

	sw := &smart.SafeWriter{Path: ctx.ConfigPath}
	return sw.Update(func(cfg *smart.Config) error {
		if cmd.set {
			for _, t := range targets {
				if err := cfg.SetFlag(name, t); err != nil {
					return err
				}
			}
			return nil
		}

		if len(targets) == 0 {
			if !cfg.RemoveFlag(name, "") {
				return errors.Errorf("flag %s is not set", name)
			}
			return nil
		}
		for _, t := range targets {
			if !cfg.RemoveFlag(name, t) {
				return errors.Errorf("flag %s has no target %q", name, t)
			}
		}
		return nil
	})
}
