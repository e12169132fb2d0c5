// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/endianspa/smart"
)

const versionShortHelp = `Display version`
const versionLongHelp = `
Display version of this application.
`

// Version is the release of this build.
const Version = "0.1.0"

func (cmd *versionCommand) Name() string      { return "version" }
func (cmd *versionCommand) Args() string      { return "" }
func (cmd *versionCommand) ShortHelp() string { return versionShortHelp }
func (cmd *versionCommand) LongHelp() string  { return versionLongHelp }
func (cmd *versionCommand) Hidden() bool      { return false }

func (cmd *versionCommand) Register(fs *flag.FlagSet) {}

type versionCommand struct {
	out io.Writer
}

func (cmd *versionCommand) Run(ctx *smart.Ctx, args []string) error {
	fmt.Fprintln(cmd.out, Version)
	return nil
}
