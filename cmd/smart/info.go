// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/endianspa/smart"
	"github.com/endianspa/smart/internal/gps"
	"github.com/pkg/errors"
)

const infoShortHelp = `Show package details`
const infoLongHelp = `
Show the metadata of every package matching spec, as reported by each channel
carrying it.
`

func (cmd *infoCommand) Name() string      { return "info" }
func (cmd *infoCommand) Args() string      { return "<spec>" }
func (cmd *infoCommand) ShortHelp() string { return infoShortHelp }
func (cmd *infoCommand) LongHelp() string  { return infoLongHelp }
func (cmd *infoCommand) Hidden() bool      { return false }

func (cmd *infoCommand) Register(fs *flag.FlagSet) {}

type infoCommand struct{}

func (cmd *infoCommand) Run(ctx *smart.Ctx, args []string) error {
	if len(args) != 1 {
		return errors.New("info takes exactly one spec")
	}

	cache, err := ctx.LoadCache()
	if err != nil {
		return err
	}
	matches, err := matchSpecs(cache, args, false)
	if err != nil {
		return err
	}
	pkgs := matches[0]
	gps.SortPackages(pkgs)

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 4, 1, ' ', 0)
	for k, p := range pkgs {
		if k > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Name:\t%s\n", p.Name)
		fmt.Fprintf(w, "Version:\t%s\n", p.EVR())
		if arch := p.Arch(); arch != "" {
			fmt.Fprintf(w, "Arch:\t%s\n", arch)
		}
		fmt.Fprintf(w, "Installed:\t%v\n", p.Installed)

		for _, l := range p.Loaders() {
			info, err := l.Info(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Channel:\t%s\n", l.Name())
			for _, field := range []struct{ k, v string }{
				{"Summary", info.Summary},
				{"Group", info.Group},
				{"URL", info.URL},
				{"Description", info.Description},
			} {
				if field.v != "" {
					fmt.Fprintf(w, "  %s:\t%s\n", field.k, field.v)
				}
			}
			if info.Size > 0 {
				fmt.Fprintf(w, "  Size:\t%d\n", info.Size)
			}
			if info.InstalledSize > 0 {
				fmt.Fprintf(w, "  Installed size:\t%d\n", info.InstalledSize)
			}
			algos := make([]string, 0, len(info.Checksums))
			for algo := range info.Checksums {
				algos = append(algos, algo)
			}
			sort.Strings(algos)
			for _, algo := range algos {
				fmt.Fprintf(w, "  %s:\t%s\n", algo, info.Checksums[algo])
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	ctx.Out.Print(buf.String())
	return nil
}
