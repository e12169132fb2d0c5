// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/endianspa/smart"
	"github.com/endianspa/smart/internal/gps"
)

const queryShortHelp = `Search the package cache`
const queryLongHelp = `
List the packages matching each spec, or every package when no spec is given.
The reverse lookups select packages by their relations instead; a package is
listed when it passes every filter given.

With -files, owned file paths under the given prefix are listed instead of
packages.
`

func (cmd *queryCommand) Name() string      { return "query" }
func (cmd *queryCommand) Args() string      { return "[spec...]" }
func (cmd *queryCommand) ShortHelp() string { return queryShortHelp }
func (cmd *queryCommand) LongHelp() string  { return queryLongHelp }
func (cmd *queryCommand) Hidden() bool      { return false }

func (cmd *queryCommand) Register(fs *flag.FlagSet) {
	fs.BoolVar(&cmd.installed, "installed", false, "only list installed packages")
	fs.StringVar(&cmd.whoProvides, "whoprovides", "", "only list packages providing this spec")
	fs.StringVar(&cmd.whoRequires, "whorequires", "", "only list packages requiring this name")
	fs.StringVar(&cmd.whoConflicts, "whoconflicts", "", "only list packages conflicting with this name")
	fs.StringVar(&cmd.whoUpgrades, "whoupgrades", "", "only list packages upgrading this name")
	fs.BoolVar(&cmd.relations, "show-relations", false, "show the relations of each package")
	fs.StringVar(&cmd.files, "files", "", "list owned file paths under this prefix")
}

type queryCommand struct {
	installed    bool
	whoProvides  string
	whoRequires  string
	whoConflicts string
	whoUpgrades  string
	relations    bool
	files        string
}

func (cmd *queryCommand) Run(ctx *smart.Ctx, args []string) error {
	cache, err := ctx.LoadCache()
	if err != nil {
		return err
	}

	if cmd.files != "" {
		for _, path := range cache.PendingFileProvides(cmd.files) {
			ctx.Out.Println(path)
		}
		return nil
	}

	pkgs := cache.Packages("")
	if len(args) > 0 {
		matches, err := matchSpecs(cache, args, false)
		if err != nil {
			return err
		}
		pkgs = nil
		for _, m := range matches {
			pkgs = append(pkgs, m...)
		}
	}

	filters := []func(*gps.Package) bool{}
	if cmd.installed {
		filters = append(filters, func(p *gps.Package) bool { return p.Installed })
	}
	if cmd.whoProvides != "" {
		name, op, version, err := gps.ParseTarget(cmd.whoProvides)
		if err != nil {
			return err
		}
		filters = append(filters, in(cache.WhoProvidesRel(gps.Relation{Kind: gps.Requires, Name: name, Op: op, Version: version})))
	}
	if cmd.whoRequires != "" {
		filters = append(filters, in(cache.WhoRequires(cmd.whoRequires)))
	}
	if cmd.whoConflicts != "" {
		filters = append(filters, in(cache.WhoConflicts(cmd.whoConflicts)))
	}
	if cmd.whoUpgrades != "" {
		filters = append(filters, in(cache.WhoUpgrades(cmd.whoUpgrades)))
	}

	seen := make(map[*gps.Package]bool)
	var out []*gps.Package
next:
	for _, p := range pkgs {
		if seen[p] {
			continue
		}
		seen[p] = true
		for _, keep := range filters {
			if !keep(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	gps.SortPackages(out)

	for _, p := range out {
		if p.Installed {
			ctx.Out.Printf("%s [installed]", p)
		} else {
			ctx.Out.Println(p)
		}
		if cmd.relations {
			printRelations(ctx, p)
		}
	}
	return nil
}

func in(pkgs []*gps.Package) func(*gps.Package) bool {
	set := make(map[*gps.Package]bool, len(pkgs))
	for _, p := range pkgs {
		set[p] = true
	}
	return func(p *gps.Package) bool { return set[p] }
}

func printRelations(ctx *smart.Ctx, p *gps.Package) {
	for _, group := range []struct {
		title string
		rels  []gps.Relation
	}{
		{"Provides", p.Provides()},
		{"Requires", p.Requires()},
		{"Upgrades", p.Upgrades()},
		{"Conflicts", p.Conflicts()},
	} {
		if len(group.rels) == 0 {
			continue
		}
		ctx.Out.Printf("  %s:", group.title)
		for _, r := range group.rels {
			ctx.Out.Printf("    %s", r)
		}
	}
}
