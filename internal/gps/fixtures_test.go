package gps

import (
	"fmt"
	"strings"
)

// fixtureLoader is a Loader over a fixed list of packages.
type fixtureLoader struct {
	name   string
	pkgs   []PackageData
	fail   error
	resets int
	loads  int
}

func (l *fixtureLoader) Name() string   { return l.name }
func (l *fixtureLoader) Reset()         { l.resets++ }
func (l *fixtureLoader) LoadSteps() int { return len(l.pkgs) }

func (l *fixtureLoader) Load(in Ingester) error {
	l.loads++
	for k, d := range l.pkgs {
		if l.fail != nil && k == len(l.pkgs)/2 {
			return l.fail
		}
		in.NewPackage(d)
		in.Step()
	}
	if l.fail != nil {
		return l.fail
	}
	return nil
}

func (l *fixtureLoader) Info(p *Package) (PackageInfo, error) {
	info, _ := p.LoaderInfo(l)
	return info, nil
}

// mkpkg builds package data from a "name version" string and relation
// strings such as "requires b >= 1.0", "provides mta = 2", "conflicts c",
// "obsoletes old < 2" or "file /bin/sh".
func mkpkg(nv string, rels ...string) PackageData {
	parts := strings.Fields(nv)
	if len(parts) != 2 {
		panic(fmt.Sprintf("malformed name/version %q", nv))
	}
	d := PackageData{ID: PackageID{Name: parts[0], Version: parts[1]}}

	for _, rs := range rels {
		sp := strings.SplitN(rs, " ", 2)
		if sp[0] == "file" {
			d.Files = append(d.Files, sp[1])
			continue
		}
		name, op, version, err := ParseTarget(sp[1])
		if err != nil {
			panic(err)
		}
		r := Relation{Name: name, Op: op, Version: version}
		switch sp[0] {
		case "provides":
			r.Kind, r.Op = Provides, OpNone
			d.Provides = append(d.Provides, r)
		case "requires":
			r.Kind = Requires
			d.Requires = append(d.Requires, r)
		case "conflicts":
			r.Kind = Conflicts
			d.Conflicts = append(d.Conflicts, r)
		case "upgrades":
			r.Kind = Upgrades
			d.Upgrades = append(d.Upgrades, r)
		case "obsoletes":
			r.Kind = Obsoletes
			d.Conflicts = append(d.Conflicts, r)
			r.Kind = Upgrades
			d.Upgrades = append(d.Upgrades, r)
		default:
			panic(fmt.Sprintf("unknown relation kind in %q", rs))
		}
	}
	return d
}

// inst marks package data as installed.
func inst(d PackageData) PackageData {
	d.Installed = true
	return d
}

func newTestCache(pkgs ...PackageData) (*Cache, *fixtureLoader) {
	l := &fixtureLoader{name: "fixture", pkgs: pkgs}
	c := NewCache(nil)
	c.AddLoader(l)
	if err := c.Load(); err != nil {
		panic(err)
	}
	return c, l
}

// findPkg looks up a package by "name version".
func findPkg(c *Cache, nv string) *Package {
	parts := strings.Fields(nv)
	p, has := c.Package(PackageID{Name: parts[0], Version: parts[1]})
	if !has {
		panic(fmt.Sprintf("no package %q in cache", nv))
	}
	return p
}

func pkgStrings(pkgs []*Package) []string {
	out := make([]string, len(pkgs))
	for k, p := range pkgs {
		out[k] = p.String()
	}
	return out
}
