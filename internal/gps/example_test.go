package gps_test

import (
	"fmt"

	"github.com/endianspa/smart/internal/gps"
)

type exampleLoader struct {
	pkgs []gps.PackageData
}

func (l *exampleLoader) Name() string   { return "example" }
func (l *exampleLoader) Reset()         {}
func (l *exampleLoader) LoadSteps() int { return len(l.pkgs) }

func (l *exampleLoader) Load(in gps.Ingester) error {
	for _, d := range l.pkgs {
		in.NewPackage(d)
		in.Step()
	}
	return nil
}

func (l *exampleLoader) Info(p *gps.Package) (gps.PackageInfo, error) {
	info, _ := p.LoaderInfo(l)
	return info, nil
}

func Example() {
	req := func(name string, op gps.Op, version string) gps.Relation {
		return gps.Relation{Kind: gps.Requires, Name: name, Op: op, Version: version}
	}
	l := &exampleLoader{pkgs: []gps.PackageData{
		{ID: gps.PackageID{Name: "app", Version: "1.0-1"}, Requires: []gps.Relation{req("lib", gps.OpGE, "1.0")}},
		{ID: gps.PackageID{Name: "lib", Version: "1.0-1"}},
		{ID: gps.PackageID{Name: "lib", Version: "2.0-1"}},
	}}

	cache := gps.NewCache(nil)
	cache.AddLoader(l)
	if err := cache.Load(); err != nil {
		fmt.Println(err)
		return
	}

	app, _ := cache.Package(gps.PackageID{Name: "app", Version: "1.0-1"})
	for _, policy := range []gps.Policy{gps.PolicyInstall, gps.PolicyMinimal} {
		txn, err := gps.NewTransaction(gps.TransactionParams{Cache: cache, Policy: policy})
		if err != nil {
			fmt.Println(err)
			return
		}
		txn.Enqueue(app, gps.Install)
		res := txn.Run()
		fmt.Println(policy.Name, res.Install)
	}
	// Output:
	// install [app-1.0-1 lib-2.0-1]
	// minimal [app-1.0-1 lib-1.0-1]
}

func ExampleFilter() {
	var pkgs []*gps.Package
	cache := gps.NewCache(nil)
	cache.AddLoader(&exampleLoader{pkgs: []gps.PackageData{
		{ID: gps.PackageID{Name: "foo", Version: "1.0"}},
		{ID: gps.PackageID{Name: "foo", Version: "2.0"}},
		{ID: gps.PackageID{Name: "foo", Version: "3.0"}},
	}})
	if err := cache.Load(); err != nil {
		fmt.Println(err)
		return
	}
	pkgs = cache.Packages("foo")

	matched, err := gps.Filter(pkgs, "foo >= 2.0")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(matched)
	// Output: [foo-2.0 foo-3.0]
}
