package feedback

import (
	"bytes"
	"errors"
	log2 "log"
	"strings"
	"testing"

	"github.com/endianspa/smart/internal/gps"
)

type sliceLoader []gps.PackageData

func (l sliceLoader) Name() string   { return "slice" }
func (l sliceLoader) Reset()         {}
func (l sliceLoader) LoadSteps() int { return len(l) }
func (l sliceLoader) Info(*gps.Package) (gps.PackageInfo, error) {
	return gps.PackageInfo{}, nil
}
func (l sliceLoader) Load(in gps.Ingester) error {
	for _, d := range l {
		in.NewPackage(d)
	}
	return nil
}

// packages loads "name version" pairs and returns them in order.
func packages(t *testing.T, nvs ...string) []*gps.Package {
	var l sliceLoader
	for _, nv := range nvs {
		f := strings.Fields(nv)
		l = append(l, gps.PackageData{ID: gps.PackageID{Name: f[0], Version: f[1]}})
	}
	c := gps.NewCache(nil)
	c.AddLoader(l)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	return c.Packages("")
}

func TestVersionDiff(t *testing.T) {
	cases := []struct {
		diff VersionDiff
		want string
	}{
		{VersionDiff{Current: "1.0"}, "+ 1.0"},
		{VersionDiff{Previous: "1.0"}, "- 1.0"},
		{VersionDiff{Previous: "1.0", Current: "1.0"}, "1.0"},
		{VersionDiff{Previous: "1.0", Current: "2.0"}, "1.0 -> 2.0"},
	}
	for _, c := range cases {
		if got := c.diff.String(); got != c.want {
			t.Errorf("%+v: expected %q, got %q", c.diff, c.want, got)
		}
	}
}

func TestNewChangeSet(t *testing.T) {
	pkgs := packages(t,
		"app 1.1-1", "app 1.0-1",
		"lib 2.0", "tool 3@x86_64",
		"tool 4@i686", "db 5", "db 4",
	)
	app11, app10, lib, toolX, toolI, db5, db4 := pkgs[0], pkgs[1], pkgs[2], pkgs[3], pkgs[4], pkgs[5], pkgs[6]

	res := gps.Result{
		Install: []*gps.Package{app11, db4, lib, toolI},
		Remove:  []*gps.Package{app10, db5, toolX},
	}
	var got []string
	for _, cf := range NewChangeSet(res) {
		got = append(got, GetChangeFeedback(cf.Change, cf.Name, cf.Version))
	}
	want := []string{
		"Upgrading app (1.0-1 -> 1.1-1)",
		"Downgrading db (5 -> 4)",
		"Installing lib (+ 2.0)",
		"Installing tool (+ 4@i686)",
		"Removing tool (- 3@x86_64)",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("(GOT):\n%s\n(WNT):\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestLogResult(t *testing.T) {
	pkgs := packages(t, "app 1.0", "lib 2.0")

	buf := &bytes.Buffer{}
	log := log2.New(buf, "", 0)
	LogResult(log, gps.Result{Install: pkgs})
	want := "  Installing app (+ 1.0)\n  Installing lib (+ 2.0)\n2 to install, 0 to upgrade, 0 to downgrade, 0 to remove\n"
	if buf.String() != want {
		t.Errorf("(GOT):\n%s\n(WNT):\n%s", buf.String(), want)
	}

	buf.Reset()
	LogResult(log, gps.Result{})
	if got := strings.TrimSpace(buf.String()); got != "Nothing to do." {
		t.Errorf("empty plan logged %q", got)
	}

	buf.Reset()
	LogResult(log, gps.Result{
		Install: pkgs,
		Failures: []gps.Failure{{
			Request: gps.Request{Package: pkgs[0], Action: gps.Install},
			Kind:    gps.UnresolvedDependency,
			Err:     errors.New("nothing provides libz"),
		}},
	})
	want = "  unresolved dependency: install app-1.0: nothing provides libz"
	if got := strings.TrimSpace(buf.String()); got != strings.TrimSpace(want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
