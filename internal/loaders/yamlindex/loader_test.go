package yamlindex

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/test"
)

const mainIndex = `packages:
  - name: app
    version: 1.0-1
    arch: x86_64
    kind: rpm
    summary: An application
    url: http://example.com/app-1.0-1.x86_64.rpm
    size: 120
    checksums:
      sha256: deadbeef
    requires: ["lib >= 2.0", "/bin/sh"]
    provides: ["app-api = 1", "/usr/bin/app"]
    obsoletes: ["oldapp < 1.0"]
    conflicts: ["otherapp"]
  - name: lib
    version: "2.0"
    files: [/usr/lib/libx.so, relative/ignored]
`

const extraIndex = `packages:
  - name: shell
    version: "5"
    installed: true
    files: [/bin/sh]
`

func loadCache(t *testing.T, cfg Config) (*gps.Cache, *Loader) {
	ld := New(cfg, test.Logger(t))
	c := gps.NewCache(test.Logger(t))
	c.AddLoader(ld)
	if err := c.Load(); err != nil {
		t.Fatal(err)
	}
	return c, ld
}

func pkgNames(pkgs []*gps.Package) []string {
	var out []string
	for _, p := range pkgs {
		out = append(out, p.String())
	}
	return out
}

func TestLoadFile(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("index.yaml", mainIndex)

	c, _ := loadCache(t, Config{Name: "local", Path: h.Path("index.yaml")})
	if got := pkgNames(c.Packages("")); !reflect.DeepEqual(got, []string{"app-1.0-1@x86_64", "lib-2.0"}) {
		t.Fatalf("loaded %v", got)
	}

	app, ok := c.Package(gps.PackageID{Kind: gps.RPMKind, Name: "app", Version: "1.0-1@x86_64"})
	if !ok {
		t.Fatal("app should be an rpm package")
	}
	if app.Installed {
		t.Error("app should not be installed")
	}

	wantReq := []gps.Relation{
		{Kind: gps.Requires, Name: "lib", Op: gps.OpGE, Version: "2.0"},
		{Kind: gps.Requires, Name: "/bin/sh"},
	}
	if !reflect.DeepEqual(app.Requires(), wantReq) {
		t.Errorf("requires = %v", app.Requires())
	}
	wantCnf := []gps.Relation{
		{Kind: gps.Conflicts, Name: "otherapp"},
		{Kind: gps.Obsoletes, Name: "oldapp", Op: gps.OpLT, Version: "1.0"},
	}
	if !reflect.DeepEqual(app.Conflicts(), wantCnf) {
		t.Errorf("conflicts = %v", app.Conflicts())
	}
	if got := c.WhoUpgrades("oldapp"); len(got) != 1 || got[0] != app {
		t.Errorf("WhoUpgrades(oldapp) = %v", got)
	}
	if got := c.WhoProvides("app-api"); len(got) != 1 {
		t.Errorf("WhoProvides(app-api) = %v", got)
	}

	if got := c.PendingFileProvides("/usr/"); !reflect.DeepEqual(got, []string{"/usr/bin/app", "/usr/lib/libx.so"}) {
		t.Errorf("pending files = %v", got)
	}

	info, err := app.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Summary != "An application" || info.Size != 120 || info.Checksums["sha256"] != "deadbeef" {
		t.Errorf("unexpected info %+v", info)
	}
}

func TestLoadDirectory(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("repo/b/main.yml", mainIndex)
	h.TempFile("repo/a.yaml", extraIndex)
	h.TempFile("repo/README", "not an index")

	c, ld := loadCache(t, Config{Name: "dir", Path: h.Path("repo")})
	if ld.LoadSteps() != 2 {
		t.Errorf("LoadSteps = %d, want 2", ld.LoadSteps())
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 packages, got %v", pkgNames(c.Packages("")))
	}

	sh := c.Packages("shell")
	if len(sh) != 1 || !sh[0].Installed {
		t.Fatalf("shell should be loaded as installed: %v", sh)
	}
	c.ResolveFileProvides(c.RequiredFiles())
	if got := c.WhoProvides("/bin/sh"); len(got) != 1 || got[0] != sh[0] {
		t.Errorf("WhoProvides(/bin/sh) = %v", got)
	}
}

func TestLoadInstalledChannel(t *testing.T) {
	h := test.NewHelper(t)
	h.TempFile("index.yaml", mainIndex)

	c, _ := loadCache(t, Config{Name: "system", Path: h.Path("index.yaml"), Installed: true})
	for _, p := range c.Packages("") {
		if !p.Installed {
			t.Errorf("%s should be installed", p)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	table := map[string]string{
		"missing name":  "packages:\n  - version: 1\n",
		"bad kind":      "packages:\n  - {name: a, version: 1, kind: deb}\n",
		"bad relation":  "packages:\n  - {name: a, version: 1, requires: [\"b >< 1\"]}\n",
		"unknown field": "packages:\n  - {name: a, version: 1, wat: 2}\n",
		"not yaml":      "packages: [\n",
	}
	for name, doc := range table {
		t.Run(name, func(t *testing.T) {
			h := test.NewHelper(t)
			h.TempFile("index.yaml", doc)

			c := gps.NewCache(nil)
			c.AddLoader(New(Config{Name: "bad", Path: h.Path("index.yaml")}, nil))
			if err := c.Load(); err == nil {
				t.Fatal("expected load to fail")
			}
			if c.Len() != 0 {
				t.Error("cache should be empty after a failed load")
			}
		})
	}
}

func TestWriteIndexRoundTrip(t *testing.T) {
	idx := &Index{Packages: []Entry{{
		Name:     "foo",
		Version:  "1.0",
		Requires: []string{"bar >= 2"},
	}}}

	var buf bytes.Buffer
	if err := WriteIndex(&buf, idx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "- name: foo") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	h := test.NewHelper(t)
	h.TempFile("index.yaml", buf.String())
	got, err := readIndex(h.Path("index.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, idx) {
		t.Errorf("read back %+v", got)
	}
}
