package pkgdb

import (
	"reflect"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/loaders/base"
	"github.com/endianspa/smart/internal/test"
)

func testRecords() []Record {
	return []Record{
		{
			Kind:    gps.RPMKind,
			Name:    "bash",
			Version: "5.1-2",
			Arch:    "x86_64",
			Targets: base.Targets{
				Provides: []string{"sh = 5.1"},
				Requires: []string{"glibc >= 2.34"},
			},
			Files: []string{"/bin/bash", "/bin/sh"},
			Info: gps.PackageInfo{
				Summary:       "The GNU Bourne Again shell",
				InstalledSize: 4000,
				Checksums:     map[string]string{"sha256": "abc123"},
			},
		},
		{
			Kind:    gps.RPMKind,
			Name:    "glibc",
			Version: "2.34-1",
			Arch:    "x86_64",
			Targets: base.Targets{
				Obsoletes: []string{"glibc-compat < 2"},
			},
		},
	}
}

func TestWriteAndLoad(t *testing.T) {
	h := test.NewHelper(t)
	path := h.Path("installed.db")
	h.Must(WriteDatabase(path, testRecords()))

	ld := New(Config{Name: "system", Path: path}, test.Logger(t))
	c := gps.NewCache(test.Logger(t))
	c.AddLoader(ld)
	h.Must(c.Load())

	if ld.LoadSteps() != 2 {
		t.Errorf("LoadSteps = %d, want 2", ld.LoadSteps())
	}
	var names []string
	for _, p := range c.Packages("") {
		names = append(names, p.String())
		if !p.Installed {
			t.Errorf("%s should be installed", p)
		}
	}
	if !reflect.DeepEqual(names, []string{"bash-5.1-2@x86_64", "glibc-2.34-1@x86_64"}) {
		t.Fatalf("loaded %v", names)
	}

	bash := c.Packages("bash")[0]
	wantReq := []gps.Relation{{Kind: gps.Requires, Name: "glibc", Op: gps.OpGE, Version: "2.34"}}
	if !reflect.DeepEqual(bash.Requires(), wantReq) {
		t.Errorf("requires = %v", bash.Requires())
	}
	if got := c.WhoProvides("sh"); len(got) != 1 || got[0] != bash {
		t.Errorf("WhoProvides(sh) = %v", got)
	}
	if got := c.PendingFileProvides("/bin/"); !reflect.DeepEqual(got, []string{"/bin/bash", "/bin/sh"}) {
		t.Errorf("pending files = %v", got)
	}
	if got := c.WhoUpgrades("glibc-compat"); len(got) != 1 {
		t.Errorf("obsoletes should also be an upgrade, got %v", got)
	}

	info, err := bash.Info()
	h.Must(err)
	want := testRecords()[0].Info
	if !reflect.DeepEqual(info, want) {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestWriteReplaces(t *testing.T) {
	h := test.NewHelper(t)
	path := h.Path("installed.db")
	h.Must(WriteDatabase(path, testRecords()))
	h.Must(WriteDatabase(path, testRecords()[1:]))

	c := gps.NewCache(nil)
	c.AddLoader(New(Config{Name: "system", Path: path}, nil))
	h.Must(c.Load())
	if c.Len() != 1 {
		t.Errorf("expected the rewrite to replace old records, got %d packages", c.Len())
	}
}

func TestLoadErrors(t *testing.T) {
	h := test.NewHelper(t)

	c := gps.NewCache(nil)
	c.AddLoader(New(Config{Name: "missing", Path: h.Path("nope.db")}, nil))
	if _, ok := c.Load().(*gps.LoadError); !ok {
		t.Error("a missing database should fail with a *gps.LoadError")
	}

	// A bolt file without the meta bucket is not a package database.
	path := h.Path("other.db")
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	h.Must(err)
	h.Must(db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket([]byte("unrelated"))
		return err
	}))
	h.Must(db.Close())

	c = gps.NewCache(nil)
	c.AddLoader(New(Config{Name: "other", Path: path}, nil))
	if err := c.Load(); err == nil {
		t.Error("expected a format error")
	}
	if c.Len() != 0 {
		t.Error("cache should be empty after a failed load")
	}
}

func TestRecordRequiresNameAndVersion(t *testing.T) {
	if _, err := (Record{Name: "a"}).packageData(); err == nil {
		t.Error("a record without a version should be rejected")
	}
}
