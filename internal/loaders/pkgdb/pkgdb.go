// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pkgdb loads the installed-package database, a BoltDB file.
//
// Layout:
//
//	Bucket: "meta"
//	Keys: "format"
//
//	Bucket: "packages"
//	Sub-Bucket: "<sequence_number>", one per package
//	Keys: "kind", "name", "version", "arch", "summary", "description",
//	      "group", "url", "size", "installed-size"
//	Keys: "provides", "requires", "conflicts", "obsoletes", "upgrades",
//	      "files" (newline separated target strings or paths)
//	Sub-Bucket: "checksums"
//	Keys/Values: algorithm/digest
//
// Sequence numbers are big-endian keys of minimal width, so cursor order is
// the order the records were written in.
package pkgdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/loaders/base"
	"github.com/jmank88/nuts"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const formatVersion = "1"

var (
	metaBucket     = []byte("meta")
	packagesBucket = []byte("packages")
	checksumBucket = []byte("checksums")
	formatKey      = []byte("format")
)

// Record is one installed package.
type Record struct {
	Kind    gps.Kind
	Name    string
	Version string
	Arch    string
	base.Targets
	Files []string
	Info  gps.PackageInfo
}

// Config describes a package database channel.
type Config struct {
	Name string
	Path string
}

// Loader is a gps.Loader over a package database. Every package it reports
// is installed.
type Loader struct {
	base.Base
	cfg Config
}

// New returns a loader for cfg. A nil logger discards output.
func New(cfg Config, l *logrus.Logger) *Loader {
	return &Loader{
		Base: base.New(cfg.Name, l),
		cfg:  cfg,
	}
}

func open(path string, readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, errors.Wrapf(err, "opening package database %s", path)
	}
	return db, nil
}

// Load reads every record of the database.
func (ld *Loader) Load(in gps.Ingester) error {
	db, err := open(ld.cfg.Path, true)
	if err != nil {
		return err
	}
	defer db.Close()

	var n int
	err = db.View(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if meta == nil {
			return errors.New("missing meta bucket")
		}
		if v := string(meta.Get(formatKey)); v != formatVersion {
			return errors.Errorf("unsupported database format %q", v)
		}

		pkgs := tx.Bucket(packagesBucket)
		if pkgs == nil {
			return nil
		}
		c := pkgs.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if v != nil {
				continue
			}
			r, err := getRecord(pkgs.Bucket(k))
			if err != nil {
				return errors.Wrapf(err, "record %x", k)
			}
			d, err := r.packageData()
			if err != nil {
				return errors.Wrapf(err, "record %x (%s)", k, r.Name)
			}
			in.NewPackage(d)
			in.Step()
			n++
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "reading %s", ld.cfg.Path)
	}

	ld.SetLoadSteps(n)
	ld.Debug("loaded package database", logrus.Fields{
		"path":     ld.cfg.Path,
		"packages": n,
	})
	return nil
}

// Info returns the metadata recorded for p.
func (ld *Loader) Info(p *gps.Package) (gps.PackageInfo, error) {
	return base.StoredInfo(ld, p)
}

func (r Record) packageData() (gps.PackageData, error) {
	if r.Name == "" || r.Version == "" {
		return gps.PackageData{}, errors.New("name and version are required")
	}
	d := gps.PackageData{
		ID: gps.PackageID{
			Kind:    r.Kind,
			Name:    r.Name,
			Version: gps.JoinArch(r.Version, r.Arch),
		},
		Installed: true,
		Files:     append([]string(nil), r.Files...),
		Info:      r.Info,
	}
	if err := r.Targets.Apply(&d); err != nil {
		return d, err
	}
	return d, nil
}

// WriteDatabase creates, or replaces the contents of, the database at path
// with records.
func WriteDatabase(path string, records []Record) error {
	db, err := open(path, false)
	if err != nil {
		return err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return errors.Wrap(err, "failed to create meta bucket")
		}
		if err := meta.Put(formatKey, []byte(formatVersion)); err != nil {
			return errors.Wrap(err, "failed to put format")
		}

		if tx.Bucket(packagesBucket) != nil {
			if err := tx.DeleteBucket(packagesBucket); err != nil {
				return errors.Wrap(err, "failed to clear packages")
			}
		}
		pkgs, err := tx.CreateBucket(packagesBucket)
		if err != nil {
			return errors.Wrap(err, "failed to create packages bucket")
		}

		key := make(nuts.Key, nuts.KeyLen(uint64(len(records))))
		for i, r := range records {
			key.Put(uint64(i))
			b, err := pkgs.CreateBucket(key)
			if err != nil {
				return errors.Wrapf(err, "failed to create bucket for %s", r.Name)
			}
			if err := putRecord(b, r); err != nil {
				return errors.Wrapf(err, "failed to put %s", r.Name)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return err
	}
	return errors.Wrapf(db.Close(), "error closing package database %s", path)
}

func putRecord(b *bolt.Bucket, r Record) error {
	for _, field := range []struct{ k, v string }{
		{"kind", r.Kind.String()},
		{"name", r.Name},
		{"version", r.Version},
		{"arch", r.Arch},
		{"summary", r.Info.Summary},
		{"description", r.Info.Description},
		{"group", r.Info.Group},
		{"url", r.Info.URL},
		{"size", formatSize(r.Info.Size)},
		{"installed-size", formatSize(r.Info.InstalledSize)},
		{"provides", strings.Join(r.Provides, "\n")},
		{"requires", strings.Join(r.Requires, "\n")},
		{"conflicts", strings.Join(r.Conflicts, "\n")},
		{"obsoletes", strings.Join(r.Obsoletes, "\n")},
		{"upgrades", strings.Join(r.Upgrades, "\n")},
		{"files", strings.Join(r.Files, "\n")},
	} {
		if len(field.v) > 0 {
			if err := b.Put([]byte(field.k), []byte(field.v)); err != nil {
				return err
			}
		}
	}
	if len(r.Info.Checksums) == 0 {
		return nil
	}
	cb, err := b.CreateBucket(checksumBucket)
	if err != nil {
		return err
	}
	for algo, sum := range r.Info.Checksums {
		if err := cb.Put([]byte(algo), []byte(sum)); err != nil {
			return err
		}
	}
	return nil
}

func getRecord(b *bolt.Bucket) (Record, error) {
	get := func(k string) string { return string(b.Get([]byte(k))) }

	var r Record
	kind, ok := gps.ParseKind(get("kind"))
	if !ok {
		return r, errors.Errorf("unknown package kind %q", get("kind"))
	}
	r.Kind = kind
	r.Name = get("name")
	r.Version = get("version")
	r.Arch = get("arch")
	r.Provides = splitLines(get("provides"))
	r.Requires = splitLines(get("requires"))
	r.Conflicts = splitLines(get("conflicts"))
	r.Obsoletes = splitLines(get("obsoletes"))
	r.Upgrades = splitLines(get("upgrades"))
	r.Files = splitLines(get("files"))

	r.Info = gps.PackageInfo{
		Summary:     get("summary"),
		Description: get("description"),
		Group:       get("group"),
		URL:         get("url"),
	}
	var err error
	if r.Info.Size, err = parseSize(get("size")); err != nil {
		return r, err
	}
	if r.Info.InstalledSize, err = parseSize(get("installed-size")); err != nil {
		return r, err
	}
	if cb := b.Bucket(checksumBucket); cb != nil {
		r.Info.Checksums = make(map[string]string)
		err = cb.ForEach(func(k, v []byte) error {
			r.Info.Checksums[string(k)] = string(v)
			return nil
		})
	}
	return r, err
}

func formatSize(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, errors.Wrapf(err, "bad size %q", s)
}

// splitLines returns nil for an empty string.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
