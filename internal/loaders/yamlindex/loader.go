// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package yamlindex loads packages from YAML index documents. An index is
// either a single file or a directory of *.yaml and *.yml files.
//
// Relations are written as target strings, e.g. "libfoo >= 1.2":
//
//	packages:
//	  - name: foo
//	    version: 1.0-1
//	    arch: x86_64
//	    requires: ["libfoo >= 1.2", "/bin/sh"]
//	    provides: ["foo-tools = 1.0"]
//	    obsoletes: ["oldfoo < 1.0"]
//	    files: ["/usr/bin/foo"]
package yamlindex

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/loaders/base"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"
)

// Index is the document format.
type Index struct {
	Packages []Entry `yaml:"packages"`
}

// Entry describes one package.
type Entry struct {
	Name      string   `yaml:"name"`
	Version   string   `yaml:"version"`
	Arch      string   `yaml:"arch,omitempty"`
	Kind      string   `yaml:"kind,omitempty"`
	Installed bool     `yaml:"installed,omitempty"`
	Provides  []string `yaml:"provides,omitempty"`
	Requires  []string `yaml:"requires,omitempty"`
	Conflicts []string `yaml:"conflicts,omitempty"`
	Obsoletes []string `yaml:"obsoletes,omitempty"`
	Upgrades  []string `yaml:"upgrades,omitempty"`
	Files     []string `yaml:"files,omitempty"`

	Summary       string            `yaml:"summary,omitempty"`
	Description   string            `yaml:"description,omitempty"`
	Group         string            `yaml:"group,omitempty"`
	URL           string            `yaml:"url,omitempty"`
	Size          int64             `yaml:"size,omitempty"`
	InstalledSize int64             `yaml:"installed_size,omitempty"`
	Checksums     map[string]string `yaml:"checksums,omitempty"`
}

// Config describes a YAML index channel.
type Config struct {
	Name string
	// Path is an index file or a directory of index files.
	Path string
	// Installed marks every package of the index as installed.
	Installed bool
}

// Loader is a gps.Loader over a YAML index.
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

// files lists the index files in lexical order.
func (ld *Loader) files() ([]string, error) {
	fi, err := os.Stat(ld.cfg.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading index %s", ld.cfg.Path)
	}
	if !fi.IsDir() {
		return []string{ld.cfg.Path}, nil
	}

	var files []string
	err = godirwalk.Walk(ld.cfg.Path, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			switch filepath.Ext(osPathname) {
			case ".yaml", ".yml":
				files = append(files, osPathname)
			}
			return nil
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking index %s", ld.cfg.Path)
	}
	return files, nil
}

// LoadSteps returns the number of index files.
func (ld *Loader) LoadSteps() int {
	files, err := ld.files()
	if err != nil {
		return 0
	}
	return len(files)
}

// Load decodes every index file and reports its packages.
func (ld *Loader) Load(in gps.Ingester) error {
	files, err := ld.files()
	if err != nil {
		return err
	}

	var n int
	for _, path := range files {
		idx, err := readIndex(path)
		if err != nil {
			return err
		}
		for k, e := range idx.Packages {
			d, err := ld.packageData(e)
			if err != nil {
				return errors.Wrapf(err, "%s: package %d", path, k)
			}
			in.NewPackage(d)
			n++
		}
		in.Step()
	}
	ld.Debug("loaded yaml index", logrus.Fields{
		"path":     ld.cfg.Path,
		"files":    len(files),
		"packages": n,
	})
	return nil
}

func readIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	var idx Index
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&idx); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return &idx, nil
}

func (ld *Loader) packageData(e Entry) (gps.PackageData, error) {
	if e.Name == "" || e.Version == "" {
		return gps.PackageData{}, errors.New("name and version are required")
	}
	kind, ok := gps.ParseKind(e.Kind)
	if !ok {
		return gps.PackageData{}, errors.Errorf("unknown package kind %q", e.Kind)
	}

	d := gps.PackageData{
		ID: gps.PackageID{
			Kind:    kind,
			Name:    e.Name,
			Version: gps.JoinArch(e.Version, e.Arch),
		},
		Installed: ld.cfg.Installed || e.Installed,
		Info: gps.PackageInfo{
			URL:           e.URL,
			Size:          e.Size,
			InstalledSize: e.InstalledSize,
			Summary:       e.Summary,
			Description:   e.Description,
			Group:         e.Group,
			Checksums:     e.Checksums,
		},
	}

	t := base.Targets{
		Provides:  e.Provides,
		Requires:  e.Requires,
		Conflicts: e.Conflicts,
		Obsoletes: e.Obsoletes,
		Upgrades:  e.Upgrades,
	}
	if err := t.Apply(&d); err != nil {
		return d, err
	}
	for _, f := range e.Files {
		if strings.HasPrefix(f, "/") {
			d.Files = append(d.Files, f)
		}
	}
	return d, nil
}

// Info returns the metadata recorded for p.
func (ld *Loader) Info(p *gps.Package) (gps.PackageInfo, error) {
	return base.StoredInfo(ld, p)
}

// WriteIndex encodes idx as YAML to w.
func WriteIndex(w io.Writer, idx *Index) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(idx); err != nil {
		return errors.Wrap(err, "encoding index")
	}
	return enc.Close()
}
