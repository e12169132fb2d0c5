// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rpmmd loads packages from rpm-md repository metadata, the
// primary.xml file of a yum repository.
package rpmmd

import (
	"encoding/xml"
	"io"

	"github.com/endianspa/smart/internal/gps"
	"github.com/endianspa/smart/internal/loaders/base"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config describes an rpm-md channel.
type Config struct {
	// Name identifies the loader, usually the channel alias.
	Name string
	// Path is the primary metadata file, optionally gzipped.
	Path string
	// BaseURL is joined with each package location to form its URL.
	BaseURL string
	// Arches restricts loading to these architectures. Empty accepts every
	// binary architecture.
	Arches []string
}

// Loader is a gps.Loader over a primary metadata file.
type Loader struct {
	base.Base
	cfg    Config
	arches map[string]bool
}

// New returns a loader for cfg. A nil logger discards output.
func New(cfg Config, l *logrus.Logger) *Loader {
	ld := &Loader{
		Base: base.New(cfg.Name, l),
		cfg:  cfg,
	}
	if len(cfg.Arches) > 0 {
		ld.arches = make(map[string]bool, len(cfg.Arches))
		for _, a := range cfg.Arches {
			ld.arches[a] = true
		}
	}
	return ld
}

// accept reports whether packages built for arch should be loaded. Source
// packages are never loaded.
func (ld *Loader) accept(arch string) bool {
	if arch == "" || arch == "src" || arch == "nosrc" {
		return false
	}
	if ld.arches == nil {
		return true
	}
	return ld.arches[arch]
}

// Load parses the metadata file and reports every accepted package.
func (ld *Loader) Load(in gps.Ingester) error {
	rc, err := base.Open(ld.cfg.Path)
	if err != nil {
		return err
	}
	defer rc.Close()

	n, skipped, err := ld.parse(rc, in)
	if err != nil {
		return errors.Wrapf(err, "parsing %s", ld.cfg.Path)
	}
	ld.SetLoadSteps(n)
	ld.Debug("loaded primary metadata", logrus.Fields{
		"path":     ld.cfg.Path,
		"packages": n,
		"skipped":  skipped,
	})
	return nil
}

func (ld *Loader) parse(r io.Reader, in gps.Ingester) (int, int, error) {
	var n int
	p := &parser{
		baseURL: ld.cfg.BaseURL,
		accept:  ld.accept,
		emit: func(d *pkgData) {
			in.NewPackage(ld.packageData(d))
			in.Step()
			n++
		},
	}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, p.skipped, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make(map[string]string, len(t.Attr))
			for _, a := range t.Attr {
				attrs[a.Name.Local] = a.Value
			}
			p.onOpen(t.Name, attrs)
		case xml.EndElement:
			p.onClose(t.Name)
		case xml.CharData:
			p.onText(t)
		}
	}
	if len(p.stack) != 0 {
		return n, p.skipped, errors.New("unexpected end of document")
	}
	return n, p.skipped, nil
}

// packageData converts a parsed package, dropping requirements the package
// satisfies itself.
func (ld *Loader) packageData(d *pkgData) gps.PackageData {
	self := func(r gps.Relation) bool {
		if r.Name == d.name && r.Version == d.evr {
			return true
		}
		for _, prv := range d.provides {
			if prv.Name == r.Name && prv.Version == r.Version {
				return true
			}
		}
		return false
	}
	reqs := d.requires[:0:0]
	for _, r := range d.requires {
		if !self(r) {
			reqs = append(reqs, r)
		}
	}

	return gps.PackageData{
		ID: gps.PackageID{
			Kind:    gps.RPMKind,
			Name:    d.name,
			Version: gps.JoinArch(d.evr, d.arch),
		},
		Provides:  d.provides,
		Requires:  reqs,
		Upgrades:  d.upgrades,
		Conflicts: d.conflicts,
		Files:     d.files,
		Info:      d.info,
	}
}

// Info returns the metadata recorded for p.
func (ld *Loader) Info(p *gps.Package) (gps.PackageInfo, error) {
	return base.StoredInfo(ld, p)
}
