// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package base holds the pieces shared by every loader implementation.
package base

import (
	"bufio"
	"compress/gzip"
	"io"
	"os"

	"github.com/endianspa/smart/internal/gps"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Base implements the bookkeeping parts of gps.Loader. Loaders embed it and
// supply Load and Info.
type Base struct {
	name  string
	steps int
	L     *logrus.Logger
}

// New returns a Base for a loader called name. A nil logger discards output.
func New(name string, l *logrus.Logger) Base {
	if l == nil {
		l = logrus.New()
		l.Out = io.Discard
	}
	return Base{name: name, L: l}
}

// Name returns the loader name.
func (b *Base) Name() string { return b.name }

// LoadSteps returns the step estimate recorded by the last SetLoadSteps.
func (b *Base) LoadSteps() int { return b.steps }

// SetLoadSteps records how many steps the next load is expected to take.
func (b *Base) SetLoadSteps(n int) { b.steps = n }

// Reset is a no-op; loaders with state override it.
func (b *Base) Reset() {}

// Debug logs at debug level with the loader name attached.
func (b *Base) Debug(msg string, fields logrus.Fields) {
	if b.L.Level < logrus.DebugLevel {
		return
	}
	b.L.WithField("loader", b.name).WithFields(fields).Debug(msg)
}

// StoredInfo returns the metadata l recorded for p at load time.
func StoredInfo(l gps.Loader, p *gps.Package) (gps.PackageInfo, error) {
	info, ok := p.LoaderInfo(l)
	if !ok {
		return gps.PackageInfo{}, errors.Errorf("%s was not loaded by %s", p, l.Name())
	}
	return info, nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc readCloser) Close() error {
	var err error
	for k := len(rc.closers) - 1; k >= 0; k-- {
		if cerr := rc.closers[k].Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open opens a metadata file, transparently decompressing it if it is
// gzipped.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "decompressing %s", path)
		}
		return readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
	}
	return readCloser{Reader: br, closers: []io.Closer{f}}, nil
}
