// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package test

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// UpdateGolden controls updating golden files.
var UpdateGolden = flag.Bool("update", false, "update golden files")

// Helper with utilities for testing.
type Helper struct {
	t       *testing.T
	tempdir string
}

// NewHelper initializes a new helper for testing.
func NewHelper(t *testing.T) *Helper {
	return &Helper{t: t}
}

// Must gives a fatal error if err is not nil.
func (h *Helper) Must(err error) {
	if err != nil {
		h.t.Fatalf("%+v", err)
	}
}

// Path returns the absolute pathname to file with the temporary
// directory.
func (h *Helper) Path(name string) string {
	h.makeTempdir()
	if name == "." {
		return h.tempdir
	}
	return filepath.Join(h.tempdir, name)
}

// TempFile writes contents to path under the temporary directory,
// creating parent directories.
func (h *Helper) TempFile(path, contents string) {
	h.makeTempdir()
	h.Must(os.MkdirAll(filepath.Join(h.tempdir, filepath.Dir(path)), 0755))
	h.Must(os.WriteFile(filepath.Join(h.tempdir, path), []byte(contents), 0644))
}

// ReadFile returns the contents of a file in the temporary directory.
func (h *Helper) ReadFile(path string) string {
	b, err := os.ReadFile(h.Path(path))
	h.Must(errors.Wrapf(err, "unable to read %s", path))
	return string(b)
}

// makeTempdir creates the helper's temporary directory on first use.
func (h *Helper) makeTempdir() {
	if h.tempdir == "" {
		h.tempdir = h.t.TempDir()
	}
}

// GetTestFileString reads a file from the package's testdata directory.
func (h *Helper) GetTestFileString(src string) string {
	b, err := os.ReadFile(filepath.Join("testdata", src))
	h.Must(errors.Wrapf(err, "unable to read testdata/%s", src))
	return string(b)
}

// CompareGolden compares got against the named golden file in testdata,
// rewriting the file instead when -update is set.
func (h *Helper) CompareGolden(name, got string) {
	path := filepath.Join("testdata", name)
	if *UpdateGolden {
		h.Must(os.MkdirAll(filepath.Dir(path), 0755))
		h.Must(os.WriteFile(path, []byte(got), 0644))
		return
	}
	want := h.GetTestFileString(name)
	if strings.TrimSpace(got) != strings.TrimSpace(want) {
		h.t.Errorf("%s does not match:\n(WNT):\n%s\n(GOT):\n%s", name, want, got)
	}
}

// Logger returns a logrus logger writing into the test log. It logs at
// debug level when tests run verbosely.
func Logger(tb testing.TB) *logrus.Logger {
	l := logrus.New()
	l.Out = Writer{TB: tb}
	if testing.Verbose() {
		l.Level = logrus.DebugLevel
	} else {
		l.Level = logrus.WarnLevel
	}
	return l
}
