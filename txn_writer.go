// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// SafeWriter replaces the configuration file in a pseudo-atomic way: the new
// contents are written next to it and moved in place, and the old file is put
// back if the move fails. Writers serialize on an advisory lock held on
// Path + ".lock".
type SafeWriter struct {
	Path string
}

// Update locks the configuration, reads it, applies fn and writes the result.
// Nothing is written if fn fails.
func (sw *SafeWriter) Update(fn func(*Config) error) error {
	lock := flock.New(sw.Path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errors.Wrapf(err, "unable to lock %s", sw.Path)
	}
	if !locked {
		return errors.Errorf("%s is locked by another process", sw.Path)
	}
	defer lock.Unlock()

	cfg, err := LoadConfig(sw.Path)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return sw.write(cfg)
}

func (sw *SafeWriter) write(cfg *Config) error {
	dir := filepath.Dir(sw.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "unable to create %s", dir)
	}
	td, err := os.MkdirTemp(dir, ".smart")
	if err != nil {
		return errors.Wrap(err, "error while creating temp dir for writing config")
	}
	defer os.RemoveAll(td)

	name := filepath.Base(sw.Path)
	if err := writeFile(filepath.Join(td, name), cfg); err != nil {
		return errors.Wrap(err, "failed to write config file to temp dir")
	}

	// Move the existing file out while the new one goes in, so it can be
	// restored.
	var orig string
	if _, err := os.Stat(sw.Path); err == nil {
		orig = filepath.Join(td, name+".orig")
		if err := renameWithFallback(sw.Path, orig); err != nil {
			return err
		}
	}
	if err := renameWithFallback(filepath.Join(td, name), sw.Path); err != nil {
		if orig != "" {
			// Nothing we can do on err here, as we're already in recovery mode.
			renameWithFallback(orig, sw.Path)
		}
		return err
	}
	return nil
}
