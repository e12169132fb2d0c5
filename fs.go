// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package smart

import (
	"io"
	"os"
	"runtime"
	"syscall"

	"github.com/pkg/errors"
)

// writeFile writes the TOML form of in to path.
func writeFile(path string, in interface{ MarshalTOML() ([]byte, error) }) error {
	data, err := in.MarshalTOML()
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "cannot write %s", path)
}

// crossDevice reports whether err is a rename failure between filesystems.
func crossDevice(err error) bool {
	lerr, ok := err.(*os.LinkError)
	if !ok {
		return false
	}
	errno, ok := lerr.Err.(syscall.Errno)
	if !ok {
		return false
	}
	// ERROR_NOT_SAME_DEVICE
	if runtime.GOOS == "windows" && errno == 0x11 {
		return true
	}
	return errno == syscall.EXDEV
}

// renameWithFallback renames src to dest. Across filesystems it copies src
// and then removes it.
func renameWithFallback(src, dest string) error {
	if _, err := os.Lstat(src); err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	err := os.Rename(src, dest)
	switch {
	case err == nil:
		return nil
	case !crossDevice(err):
		return errors.Wrapf(err, "cannot rename %s to %s", src, dest)
	}

	if err := copyFile(src, dest); err != nil {
		return errors.Wrapf(err, "cannot copy %s to %s", src, dest)
	}
	return errors.Wrapf(os.Remove(src), "cannot delete %s", src)
}

// copyFile copies the contents and mode of src to dest.
func copyFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}

	si, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dest, si.Mode())
}
