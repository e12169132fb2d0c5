// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"strconv"
	"strings"
)

// archSep separates the epoch:version-release part of a package version from
// its architecture, e.g. "1:2.3-4@x86_64".
const archSep = "@"

// SplitArch splits a package version into its epoch:version-release part and
// its architecture. The architecture is empty if the version carries none.
func SplitArch(v string) (evr, arch string) {
	if i := strings.LastIndex(v, archSep); i >= 0 {
		return v[:i], v[i+1:]
	}
	return v, ""
}

// JoinArch folds an architecture into a package version string.
func JoinArch(evr, arch string) string {
	if arch == "" {
		return evr
	}
	return evr + archSep + arch
}

type evr struct {
	epoch   int64
	version string
	release string
}

func parseEVR(v string) evr {
	v, _ = SplitArch(v)

	var e evr
	if i := strings.IndexByte(v, ':'); i >= 0 {
		if n, err := strconv.ParseInt(v[:i], 10, 64); err == nil {
			e.epoch = n
			v = v[i+1:]
		}
	}
	if i := strings.LastIndexByte(v, '-'); i >= 0 {
		e.version, e.release = v[:i], v[i+1:]
	} else {
		e.version = v
	}
	return e
}

// CompareVersions compares two package versions using RPM ordering: epochs
// numerically (a missing epoch is 0), then version and release segment by
// segment. Any architecture suffix is ignored. It returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	if a == b {
		return 0
	}
	return compareEVR(parseEVR(a), parseEVR(b), true)
}

func compareEVR(a, b evr, withRelease bool) int {
	switch {
	case a.epoch < b.epoch:
		return -1
	case a.epoch > b.epoch:
		return 1
	}
	if c := vercmp(a.version, b.version); c != 0 || !withRelease {
		return c
	}
	return vercmp(a.release, b.release)
}

// compareConstraint compares a concrete version against the version named in
// a constraint. A constraint that carries no release matches any release.
func compareConstraint(have, want string) int {
	w := parseEVR(want)
	return compareEVR(parseEVR(have), w, w.release != "")
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }
func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

// vercmp is the segment comparison at the heart of rpmvercmp. Separators are
// any non-alphanumeric characters except '~' and '^'. A '~' sorts before
// everything, including the end of the string; a '^' sorts after the end of
// the string but before any other segment.
func vercmp(a, b string) int {
	if a == b {
		return 0
	}
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) && a[i] != '~' && a[i] != '^' {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) && b[j] != '~' && b[j] != '^' {
			j++
		}

		ta, tb := i < len(a) && a[i] == '~', j < len(b) && b[j] == '~'
		if ta || tb {
			if !ta {
				return 1
			}
			if !tb {
				return -1
			}
			i++
			j++
			continue
		}

		ca, cb := i < len(a) && a[i] == '^', j < len(b) && b[j] == '^'
		if ca || cb {
			if i >= len(a) {
				return -1
			}
			if j >= len(b) {
				return 1
			}
			if !ca {
				return 1
			}
			if !cb {
				return -1
			}
			i++
			j++
			continue
		}

		if i >= len(a) || j >= len(b) {
			break
		}

		si, sj := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
		}

		// Segments of different types: the numeric one is newer.
		if sj == j {
			if numeric {
				return 1
			}
			return -1
		}

		sa, sb := a[si:i], b[sj:j]
		if numeric {
			sa = strings.TrimLeft(sa, "0")
			sb = strings.TrimLeft(sb, "0")
			if len(sa) != len(sb) {
				if len(sa) > len(sb) {
					return 1
				}
				return -1
			}
		}
		if c := strings.Compare(sa, sb); c != 0 {
			return c
		}
	}

	switch {
	case i >= len(a) && j >= len(b):
		return 0
	case i >= len(a):
		return -1
	}
	return 1
}
