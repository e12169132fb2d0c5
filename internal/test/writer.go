// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package test

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

// Writer sends each non-blank line written to it to the test log of TB,
// optionally prefixed. Solver traces and CLI loggers write through it.
type Writer struct {
	testing.TB
	Prefix string
}

func (w Writer) Write(b []byte) (int, error) {
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if line == "" {
			continue
		}
		w.Log(w.Prefix + line)
	}
	return len(b), sc.Err()
}
