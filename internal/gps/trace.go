// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	successChar   = "✓"
	successCharSp = successChar + " "
	failChar      = "✗"
	failCharSp    = failChar + " "
	backChar      = "←"
)

func (s *solver) traceStart() {
	if !s.trace {
		return
	}

	s.tl.Printf("Transaction %s: %d requests, policy %q", s.id, len(s.queue), s.pol.Name)
}

// traceRequest is called as each request, queued or default, is applied.
func (s *solver) traceRequest(r Request) {
	if !s.trace {
		return
	}

	s.tl.Printf("? %s", r)
}

// traceSelect is called when a package is marked for installation or removal.
func (s *solver) traceSelect(p *Package, st pkgState) {
	if !s.trace {
		return
	}

	verb := "install"
	if st == stRemove {
		verb = "remove"
	}
	prefix := strings.Repeat("| ", s.depth+1)
	s.tl.Printf("%s\n", tracePrefix(fmt.Sprintf("%s %s", successCharSp+verb, p), prefix, prefix))
}

// traceBacktrack is called when a candidate is abandoned and the selection
// rolled back.
func (s *solver) traceBacktrack(p *Package, err error) {
	if !s.trace {
		return
	}

	prefix := strings.Repeat("| ", s.depth+1)
	s.tl.Printf("%s\n", tracePrefix(fmt.Sprintf("%s backtrack: drop %s", backChar, p), prefix, prefix))
	s.traceInfo(err)
}

func (s *solver) traceFailure(err error) {
	if !s.trace {
		return
	}

	s.tl.Printf("%s\n", tracePrefix(err.Error(), "  ", failCharSp))
}

// Called just once after resolution has finished, whether success or not.
func (s *solver) traceFinish(res Result) {
	if !s.trace {
		return
	}

	if res.OK() {
		s.tl.Printf("%s plan: install %d, remove %d after %d steps", successChar, len(res.Install), len(res.Remove), res.Steps)
	} else {
		s.tl.Printf("%s transaction failed: %d unsatisfiable requests", failChar, len(res.Failures))
	}
}

func (s *solver) traceInfo(args ...interface{}) {
	if !s.trace {
		return
	}

	if len(args) == 0 {
		panic("must pass at least one param to traceInfo")
	}

	var msg string
	switch data := args[0].(type) {
	case string:
		msg = tracePrefix(fmt.Sprintf(data, args[1:]...), "| ", "| ")
	case traceError:
		// We got a special traceError, use its custom method
		msg = tracePrefix(data.traceString(), "| ", failCharSp)
	case error:
		// Regular error; still use the x leader but default Error() string
		msg = tracePrefix(data.Error(), "| ", failCharSp)
	default:
		// panic here because this can *only* mean a stupid internal bug
		panic(fmt.Sprintf("canary - unknown type passed as first param to traceInfo %T", data))
	}

	prefix := strings.Repeat("| ", s.depth+1)
	s.tl.Printf("%s\n", tracePrefix(msg, prefix, prefix))
}

func tracePrefix(msg, sep, fsep string) string {
	parts := strings.Split(strings.TrimSuffix(msg, "\n"), "\n")
	for k, str := range parts {
		if k == 0 {
			parts[k] = fsep + str
		} else {
			parts[k] = sep + str
		}
	}

	return strings.Join(parts, "\n")
}

// discardLogger returns a logger which drops everything.
func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}
