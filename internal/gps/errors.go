// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"bytes"
	"fmt"
	"strings"
)

// traceError is implemented by failures which render differently in trace
// output than in their Error() string.
type traceError interface {
	traceString() string
}

// BadOptsFailure is returned when a transaction is configured incorrectly.
type BadOptsFailure string

func (e BadOptsFailure) Error() string {
	return string(e)
}

// LoadError reports a loader which failed during a cache load pass. The
// cache is left empty when one is returned.
type LoadError struct {
	Loader string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading %s: %s", e.Loader, e.Err)
}

// Cause returns the underlying loader error.
func (e *LoadError) Cause() error { return e.Err }

func (e *LoadError) Unwrap() error { return e.Err }

// InvalidTargetError is returned for a malformed target string.
type InvalidTargetError struct {
	Target string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target: %q", e.Target)
}

// FailureKind classifies why a request could not be honored.
type FailureKind uint8

const (
	// UnresolvedDependency means no available package could satisfy a
	// requirement.
	UnresolvedDependency FailureKind = iota
	// ConstraintConflict means the change collided with a conflict, an
	// obsoletes or package uniqueness. A request which exhausts the step
	// limit without reaching a stable plan is also reported as a conflict;
	// its error names the limit.
	ConstraintConflict
	// LockViolation means the change would have altered a locked package.
	LockViolation
)

func (k FailureKind) String() string {
	switch k {
	case UnresolvedDependency:
		return "unresolved dependency"
	case ConstraintConflict:
		return "conflict"
	case LockViolation:
		return "lock violation"
	}
	return fmt.Sprintf("FailureKind(%d)", uint8(k))
}

// Failure records a request which could not be honored.
type Failure struct {
	Request Request
	Kind    FailureKind
	Err     error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Request, f.Err)
}

// UnsatisfiableError is returned by Result.Err when a transaction failed.
type UnsatisfiableError struct {
	Failures []Failure
}

func (e *UnsatisfiableError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d requests could not be satisfied:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&buf, "\n\t%s", strings.Replace(f.Error(), "\n", "\n\t", -1))
	}
	return buf.String()
}

// failedCandidate is a provider which was tried for a requirement and
// rejected.
type failedCandidate struct {
	pkg *Package
	err error
}

type unresolvedDependencyFailure struct {
	pkg   *Package
	req   Relation
	fails []failedCandidate
}

func (e *unresolvedDependencyFailure) Error() string {
	if len(e.fails) == 0 {
		return fmt.Sprintf("%s requires %s, but no available package provides it", e.pkg, e.req)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s requires %s, but no provider could be installed:", e.pkg, e.req)
	for _, f := range e.fails {
		fmt.Fprintf(&buf, "\n\t%s: %s", f.pkg, f.err)
	}
	return buf.String()
}

func (e *unresolvedDependencyFailure) traceString() string {
	if len(e.fails) == 0 {
		return fmt.Sprintf("nothing provides %s for %s", e.req, e.pkg)
	}
	return fmt.Sprintf("all %d providers of %s for %s failed", len(e.fails), e.req, e.pkg)
}

// lockedOnly reports whether every rejected candidate failed on a lock.
func (e *unresolvedDependencyFailure) lockedOnly() bool {
	if len(e.fails) == 0 {
		return false
	}
	for _, f := range e.fails {
		if failureKind(f.err) != LockViolation {
			return false
		}
	}
	return true
}

type conflictFailure struct {
	pkg   *Package
	other *Package
	rel   Relation
	// reason explains a conflict which is not due to a relation.
	reason string
}

func (e *conflictFailure) Error() string {
	switch {
	case e.reason != "" && e.other == nil:
		return fmt.Sprintf("%s %s", e.pkg, e.reason)
	case e.reason != "":
		return fmt.Sprintf("%s cannot be installed alongside %s: %s", e.pkg, e.other, e.reason)
	}
	return fmt.Sprintf("%s cannot be installed alongside %s (%s %s)", e.pkg, e.other, e.rel.Kind, e.rel)
}

func (e *conflictFailure) traceString() string {
	if e.other == nil {
		return fmt.Sprintf("%s %s", e.pkg, e.reason)
	}
	return fmt.Sprintf("%s clashes with %s", e.pkg, e.other)
}

type lockViolationFailure struct {
	pkg    *Package
	action Action
}

func (e *lockViolationFailure) Error() string {
	verb := "installed"
	if e.action == Remove {
		verb = "removed"
	}
	return fmt.Sprintf("%s is locked and cannot be %s", e.pkg, verb)
}

func (e *lockViolationFailure) traceString() string {
	return fmt.Sprintf("%s is locked", e.pkg)
}

type noUpgradeFailure struct {
	pkg   *Package
	fails []failedCandidate
}

func (e *noUpgradeFailure) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "no upgrade of %s could be installed:", e.pkg)
	for _, f := range e.fails {
		fmt.Fprintf(&buf, "\n\t%s: %s", f.pkg, f.err)
	}
	return buf.String()
}

func (e *noUpgradeFailure) traceString() string {
	return fmt.Sprintf("all %d upgrades of %s failed", len(e.fails), e.pkg)
}

type iterationLimitFailure struct {
	limit int
}

func (e *iterationLimitFailure) Error() string {
	return fmt.Sprintf("step limit of %d reached without a stable plan", e.limit)
}

// failureKind classifies a resolution error.
func failureKind(err error) FailureKind {
	switch e := err.(type) {
	case *lockViolationFailure:
		return LockViolation
	case *unresolvedDependencyFailure:
		if e.lockedOnly() {
			return LockViolation
		}
		return UnresolvedDependency
	case *noUpgradeFailure:
		if len(e.fails) > 0 {
			return failureKind(e.fails[0].err)
		}
	}
	return ConstraintConflict
}
