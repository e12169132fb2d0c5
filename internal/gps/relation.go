// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Op is a version comparison operator used in relations and targets.
type Op uint8

const (
	// OpNone places no restriction on the version.
	OpNone Op = iota
	OpEQ
	OpLT
	OpLE
	OpGT
	OpGE
)

var opStrings = [...]string{"", "=", "<", "<=", ">", ">="}

func (o Op) String() string {
	if int(o) < len(opStrings) {
		return opStrings[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// ParseOp parses a comparison operator. The empty string yields OpNone, and
// "==" is accepted as an alias for "=".
func ParseOp(s string) (Op, error) {
	switch s {
	case "":
		return OpNone, nil
	case "=", "==":
		return OpEQ, nil
	case "<":
		return OpLT, nil
	case "<=":
		return OpLE, nil
	case ">":
		return OpGT, nil
	case ">=":
		return OpGE, nil
	}
	return OpNone, errors.Errorf("unknown relation operator %q", s)
}

// Check reports whether a comparison result, as returned by CompareVersions,
// satisfies the operator.
func (o Op) Check(cmp int) bool {
	switch o {
	case OpNone:
		return true
	case OpEQ:
		return cmp == 0
	case OpLT:
		return cmp < 0
	case OpLE:
		return cmp <= 0
	case OpGT:
		return cmp > 0
	case OpGE:
		return cmp >= 0
	}
	return false
}

// MatchVersion reports whether the version have satisfies "op want". If want
// carries no release, the release of have is not considered.
func MatchVersion(have string, op Op, want string) bool {
	if op == OpNone {
		return true
	}
	return op.Check(compareConstraint(have, want))
}

// RelKind identifies the role a relation plays for the package carrying it.
type RelKind uint8

const (
	// Provides is a capability the package offers.
	Provides RelKind = iota
	// NameProvides is the capability a package offers under its own name and
	// version. Only it can satisfy Upgrades and Obsoletes.
	NameProvides
	Requires
	// Upgrades marks the packages a package can replace during an upgrade.
	Upgrades
	Conflicts
	// Obsoletes is a conflict which only matches packages by their own name.
	Obsoletes
)

var relKindStrings = [...]string{"provides", "provides", "requires", "upgrades", "conflicts", "obsoletes"}

func (k RelKind) String() string {
	if int(k) < len(relKindStrings) {
		return relKindStrings[k]
	}
	return fmt.Sprintf("RelKind(%d)", uint8(k))
}

// Relation is a single typed edge of the package graph. Provides carry an
// optional version and no operator; every other kind names a constraint.
type Relation struct {
	Kind    RelKind
	Name    string
	Op      Op
	Version string
}

func (r Relation) String() string {
	switch {
	case r.Kind == Provides || r.Kind == NameProvides:
		if r.Version == "" {
			return r.Name
		}
		return r.Name + " = " + r.Version
	case r.Op == OpNone:
		return r.Name
	}
	return r.Name + " " + r.Op.String() + " " + r.Version
}

// IsFile reports whether the relation names a file path rather than a
// capability.
func (r Relation) IsFile() bool {
	return strings.HasPrefix(r.Name, "/")
}

// SatisfiedBy reports whether the provide prv fulfils the constraint r.
//
// An unversioned provide only satisfies an unversioned constraint. Upgrades
// and Obsoletes are only satisfied by a package's own NameProvides.
func (r Relation) SatisfiedBy(prv Relation) bool {
	if prv.Name != r.Name {
		return false
	}
	switch prv.Kind {
	case Provides:
		if r.Kind == Upgrades || r.Kind == Obsoletes {
			return false
		}
	case NameProvides:
	default:
		return false
	}
	if r.Op == OpNone {
		return true
	}
	if prv.Version == "" {
		return false
	}
	return MatchVersion(prv.Version, r.Op, r.Version)
}

// RelationSet is an insertion-ordered set of relations. The zero value is an
// empty set ready to use.
type RelationSet struct {
	list []Relation
	seen map[Relation]struct{}
}

// InsertUnique adds r to the set unless it is already present, and reports
// whether it was added.
func (s *RelationSet) InsertUnique(r Relation) bool {
	if s.seen == nil {
		s.seen = make(map[Relation]struct{})
	}
	if _, has := s.seen[r]; has {
		return false
	}
	s.seen[r] = struct{}{}
	s.list = append(s.list, r)
	return true
}

// Has reports whether r is in the set.
func (s *RelationSet) Has(r Relation) bool {
	_, has := s.seen[r]
	return has
}

// Len returns the number of relations in the set.
func (s *RelationSet) Len() int {
	return len(s.list)
}

// All returns the relations in insertion order. The slice must not be
// modified.
func (s *RelationSet) All() []Relation {
	return s.list
}
