// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"log"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Request asks for an action on one package.
type Request struct {
	Package *Package
	Action  Action
}

func (r Request) String() string {
	return r.Action.String() + " " + r.Package.String()
}

// TransactionParams configures a Transaction.
type TransactionParams struct {
	// Cache is the loaded package universe. Required.
	Cache *Cache
	// Flags supplies lock and multi-version/arch flags. Nil means no flags.
	Flags *PackageFlags
	// Policy defaults to PolicyInstall.
	Policy Policy
	// Logger receives structured logs. Nil discards them.
	Logger *logrus.Logger
	// Trace enables step by step resolution output on TraceLogger.
	Trace       bool
	TraceLogger *log.Logger
	// Metrics, if set, is updated after each run.
	Metrics *Metrics
	// MaxSteps bounds the resolution work of a single request. Zero picks a
	// bound proportional to the size of the cache.
	MaxSteps int
}

// Transaction accumulates requests against a cache and computes the set of
// package changes honoring them.
type Transaction struct {
	params TransactionParams
	queue  []Request
}

// NewTransaction validates params and returns an empty transaction.
func NewTransaction(params TransactionParams) (*Transaction, error) {
	if params.Cache == nil {
		return nil, BadOptsFailure("a cache is required")
	}
	if params.Trace && params.TraceLogger == nil {
		return nil, BadOptsFailure("trace requested, but no logger provided")
	}
	if params.MaxSteps < 0 {
		return nil, BadOptsFailure("max steps must not be negative")
	}
	if params.Flags == nil {
		params.Flags = NewPackageFlags()
	}
	if params.Logger == nil {
		params.Logger = discardLogger()
	}
	switch {
	case params.Policy == (Policy{}):
		params.Policy = PolicyInstall
	case params.Policy.Name == "":
		return nil, BadOptsFailure("a customized policy needs a name")
	}
	switch params.Policy.Default {
	case Keep, Fix:
	default:
		return nil, BadOptsFailure("policy default action must be keep or fix")
	}
	return &Transaction{params: params}, nil
}

// Enqueue adds a request. Requests are processed in the order they were
// enqueued.
func (t *Transaction) Enqueue(p *Package, a Action) error {
	if p == nil {
		return BadOptsFailure("cannot enqueue a nil package")
	}
	if a > Fix {
		return BadOptsFailure("unknown action " + a.String())
	}
	t.queue = append(t.queue, Request{Package: p, Action: a})
	return nil
}

// Queue returns the pending requests.
func (t *Transaction) Queue() []Request {
	out := make([]Request, len(t.queue))
	copy(out, t.queue)
	return out
}

// Policy returns the policy the transaction resolves with.
func (t *Transaction) Policy() Policy { return t.params.Policy }

// Result is the outcome of a transaction run. On success Install and Remove
// form the complete plan; if any request failed they are empty.
type Result struct {
	ID       uuid.UUID
	Install  []*Package
	Remove   []*Package
	Failures []Failure
	// Steps is the number of resolution steps taken.
	Steps int
}

// OK reports whether every request was honored.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// Empty reports whether the plan changes nothing.
func (r Result) Empty() bool { return len(r.Install) == 0 && len(r.Remove) == 0 }

// Err returns an *UnsatisfiableError describing the failures, or nil.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &UnsatisfiableError{Failures: r.Failures}
}

// Run resolves the queued requests against the cache. The cache and the
// installed state of its packages are never modified.
func (t *Transaction) Run() Result {
	s := newSolver(t)
	return s.run()
}
