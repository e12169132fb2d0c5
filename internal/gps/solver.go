// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gps

import (
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// solver carries the state of a single Transaction.Run.
//
// Requests are applied one at a time, in queue order. Applying a request
// propagates its consequences depth first: installing a package installs
// providers for its requirements and evicts whatever clashes with it, and
// removing a package repairs or removes its dependents. Where a requirement
// has several providers they are tried in policy order, and the selection is
// rolled back to a snapshot whenever one fails. A request which fails
// entirely is rolled back and recorded; later requests still run, but any
// failure discards the whole plan.
type solver struct {
	c     *Cache
	flags *PackageFlags
	pol   Policy
	queue []Request

	l     *logrus.Logger
	le    *logrus.Entry
	tl    *log.Logger
	trace bool
	m     *Metrics
	mtr   *phaseTimer

	id  uuid.UUID
	sel *selection
	// cur is the index of the request being applied, -1 for default
	// actions.
	cur int
	// replacing is the package an upgrade is replacing. Its removal is
	// always permitted.
	replacing *Package

	steps, total, max int
	depth             int
}

func newSolver(t *Transaction) *solver {
	p := t.params
	id := uuid.New()
	limit := p.MaxSteps
	if limit == 0 {
		limit = 32 + 16*p.Cache.Len()
	}
	queue := make([]Request, len(t.queue))
	copy(queue, t.queue)

	return &solver{
		c:     p.Cache,
		flags: p.Flags,
		pol:   p.Policy,
		queue: queue,
		l:     p.Logger,
		le:    p.Logger.WithField("txn", id.String()),
		tl:    p.TraceLogger,
		trace: p.Trace,
		m:     p.Metrics,
		mtr:   newPhaseTimer(),
		id:    id,
		sel:   newSelection(),
		max:   limit,
	}
}

func (s *solver) run() Result {
	s.traceStart()
	if s.l.Level >= logrus.DebugLevel {
		s.le.WithFields(logrus.Fields{
			"policy":   s.pol.Name,
			"requests": len(s.queue),
			"packages": s.c.Len(),
		}).Debug("starting transaction")
	}

	var failures []Failure
	s.mtr.push("queue")
	for k, r := range s.queue {
		s.cur = k
		if err := s.attempt(r); err != nil {
			failures = append(failures, s.fail(r, err))
		}
	}
	s.mtr.pop()

	if s.pol.Default == Fix {
		s.mtr.push("fix")
		s.cur = -1
		for _, p := range s.c.Packages("") {
			if s.sel.get(p) != stKeep || !s.sel.installed(p) || s.check(p) == nil {
				continue
			}
			r := Request{Package: p, Action: Fix}
			if err := s.attempt(r); err != nil {
				failures = append(failures, s.fail(r, err))
			}
		}
		s.mtr.pop()
	}

	if len(failures) == 0 {
		s.mtr.push("settle")
		if r, err := s.settle(); err != nil {
			failures = append(failures, s.fail(r, err))
		}
		s.mtr.pop()
	}

	res := Result{
		ID:       s.id,
		Failures: failures,
		Steps:    s.total,
	}
	if len(failures) == 0 {
		res.Install, res.Remove = s.sel.plan()
	}
	s.finish(res)
	return res
}

// attempt applies r, restoring the selection if it fails.
func (s *solver) attempt(r Request) error {
	snap := s.sel.clone()
	s.steps = 0
	s.traceRequest(r)
	err := s.apply(r)
	if err != nil {
		s.sel = snap
	}
	return err
}

func (s *solver) apply(r Request) error {
	p := r.Package
	switch r.Action {
	case Install:
		return s.install(p)
	case Remove:
		return s.remove(p)
	case Upgrade:
		return s.upgrade(p)
	case Fix:
		return s.fix(p)
	}
	return nil
}

func (s *solver) fail(r Request, err error) Failure {
	s.traceFailure(err)
	f := Failure{Request: r, Kind: failureKind(err), Err: err}
	s.le.WithFields(logrus.Fields{
		"request": r.String(),
		"kind":    f.Kind.String(),
	}).Warn(err)
	return f
}

func (s *solver) finish(res Result) {
	s.traceFinish(res)
	if s.l.Level >= logrus.DebugLevel {
		s.le.WithFields(logrus.Fields{
			"install":  len(res.Install),
			"remove":   len(res.Remove),
			"failures": len(res.Failures),
			"steps":    res.Steps,
		}).Debug("transaction finished")
	}
	if s.m == nil {
		return
	}
	outcome := "ok"
	if !res.OK() {
		outcome = "failed"
	}
	s.m.runs.WithLabelValues(outcome).Inc()
	for _, f := range res.Failures {
		s.m.failures.WithLabelValues(f.Kind.String()).Inc()
	}
	s.m.steps.Observe(float64(res.Steps))
	s.mtr.observe(s.m)
}

func (s *solver) step() error {
	s.steps++
	s.total++
	if s.steps > s.max {
		return &iterationLimitFailure{limit: s.max}
	}
	return nil
}

func isLimit(err error) bool {
	_, ok := err.(*iterationLimitFailure)
	return ok
}

func (s *solver) locked(p *Package) bool {
	return s.flags.Test(FlagLock, p)
}

func (s *solver) install(p *Package) error {
	switch s.sel.get(p) {
	case stInstall:
		return nil
	case stRemove:
		return &conflictFailure{pkg: p, reason: "is being removed by this transaction"}
	}
	if p.Installed {
		return nil
	}
	if err := s.step(); err != nil {
		return err
	}
	if s.locked(p) {
		return &lockViolationFailure{pkg: p, action: Install}
	}

	s.sel.set(p, stInstall, s.cur)
	s.traceSelect(p, stInstall)
	s.depth++
	defer func() { s.depth-- }()

	for _, cl := range s.clashes(p) {
		if !s.sel.installed(cl.other) {
			continue
		}
		if err := s.evict(cl.other, p, cl); err != nil {
			return err
		}
	}
	for _, req := range p.Requires() {
		if err := s.require(p, req); err != nil {
			return err
		}
	}
	return nil
}

func (s *solver) remove(p *Package) error {
	switch s.sel.get(p) {
	case stRemove:
		return nil
	case stInstall:
		return &conflictFailure{pkg: p, reason: "is selected for installation by this transaction"}
	}
	if !p.Installed {
		return nil
	}
	if err := s.step(); err != nil {
		return err
	}
	if s.locked(p) {
		return &lockViolationFailure{pkg: p, action: Remove}
	}

	s.sel.set(p, stRemove, s.cur)
	s.traceSelect(p, stRemove)
	s.depth++
	defer func() { s.depth-- }()

	for _, d := range s.dependents(p) {
		if !s.sel.installed(d.pkg) || s.satisfied(d.pkg, d.req) {
			continue
		}
		if err := s.repair(d.pkg, d.req); err != nil {
			return err
		}
	}
	return nil
}

func (s *solver) upgrade(p *Package) error {
	if !s.sel.installed(p) {
		return nil
	}
	cands := s.upgradeCandidates(p)
	if len(cands) == 0 {
		return nil
	}

	prev := s.replacing
	s.replacing = p
	defer func() { s.replacing = prev }()

	var fails []failedCandidate
	for _, u := range cands {
		snap := s.sel.clone()
		err := s.install(u)
		if err == nil {
			return nil
		}
		s.sel = snap
		if isLimit(err) {
			return err
		}
		s.traceBacktrack(u, err)
		fails = append(fails, failedCandidate{pkg: u, err: err})
	}
	if s.pol.BestEffort {
		if s.l.Level >= logrus.DebugLevel {
			s.le.WithFields(logrus.Fields{
				"package":    p.String(),
				"candidates": len(cands),
			}).Debug("no upgrade could be installed, keeping package")
		}
		return nil
	}
	return &noUpgradeFailure{pkg: p, fails: fails}
}

// fix repairs the requirements and clashes of an installed package.
func (s *solver) fix(p *Package) error {
	if !s.sel.installed(p) {
		return nil
	}
	if err := s.step(); err != nil {
		return err
	}
	for _, req := range p.Requires() {
		if s.satisfied(p, req) {
			continue
		}
		if err := s.repair(p, req); err != nil {
			return err
		}
		if !s.sel.installed(p) {
			return nil
		}
	}

	for _, cl := range s.clashes(p) {
		if !s.sel.installed(cl.other) || !s.sel.installed(p) {
			continue
		}
		winner, loser := p, cl.other
		if cl.loser == p {
			winner, loser = cl.other, p
		}
		err := s.evict(loser, winner, cl)
		if err == nil {
			continue
		}
		if isLimit(err) {
			return err
		}
		if err2 := s.evict(winner, loser, cl); err2 != nil {
			return err
		}
	}
	return nil
}

// require makes sure some installed package satisfies req, installing the
// first candidate which can be installed.
func (s *solver) require(p *Package, req Relation) error {
	if s.satisfied(p, req) {
		return nil
	}
	cands := s.candidates(req)
	if len(cands) == 0 {
		return &unresolvedDependencyFailure{pkg: p, req: req}
	}

	var fails []failedCandidate
	for _, c := range cands {
		snap := s.sel.clone()
		err := s.install(c)
		if err == nil {
			return nil
		}
		s.sel = snap
		if isLimit(err) {
			return err
		}
		s.traceBacktrack(c, err)
		fails = append(fails, failedCandidate{pkg: c, err: err})
	}
	return &unresolvedDependencyFailure{pkg: p, req: req, fails: fails}
}

// repair handles a dependent q whose requirement req lost its provider. It
// installs an alternative if the policy allows, and otherwise removes q.
func (s *solver) repair(q *Package, req Relation) error {
	var alt error
	if s.pol.InstallAlternatives {
		if alt = s.require(q, req); alt == nil || isLimit(alt) {
			return alt
		}
	}
	if alt == nil {
		alt = &unresolvedDependencyFailure{pkg: q, req: req}
	}
	if s.sel.get(q) == stInstall {
		return alt
	}
	if s.locked(q) {
		return &lockViolationFailure{pkg: q, action: Remove}
	}
	if !s.pol.AllowRemovals && q != s.replacing {
		return alt
	}
	return s.remove(q)
}

// evict removes q to make room for by. Packages selected by this transaction
// are never evicted; the clash is reported instead.
func (s *solver) evict(q, by *Package, cl clash) error {
	if s.sel.get(q) == stInstall {
		return &conflictFailure{pkg: by, other: q, rel: cl.rel, reason: cl.reason}
	}
	if s.locked(q) {
		return &lockViolationFailure{pkg: q, action: Remove}
	}
	if !s.pol.AllowRemovals && q != s.replacing {
		return &conflictFailure{pkg: by, other: q, rel: cl.rel, reason: cl.reason}
	}
	return s.remove(q)
}

// satisfied reports whether p itself or some package in the final installed
// set provides req.
func (s *solver) satisfied(p *Package, req Relation) bool {
	if _, ok := p.provide(req); ok {
		return true
	}
	for _, c := range s.c.WhoProvides(req.Name) {
		if c == p || !s.sel.installed(c) {
			continue
		}
		if _, ok := c.provide(req); ok {
			return true
		}
	}
	return false
}

// candidates returns the providers of req in the order they should be tried.
func (s *solver) candidates(req Relation) []*Package {
	var cands []*Package
	for _, c := range s.c.WhoProvidesRel(req) {
		if s.sel.get(c) != stRemove {
			cands = append(cands, c)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return s.prefer(cands[i], cands[j], req)
	})
	return cands
}

// prefer orders candidates: installed ones first, then by the version they
// provide req at (highest or lowest per policy), then first seen.
func (s *solver) prefer(a, b *Package, req Relation) bool {
	if ai, bi := s.sel.installed(a), s.sel.installed(b); ai != bi {
		return ai
	}
	pa, _ := a.provide(req)
	pb, _ := b.provide(req)
	c := CompareVersions(pa.Version, pb.Version)
	if c == 0 && a.Name == b.Name {
		c = CompareVersions(a.Version, b.Version)
	}
	if c != 0 {
		if s.pol.Prefer == PreferLowest {
			return c < 0
		}
		return c > 0
	}
	return a.order < b.order
}

// upgradeCandidates returns the packages which may replace p, best first.
// These are newer packages of the same name and packages of other names
// which obsolete it.
func (s *solver) upgradeCandidates(p *Package) []*Package {
	self := Relation{Kind: NameProvides, Name: p.Name, Version: p.EVR()}
	var cands []*Package
	for _, u := range s.c.WhoUpgrades(p.Name) {
		if u == p || s.sel.installed(u) || s.sel.get(u) == stRemove {
			continue
		}
		if u.Name == p.Name && CompareVersions(u.Version, p.Version) <= 0 {
			continue
		}
		for _, upg := range u.Upgrades() {
			if upg.SatisfiedBy(self) {
				cands = append(cands, u)
				break
			}
		}
	}

	arch := p.Arch()
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if am, bm := a.Arch() == arch, b.Arch() == arch; am != bm {
			return am
		}
		if c := CompareVersions(a.Version, b.Version); c != 0 {
			return c > 0
		}
		return a.order < b.order
	})
	return cands
}

type dependency struct {
	pkg *Package
	req Relation
}

// dependents returns the requirements of other packages which p satisfies.
func (s *solver) dependents(p *Package) []dependency {
	var out []dependency
	seen := make(map[dependency]bool)
	for _, prv := range p.Provides() {
		for _, q := range s.c.WhoRequires(prv.Name) {
			if q == p {
				continue
			}
			for _, req := range q.Requires() {
				d := dependency{pkg: q, req: req}
				if seen[d] || !req.SatisfiedBy(prv) {
					continue
				}
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// clash is a reason two packages cannot both be installed.
type clash struct {
	other *Package
	rel   Relation
	// reason is set for clashes not caused by a relation.
	reason string
	// loser is the side to remove when neither was asked for.
	loser *Package
}

const uniquenessReason = "only one version of a package can be installed"

// clashes returns the installed packages which cannot coexist with p.
func (s *solver) clashes(p *Package) []clash {
	var out []clash
	for _, q := range s.c.WhoProvides(p.Name) {
		if q == p || q.Name != p.Name || !s.sel.installed(q) || s.coexist(p, q) {
			continue
		}
		loser := q
		if CompareVersions(q.Version, p.Version) > 0 {
			loser = p
		}
		out = append(out, clash{other: q, reason: uniquenessReason, loser: loser})
	}
	for _, cnf := range p.Conflicts() {
		for _, q := range s.c.WhoProvidesRel(cnf) {
			if q == p || !s.sel.installed(q) {
				continue
			}
			out = append(out, clash{other: q, rel: cnf, loser: q})
		}
	}
	for _, prv := range p.Provides() {
		for _, q := range s.c.WhoConflicts(prv.Name) {
			if q == p || !s.sel.installed(q) {
				continue
			}
			for _, cnf := range q.Conflicts() {
				if cnf.SatisfiedBy(prv) {
					out = append(out, clash{other: q, rel: cnf, loser: p})
					break
				}
			}
		}
	}
	return out
}

// coexist reports whether two installed packages of the same name are
// allowed side by side. Differing versions need the newer one flagged
// multi-version; differing architectures need either flagged multi-arch.
func (s *solver) coexist(p, q *Package) bool {
	switch c := CompareVersions(p.Version, q.Version); {
	case c > 0:
		return s.flags.Test(FlagMultiVersion, p)
	case c < 0:
		return s.flags.Test(FlagMultiVersion, q)
	}
	if p.Arch() == q.Arch() {
		return false
	}
	return s.flags.Test(FlagMultiArch, p) || s.flags.Test(FlagMultiArch, q)
}

// check returns the first broken requirement or clash of p.
func (s *solver) check(p *Package) error {
	for _, req := range p.Requires() {
		if !s.satisfied(p, req) {
			return &unresolvedDependencyFailure{pkg: p, req: req}
		}
	}
	if cls := s.clashes(p); len(cls) > 0 {
		cl := cls[0]
		return &conflictFailure{pkg: p, other: cl.other, rel: cl.rel, reason: cl.reason}
	}
	return nil
}

// violation scans the packages changed by the run for a broken invariant.
func (s *solver) violation() (*Package, error) {
	for _, p := range s.sel.order {
		switch s.sel.get(p) {
		case stInstall:
			if err := s.check(p); err != nil {
				return p, err
			}
		case stRemove:
			for _, d := range s.dependents(p) {
				if s.sel.installed(d.pkg) && !s.satisfied(d.pkg, d.req) {
					return d.pkg, &unresolvedDependencyFailure{pkg: d.pkg, req: d.req}
				}
			}
		}
	}
	return nil, nil
}

// settle repairs violations left by the queue until none remain, giving up
// after a bounded number of rounds.
func (s *solver) settle() (Request, error) {
	rounds := len(s.sel.order) + 1
	for round := 0; ; round++ {
		p, err := s.violation()
		if err == nil {
			return Request{}, nil
		}
		r := s.requestFor(p)
		if round >= rounds {
			return r, err
		}
		s.traceInfo("settle %s", p)
		s.steps = 0
		if ferr := s.fix(p); ferr != nil {
			return r, ferr
		}
	}
}

// requestFor returns the request responsible for p's change.
func (s *solver) requestFor(p *Package) Request {
	if o, has := s.sel.origin[p]; has && o >= 0 {
		return s.queue[o]
	}
	return Request{Package: p, Action: Fix}
}
