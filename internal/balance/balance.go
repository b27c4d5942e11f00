// Package balance implements the balancer (component D): given a SERIES of
// yielded modes from the branches of a conditional/case/closed clause,
// find a single common mode every branch coerces to.
package balance

import (
	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/soid"
)

// Member is one branch's yielded mode. HIP marks a branch that yields HIP
// (a jump, SKIP, or an exhausted case) — such branches are excluded from
// the coercibility search per spec §4.D ("every non-HIP member").
type Member struct {
	Mode *mode.Mode
	HIP  bool
}

// Result is the outcome of a balance attempt.
type Result struct {
	Mode    *mode.Mode
	Ok      bool // false when no common mode was found
	VoidEach bool // true when the series must instead be voided branch-wise
}

// Balancer bundles the registry/normaliser/coercer a balance call needs.
type Balancer struct {
	Reg    *mode.Registry
	Norm   *mode.Normaliser
	Coerce *coerce.Checker
}

// New binds a Balancer to one compilation's registry/normaliser/coercer.
func New(r *mode.Registry, n *mode.Normaliser, c *coerce.Checker) *Balancer {
	return &Balancer{Reg: r, Norm: n, Coerce: c}
}

// depref returns m stripped of n REF layers, or nil if m does not have that
// many.
func depref(m *mode.Mode, n int) *mode.Mode {
	for i := 0; i < n; i++ {
		if m == nil || m.Kind != mode.KindRef {
			return nil
		}
		m = m.Sub
	}
	return m
}

// maxDepth returns how many REF layers m has.
func maxDepth(m *mode.Mode) int {
	d := 0
	for m != nil && m.Kind == mode.KindRef {
		d++
		m = m.Sub
	}
	return d
}

// Balance searches, in order of increasing depref-depth, for a mode b to
// which every non-HIP member is coercible at strength sort. When multiple
// candidates exist at the same depth, FLEX-bearing candidates are
// preferred. If sort==STRONG and no balance exists, Result.Ok is false but
// Result.VoidEach is true (each branch is voided individually rather than
// this being a hard diagnostic); otherwise absence of a balance is a
// diagnostic the caller (the mode checker) must raise.
func (b *Balancer) Balance(series []Member, sort soid.Sort, deflex coerce.DeflexPolicy) Result {
	var live []Member
	for _, m := range series {
		if !m.HIP {
			live = append(live, m)
		}
	}
	if len(live) == 0 {
		// All branches are HIP: the balance is HIP itself.
		return Result{Mode: liveHIP(series), Ok: true}
	}

	maxD := 0
	for _, m := range live {
		if d := maxDepth(m.Mode); d > maxD {
			maxD = d
		}
	}

	for depth := 0; depth <= maxD; depth++ {
		var candidates []*mode.Mode
		seen := map[*mode.Mode]bool{}
		for _, m := range live {
			cand := depref(m.Mode, depth)
			if cand == nil || seen[cand] {
				continue
			}
			seen[cand] = true
			candidates = append(candidates, cand)
		}
		var best *mode.Mode
		for _, cand := range candidates {
			if b.allCoercible(live, cand, sort, deflex) {
				if best == nil {
					best = cand
				} else if !best.HasFlex && cand.HasFlex {
					best = cand // FLEX-bearing candidates are preferred
				}
			}
		}
		if best != nil {
			return Result{Mode: best, Ok: true}
		}
	}

	if sort == soid.Strong {
		return Result{Mode: live[0].Mode, Ok: false, VoidEach: true}
	}
	return Result{Mode: live[0].Mode, Ok: false}
}

func (b *Balancer) allCoercible(live []Member, cand *mode.Mode, sort soid.Sort, deflex coerce.DeflexPolicy) bool {
	for _, m := range live {
		if !b.Coerce.Coercible(m.Mode, cand, sort, deflex) {
			return false
		}
	}
	return true
}

func liveHIP(series []Member) *mode.Mode {
	for _, m := range series {
		if m.Mode != nil {
			return m.Mode
		}
	}
	return nil
}
