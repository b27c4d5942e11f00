// Package coerce implements the central coercion-relation predicate
// (component C): is_coercible(p, q, sort, deflex) per the Revised Report.
package coerce

import (
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/soid"
)

// DeflexPolicy governs whether FLEX [] m may stand where [] m is expected.
type DeflexPolicy int

const (
	NoDeflex DeflexPolicy = iota
	Safe                  // forbids FLEX aliasing a name could see through
	Alias                 // permits only one-way REF FLEX → REF aliasing
	Force                 // allows it unconditionally (value contexts)
	Skip                  // disables the check entirely (diagnostics only)
)

// wideningEdges is the fixed widening chain from spec §4.C, expressed as
// single steps; Coercible at STRONG follows the transitive closure of this
// graph via widenable.
var wideningEdges = map[mode.Kind][]mode.Kind{
	mode.KindInt:         {mode.KindLongInt},
	mode.KindLongInt:     {mode.KindLongLongInt},
	mode.KindLongLongInt: {mode.KindLongReal},
	mode.KindReal:        {mode.KindComplex},
	mode.KindLongReal:    {mode.KindLongComplex},
	mode.KindComplex:     {mode.KindLongComplex},
	mode.KindLongComplex: {mode.KindLongLongComplex},
	mode.KindBits:        {mode.KindLongBits},
	mode.KindLongBits:    {}, // LONG BITS → [] BOOL is rows, handled as a rowing+unit special-case
	mode.KindBytes:       {}, // BYTES → [] CHAR is rows, handled as a rowing special-case
}

func init() {
	// INT → REAL is also a direct widening step (the two numeric towers
	// share INT as a common root per spec's chain description).
	wideningEdges[mode.KindInt] = append(wideningEdges[mode.KindInt], mode.KindReal)
}

// Checker bundles the registry and normaliser a Coercible call needs to
// resolve views (deflex, slice) and to register any freshly-built
// intermediate mode (e.g. a union built for a trial unite).
type Checker struct {
	Reg  *mode.Registry
	Norm *mode.Normaliser
}

// NewChecker binds a Checker to the registry/normaliser pair for one
// compilation.
func NewChecker(r *mode.Registry, n *mode.Normaliser) *Checker {
	return &Checker{Reg: r, Norm: n}
}

// Coercible decides whether a value of mode p may appear where mode q is
// expected at the given sort, under the given deflex policy. It never
// panics or errors: callers that need a failure explanation use
// FirstOffendingComponent.
func (c *Checker) Coercible(p, q *mode.Mode, sort soid.Sort, deflex DeflexPolicy) bool {
	if p == nil || q == nil {
		return false
	}
	// M_ERROR is coercible to anything and anything to it: this is what
	// suppresses cascaded diagnostics once one has already fired.
	if p.Kind == mode.KindError || q.Kind == mode.KindError {
		return true
	}
	// HIP (jumps, SKIP, NIL) is coercible to any context.
	if p.Kind == mode.KindHIP {
		return true
	}

	if c.equalUnderDeflex(p, q, deflex) {
		return true
	}

	if p.Kind == mode.KindStowed || p.Kind == mode.KindSeries {
		return c.packwiseCoercible(p, q, sort, deflex)
	}

	switch sort {
	case soid.Soft:
		return c.softCoercible(p, q, deflex)
	case soid.Weak:
		return c.weakCoercible(p, q, deflex)
	case soid.Meek:
		return c.meekCoercible(p, q, deflex)
	case soid.Firm:
		return c.firmCoercible(p, q, deflex)
	case soid.Strong:
		return c.strongCoercible(p, q, deflex)
	default:
		return false
	}
}

func (c *Checker) equalUnderDeflex(p, q *mode.Mode, deflex DeflexPolicy) bool {
	if c.Reg.Equivalent(p, q) {
		return true
	}
	switch deflex {
	case Force, Skip:
		return c.Reg.Equivalent(c.Norm.Deflex(p), c.Norm.Deflex(q))
	case Alias:
		// One-way: REF FLEX may alias REF, not the reverse.
		if p.Kind == mode.KindRef && p.Sub != nil && p.Sub.Kind == mode.KindFlex {
			return c.Reg.Equivalent(c.Reg.Ref(p.Sub.Sub), q)
		}
		return false
	case Safe:
		return false
	default:
		return false
	}
}

// softCoercible: repeated deproceduring of a parameterless PROC m to m.
func (c *Checker) softCoercible(p, q *mode.Mode, deflex DeflexPolicy) bool {
	for p.Kind == mode.KindProc && len(p.Pack) == 0 {
		p = p.Sub
		if c.equalUnderDeflex(p, q, deflex) {
			return true
		}
	}
	return false
}

// weakCoercible: depreffing a REF m to m, and parameterless-PROC
// deproceduring, provided the result is itself a name or a value context
// permits it (we approximate "name or value context permits it" as: the
// dereferenced/deprocedured result is checked against q directly, which is
// the behavior observed at every WEAK call site in the checker).
func (c *Checker) weakCoercible(p, q *mode.Mode, deflex DeflexPolicy) bool {
	if p.Kind == mode.KindRef {
		if c.equalUnderDeflex(p.Sub, q, deflex) {
			return true
		}
	}
	return c.softCoercible(p, q, deflex)
}

// meekCoercible: unrestricted depreffing.
func (c *Checker) meekCoercible(p, q *mode.Mode, deflex DeflexPolicy) bool {
	cur := p
	for cur.Kind == mode.KindRef {
		cur = cur.Sub
		if c.equalUnderDeflex(cur, q, deflex) {
			return true
		}
	}
	return c.softCoercible(p, q, deflex)
}

// firmCoercible: MEEK ∪ uniting.
func (c *Checker) firmCoercible(p, q *mode.Mode, deflex DeflexPolicy) bool {
	if c.meekCoercible(p, q, deflex) {
		return true
	}
	return c.coercibleToUnion(p, q, deflex)
}

// coercibleToUnion reports whether p may be united to q: q is a UNION whose
// pack transitively contains p (or something p is firmly related to).
func (c *Checker) coercibleToUnion(p, q *mode.Mode, deflex DeflexPolicy) bool {
	if q.Kind != mode.KindUnion {
		return false
	}
	for _, e := range q.Pack {
		if c.equalUnderDeflex(p, e.Mode, deflex) {
			return true
		}
		if e.Mode.Kind == mode.KindUnion && c.coercibleToUnion(p, e.Mode, deflex) {
			return true
		}
	}
	return false
}

// strongCoercible: FIRM ∪ widening ∪ rowing ∪ voiding. Each candidate is
// tried not only against p but against every depreffed/deprocedured view of
// p, since a REF INT must first be dereferenced before INT→REAL widening
// applies (this is the same depref-then-retry shape MEEK already uses).
func (c *Checker) strongCoercible(p, q *mode.Mode, deflex DeflexPolicy) bool {
	cur := p
	for {
		if c.equalUnderDeflex(cur, q, deflex) {
			return true
		}
		if c.coercibleToUnion(cur, q, deflex) {
			return true
		}
		if q.Kind == mode.KindVoid && c.voidable(cur) {
			return true
		}
		if c.widenable(cur, q) {
			return true
		}
		if c.rowable(cur, q, deflex) {
			return true
		}
		if cur.Kind == mode.KindRef {
			cur = cur.Sub
			continue
		}
		if cur.Kind == mode.KindProc && len(cur.Pack) == 0 {
			cur = cur.Sub
			continue
		}
		return false
	}
}

// widenable reports whether p reaches q by zero or more steps of the fixed
// widening chain.
func (c *Checker) widenable(p, q *mode.Mode) bool {
	visited := map[mode.Kind]bool{}
	var reach func(k mode.Kind) bool
	reach = func(k mode.Kind) bool {
		if k == q.Kind {
			return true
		}
		if visited[k] {
			return false
		}
		visited[k] = true
		for _, next := range wideningEdges[k] {
			if reach(next) {
				return true
			}
		}
		return false
	}
	if !reach(p.Kind) {
		return false
	}
	return q.Sub == nil // standard scalar modes carry no Sub
}

// rowable reports whether p may be promoted to q by ROWING: p to []p,
// FLEX []p, or a REF []/REF FLEX [] name over p.
func (c *Checker) rowable(p, q *mode.Mode, deflex DeflexPolicy) bool {
	switch q.Kind {
	case mode.KindRow:
		return c.equalUnderDeflex(p, q.Sub, deflex) || c.strongCoercible(p, q.Sub, deflex)
	case mode.KindFlex:
		return c.rowable(p, q.Sub, deflex)
	case mode.KindRef:
		if q.Sub != nil && (q.Sub.Kind == mode.KindRow || q.Sub.Kind == mode.KindFlex) {
			if p.Kind == mode.KindRef {
				return c.rowable(p.Sub, q.Sub, deflex)
			}
		}
		return false
	default:
		return false
	}
}

// voidable reports whether p may be discarded at a VOID context: any MORF
// value may, but a name is voided only after first dereferencing it to a
// non-proc, non-ref mode.
func (c *Checker) voidable(p *mode.Mode) bool {
	cur := p
	for cur.Kind == mode.KindRef {
		cur = cur.Sub
	}
	for cur.Kind == mode.KindProc && len(cur.Pack) == 0 {
		cur = cur.Sub
	}
	return true
}

// packwiseCoercible handles STOWED/SERIES packs: a collateral display of
// packs coerces element-wise to the target structure, row, or proc pack.
func (c *Checker) packwiseCoercible(p, q *mode.Mode, sort soid.Sort, deflex DeflexPolicy) bool {
	var targetPack mode.Pack
	switch q.Kind {
	case mode.KindStruct, mode.KindProc:
		targetPack = q.Pack
	case mode.KindRow, mode.KindFlex:
		if len(p.Pack) == 0 {
			return true
		}
		for _, e := range p.Pack {
			if !c.Coercible(e.Mode, c.Norm.Slice(q), sort, deflex) {
				return false
			}
		}
		return true
	default:
		return false
	}
	if len(targetPack) != len(p.Pack) {
		return false
	}
	for i, e := range p.Pack {
		if !c.Coercible(e.Mode, targetPack[i].Mode, sort, deflex) {
			return false
		}
	}
	return true
}

// FirstOffendingComponent descends into SERIES/STOWED packs to pinpoint the
// first offending component of an ERROR_CANNOT_COERCE diagnostic's refined
// text, per spec §4.C.
func (c *Checker) FirstOffendingComponent(p, q *mode.Mode, sort soid.Sort, deflex DeflexPolicy) (*mode.Mode, int) {
	if p.Kind != mode.KindStowed && p.Kind != mode.KindSeries {
		return p, -1
	}
	for i, e := range p.Pack {
		var target *mode.Mode
		if i < len(q.Pack) {
			target = q.Pack[i].Mode
		} else {
			target = q
		}
		if !c.Coercible(e.Mode, target, sort, deflex) {
			if e.Mode.Kind == mode.KindStowed || e.Mode.Kind == mode.KindSeries {
				return c.FirstOffendingComponent(e.Mode, target, sort, deflex)
			}
			return e.Mode, i
		}
	}
	return p, -1
}
