// Package operator implements the operator resolver (component F):
// monadic and dyadic operator-tag lookup via FIRM coercibility, with the
// standard-environ fall-back chains spec §4.F names.
package operator

import (
	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/soid"
	"github.com/a68genie/modecheck/internal/symtab"
)

// Resolver bundles the registry/coercer an operator lookup needs. Operator
// tags are found by walking table-pointer cursors from the innermost table
// outward (the standard environ is the outermost), rather than the
// source's global search — spec's design notes call this out explicitly.
//
// Sink receives ERROR_NO_UNIQUE_MODE when a lookup's FIRM-coercibility test
// matches more than one candidate tag at the same table depth: the
// coherence check the teacher's instance table runs against overlapping
// instances (InstanceEnv.Add), repurposed here to flag overload-ambiguous
// operator definitions instead of rejecting them at declaration time.
type Resolver struct {
	Reg    *mode.Registry
	Norm   *mode.Normaliser
	Coerce *coerce.Checker
	Sink   *diag.Sink
}

// New binds a Resolver to one compilation's registry/normaliser/coercer and
// diagnostic sink.
func New(r *mode.Registry, n *mode.Normaliser, c *coerce.Checker, sink *diag.Sink) *Resolver {
	return &Resolver{Reg: r, Norm: n, Coerce: c, Sink: sink}
}

// reportAmbiguity raises ERROR_NO_UNIQUE_MODE for an operator name resolved
// to more than one FIRM-coercible candidate. Candidates are ordered innermost
// table first, so callers report only when the first two matches share a
// table; a match in an inner table shadows matches further out.
func (r *Resolver) reportAmbiguity(name string, line, col int) {
	if r.Sink != nil {
		r.Sink.Errorf(diag.ErrorNoUniqueMode, line, col, name)
	}
}

func operandModes(tag *symtab.Tag) ([]*mode.Mode, *mode.Mode) {
	m, _ := tag.Mode.(*mode.Mode)
	if m == nil || m.Kind != mode.KindProc {
		return nil, nil
	}
	params := make([]*mode.Mode, len(m.Pack))
	for i, p := range m.Pack {
		params[i] = p.Mode
	}
	return params, m.Sub
}

func candidateOperators(table *symtab.Table, name string) []*symtab.Tag {
	var out []*symtab.Tag
	for t := table; t != nil; t = t.Enclosing {
		for _, tag := range t.Operators() {
			if tag.Name == name {
				out = append(out, tag)
			}
		}
	}
	return out
}

// ResolveMonadic searches operator tags named name, up the scope chain from
// table, for one whose single parameter mode p satisfies
// coercible(u, p, FIRM, ALIAS). If none is found it retries with u
// depreffed stepwise, which is why operators on REF INT resolve.
func (r *Resolver) ResolveMonadic(table *symtab.Table, name string, u *mode.Mode, line, col int) (*symtab.Tag, bool) {
	for depth := 0; ; depth++ {
		cur := u
		ok := true
		for i := 0; i < depth; i++ {
			if cur.Kind != mode.KindRef {
				ok = false
				break
			}
			cur = cur.Sub
		}
		if !ok {
			break
		}
		var matches []*symtab.Tag
		for _, tag := range candidateOperators(table, name) {
			params, _ := operandModes(tag)
			if len(params) != 1 {
				continue
			}
			if r.Coerce.Coercible(cur, params[0], soid.Firm, coerce.Alias) {
				matches = append(matches, tag)
			}
		}
		if len(matches) > 0 {
			if len(matches) > 1 && matches[1].Table == matches[0].Table {
				r.reportAmbiguity(name, line, col)
			}
			return matches[0], true
		}
		if cur.Kind != mode.KindRef {
			break
		}
	}
	return nil, false
}

// ResolveDyadic searches for name taking operand modes u, v, applying the
// fall-backs named in spec §4.F in order: direct match, cross-term search
// over the united mode u|v, vector/matrix scalar promotion, and depreffed
// cross-term search for assigning operators.
func (r *Resolver) ResolveDyadic(table *symtab.Table, name string, u, v *mode.Mode, line, col int) (*symtab.Tag, bool) {
	if tag, ok := r.directDyadic(table, name, u, v, line, col); ok {
		return tag, true
	}
	if tag, ok := r.crossTermDyadic(table, name, u, v, line, col); ok {
		return tag, true
	}
	if tag, ok := r.vectorMatrixPromotion(table, name, u, v, line, col); ok {
		return tag, true
	}
	if isAssigningOperator(name) {
		if tag, ok := r.depreffedCrossTerm(table, name, u, v, line, col); ok {
			return tag, true
		}
	}
	return nil, false
}

func (r *Resolver) directDyadic(table *symtab.Table, name string, u, v *mode.Mode, line, col int) (*symtab.Tag, bool) {
	var matches []*symtab.Tag
	for _, tag := range candidateOperators(table, name) {
		params, _ := operandModes(tag)
		if len(params) != 2 {
			continue
		}
		if r.Coerce.Coercible(u, params[0], soid.Firm, coerce.Alias) &&
			r.Coerce.Coercible(v, params[1], soid.Firm, coerce.Alias) {
			matches = append(matches, tag)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	if len(matches) > 1 && matches[1].Table == matches[0].Table {
		r.reportAmbiguity(name, line, col)
	}
	return matches[0], true
}

// crossTermDyadic builds the united mode u|v and attempts to find name
// taking two operands of the balanced mode.
func (r *Resolver) crossTermDyadic(table *symtab.Table, name string, u, v *mode.Mode, line, col int) (*symtab.Tag, bool) {
	united := r.Reg.Union(mode.Pack{{Mode: u}, {Mode: v}})
	var matches []*symtab.Tag
	for _, tag := range candidateOperators(table, name) {
		params, _ := operandModes(tag)
		if len(params) != 2 {
			continue
		}
		if r.Coerce.Coercible(united, params[0], soid.Firm, coerce.Alias) &&
			r.Coerce.Coercible(united, params[1], soid.Firm, coerce.Alias) {
			matches = append(matches, tag)
		}
	}
	if len(matches) == 0 {
		return nil, false
	}
	if len(matches) > 1 && matches[1].Table == matches[0].Table {
		r.reportAmbiguity(name, line, col)
	}
	return matches[0], true
}

// vectorMatrixPromotion handles the standard-environ case where one operand
// is [] REAL (or [][] REAL) and the other INT: it retries treating the
// scalar side as REAL; symmetric for COMPLEX.
func (r *Resolver) vectorMatrixPromotion(table *symtab.Table, name string, u, v *mode.Mode, line, col int) (*symtab.Tag, bool) {
	promote := func(m *mode.Mode) *mode.Mode {
		if m.Kind == mode.KindInt {
			return r.Reg.Real
		}
		return m
	}
	isVectorish := func(m *mode.Mode) bool {
		if m.Kind != mode.KindRow && m.Kind != mode.KindFlex {
			return false
		}
		elem := r.Norm.Slice(m)
		return elem.Kind == mode.KindReal || elem.Kind == mode.KindComplex
	}
	if isVectorish(u) && !isVectorish(v) {
		if tag, ok := r.directDyadic(table, name, u, promote(v), line, col); ok {
			return tag, true
		}
	}
	if isVectorish(v) && !isVectorish(u) {
		if tag, ok := r.directDyadic(table, name, promote(u), v, line, col); ok {
			return tag, true
		}
	}
	return nil, false
}

// depreffedCrossTerm handles assigning operators (+:=, -:=, …) so that
// REF REAL +:= INT resolves: the left operand is depreffed one layer before
// the cross-term search is retried.
func (r *Resolver) depreffedCrossTerm(table *symtab.Table, name string, u, v *mode.Mode, line, col int) (*symtab.Tag, bool) {
	if u.Kind != mode.KindRef {
		return nil, false
	}
	return r.crossTermDyadic(table, name, u.Sub, v, line, col)
}

func isAssigningOperator(name string) bool {
	if len(name) < 2 {
		return false
	}
	return name[len(name)-1] == '=' && name[len(name)-2] == ':'
}
