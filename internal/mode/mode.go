// Package mode implements the Algol 68 mode (type) registry: interning,
// constructors, and structural equivalence under postulation (components A
// and B of the core).
//
// Modes are arena-allocated: a Registry owns every *Mode ever built for a
// compilation, and cross-references between modes (Sub, Pack element
// modes, the lazily-filled normaliser views) are ordinary pointers into
// that arena rather than owning references — cyclic modes like
// STRUCT (REF T next, INT val) are therefore natural, never an ownership
// cycle, exactly as spec.md's design notes require.
package mode

import "sort"

// Kind is the mode's structural category.
type Kind int

const (
	KindError Kind = iota
	KindUndefined
	KindVacuum
	KindHIP

	KindVoid
	KindInt
	KindLongInt
	KindLongLongInt
	KindReal
	KindLongReal
	KindLongLongReal
	KindComplex
	KindLongComplex
	KindLongLongComplex
	KindBool
	KindChar
	KindBits
	KindLongBits
	KindBytes
	KindFormat

	KindRef
	KindFlex
	KindRow
	KindProc
	KindStruct
	KindUnion
	KindSeries
	KindStowed
	KindIndicant
	KindRows
)

// PackElement is one field of a STRUCT, one alternative of a UNION, one
// parameter of a PROC, or one member of a SERIES/STOWED pack.
type PackElement struct {
	Mode   *Mode
	Text   string // field/parameter name, empty for unnamed pack slots
	Origin interface{} // *ast.Node; interface{} avoids an import cycle
	Size   int
	Offset int
}

// Pack is an ordered sequence of PackElements.
type Pack []PackElement

func (p Pack) modes() []*Mode {
	out := make([]*Mode, len(p))
	for i, e := range p {
		out[i] = e.Mode
	}
	return out
}

// Mode is the interned representation of an Algol 68 mode.
type Mode struct {
	Kind Kind
	Dim  int   // row dimension, or PROC arity
	Sub  *Mode // single-argument mode for REF/FLEX/ROW/PROC-yield
	Pack Pack  // STRUCT/UNION/PROC-params/SERIES/STOWED

	// Lazily-filled normaliser views (component B). Back-references only.
	equivalentView *Mode
	sliceView      *Mode
	trimView       *Mode
	nameView       *Mode
	multipleView   *Mode
	rowedView      *Mode
	deflexedView   *Mode

	HasRef      bool
	HasFlex     bool
	HasRows     bool
	Use         bool
	Portable    bool
	Derivate    bool
	WellFormed  bool

	Size   int
	Number int // globally unique, for diagnostics
}

// postulatePair is an assumption (a≡b) pushed while proving structural
// equivalence coinductively.
type postulatePair struct{ a, b *Mode }

// Registry is the arena owning every Mode built during one compilation.
type Registry struct {
	modes     []*Mode
	next      int
	postulate []postulatePair

	// Standard-environ singletons, registered once at NewRegistry time.
	Error      *Mode
	Undefined  *Mode
	Vacuum     *Mode
	HIP        *Mode
	Void       *Mode
	Int        *Mode
	LongInt    *Mode
	Real       *Mode
	LongReal   *Mode
	Complex    *Mode
	LongComplex *Mode
	Bool       *Mode
	Char       *Mode
	Bits       *Mode
	LongBits   *Mode
	Bytes      *Mode
	Format     *Mode
}

// NewRegistry creates a fresh arena pre-populated with the standard,
// kindless modes (ERROR, HIP, INT, REAL, …).
func NewRegistry() *Registry {
	r := &Registry{}
	mk := func(k Kind) *Mode {
		m := &Mode{Kind: k, WellFormed: true, Number: r.next}
		r.next++
		r.modes = append(r.modes, m)
		return m
	}
	r.Error = mk(KindError)
	r.Undefined = mk(KindUndefined)
	r.Vacuum = mk(KindVacuum)
	r.HIP = mk(KindHIP)
	r.Void = mk(KindVoid)
	r.Int = mk(KindInt)
	r.LongInt = mk(KindLongInt)
	r.Real = mk(KindReal)
	r.LongReal = mk(KindLongReal)
	r.Complex = mk(KindComplex)
	r.LongComplex = mk(KindLongComplex)
	r.Bool = mk(KindBool)
	r.Char = mk(KindChar)
	r.Bits = mk(KindBits)
	r.LongBits = mk(KindLongBits)
	r.Bytes = mk(KindBytes)
	r.Format = mk(KindFormat)
	return r
}

// Register either returns an existing structurally-equivalent mode from the
// arena, or interns m and returns it. This is the single interning point
// component A requires: callers never hold onto a Mode built outside the
// registry.
func (r *Registry) Register(m *Mode) *Mode {
	for _, existing := range r.modes {
		if r.equivalent(existing, m) {
			return existing
		}
	}
	m.Number = r.next
	r.next++
	r.modes = append(r.modes, m)
	return m
}

// Equivalent reports structural equivalence under postulation: the
// coinductive relation where a and b are assumed equal while their
// sub-structure is compared, breaking cycles such as
// STRUCT (REF T next, INT val).
func (r *Registry) Equivalent(a, b *Mode) bool {
	return r.equivalent(a, b)
}

func (r *Registry) equivalent(a, b *Mode) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	for _, p := range r.postulate {
		if p.a == a && p.b == b {
			return true // already assumed; breaks the cycle
		}
		if p.a == b && p.b == a {
			return true
		}
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Dim != b.Dim {
		return false
	}

	r.postulate = append(r.postulate, postulatePair{a, b})
	defer func() { r.postulate = r.postulate[:len(r.postulate)-1] }()

	switch a.Kind {
	case KindRef, KindFlex, KindRow, KindRows:
		return r.equivalent(a.Sub, b.Sub)
	case KindProc:
		if !r.equivalent(a.Sub, b.Sub) {
			return false
		}
		return r.packEquivalent(a.Pack, b.Pack)
	case KindStruct:
		return r.packEquivalent(a.Pack, b.Pack)
	case KindUnion:
		return r.unionPackEquivalent(a.Pack, b.Pack)
	case KindSeries, KindStowed:
		return r.packEquivalent(a.Pack, b.Pack)
	default:
		return true // same kind, no sub-structure (standard modes, indicants)
	}
}

func (r *Registry) packEquivalent(a, b Pack) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !r.equivalent(a[i].Mode, b[i].Mode) {
			return false
		}
	}
	return true
}

// unionPackEquivalent compares UNION packs order-insignificantly, per
// spec §3: "element order insignificant for equivalence".
func (r *Registry) unionPackEquivalent(a, b Pack) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ea := range a {
		found := false
		for j, eb := range b {
			if used[j] {
				continue
			}
			if r.equivalent(ea.Mode, eb.Mode) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Ref constructs (and interns) REF m.
func (r *Registry) Ref(m *Mode) *Mode {
	return r.Register(&Mode{Kind: KindRef, Sub: m, HasRef: true, WellFormed: m.WellFormed})
}

// Flex constructs FLEX m. Per spec's invariant, m must be a ROW (or another
// FLEX-bearing) mode; callers are expected to only call Flex directly
// beneath a REF or ROW constructor.
func (r *Registry) Flex(m *Mode) *Mode {
	return r.Register(&Mode{Kind: KindFlex, Sub: m, HasFlex: true, WellFormed: m.WellFormed})
}

// Row constructs [] m with the given dimension (default 1).
func (r *Registry) Row(m *Mode, dim int) *Mode {
	if dim < 1 {
		dim = 1
	}
	return r.Register(&Mode{Kind: KindRow, Sub: m, Dim: dim, HasRows: true, WellFormed: m.WellFormed})
}

// Proc constructs PROC(params) yield. An empty params pack means
// "parameterless procedure", per spec's invariant.
func (r *Registry) Proc(params Pack, yield *Mode) *Mode {
	wf := yield.WellFormed
	for _, p := range params {
		wf = wf && p.Mode.WellFormed
	}
	return r.Register(&Mode{Kind: KindProc, Sub: yield, Pack: params, Dim: len(params), WellFormed: wf})
}

// Struct constructs STRUCT(pack).
func (r *Registry) Struct(pack Pack) *Mode {
	wf := true
	for _, p := range pack {
		wf = wf && p.Mode.WellFormed
	}
	return r.Register(&Mode{Kind: KindStruct, Pack: pack, WellFormed: wf})
}

// Union constructs UNION(pack) after absorption: nested UNION packs are
// flattened, structurally equivalent duplicate members removed, and a
// singleton UNION collapses to its sole member. Members that are only
// firmly related to one another, not equivalent, are all kept.
func (r *Registry) Union(pack Pack) *Mode {
	flat := r.absorbUnion(pack)
	if len(flat) == 1 {
		return flat[0].Mode
	}
	wf := true
	for _, p := range flat {
		wf = wf && p.Mode.WellFormed
	}
	return r.Register(&Mode{Kind: KindUnion, Pack: flat, WellFormed: wf})
}

func (r *Registry) absorbUnion(pack Pack) Pack {
	var flat Pack
	for _, e := range pack {
		if e.Mode.Kind == KindUnion {
			flat = append(flat, r.absorbUnion(e.Mode.Pack)...)
		} else {
			flat = append(flat, e)
		}
	}
	var out Pack
	for _, e := range flat {
		dup := false
		for _, o := range out {
			if r.equivalent(e.Mode, o.Mode) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mode.Number < out[j].Mode.Number })
	return out
}

// Series constructs the transient SERIES mode used only during balancing.
func (r *Registry) Series(members Pack) *Mode {
	return &Mode{Kind: KindSeries, Pack: members}
}

// Stowed constructs the transient STOWED mode yielded by a collateral
// display before it is coerced pack-wise into a target structure/row/proc.
func (r *Registry) Stowed(members Pack) *Mode {
	return &Mode{Kind: KindStowed, Pack: members}
}

// SelfModeCheck flags a mode whose equivalence graph contains no base (a
// "self-mode" like MODE T = T) as ill-formed, per spec §4.A. visiting
// tracks modes currently being traversed; visit reports whether any
// branch reached a kind with no further Sub/Pack to recurse into.
func SelfModeCheck(m *Mode) bool {
	visiting := map[*Mode]bool{}
	var visit func(m *Mode) bool
	visit = func(m *Mode) bool {
		if m == nil {
			return true
		}
		if visiting[m] {
			return false
		}
		visiting[m] = true
		defer delete(visiting, m)
		switch m.Kind {
		case KindRef, KindFlex, KindRow, KindRows:
			return visit(m.Sub)
		case KindProc:
			ok := true
			for _, p := range m.Pack {
				ok = visit(p.Mode) || ok
			}
			return ok
		case KindStruct, KindUnion, KindSeries, KindStowed:
			if len(m.Pack) == 0 {
				return true
			}
			any := false
			for _, p := range m.Pack {
				if visit(p.Mode) {
					any = true
				}
			}
			return any
		default:
			return true
		}
	}
	return visit(m)
}
