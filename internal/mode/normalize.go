package mode

// Normaliser (component B) computes and caches the lazily-filled views
// declared on Mode: deflex, slice, trim, name, multiple, rowed. Each view
// is a back-pointer into the same arena — callers must never make a view
// the owner of the mode it points at, since that would create an ownership
// cycle the arena design is meant to avoid.
type Normaliser struct {
	r *Registry
}

// NewNormaliser binds a Normaliser to the registry whose modes it will
// annotate.
func NewNormaliser(r *Registry) *Normaliser {
	return &Normaliser{r: r}
}

// Deflex strips FLEX from m through its REF, ROW and FLEX layers, producing
// the "non-FLEX" view the coercion relation compares under the FORCE and
// SKIP deflex policies. The field modes of STRUCT, UNION and PROC packs are
// not descended into, so a FLEX inside them is kept.
func (n *Normaliser) Deflex(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.deflexedView != nil {
		return m.deflexedView
	}
	var out *Mode
	switch m.Kind {
	case KindFlex:
		out = n.Deflex(m.Sub)
	case KindRef:
		out = n.r.Ref(n.Deflex(m.Sub))
	case KindRow:
		out = n.r.Row(n.Deflex(m.Sub), m.Dim)
	default:
		out = m
	}
	m.deflexedView = out
	return out
}

// Slice returns the element mode of […]M or FLEX […]M.
func (n *Normaliser) Slice(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.sliceView != nil {
		return m.sliceView
	}
	var out *Mode
	switch m.Kind {
	case KindRow:
		out = m.Sub
	case KindFlex:
		out = n.Slice(m.Sub)
	default:
		out = m
	}
	m.sliceView = out
	return out
}

// Trim returns the mode yielded by a trimmer: like Slice but preserves
// intermediate rows for a multi-dimensional row that is only partially
// trimmed (dim > 1 retains a ROW of the remaining dimension).
func (n *Normaliser) Trim(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.trimView != nil {
		return m.trimView
	}
	var out *Mode
	switch m.Kind {
	case KindRow:
		if m.Dim > 1 {
			out = n.r.Row(m.Sub, m.Dim-1)
		} else {
			out = m.Sub
		}
	case KindFlex:
		out = n.r.Flex(n.Trim(m.Sub))
	default:
		out = m
	}
	m.trimView = out
	return out
}

// Name returns, for REF […]M, the REF M a subscript yields.
func (n *Normaliser) Name(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.nameView != nil {
		return m.nameView
	}
	var out *Mode
	if m.Kind == KindRef {
		out = n.r.Ref(n.Slice(m.Sub))
	} else {
		out = m
	}
	m.nameView = out
	return out
}

// Multiple returns, for REF […]STRUCT, the structure-of-rows view used in
// field selection: REF STRUCT of []field-mode for every field.
func (n *Normaliser) Multiple(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.multipleView != nil {
		return m.multipleView
	}
	var out *Mode
	if m.Kind == KindRef && m.Sub != nil && (m.Sub.Kind == KindRow || m.Sub.Kind == KindFlex) {
		elem := n.Slice(m.Sub)
		if elem.Kind == KindStruct {
			pack := make(Pack, len(elem.Pack))
			for i, e := range elem.Pack {
				pack[i] = PackElement{Mode: n.r.Row(e.Mode, m.Sub.Dim), Text: e.Text, Origin: e.Origin}
			}
			out = n.r.Ref(n.r.Struct(pack))
		}
	}
	if out == nil {
		out = m
	}
	m.multipleView = out
	return out
}

// Rowed returns the ROW view of m ([] m), used when a scalar context is
// rowed by the coercion relation's ROWING step.
func (n *Normaliser) Rowed(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.rowedView != nil {
		return m.rowedView
	}
	out := n.r.Row(m, 1)
	m.rowedView = out
	return out
}

// Equivalent returns the canonical interned representative of m — after
// registration every structurally-equivalent mode is already the same
// object, so this is mostly useful for views built outside Register (e.g.
// the transient SERIES/STOWED kinds).
func (n *Normaliser) Equivalent(m *Mode) *Mode {
	if m == nil {
		return nil
	}
	if m.equivalentView != nil {
		return m.equivalentView
	}
	out := n.r.Register(m)
	m.equivalentView = out
	return out
}

// ComputeSizes assigns Size to every STRUCT/ROW mode reachable from roots
// and assigns pack-element Offset by a single left-to-right sweep, honoring
// a fixed target word alignment. Sizes can only be computed once all mode
// equivalences are settled (spec §4.B), so this is run once, after the
// mode-checking walk completes.
func (n *Normaliser) ComputeSizes(roots []*Mode, wordSize int) {
	if wordSize <= 0 {
		wordSize = 8
	}
	visited := map[*Mode]bool{}
	var size func(m *Mode) int
	size = func(m *Mode) int {
		if m == nil {
			return 0
		}
		if visited[m] {
			return m.Size
		}
		visited[m] = true
		switch m.Kind {
		case KindStruct:
			offset := 0
			for i := range m.Pack {
				elemSize := size(m.Pack[i].Mode)
				if rem := offset % wordSize; rem != 0 && elemSize > 0 {
					offset += wordSize - rem
				}
				m.Pack[i].Offset = offset
				m.Pack[i].Size = elemSize
				offset += elemSize
			}
			m.Size = offset
		case KindRef, KindProc:
			m.Size = wordSize
		case KindRow, KindFlex:
			size(m.Sub)
			m.Size = wordSize // row descriptor: pointer + bounds, fixed width
		case KindUnion:
			max := 0
			for i := range m.Pack {
				if s := size(m.Pack[i].Mode); s > max {
					max = s
				}
			}
			m.Size = max + wordSize // tag word + largest alternative
		default:
			m.Size = wordSize
		}
		return m.Size
	}
	for _, root := range roots {
		size(root)
	}
}
