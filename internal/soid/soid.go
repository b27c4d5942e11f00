// Package soid implements the SOID ("sort-of-identifier") value used to
// thread expected and yielded typing context through the mode-checking
// walk.
//
// The original design pools SOID triples on a free-list and mutates them in
// place. Per the REDESIGN FLAG in spec.md's design notes, this is recast as
// an immutable value: a SOID is passed by value top-down as the expected
// context, and returned by value bottom-up as the yielded result —
// check(node, expected) -> yielded. There is no free-list; Go's value
// semantics and the garbage collector make pooling unnecessary.
package soid

// Sort is the coercion strength required (or delivered) at a syntactic
// position.
type Sort int

const (
	NoSort Sort = iota
	Soft
	Weak
	Meek
	Firm
	Strong
)

func (s Sort) String() string {
	switch s {
	case NoSort:
		return "NO_SORT"
	case Soft:
		return "SOFT"
	case Weak:
		return "WEAK"
	case Meek:
		return "MEEK"
	case Firm:
		return "FIRM"
	case Strong:
		return "STRONG"
	default:
		return "UNKNOWN_SORT"
	}
}

// AtLeast reports whether s is at least as strong as other on the
// SOFT ⊂ WEAK ⊂ MEEK ⊂ FIRM ⊂ STRONG lattice.
func (s Sort) AtLeast(other Sort) bool {
	return s >= other
}

// SOID is the (sort, mode, attribute) triple. Attribute is the syntactic
// construct class producing/consuming the SOID, carried for diagnostic
// text. Cast records whether the SOID originates from an explicit cast,
// which silences WARNING_VOIDED.
type SOID struct {
	Sort      Sort
	Mode      interface{} // *mode.Mode; interface{} avoids an import cycle
	Attribute interface{} // ast.Attribute; interface{} avoids an import cycle
	Cast      bool
}

// New constructs a SOID. It is a plain value — callers may copy, return, and
// discard it freely.
func New(sort Sort, m interface{}, attr interface{}) SOID {
	return SOID{Sort: sort, Mode: m, Attribute: attr}
}

// WithCast returns a copy of s with Cast set, used when entering the
// operand of an explicit T(x) cast.
func (s SOID) WithCast() SOID {
	s.Cast = true
	return s
}

// Expected builds the top-down context SOID a caller passes into a check
// call.
func Expected(sort Sort, m interface{}) SOID {
	return SOID{Sort: sort, Mode: m}
}

// Yielded builds the bottom-up result SOID a check call returns.
func Yielded(m interface{}, attr interface{}) SOID {
	return SOID{Sort: Strong, Mode: m, Attribute: attr}
}
