package coerce

import (
	"testing"

	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/soid"
)

func newChecker() (*Checker, *mode.Registry) {
	r := mode.NewRegistry()
	n := mode.NewNormaliser(r)
	return NewChecker(r, n), r
}

func TestCoercionLatticeMonotone(t *testing.T) {
	c, r := newChecker()
	refInt := r.Ref(r.Int)

	sorts := []soid.Sort{soid.Soft, soid.Weak, soid.Meek, soid.Firm, soid.Strong}
	// REF INT is WEAK-coercible to INT (depreffing); verify monotonicity:
	// once coercible at a sort, it remains coercible at every stronger sort.
	sawCoercible := false
	for _, s := range sorts {
		ok := c.Coercible(refInt, r.Int, s, Safe)
		if sawCoercible && !ok {
			t.Fatalf("lattice violated: coercible at a weaker sort but not at %v", s)
		}
		if ok {
			sawCoercible = true
		}
	}
	if !sawCoercible {
		t.Fatalf("expected REF INT to be coercible to INT at some sort")
	}
}

func TestCoercionReflexivity(t *testing.T) {
	c, r := newChecker()
	modes := []*mode.Mode{r.Int, r.Real, r.Ref(r.Int), r.Row(r.Int, 1)}
	for _, m := range modes {
		for _, s := range []soid.Sort{soid.Soft, soid.Weak, soid.Meek, soid.Firm, soid.Strong} {
			if !c.Coercible(m, m, s, Safe) {
				t.Errorf("expected %v to be reflexively coercible to itself at sort %v", m.Kind, s)
			}
		}
	}
}

func TestWideningChain(t *testing.T) {
	c, r := newChecker()
	if !c.Coercible(r.Int, r.Real, soid.Strong, Safe) {
		t.Fatalf("expected INT to widen to REAL at STRONG")
	}
	if !c.Coercible(r.Int, r.Complex, soid.Strong, Safe) {
		t.Fatalf("expected INT to widen to COMPLEX via REAL at STRONG")
	}
	if c.Coercible(r.Int, r.Real, soid.Firm, Safe) {
		t.Fatalf("widening must not apply below STRONG")
	}
}

func TestUnitingRequiresFirm(t *testing.T) {
	c, r := newChecker()
	u := r.Union(mode.Pack{{Mode: r.Int}, {Mode: r.Real}})
	if !c.Coercible(r.Int, u, soid.Firm, Safe) {
		t.Fatalf("expected INT to unite into UNION(INT, REAL) at FIRM")
	}
	if c.Coercible(r.Int, u, soid.Meek, Safe) {
		t.Fatalf("uniting must not apply below FIRM")
	}
}

func TestErrorModeAbsorbsCoercion(t *testing.T) {
	c, r := newChecker()
	if !c.Coercible(r.Error, r.Real, soid.NoSort, Safe) {
		t.Fatalf("M_ERROR must be coercible to anything, to suppress cascaded diagnostics")
	}
	if !c.Coercible(r.Int, r.Error, soid.NoSort, Safe) {
		t.Fatalf("anything must be coercible to M_ERROR")
	}
}

func TestHIPCoercibleToAnyContext(t *testing.T) {
	c, r := newChecker()
	if !c.Coercible(r.HIP, r.Ref(r.Int), soid.Strong, Safe) {
		t.Fatalf("HIP must be coercible to any REF T context")
	}
}
