package soid

import "testing"

func TestSortLatticeOrdering(t *testing.T) {
	if !Strong.AtLeast(Firm) || !Firm.AtLeast(Meek) || !Meek.AtLeast(Weak) || !Weak.AtLeast(Soft) {
		t.Fatalf("expected SOFT < WEAK < MEEK < FIRM < STRONG")
	}
	if Soft.AtLeast(Weak) {
		t.Fatalf("expected SOFT not to be at least WEAK")
	}
}

func TestWithCastDoesNotMutateReceiver(t *testing.T) {
	base := New(Strong, nil, nil)
	cast := base.WithCast()
	if base.Cast {
		t.Fatalf("expected WithCast to return a copy, not mutate the receiver")
	}
	if !cast.Cast {
		t.Fatalf("expected the returned copy to carry Cast=true")
	}
}

func TestYieldedAlwaysStrong(t *testing.T) {
	y := Yielded("mode-placeholder", "attr-placeholder")
	if y.Sort != Strong {
		t.Fatalf("expected Yielded to always report STRONG sort, got %v", y.Sort)
	}
}

func TestExpectedCarriesRequestedSort(t *testing.T) {
	e := Expected(Meek, "mode-placeholder")
	if e.Sort != Meek {
		t.Fatalf("expected Expected to carry the requested sort, got %v", e.Sort)
	}
}
