package balance

import (
	"testing"

	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/soid"
)

func newBalancer() (*Balancer, *mode.Registry) {
	r := mode.NewRegistry()
	n := mode.NewNormaliser(r)
	c := coerce.NewChecker(r, n)
	return New(r, n, c), r
}

// TestE4Balancing mirrors end-to-end scenario E4: IF TRUE THEN 1 ELSE 3.14 FI
// without outer context balances to REAL.
func TestE4Balancing(t *testing.T) {
	b, r := newBalancer()
	series := []Member{{Mode: r.Int}, {Mode: r.Real}}
	result := b.Balance(series, soid.Strong, coerce.Safe)
	if !result.Ok || result.Mode != r.Real {
		t.Fatalf("expected balance to REAL, got mode kind %v ok=%v", result.Mode.Kind, result.Ok)
	}
}

func TestBalanceDeterminismUnderOrdering(t *testing.T) {
	b, r := newBalancer()
	forward := []Member{{Mode: r.Int}, {Mode: r.Real}}
	reversed := []Member{{Mode: r.Real}, {Mode: r.Int}}

	r1 := b.Balance(forward, soid.Strong, coerce.Safe)
	r2 := b.Balance(reversed, soid.Strong, coerce.Safe)
	if r1.Mode != r2.Mode {
		t.Fatalf("expected balancing to be independent of visit order, got %v vs %v", r1.Mode.Kind, r2.Mode.Kind)
	}
}

func TestBalanceHIPBranchesExcluded(t *testing.T) {
	b, r := newBalancer()
	series := []Member{{Mode: r.HIP, HIP: true}, {Mode: r.Int}}
	result := b.Balance(series, soid.Strong, coerce.Safe)
	if result.Mode != r.Int {
		t.Fatalf("expected HIP branch excluded, balance to INT, got %v", result.Mode.Kind)
	}
}

func TestBalanceNoCommonModeUnderMeekSort(t *testing.T) {
	b, r := newBalancer()
	series := []Member{{Mode: r.Int}, {Mode: r.Bool}}
	result := b.Balance(series, soid.Meek, coerce.Safe)
	if result.Ok {
		t.Fatalf("expected no balance to exist between INT and BOOL at MEEK")
	}
}
