package operator

import (
	"testing"

	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/symtab"
)

func newResolver() (*Resolver, *mode.Registry, *symtab.Table) {
	r := mode.NewRegistry()
	n := mode.NewNormaliser(r)
	c := coerce.NewChecker(r, n)
	table := symtab.NewTable(nil)
	return New(r, n, c, diag.NewSink(10)), r, table
}

// TestE3UserDefinedOperatorShadowsStandard mirrors end-to-end scenario E3:
// OP + = (INT a, INT b) INT: a - b; print (1 + 2) resolves the formula's
// operator tag to the user-defined +.
func TestE3UserDefinedOperatorShadowsStandard(t *testing.T) {
	resolver, r, standard := newResolver()
	plusMode := r.Proc(mode.Pack{{Mode: r.Int, Text: "a"}, {Mode: r.Int, Text: "b"}}, r.Int)
	standard.Insert(&symtab.Tag{Name: "+", Kind: symtab.Operator, Mode: plusMode})
	table := symtab.NewTable(standard)
	userPlus := &symtab.Tag{Name: "+", Kind: symtab.Operator, Mode: plusMode}
	table.Insert(userPlus)

	tag, ok := resolver.ResolveDyadic(table, "+", r.Int, r.Int, 1, 1)
	if !ok || tag != userPlus {
		t.Fatalf("expected the user-defined + to resolve, got %v ok=%v", tag, ok)
	}
}

func TestMonadicResolvesThroughDepreffing(t *testing.T) {
	resolver, r, table := newResolver()
	absMode := r.Proc(mode.Pack{{Mode: r.Int}}, r.Int)
	absTag := &symtab.Tag{Name: "ABS", Kind: symtab.Operator, Mode: absMode}
	table.Insert(absTag)

	refInt := r.Ref(r.Int)
	tag, ok := resolver.ResolveMonadic(table, "ABS", refInt, 1, 1)
	if !ok || tag != absTag {
		t.Fatalf("expected ABS on REF INT to resolve via depreffing, got ok=%v", ok)
	}
}

func TestDyadicCrossTermFallback(t *testing.T) {
	resolver, r, table := newResolver()
	united := r.Union(mode.Pack{{Mode: r.Int}, {Mode: r.Real}})
	crossMode := r.Proc(mode.Pack{{Mode: united}, {Mode: united}}, r.Bool)
	crossTag := &symtab.Tag{Name: "=", Kind: symtab.Operator, Mode: crossMode}
	table.Insert(crossTag)

	tag, ok := resolver.ResolveDyadic(table, "=", r.Int, r.Real, 1, 1)
	if !ok || tag != crossTag {
		t.Fatalf("expected cross-term fallback to resolve = over INT and REAL, got ok=%v", ok)
	}
}

func TestAmbiguousDyadicOperatorRaisesNoUniqueMode(t *testing.T) {
	resolver, r, table := newResolver()
	plusMode := r.Proc(mode.Pack{{Mode: r.Int}, {Mode: r.Int}}, r.Int)
	first := &symtab.Tag{Name: "+", Kind: symtab.Operator, Mode: plusMode}
	second := &symtab.Tag{Name: "+", Kind: symtab.Operator, Mode: plusMode}
	table.Insert(first)
	table.Insert(second)

	sink := diag.NewSink(10)
	resolver.Sink = sink
	tag, ok := resolver.ResolveDyadic(table, "+", r.Int, r.Int, 3, 7)
	if !ok || tag == nil {
		t.Fatalf("expected an ambiguous resolution to still yield a candidate tag, got ok=%v", ok)
	}
	if !sink.HasErrors() {
		t.Fatalf("expected ERROR_NO_UNIQUE_MODE for two equally-FIRM-coercible + operators")
	}
}

func TestUnambiguousOperatorRaisesNoDiagnostic(t *testing.T) {
	resolver, r, table := newResolver()
	plusMode := r.Proc(mode.Pack{{Mode: r.Int}, {Mode: r.Int}}, r.Int)
	table.Insert(&symtab.Tag{Name: "+", Kind: symtab.Operator, Mode: plusMode})

	sink := diag.NewSink(10)
	resolver.Sink = sink
	if _, ok := resolver.ResolveDyadic(table, "+", r.Int, r.Int, 3, 7); !ok {
		t.Fatalf("expected the single candidate to resolve")
	}
	if sink.HasErrors() {
		t.Fatalf("expected no ambiguity diagnostic for a single candidate, got %v", sink.List())
	}
}

func TestUnresolvedOperatorFails(t *testing.T) {
	resolver, r, table := newResolver()
	_, ok := resolver.ResolveDyadic(table, "NOSUCHOP", r.Int, r.Int, 1, 1)
	if ok {
		t.Fatalf("expected resolution to fail for an operator with no matching tag")
	}
}
