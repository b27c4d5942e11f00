package widen

import (
	"testing"

	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/mode"
)

func TestSweepCollapsesWideningOverDenotation(t *testing.T) {
	r := mode.NewRegistry()
	sink := diag.NewSink(10)
	s := New(sink, true)

	den := &ast.Node{Attribute: ast.Denotation, Mode: r.Int, Text: "1"}
	wide := ast.Wrap(ast.Widening, den, r.Real)

	result := s.Sweep(wide)
	if result != den {
		t.Fatalf("expected Sweep to collapse WIDENING(DENOTATION) into the denotation node itself")
	}
	if result.Mode.(*mode.Mode) != r.Real {
		t.Fatalf("expected the collapsed denotation's mode to be the wider mode")
	}
	if !result.Coerced {
		t.Fatalf("expected the collapsed denotation to be marked Coerced")
	}
	if !sink.HasErrors() && len(sink.List()) == 0 {
		// A portability warning, not an error, should have been raised.
		t.Fatalf("expected WARNING_WIDENING_NOT_PORTABLE to be recorded for a non-optimal widen")
	}
}

func TestSweepSuppressesWarningWhenPortabilityWarningsDisabled(t *testing.T) {
	r := mode.NewRegistry()
	sink := diag.NewSink(10)
	s := New(sink, false)

	den := &ast.Node{Attribute: ast.Denotation, Mode: r.Int, Text: "1"}
	wide := ast.Wrap(ast.Widening, den, r.Real)

	result := s.Sweep(wide)
	if result != den {
		t.Fatalf("expected Sweep to still collapse WIDENING(DENOTATION) with warnings disabled")
	}
	if len(sink.List()) != 0 {
		t.Fatalf("expected no diagnostics when PortabilityWarnings is false, got %v", sink.List())
	}
}

func TestSweepLeavesNonWideningNodesAlone(t *testing.T) {
	r := mode.NewRegistry()
	s := New(diag.NewSink(10), true)
	ident := &ast.Node{Attribute: ast.Identifier, Mode: r.Int}
	if s.Sweep(ident) != ident {
		t.Fatalf("expected Sweep to leave a plain identifier node unchanged")
	}
}

func TestSweepRecursesIntoChildren(t *testing.T) {
	r := mode.NewRegistry()
	s := New(diag.NewSink(10), true)

	den := &ast.Node{Attribute: ast.Denotation, Mode: r.Int, Text: "1"}
	wide := ast.Wrap(ast.Widening, den, r.Real)
	parent := &ast.Node{Attribute: ast.ClosedClause, Sub: wide}

	s.Sweep(parent)
	if parent.Sub != den {
		t.Fatalf("expected Sweep to replace the child WIDENING(DENOTATION) with the bare denotation")
	}
}
