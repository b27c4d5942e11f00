package insert

import (
	"testing"

	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/mode"
)

func newInserter() (*Inserter, *mode.Registry) {
	r := mode.NewRegistry()
	n := mode.NewNormaliser(r)
	c := coerce.NewChecker(r, n)
	return New(r, n, c), r
}

// TestE1InsertsDereferenceThenWiden mirrors scenario E1: the identifier i of
// mode REF INT, checked against REAL, is wrapped
// WIDENING(INT→REAL) ∘ DEREFERENCING(identifier i).
func TestE1InsertsDereferenceThenWiden(t *testing.T) {
	ins, r := newInserter()
	ident := &ast.Node{Attribute: ast.Identifier, Text: "i", Mode: r.Ref(r.Int)}

	wrapped := ins.Insert(ident, r.Real)

	if wrapped.Attribute != ast.Widening {
		t.Fatalf("expected outermost node to be WIDENING, got %v", wrapped.Attribute)
	}
	if wrapped.Sub.Attribute != ast.Dereferencing {
		t.Fatalf("expected WIDENING to wrap DEREFERENCING, got %v", wrapped.Sub.Attribute)
	}
	if wrapped.Sub.Sub != ident {
		t.Fatalf("expected DEREFERENCING to wrap the original identifier node")
	}
}

// TestE2InsertsDeproceduring mirrors scenario E2: a parameterless PROC INT
// identifier checked against INT is wrapped DEPROCEDURING(identifier p).
func TestE2InsertsDeproceduring(t *testing.T) {
	ins, r := newInserter()
	procMode := r.Proc(nil, r.Int)
	ident := &ast.Node{Attribute: ast.Identifier, Text: "p", Mode: procMode}

	wrapped := ins.Insert(ident, r.Int)

	if wrapped.Attribute != ast.Deproceduring {
		t.Fatalf("expected DEPROCEDURING, got %v", wrapped.Attribute)
	}
}

func TestIdempotentInserter(t *testing.T) {
	ins, r := newInserter()
	ident := &ast.Node{Attribute: ast.Identifier, Text: "i", Mode: r.Ref(r.Int)}
	if !ins.VerifyIdempotent(ident, r.Real) {
		t.Fatalf("expected re-running the inserter on an already-inserted tree to produce no further coercion nodes")
	}
}

func TestNoCoercionWhenModesAlreadyMatch(t *testing.T) {
	ins, r := newInserter()
	ident := &ast.Node{Attribute: ast.Identifier, Text: "i", Mode: r.Int}
	wrapped := ins.Insert(ident, r.Int)
	if wrapped != ident {
		t.Fatalf("expected no coercion node when the yielded mode already matches the expected one")
	}
}
