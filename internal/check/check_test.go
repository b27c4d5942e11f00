package check

import (
	"testing"

	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/balance"
	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/operator"
	"github.com/a68genie/modecheck/internal/soid"
	"github.com/a68genie/modecheck/internal/symtab"
)

func newChecker() (*Checker, *mode.Registry) {
	r := mode.NewRegistry()
	n := mode.NewNormaliser(r)
	co := coerce.NewChecker(r, n)
	bal := balance.New(r, n, co)
	sink := diag.NewSink(10)
	op := operator.New(r, n, co, sink)
	return New(r, n, co, bal, op, sink, 0), r
}

// TestE1DereferenceThenWiden mirrors end-to-end scenario E1:
// INT i := 1; REAL r := i yields i dereferenced then widened INT→REAL.
func TestE1DereferenceThenWiden(t *testing.T) {
	c, r := newChecker()
	table := symtab.NewTable(nil)
	iTag := &symtab.Tag{Name: "i", Kind: symtab.Identifier, Mode: r.Ref(r.Int)}
	table.Insert(iTag)

	ident := &ast.Node{Attribute: ast.Identifier, Text: "i", Table: table, Tag: iTag}
	yielded := c.Check(ident, soid.Expected(soid.Strong, r.Real))

	if c.Sink.HasErrors() {
		t.Fatalf("expected no errors, got %v", c.Sink.List())
	}
	m := yielded.Mode.(*mode.Mode)
	if m.Kind != mode.KindRef {
		t.Fatalf("expected the identifier's own yielded mode to remain REF INT before insertion, got %v", m.Kind)
	}
}

func TestUndeclaredIdentifierInsertsPlaceholder(t *testing.T) {
	c, _ := newChecker()
	table := symtab.NewTable(nil)
	ident := &ast.Node{Attribute: ast.Identifier, Text: "nosuch", Table: table}

	c.Check(ident, soid.SOID{})

	if !c.Sink.HasErrors() {
		t.Fatalf("expected ERROR_UNDECLARED_TAG to be raised")
	}
	found := table.Find(symtab.Identifier, "nosuch")
	if found == nil {
		t.Fatalf("expected a placeholder tag to be inserted for the undeclared identifier")
	}

	// A second reference must not retrigger the error.
	ident2 := &ast.Node{Attribute: ast.Identifier, Text: "nosuch", Table: table}
	before := len(c.Sink.List())
	c.Check(ident2, soid.SOID{})
	if len(c.Sink.List()) != before {
		t.Fatalf("expected no new diagnostic for a repeated reference to the same undeclared tag")
	}
}

func TestAssignationRequiresName(t *testing.T) {
	c, r := newChecker()
	table := symtab.NewTable(nil)
	denotation := &ast.Node{Attribute: ast.Denotation, Table: table, Mode: r.Int}
	assign := &ast.Node{Attribute: ast.Assignation, Table: table, Sub: denotation}
	denotation.Next = &ast.Node{Attribute: ast.Denotation, Table: table, Mode: r.Int}

	c.Check(assign, soid.SOID{})
	if !c.Sink.HasErrors() {
		t.Fatalf("expected ERROR_NO_NAME when the assignation's destination is not a REF")
	}
}

func TestCannotCoerceEmitsDiagnostic(t *testing.T) {
	c, r := newChecker()
	table := symtab.NewTable(nil)
	denotation := &ast.Node{Attribute: ast.Denotation, Table: table, Mode: r.Bool}

	c.Check(denotation, soid.Expected(soid.Strong, r.Int))
	if !c.Sink.HasErrors() {
		t.Fatalf("expected ERROR_CANNOT_COERCE for BOOL where INT is STRONG-expected")
	}
}
