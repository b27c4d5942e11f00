package main

import (
	"fmt"

	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/balance"
	"github.com/a68genie/modecheck/internal/check"
	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/config"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/insert"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/operator"
	"github.com/a68genie/modecheck/internal/scope"
	"github.com/a68genie/modecheck/internal/soid"
	"github.com/a68genie/modecheck/internal/symtab"
	"github.com/a68genie/modecheck/internal/widen"
)

// pipeline bundles one compilation's registry, normaliser, and derived
// checkers, mirroring the data-flow diagram in spec.md §2.
type pipeline struct {
	reg      *mode.Registry
	norm     *mode.Normaliser
	coerce   *coerce.Checker
	balancer *balance.Balancer
	operator *operator.Resolver
	sink     *diag.Sink
	checker  *check.Checker
	scope    *scope.Analyser
}

func newPipeline(limits config.Limits) *pipeline {
	reg := mode.NewRegistry()
	norm := mode.NewNormaliser(reg)
	co := coerce.NewChecker(reg, norm)
	bal := balance.New(reg, norm, co)
	sink := diag.NewSink(limits.MaxErrors)
	op := operator.New(reg, norm, co, sink)
	chk := check.New(reg, norm, co, bal, op, sink, 0)
	chk.SetStackRatio(limits.StackRatio)
	sc := scope.New(sink)
	return &pipeline{reg: reg, norm: norm, coerce: co, balancer: bal, operator: op, sink: sink, checker: chk, scope: sc}
}

// examples maps a bundled example name to a tree-building function, the way
// the teacher's cmd/test_* binaries each exercise one fixed scenario.
var examples = map[string]func(p *pipeline) (*ast.Node, soid.SOID){
	"e1-widening":   buildE1,
	"e2-deproc":     buildE2,
	"e5-scope-leak": buildE5,
}

func runCheck(name, configPath string) error {
	limits, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	builder, ok := examples[name]
	if !ok {
		return fmt.Errorf("unknown example %q (available: e1-widening, e2-deproc, e5-scope-leak)", name)
	}

	p := newPipeline(limits)
	tree, expected := builder(p)
	p.checker.Check(tree, expected)

	ins := insert.New(p.reg, p.norm, p.coerce)
	tree = ins.Insert(tree, modeOf(expected))
	w := widen.New(p.sink, limits.PortabilityWarnings)
	tree = w.Sweep(tree)
	runScopePass(p.scope, tree)

	printDiagnostics(p.sink)
	return nil
}

// runScopePass walks the fully inserted-and-widened tree and runs component
// H over every construct spec §4.H assigns scope to, completing the
// (G)→(I)→(H) data-flow of spec.md §2: coercion insertion and widening must
// settle on a tree's final shape before scope is computed over it.
func runScopePass(a *scope.Analyser, node *ast.Node) {
	if node == nil {
		return
	}
	switch node.Attribute {
	case ast.IdentityDeclaration, ast.VariableDeclaration:
		if node.Tag != nil {
			a.AnalyseIdentityDeclaration(node.Tag, node.Table.Level, node.Sub)
			node.Scope = node.Tag.Scope
			node.ScopeAssigned = node.Tag.ScopeAssigned
		}
	case ast.Assignation:
		if dst := node.Sub; dst != nil && dst.Tag != nil {
			a.AnalyseAssignation(node, dst.Tag.Scope)
		}
	}
	for c := node.Sub; c != nil; c = c.Next {
		runScopePass(a, c)
	}
}

func modeOf(s soid.SOID) *mode.Mode {
	m, _ := s.Mode.(*mode.Mode)
	return m
}

func printDiagnostics(sink *diag.Sink) {
	list := sink.List()
	if len(list) == 0 {
		fmt.Println(green("no diagnostics"))
		return
	}
	for _, d := range list {
		label := red(string(d.Severity))
		if d.Severity == diag.Warning {
			label = yellow(string(d.Severity))
		}
		fmt.Printf("%s:%d:%d: %s [%s]\n", label, d.Line, d.Column, d.Render(), d.Code)
	}
}

// buildE1 constructs "INT i := 1; REAL r := i", end-to-end scenario E1 from
// spec.md §8: the checker accepts the REF INT identifier i as the REAL
// initialiser by dereferencing then widening INT→REAL. The declaration stands
// in a STRONG VOID context; Insert is applied to the declaration node only,
// so no coercion nodes are built around i.
func buildE1(p *pipeline) (*ast.Node, soid.SOID) {
	table := symtab.NewTable(nil)
	iTag := &symtab.Tag{Name: "i", Kind: symtab.Identifier, Mode: p.reg.Ref(p.reg.Int)}
	table.Insert(iTag)

	rTag := &symtab.Tag{Name: "r", Kind: symtab.Identifier, Mode: p.reg.Real}
	table.Insert(rTag)

	ident := &ast.Node{Attribute: ast.Identifier, Text: "i", Table: table, Tag: iTag}
	decl := &ast.Node{Attribute: ast.IdentityDeclaration, Sub: ident, Table: table, Tag: rTag, Mode: p.reg.Real}
	return decl, soid.Expected(soid.Strong, p.reg.Void)
}

// buildE2 constructs "PROC p = INT: 42; INT k := p", end-to-end scenario E2:
// the checker accepts the parameterless procedure p as the INT initialiser by
// deproceduring it. As in buildE1, the declaration stands in a STRONG VOID
// context.
func buildE2(p *pipeline) (*ast.Node, soid.SOID) {
	table := symtab.NewTable(nil)
	procMode := p.reg.Proc(nil, p.reg.Int)
	pTag := &symtab.Tag{Name: "p", Kind: symtab.Identifier, Mode: procMode}
	table.Insert(pTag)

	kTag := &symtab.Tag{Name: "k", Kind: symtab.Identifier, Mode: p.reg.Int}
	table.Insert(kTag)

	ident := &ast.Node{Attribute: ast.Identifier, Text: "p", Table: table, Tag: pTag}
	decl := &ast.Node{Attribute: ast.IdentityDeclaration, Sub: ident, Table: table, Tag: kTag, Mode: p.reg.Int}
	return decl, soid.Expected(soid.Strong, p.reg.Void)
}

// buildE5 constructs end-to-end scenario E5: a REF FLEX [] INT bound at an
// inner scope ("row") assigned through a name declared at the enclosing
// outer scope ("slot"), a transient-name escape that only component H can
// catch — neither the mode checker nor the inserter look at Tag.Scope at
// all, so this is the one bundled example exercising the scope pass's
// diagnostics rather than just its annotation.
func buildE5(p *pipeline) (*ast.Node, soid.SOID) {
	outer := symtab.NewTable(nil)
	inner := symtab.NewTable(outer)

	flexMode := p.reg.Ref(p.reg.Flex(p.reg.Row(p.reg.Int, 1)))
	rowTag := &symtab.Tag{Name: "row", Kind: symtab.Identifier, Mode: flexMode}
	inner.Insert(rowTag)
	slotTag := &symtab.Tag{Name: "slot", Kind: symtab.Identifier, Mode: flexMode}
	outer.Insert(slotTag)

	dst := &ast.Node{Attribute: ast.Identifier, Text: "slot", Table: outer, Tag: slotTag}
	src := &ast.Node{Attribute: ast.Identifier, Text: "row", Table: inner, Tag: rowTag}
	dst.Next = src
	assign := &ast.Node{Attribute: ast.Assignation, Sub: dst, Table: inner}
	return assign, soid.Expected(soid.Strong, flexMode)
}
