// Package scope implements the scope analyser (component H): a two-pass
// gather-then-check fixed point that propagates youngest-environ levels
// through routine and format texts, attaches scope to identifiers, and
// flags transient-name escape and out-of-scope export.
package scope

import (
	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/mode"
	"github.com/a68genie/modecheck/internal/symtab"
)

// Entry is one gathered fact about a subtree's scope: the deepest lexical
// level it freely references, and whether it is a transient (FLEX-row
// element) binding.
type Entry struct {
	Node      *ast.Node
	Level     int
	Transient bool
}

// Analyser bundles the state a scope pass needs.
type Analyser struct {
	Sink *diag.Sink
}

// New constructs an Analyser reporting into sink.
func New(sink *diag.Sink) *Analyser {
	return &Analyser{Sink: sink}
}

func modeOf(n *ast.Node) *mode.Mode {
	mm, _ := n.Mode.(*mode.Mode)
	return mm
}

// GatherYoungest computes the youngest environ of node: the deepest
// lexical level of any identifier it freely references, descending into
// nested routine/format texts (whose own youngest environ is computed
// independently first, then propagated), per spec §4.H.
func (a *Analyser) GatherYoungest(node *ast.Node) []Entry {
	var out []Entry
	var walk func(n *ast.Node)
	walk = func(n *ast.Node) {
		if n == nil {
			return
		}
		switch n.Attribute {
		case ast.Identifier:
			if n.Tag != nil {
				out = append(out, Entry{Node: n, Level: n.Tag.Scope, Transient: isTransient(n.Tag)})
			}
		case ast.RoutineText, ast.FormatText:
			var inner []Entry
			for c := n.Sub; c != nil; c = c.Next {
				inner = append(inner, a.GatherYoungest(c)...)
			}
			youngest := symtab.PrimalScope
			transient := false
			for _, e := range inner {
				if e.Level > youngest {
					youngest = e.Level
				}
				transient = transient || e.Transient
			}
			out = append(out, Entry{Node: n, Level: youngest, Transient: transient})
			return // do not also descend into the same subtree below
		}
		for c := n.Sub; c != nil; c = c.Next {
			walk(c)
		}
	}
	walk(node)
	return out
}

func isTransient(tag *symtab.Tag) bool {
	mm, _ := tag.Mode.(*mode.Mode)
	if mm == nil || mm.Kind != mode.KindRef {
		return false
	}
	return mm.Sub != nil && mm.Sub.Kind == mode.KindFlex
}

// Check validates a gathered entry list against a destination scope level,
// per spec §4.H's check(list, dest_level, allow_transient?) -> ok | errs.
func (a *Analyser) Check(entries []Entry, destLevel int, allowTransient bool, line, col int) bool {
	ok := true
	for _, e := range entries {
		if e.Level > destLevel {
			a.Sink.Errorf(diag.ErrorScopeDynamic, line, col, e.Level, destLevel)
			ok = false
		}
		if e.Transient && !allowTransient {
			a.Sink.Errorf(diag.ErrorTransientName, line, col, modeOf(e.Node))
			ok = false
		}
	}
	return ok
}

// AnalyseAssignation checks that the source's scope does not exceed the
// destination's.
func (a *Analyser) AnalyseAssignation(node *ast.Node, dstLevel int) bool {
	src := node.Sub.Next
	entries := a.GatherYoungest(src)
	return a.Check(entries, dstLevel, false, node.Info.Line, node.Info.Column)
}

// AnalyseIdentityDeclaration assigns the declared identifier's scope as the
// minimum of its lexical level and the expression's youngest scope, per
// spec §4.H.
func (a *Analyser) AnalyseIdentityDeclaration(tag *symtab.Tag, lexicalLevel int, expr *ast.Node) {
	entries := a.GatherYoungest(expr)
	youngest := symtab.PrimalScope
	for _, e := range entries {
		if e.Level > youngest {
			youngest = e.Level
		}
	}
	scope := lexicalLevel
	if youngest < scope {
		scope = youngest
	}
	tag.Scope = scope
	tag.ScopeAssigned = true
}

// AnalyseRoutineTextScope assigns a routine-text node's own scope as its
// youngest environ, and rejects assigning it to a name whose scope is
// longer-lived (a smaller level number means an outer, longer-lived
// scope).
func (a *Analyser) AnalyseRoutineTextScope(node *ast.Node, destLevel int) bool {
	entries := a.GatherYoungest(node)
	youngest := symtab.PrimalScope
	for _, e := range entries {
		if e.Level > youngest {
			youngest = e.Level
		}
	}
	if youngest > destLevel {
		a.Sink.Errorf(diag.ErrorScopeDynamic, node.Info.Line, node.Info.Column, youngest, destLevel)
		return false
	}
	return true
}
