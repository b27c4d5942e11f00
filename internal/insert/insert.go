// Package insert implements the coercion inserter (component G): it
// materialises the coercions the checker relied on, synthesizing explicit
// coercion nodes in the canonical order VOIDING ∘ PROCEDURING ∘ UNITING ∘
// WIDENING ∘ ROWING ∘ DEREFERENCING ∘ DEPROCEDURING. Insert works on one
// node against one expected mode; it does not descend into that node's
// children, so an inner expression is coerced only when Insert is called on
// it directly.
package insert

import (
	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/coerce"
	"github.com/a68genie/modecheck/internal/mode"
)

// Inserter bundles the registry/normaliser/coercer an insertion pass needs.
type Inserter struct {
	Reg    *mode.Registry
	Norm   *mode.Normaliser
	Coerce *coerce.Checker
}

// New binds an Inserter to one compilation's registry/normaliser/coercer.
func New(r *mode.Registry, n *mode.Normaliser, c *coerce.Checker) *Inserter {
	return &Inserter{Reg: r, Norm: n, Coerce: c}
}

func m(v interface{}) *mode.Mode {
	mm, _ := v.(*mode.Mode)
	return mm
}

// Insert wraps node so that its yielded mode matches expected, returning
// the (possibly wrapped) replacement node. Already-coerced nodes
// (node.Coerced) are returned unchanged: running the inserter twice on an
// already-inserted tree produces no further coercion nodes (Testable
// Property 4).
func (ins *Inserter) Insert(node *ast.Node, expected *mode.Mode) *ast.Node {
	if node == nil || node.Coerced || expected == nil {
		return node
	}
	yielded := m(node.Mode)
	if yielded == nil {
		return node
	}
	if ins.Reg.Equivalent(yielded, expected) {
		node.Coerced = true
		return node
	}

	cur := node
	curMode := yielded

	// DEPROCEDURING: strip parameterless PROC layers.
	for curMode.Kind == mode.KindProc && len(curMode.Pack) == 0 && !ins.Reg.Equivalent(curMode, expected) {
		next := curMode.Sub
		if !ins.needsLayer(curMode, next, expected) {
			break
		}
		cur = ast.Wrap(ast.Deproceduring, cur, next)
		curMode = next
	}

	// DEREFERENCING: strip REF layers.
	for curMode.Kind == mode.KindRef && !ins.Reg.Equivalent(curMode, expected) {
		next := curMode.Sub
		if !ins.needsLayer(curMode, next, expected) {
			break
		}
		cur = ast.Wrap(ast.Dereferencing, cur, next)
		curMode = next
	}

	// ROWING: promote to a row if expected is a ROW or FLEX mode that
	// curMode is not already equivalent to; a REF-row expected mode is not
	// rowed here. When the row's element mode is a UNION, the value is first
	// united to that element mode, so UNITING then ROWING is inserted.
	if expected.Kind == mode.KindRow || expected.Kind == mode.KindFlex {
		if !ins.Reg.Equivalent(curMode, expected) {
			elem := ins.Norm.Slice(expected)
			if elem.Kind == mode.KindUnion && curMode.Kind != mode.KindUnion && curMode.Kind != mode.KindRow && curMode.Kind != mode.KindFlex {
				cur = ast.Wrap(ast.Uniting, cur, elem)
			}
			cur = ast.Wrap(ast.Rowing, cur, expected)
			curMode = expected
		}
	}

	// WIDENING: apply one step of the widening chain at a time, rebuilding
	// until expected is reached.
	for curMode.Kind != expected.Kind {
		next, ok := ins.widenStep(curMode, expected)
		if !ok {
			break
		}
		cur = ast.Wrap(ast.Widening, cur, next)
		curMode = next
	}

	// UNITING: lift a value mode into an expected UNION mode; a row of
	// unions is united in the ROWING step above.
	if expected.Kind == mode.KindUnion && curMode.Kind != mode.KindUnion {
		cur = ast.Wrap(ast.Uniting, cur, expected)
		curMode = expected
	}

	// PROCEDURING: only when a JUMP appears where PROC VOID is expected.
	if node.Attribute == ast.Jump && expected.Kind == mode.KindProc {
		cur = ast.Wrap(ast.Proceduring, cur, expected)
		curMode = expected
	}

	// VOIDING: wraps the construct in a VOID context, after interior
	// refs/procs have already been stripped above.
	if expected.Kind == mode.KindVoid && curMode.Kind != mode.KindVoid {
		cur = ast.Wrap(ast.Voiding, cur, expected)
		curMode = expected
	}

	cur.Coerced = true
	return cur
}

// needsLayer reports whether curMode still differs from expected, so that
// one more layer is stripped; a layer is never stripped from a mode that
// already equals expected. next is not consulted.
func (ins *Inserter) needsLayer(curMode, next, expected *mode.Mode) bool {
	if ins.Reg.Equivalent(curMode, expected) {
		return false
	}
	return true
}

var wideningChain = map[mode.Kind]mode.Kind{
	mode.KindInt:         mode.KindLongInt,
	mode.KindLongInt:     mode.KindLongLongInt,
	mode.KindLongLongInt: mode.KindLongReal,
	mode.KindReal:        mode.KindComplex,
	mode.KindLongReal:    mode.KindLongComplex,
	mode.KindComplex:     mode.KindLongComplex,
	mode.KindLongComplex: mode.KindLongLongComplex,
	mode.KindBits:        mode.KindLongBits,
}

func (ins *Inserter) widenStep(cur, target *mode.Mode) (*mode.Mode, bool) {
	next, ok := wideningChain[cur.Kind]
	if cur.Kind == mode.KindInt && (target.Kind == mode.KindReal || target.Kind == mode.KindComplex) {
		next, ok = mode.KindReal, true
	}
	if !ok {
		return nil, false
	}
	// Only step toward a target the chain actually reaches from next.
	for k := next; k != target.Kind; {
		if k, ok = wideningChain[k]; !ok {
			return nil, false
		}
	}
	return ins.Reg.Register(&mode.Mode{Kind: next, WellFormed: true}), true
}

// VerifyIdempotent confirms that re-running Insert on an already-inserted
// node produces the identical node (Testable Property 4).
func (ins *Inserter) VerifyIdempotent(node *ast.Node, expected *mode.Mode) bool {
	once := ins.Insert(node, expected)
	twice := ins.Insert(once, expected)
	return once == twice
}

// VerifyWellTyped walks the fully-annotated tree and confirms that, for
// every operator/call/assignation node, the actual yielded mode of its
// children is pointer-equal to the expected operand/destination mode — no
// implicit conversion remains (Testable Property 5). expectedOf maps a
// child node to the mode it was checked against.
func VerifyWellTyped(node *ast.Node, expectedOf map[*ast.Node]*mode.Mode) bool {
	if node == nil {
		return true
	}
	if want, ok := expectedOf[node]; ok {
		got := m(node.Mode)
		if got != want {
			return false
		}
	}
	for child := node.Sub; child != nil; child = child.Next {
		if !VerifyWellTyped(child, expectedOf) {
			return false
		}
	}
	return true
}
