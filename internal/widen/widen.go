// Package widen implements the denotation-widening sweep (component I): a
// final pass collapsing any WIDENING(DENOTATION(v, M)) pair whose target
// mode is a longer-precision numeric into a single denotation with the
// wider mode, preserving the optimal-mask flag.
package widen

import (
	"github.com/a68genie/modecheck/internal/ast"
	"github.com/a68genie/modecheck/internal/diag"
	"github.com/a68genie/modecheck/internal/mode"
)

// Sweeper bundles the diagnostic sink a widening sweep reports portability
// warnings into, and whether those warnings are enabled at all.
type Sweeper struct {
	Sink                *diag.Sink
	PortabilityWarnings bool
}

// New constructs a Sweeper reporting into sink. portabilityWarnings mirrors
// internal/config's Limits.PortabilityWarnings; when false, WIDENING of a
// non-optimal denotation is still collapsed but WARNING_WIDENING_NOT_PORTABLE
// is suppressed.
func New(sink *diag.Sink, portabilityWarnings bool) *Sweeper {
	return &Sweeper{Sink: sink, PortabilityWarnings: portabilityWarnings}
}

func m(v interface{}) *mode.Mode {
	mm, _ := v.(*mode.Mode)
	return mm
}

// Sweep walks node and collapses WIDENING(DENOTATION) pairs in place,
// returning the (possibly replaced) root.
func (s *Sweeper) Sweep(node *ast.Node) *ast.Node {
	if node == nil {
		return nil
	}
	for c := node.Sub; c != nil; c = c.Next {
		collapsed := s.Sweep(c)
		if collapsed != c {
			replaceChild(node, c, collapsed)
		}
	}
	if node.Attribute == ast.Widening && node.Sub != nil && node.Sub.Attribute == ast.Denotation {
		wide := m(node.Mode)
		den := node.Sub
		optimal := isOptimal(den, wide)
		if !optimal && s.PortabilityWarnings {
			s.Sink.Warnf(diag.WarningWideningNotPortable, den.Info.Line, den.Info.Column, m(den.Mode), wide)
		}
		den.Mode = wide
		den.Coerced = true
		return den
	}
	return node
}

func replaceChild(parent, oldChild, newChild *ast.Node) {
	if parent.Sub == oldChild {
		newChild.Next = oldChild.Next
		parent.Sub = newChild
		return
	}
	for c := parent.Sub; c != nil; c = c.Next {
		if c.Next == oldChild {
			newChild.Next = oldChild.Next
			c.Next = newChild
			return
		}
	}
}

// isOptimal reports whether the denotation already carried the wider type
// (in which case the portability warning is silenced).
func isOptimal(den *ast.Node, wide *mode.Mode) bool {
	original := m(den.Mode)
	return original == wide
}
