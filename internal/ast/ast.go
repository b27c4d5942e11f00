// Package ast defines the generic syntax tree shape the mode-checking core
// consumes from an upstream scanner/parser. The core never reshapes this
// tree into a typed node hierarchy: every construct, from a denotation to a
// parallel clause, is the same generic Node carrying an Attribute tag, a
// child chain, a back-link to its enclosing table, and source Info.
package ast

import "github.com/a68genie/modecheck/internal/symtab"

// Attribute classifies a Node's syntactic role. The set covers every
// construct class named in the mode checker's contract.
type Attribute int

const (
	NoAttribute Attribute = iota

	Denotation
	Identifier
	Generator
	Assignation
	IdentityRelation
	Formula
	MonadicFormula
	Call
	Slice
	Trimmer
	Selection
	ClosedClause
	ConditionalClause
	CaseClause
	ConformityClause
	LoopClause
	CollateralClause
	ParallelClause
	RoutineText
	FormatText
	Cast
	Assertion
	Nihil
	Jump
	Skip

	IdentityDeclaration
	VariableDeclaration
	ModeDeclaration
	OperatorDeclaration

	SeriesNode // internal balancing yield; never in the final annotated tree
	StowedNode // internal collateral-display yield

	// Coercion node kinds synthesized by the inserter (component G).
	Dereferencing
	Deproceduring
	Uniting
	Widening
	Rowing
	Voiding
	Proceduring
)

var attributeNames = map[Attribute]string{
	NoAttribute:         "NO_ATTRIBUTE",
	Denotation:          "DENOTATION",
	Identifier:          "IDENTIFIER",
	Generator:           "GENERATOR",
	Assignation:         "ASSIGNATION",
	IdentityRelation:    "IDENTITY_RELATION",
	Formula:             "FORMULA",
	MonadicFormula:      "MONADIC_FORMULA",
	Call:                "CALL",
	Slice:               "SLICE",
	Trimmer:             "TRIMMER",
	Selection:           "SELECTION",
	ClosedClause:        "CLOSED_CLAUSE",
	ConditionalClause:   "CONDITIONAL_CLAUSE",
	CaseClause:          "CASE_CLAUSE",
	ConformityClause:    "CONFORMITY_CLAUSE",
	LoopClause:          "LOOP_CLAUSE",
	CollateralClause:    "COLLATERAL_CLAUSE",
	ParallelClause:      "PARALLEL_CLAUSE",
	RoutineText:         "ROUTINE_TEXT",
	FormatText:          "FORMAT_TEXT",
	Cast:                "CAST",
	Assertion:           "ASSERTION",
	Nihil:               "NIHIL",
	Jump:                "JUMP",
	Skip:                "SKIP",
	IdentityDeclaration: "IDENTITY_DECLARATION",
	VariableDeclaration: "VARIABLE_DECLARATION",
	ModeDeclaration:     "MODE_DECLARATION",
	OperatorDeclaration: "OPERATOR_DECLARATION",
	SeriesNode:          "SERIES",
	StowedNode:          "STOWED",
	Dereferencing:       "DEREFERENCING",
	Deproceduring:       "DEPROCEDURING",
	Uniting:             "UNITING",
	Widening:            "WIDENING",
	Rowing:              "ROWING",
	Voiding:             "VOIDING",
	Proceduring:         "PROCEDURING",
}

func (a Attribute) String() string {
	if s, ok := attributeNames[a]; ok {
		return s
	}
	return "UNKNOWN_ATTRIBUTE"
}

// IsCoercionNode reports whether a is one of the seven coercion-node kinds
// that only (G), the coercion inserter, is permitted to synthesize.
func (a Attribute) IsCoercionNode() bool {
	switch a {
	case Dereferencing, Deproceduring, Uniting, Widening, Rowing, Voiding, Proceduring:
		return true
	}
	return false
}

// Info carries source-position metadata for a Node.
type Info struct {
	Line   int
	Column int
	Symbol string
}

// Node is the generic tree shape delivered by the parser. The core mutates
// Mode and Tag during the walk; every other field is read-only input.
type Node struct {
	Attribute Attribute
	Sub       *Node // single-argument child (operand, primary, body, …)
	Next      *Node // sibling chain (parameter lists, pack elements, …)
	Table     *symtab.Table
	Info      Info

	Text string // identifier/operator spelling, denotation literal text, …

	// Provisional tag pointer the parser may have already resolved
	// (e.g. for an identifier occurrence); the core may overwrite it.
	Tag *symtab.Tag

	// Annotations added by the core.
	Mode          interface{} // *mode.Mode; interface{} avoids an import cycle
	NonLocal      *symtab.Table
	Pack          interface{} // matched struct-field pack element, for selections
	ScopeAssigned bool
	Scope         int
	Interruptible bool
	NeedDNS       bool // marked by (H) when static scope safety cannot be proven

	// Set by (G)/(I) once a coercion or widening wrapper has been inserted,
	// so a second pass over an already-inserted tree is a no-op.
	Coerced bool
}

// Children returns the Sub-chain as a slice, walking Next links.
func (n *Node) Children() []*Node {
	if n == nil || n.Sub == nil {
		return nil
	}
	var out []*Node
	for c := n.Sub; c != nil; c = c.Next {
		out = append(out, c)
	}
	return out
}

// Wrap returns a new coercion node of the given attribute and mode, with n
// as its sole child. Used exclusively by internal/insert.
func Wrap(attr Attribute, sub *Node, mode interface{}) *Node {
	return &Node{
		Attribute: attr,
		Sub:       sub,
		Info:      sub.Info,
		Mode:      mode,
	}
}
