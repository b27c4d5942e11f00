// Package symtab implements the symbol-table machinery the mode-checking
// core reads and annotates: tag chains per kind and the enclosing-table
// links that give every construct its lexical level.
//
// The core never builds tables for a whole compilation from scratch — that
// is symbol-table construction, an external responsibility — but it does
// insert placeholder tags for undeclared identifiers (§7 "missing
// declaration") and stamps scope onto tags during (H).
package symtab

import "github.com/a68genie/modecheck/internal/identnorm"

// TagKind classifies an entry in a Table.
type TagKind int

const (
	Identifier TagKind = iota
	Operator
	Indicant
	Label
	Anonymous
)

func (k TagKind) String() string {
	switch k {
	case Identifier:
		return "IDENTIFIER"
	case Operator:
		return "OPERATOR"
	case Indicant:
		return "INDICANT"
	case Label:
		return "LABEL"
	case Anonymous:
		return "ANONYMOUS"
	default:
		return "UNKNOWN_TAG_KIND"
	}
}

// PrimalScope is the lexical level of the standard environ.
const PrimalScope = 0

// Tag is an entry in a symbol table.
type Tag struct {
	Name     string
	Kind     TagKind
	Mode     interface{} // *mode.Mode; interface{} avoids an import cycle
	Defining interface{} // *ast.Node; interface{} avoids an import cycle
	Scope    int
	Heap     bool // true => HEAP, false => LOC
	Priority int  // operator priority, meaningful only for Kind==Operator
	Table    *Table

	ScopeAssigned bool
	IsError       bool // true for placeholder tags inserted after ERROR_UNDECLARED_TAG
}

// Table is one lexical scope level.
type Table struct {
	Level     int
	Nest      int
	FrameIncr int
	Enclosing *Table

	identifiers []*Tag
	operators   []*Tag
	priorities  []*Tag
	indicants   []*Tag
	labels      []*Tag
	anonymous   []*Tag
}

// NewTable creates a new table nested inside enclosing (nil for the
// standard environ).
func NewTable(enclosing *Table) *Table {
	level := PrimalScope
	if enclosing != nil {
		level = enclosing.Level + 1
	}
	return &Table{Level: level, Enclosing: enclosing}
}

func (t *Table) chainFor(kind TagKind) *[]*Tag {
	switch kind {
	case Identifier:
		return &t.identifiers
	case Operator:
		return &t.operators
	case Indicant:
		return &t.indicants
	case Label:
		return &t.labels
	case Anonymous:
		return &t.anonymous
	default:
		return &t.identifiers
	}
}

// Insert adds tag to the chain matching its kind and sets its Table
// back-link. tag.Name is canonicalized first so that a translation unit
// combining separately-scanned source text cannot intern "café" (NFC) and
// "café" (NFD) as two distinct tags.
func (t *Table) Insert(tag *Tag) {
	tag.Name = identnorm.Canonicalize(tag.Name)
	tag.Table = t
	tag.Scope = t.Level
	chain := t.chainFor(tag.Kind)
	*chain = append(*chain, tag)
}

// Find looks up name of the given kind, starting at t and walking outward
// through enclosing tables. name is canonicalized before comparison, the
// same normalization applied at Insert, so a lookup spelled in a different
// Unicode normalization form still finds the tag. Returns nil if not found.
func (t *Table) Find(kind TagKind, name string) *Tag {
	name = identnorm.Canonicalize(name)
	for table := t; table != nil; table = table.Enclosing {
		chain := *table.chainFor(kind)
		for _, tag := range chain {
			if tag.Name == name {
				return tag
			}
		}
	}
	return nil
}

// FindPriority looks up an operator's declared priority, walking outward
// exactly like Find but over the priorities chain (a separate chain per
// spec §3, since priority declarations are syntactically distinct from
// operator definitions).
func (t *Table) FindPriority(name string) (int, bool) {
	name = identnorm.Canonicalize(name)
	for table := t; table != nil; table = table.Enclosing {
		for _, tag := range table.priorities {
			if tag.Name == name {
				return tag.Priority, true
			}
		}
	}
	return 0, false
}

// InsertPlaceholder inserts a mode-ERROR tag for an undeclared identifier in
// t (the innermost table at the point of reference), so that later
// references to the same name do not retrigger ERROR_UNDECLARED_TAG.
func (t *Table) InsertPlaceholder(kind TagKind, name string, errorMode interface{}) *Tag {
	tag := &Tag{Name: name, Kind: kind, Mode: errorMode, IsError: true}
	t.Insert(tag)
	return tag
}

// IsStandardEnviron reports whether t is the outermost table.
func (t *Table) IsStandardEnviron() bool {
	return t.Enclosing == nil
}

// Identifiers, Operators, Indicants, Labels, Anonymous expose each tag
// chain for iteration (e.g. by the scope analyser and operator resolver).
func (t *Table) Identifiers() []*Tag { return t.identifiers }
func (t *Table) Operators() []*Tag  { return t.operators }
func (t *Table) Indicants() []*Tag  { return t.indicants }
func (t *Table) Labels() []*Tag     { return t.labels }
func (t *Table) Anonymous() []*Tag  { return t.anonymous }
