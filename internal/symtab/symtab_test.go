package symtab

import "testing"

func TestInsertAndFindWithinTable(t *testing.T) {
	table := NewTable(nil)
	tag := &Tag{Name: "x", Kind: Identifier}
	table.Insert(tag)

	found := table.Find(Identifier, "x")
	if found != tag {
		t.Fatalf("expected Find to return the inserted tag")
	}
	if tag.Scope != PrimalScope {
		t.Fatalf("expected the standard environ's tags to carry scope %d, got %d", PrimalScope, tag.Scope)
	}
}

func TestFindWalksOutwardThroughEnclosing(t *testing.T) {
	outer := NewTable(nil)
	outer.Insert(&Tag{Name: "x", Kind: Identifier})
	inner := NewTable(outer)

	if inner.Find(Identifier, "x") == nil {
		t.Fatalf("expected Find in the inner table to walk outward and find x")
	}
	if inner.Find(Identifier, "nosuch") != nil {
		t.Fatalf("expected Find to return nil for an undeclared name")
	}
}

func TestInnerTagShadowsOuter(t *testing.T) {
	outer := NewTable(nil)
	outerTag := &Tag{Name: "x", Kind: Identifier}
	outer.Insert(outerTag)
	inner := NewTable(outer)
	innerTag := &Tag{Name: "x", Kind: Identifier}
	inner.Insert(innerTag)

	found := inner.Find(Identifier, "x")
	if found != innerTag {
		t.Fatalf("expected the innermost declaration of x to shadow the outer one")
	}
}

func TestTagKindsDoNotCollide(t *testing.T) {
	table := NewTable(nil)
	table.Insert(&Tag{Name: "x", Kind: Identifier})
	table.Insert(&Tag{Name: "x", Kind: Operator})

	if table.Find(Identifier, "x") == table.Find(Operator, "x") {
		t.Fatalf("expected identifier and operator chains for the same name to be distinct tags")
	}
}

func TestLevelIncreasesWithNesting(t *testing.T) {
	outer := NewTable(nil)
	inner := NewTable(outer)
	if inner.Level != outer.Level+1 {
		t.Fatalf("expected nested table's level to be enclosing level + 1, got %d vs %d", inner.Level, outer.Level)
	}
	if !outer.IsStandardEnviron() {
		t.Fatalf("expected the enclosing-less table to report itself as the standard environ")
	}
	if inner.IsStandardEnviron() {
		t.Fatalf("expected a nested table not to report itself as the standard environ")
	}
}

func TestInsertPlaceholderMarksIsError(t *testing.T) {
	table := NewTable(nil)
	tag := table.InsertPlaceholder(Identifier, "nosuch", nil)
	if !tag.IsError {
		t.Fatalf("expected a placeholder tag to be marked IsError")
	}
	if table.Find(Identifier, "nosuch") != tag {
		t.Fatalf("expected the placeholder tag to be findable by name afterwards")
	}
}

func TestFindPriorityIsSeparateFromOperatorChain(t *testing.T) {
	table := NewTable(nil)
	table.Insert(&Tag{Name: "MYOP", Kind: Operator})
	if _, ok := table.FindPriority("MYOP"); ok {
		t.Fatalf("expected FindPriority to require a distinct priority-chain entry, not the operator declaration itself")
	}

	table.priorities = append(table.priorities, &Tag{Name: "MYOP", Priority: 7})
	prio, ok := table.FindPriority("MYOP")
	if !ok || prio != 7 {
		t.Fatalf("expected FindPriority to return the declared priority, got %d ok=%v", prio, ok)
	}
}
