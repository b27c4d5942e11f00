package main

import (
	"testing"

	"github.com/a68genie/modecheck/internal/config"
	"github.com/a68genie/modecheck/internal/insert"
	"github.com/a68genie/modecheck/internal/widen"
)

// TestRunCheckExercisesBundledExamples is a smoke test confirming every
// bundled example runs the full check -> insert -> widen -> scope pipeline
// without error, including e5-scope-leak, which only component H's
// diagnostics (ERROR_SCOPE_DYNAMIC, ERROR_TRANSIENT_NAME) ever fire on.
func TestRunCheckExercisesBundledExamples(t *testing.T) {
	for name := range examples {
		if err := runCheck(name, ""); err != nil {
			t.Fatalf("runCheck(%q) returned an error: %v", name, err)
		}
	}
}

func TestRunCheckRejectsUnknownExample(t *testing.T) {
	if err := runCheck("no-such-example", ""); err == nil {
		t.Fatalf("expected an error for an unregistered example name")
	}
}

// TestScopeAssignedOnDeclaringIdentifier confirms buildE1's declared
// identifier comes out of the pipeline with scope actually assigned, the
// output contract spec §6 requires of every defining identifier.
func TestScopeAssignedOnDeclaringIdentifier(t *testing.T) {
	limits, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default limits: %v", err)
	}
	p := newPipeline(limits)
	tree, expected := buildE1(p)
	p.checker.Check(tree, expected)

	ins := insert.New(p.reg, p.norm, p.coerce)
	tree = ins.Insert(tree, modeOf(expected))
	w := widen.New(p.sink, limits.PortabilityWarnings)
	tree = w.Sweep(tree)
	runScopePass(p.scope, tree)

	if !tree.ScopeAssigned {
		t.Fatalf("expected the IdentityDeclaration node's ScopeAssigned to be set after the scope pass")
	}
}

// TestScopeLeakExampleFlagsTransientEscape confirms e5-scope-leak's
// assignation is caught by the scope pass end-to-end, not just in
// internal/scope's own unit tests.
func TestScopeLeakExampleFlagsTransientEscape(t *testing.T) {
	limits, err := config.Load("")
	if err != nil {
		t.Fatalf("loading default limits: %v", err)
	}
	p := newPipeline(limits)
	tree, expected := buildE5(p)
	p.checker.Check(tree, expected)

	ins := insert.New(p.reg, p.norm, p.coerce)
	tree = ins.Insert(tree, modeOf(expected))
	w := widen.New(p.sink, limits.PortabilityWarnings)
	tree = w.Sweep(tree)
	runScopePass(p.scope, tree)

	if !p.sink.HasErrors() {
		t.Fatalf("expected the transient-name escape in e5-scope-leak to be flagged by the scope pass")
	}
}
