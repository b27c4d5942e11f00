package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLimits(t *testing.T) {
	d := Default()
	if d.MaxErrors != 10 || d.StackRatio != 0.8 || !d.PortabilityWarnings {
		t.Fatalf("unexpected defaults: %+v", d)
	}
}

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	limits, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limits != Default() {
		t.Fatalf("expected Load(\"\") to return the defaults")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	limits, err := Load(filepath.Join(t.TempDir(), "nosuch.yaml"))
	if err != nil {
		t.Fatalf("unexpected error for a missing file: %v", err)
	}
	if limits != Default() {
		t.Fatalf("expected a missing config file to yield defaults")
	}
}

func TestLoadOverridesFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	content := "max_errors: 3\nstack_ratio: 0.5\nportability_warnings: false\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	limits, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limits.MaxErrors != 3 || limits.StackRatio != 0.5 || limits.PortabilityWarnings {
		t.Fatalf("unexpected limits after loading overrides: %+v", limits)
	}
}
