// Package config loads checker limits from an optional YAML file, with
// hard-coded defaults when absent — the same approach the teacher's
// evaluation harness uses for its YAML-backed specs.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Limits bounds the checker's runtime behavior, per spec §5.
type Limits struct {
	// MaxErrors is the MAX_ERRORS ceiling after which fatal diagnostics are
	// suppressed (default 10).
	MaxErrors int `yaml:"max_errors"`

	// StackRatio is the fraction (0 < r <= 1) of the mode checker's
	// recursion-depth bound (check.Checker.MaxDepth) at which
	// ERROR_STACK_OVERFLOW is raised proactively (default 0.8).
	StackRatio float64 `yaml:"stack_ratio"`

	// PortabilityWarnings enables WARNING_WIDENING_NOT_PORTABLE and related
	// portability diagnostics (default true).
	PortabilityWarnings bool `yaml:"portability_warnings"`
}

// Default returns the hard-coded defaults named throughout spec.md.
func Default() Limits {
	return Limits{
		MaxErrors:           10,
		StackRatio:          0.8,
		PortabilityWarnings: true,
	}
}

// Load reads a YAML checker-limits file at path, falling back to Default()
// for any field the file does not set. A missing file is not an error: it
// simply yields the defaults.
func Load(path string) (Limits, error) {
	limits := Default()
	if path == "" {
		return limits, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return limits, nil
		}
		return limits, err
	}
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return Limits{}, err
	}
	return limits, nil
}
