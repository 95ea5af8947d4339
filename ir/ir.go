// Package ir defines the canonical intermediate representation shared by
// the GWT and DAL notations. Both parsers compile to the same FeatureIR,
// both renderers consume it, and the round-trip guarantee is stated in
// terms of IR equality.
package ir

import (
	"fmt"
	"sort"
)

// Step kinds. A fact is a precondition, an action is an event, an
// expectation is a postcondition.
const (
	KindFact        = "fact"
	KindAction      = "action"
	KindExpectation = "expectation"
)

// Step is one atomic statement: a vocabulary symbol of a given kind with
// its argument mapping. Argument values are string, int, or bool.
type Step struct {
	Kind   string         `json:"kind"`
	Symbol string         `json:"symbol"`
	Args   map[string]any `json:"args"`
}

// Scenario is a named scenario: imports plus ordered given/when/then steps.
type Scenario struct {
	Name    string   `json:"name"`
	Imports []string `json:"imports"`
	Givens  []Step   `json:"givens"`
	Whens   []Step   `json:"whens"`
	Thens   []Step   `json:"thens"`
}

// Feature is the full canonical representation of one spec file.
type Feature struct {
	FeatureID string     `json:"feature_id"`
	Scenarios []Scenario `json:"scenarios"`
}

// Equal reports whether two steps carry the same kind, symbol, and
// argument mapping.
func (s Step) Equal(other Step) bool {
	if s.Kind != other.Kind || s.Symbol != other.Symbol {
		return false
	}
	if len(s.Args) != len(other.Args) {
		return false
	}
	for key, value := range s.Args {
		got, ok := other.Args[key]
		if !ok || got != value {
			return false
		}
	}
	return true
}

// Equal reports structural equality of two scenarios.
func (s Scenario) Equal(other Scenario) bool {
	if s.Name != other.Name {
		return false
	}
	if !stringSlicesEqual(s.Imports, other.Imports) {
		return false
	}
	return stepsEqual(s.Givens, other.Givens) &&
		stepsEqual(s.Whens, other.Whens) &&
		stepsEqual(s.Thens, other.Thens)
}

// Equal reports structural equality of two features. This is the identity
// the round-trip gate checks.
func (f *Feature) Equal(other *Feature) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.FeatureID != other.FeatureID || len(f.Scenarios) != len(other.Scenarios) {
		return false
	}
	for i := range f.Scenarios {
		if !f.Scenarios[i].Equal(other.Scenarios[i]) {
			return false
		}
	}
	return true
}

// SortedArgKeys returns the step's argument names in sorted order.
func (s Step) SortedArgKeys() []string {
	keys := make([]string, 0, len(s.Args))
	for key := range s.Args {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func stepsEqual(a, b []Step) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// CompileError is a parse or validation failure carrying file:line
// context so an author can fix the source without reading compiler
// internals.
type CompileError struct {
	File    string
	Line    int
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
}

// Errorf builds a CompileError with a formatted message.
func Errorf(file string, line int, format string, args ...any) *CompileError {
	return &CompileError{File: file, Line: line, Message: fmt.Sprintf(format, args...)}
}
