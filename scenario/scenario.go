// Package scenario parses free-form Given/When/Then text into clause
// lists without consulting a vocabulary. This is the lightweight front
// end the graph builder consumes; the vocabulary-driven compiler lives
// in the gwt package.
package scenario

import "fmt"

// Clause is a single GIVEN, WHEN, or THEN clause.
type Clause struct {
	Type       string // "GIVEN", "WHEN", "THEN"
	Text       string
	LineNumber int
}

// Scenario is a complete GWT scenario with title and clauses.
type Scenario struct {
	Title      string
	Givens     []Clause
	Whens      []Clause
	Thens      []Clause
	SourceFile string
	LineNumber int
}

// Validate returns the scenario's structural problems, empty if valid.
func (s *Scenario) Validate() []string {
	var errors []string
	if s.Title == "" {
		errors = append(errors, "scenario must have a title")
	}
	if len(s.Givens) == 0 {
		errors = append(errors, "scenario must have at least one GIVEN clause")
	}
	if len(s.Whens) == 0 {
		errors = append(errors, "scenario must have at least one WHEN clause")
	}
	if len(s.Thens) == 0 {
		errors = append(errors, "scenario must have at least one THEN clause")
	}
	return errors
}

// IsValid reports whether the scenario passes structural validation.
func (s *Scenario) IsValid() bool {
	return len(s.Validate()) == 0
}

// ParseError is one error encountered during parsing. Parsing collects
// errors instead of aborting so a file with one bad scenario still
// yields the good ones.
type ParseError struct {
	Message    string
	LineNumber int
	SourceFile string
}

func (e ParseError) Error() string {
	if e.SourceFile != "" {
		return fmt.Sprintf("%s:%d: %s", e.SourceFile, e.LineNumber, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.LineNumber, e.Message)
}

// Result is the outcome of parsing one or more GWT files.
type Result struct {
	Scenarios []Scenario
	Errors    []ParseError
}

// IsSuccess reports whether parsing produced no errors.
func (r *Result) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Merge appends another result's scenarios and errors.
func (r *Result) Merge(other Result) {
	r.Scenarios = append(r.Scenarios, other.Scenarios...)
	r.Errors = append(r.Errors, other.Errors...)
}
