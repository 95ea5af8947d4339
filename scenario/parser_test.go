package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `;===============================================================
; User registration.
;===============================================================
GIVEN no registered users.

WHEN a user registers with email "bob@example.com" and password "secret123".

THEN there is 1 registered user.
THEN the user "bob@example.com" can log in.
`

func TestParseSingleScenario(t *testing.T) {
	result := Parse(sampleSpec, "registration.txt")

	require.True(t, result.IsSuccess(), "errors: %v", result.Errors)
	require.Len(t, result.Scenarios, 1)

	sc := result.Scenarios[0]
	assert.Equal(t, "User registration.", sc.Title)
	assert.Equal(t, "registration.txt", sc.SourceFile)
	assert.Equal(t, 1, sc.LineNumber)

	require.Len(t, sc.Givens, 1)
	assert.Equal(t, "GIVEN", sc.Givens[0].Type)
	assert.Equal(t, "no registered users", sc.Givens[0].Text)

	require.Len(t, sc.Whens, 1)
	assert.Equal(t, `a user registers with email "bob@example.com" and password "secret123"`, sc.Whens[0].Text)

	require.Len(t, sc.Thens, 2)
	assert.Equal(t, "there is 1 registered user", sc.Thens[0].Text)
}

func TestParseMultipleScenarios(t *testing.T) {
	content := sampleSpec + `
;===============================================================
; Repeat login.
;===============================================================
GIVEN a registered user "bob@example.com".
WHEN the user logs in.
THEN the user is logged in.
`
	result := Parse(content, "registration.txt")
	require.True(t, result.IsSuccess())
	require.Len(t, result.Scenarios, 2)
	assert.Equal(t, "Repeat login.", result.Scenarios[1].Title)
}

func TestParseMultiLineClause(t *testing.T) {
	content := `;===============================================================
; Wrapped clause.
;===============================================================
GIVEN a registered user whose address
  spans more than one line.
WHEN the user logs in.
THEN the user is logged in.
`
	result := Parse(content, "wrapped.txt")
	require.True(t, result.IsSuccess(), "errors: %v", result.Errors)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "a registered user whose address spans more than one line", result.Scenarios[0].Givens[0].Text)
}

func TestParseHeaderlessScenario(t *testing.T) {
	content := `GIVEN no registered users.
WHEN a user registers.
THEN there is 1 registered user.
`
	result := Parse(content, "loose.txt")
	require.True(t, result.IsSuccess())
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "Untitled scenario", result.Scenarios[0].Title)
}

func TestParseCollectsValidationErrors(t *testing.T) {
	content := `;===============================================================
; No outcome.
;===============================================================
GIVEN no registered users.
WHEN a user registers.
`
	result := Parse(content, "bad.txt")
	assert.False(t, result.IsSuccess())
	assert.Empty(t, result.Scenarios)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "scenario must have at least one THEN clause (scenario: 'No outcome.')", result.Errors[0].Message)
	assert.Equal(t, "bad.txt:1: scenario must have at least one THEN clause (scenario: 'No outcome.')", result.Errors[0].Error())
}

func TestParseBadScenarioDoesNotPoisonGoodOnes(t *testing.T) {
	content := `;===============================================================
; Broken.
;===============================================================
GIVEN something.

` + sampleSpec
	result := Parse(content, "mixed.txt")
	assert.False(t, result.IsSuccess())
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "User registration.", result.Scenarios[0].Title)
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
		want []string
	}{
		{
			"valid",
			Scenario{Title: "t", Givens: []Clause{{}}, Whens: []Clause{{}}, Thens: []Clause{{}}},
			nil,
		},
		{
			"empty",
			Scenario{},
			[]string{
				"scenario must have a title",
				"scenario must have at least one GIVEN clause",
				"scenario must have at least one WHEN clause",
				"scenario must have at least one THEN clause",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sc.Validate())
			assert.Equal(t, len(tt.want) == 0, tt.sc.IsValid())
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleSpec), 0o644))

	result, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, path, result.Scenarios[0].SourceFile)

	_, err = ParseFile(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
}

func TestParseMarkdown(t *testing.T) {
	content := `# Design notes

Some prose about the system.

;===============================================================
; Embedded scenario.
;===============================================================
GIVEN no registered users.
WHEN a user registers.
THEN there is 1 registered user.

More prose that is not part of the block.

;===============================================================
; Prose-only section.
;===============================================================
This section has no clauses and is skipped.
`
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	result, err := ParseMarkdown(path)
	require.NoError(t, err)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "Embedded scenario.", result.Scenarios[0].Title)
}
