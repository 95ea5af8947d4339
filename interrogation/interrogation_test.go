package interrogation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// draftVocab covers exactly the clause shapes RenderDraft emits.
const draftVocab = `version: 0.1

gwt:
  keywords: {GIVEN: GIVEN, WHEN: WHEN, THEN: THEN, AND: AND}

dal:
  keywords: [FEATURE, SCENARIO, FACT, DO, EXPECT, IMPORT]

types:
  text:
    kind: string
    pattern: '.*'
  spec_path:
    kind: string
    pattern: '[^"\s]+'
  scenario_name:
    kind: string
    pattern: '[a-z][a-z0-9_]*'

lints:
  implementation_leakage:
    banned_tokens: [UserService]
    banned_regex: []

vocabulary:
  facts:
    no_spec_for_idea:
      args:
        - {name: idea, type: text}
      gwt:
        match: ['GIVEN there is no acceptance spec describing (?P<idea>.+?)\.']
        render: 'GIVEN there is no acceptance spec describing {idea}.'
      dal:
        render: 'FACT no_spec_for_idea(idea={idea}).'
  actions:
    start_workflow:
      args:
        - {name: idea, type: text}
      gwt:
        match: ['WHEN the user starts the ATDD workflow for "(?P<idea>[^"]+)"\.']
        render: 'WHEN the user starts the ATDD workflow for "{idea}".'
      dal:
        render: 'DO start_workflow(idea={idea}).'
  expectations:
    dal_spec_exists:
      args:
        - {name: path, type: spec_path}
      gwt:
        match: ['THEN a DAL spec file exists at "(?P<path>[^"]+)"\.']
        render: 'THEN a DAL spec file exists at "{path}".'
      dal:
        render: 'EXPECT dal_spec_exists(path={path}).'
    gwt_spec_exists:
      args:
        - {name: path, type: spec_path}
      gwt:
        match: ['THEN a GWT spec file exists at "(?P<path>[^"]+)"\.']
        render: 'THEN a GWT spec file exists at "{path}".'
      dal:
        render: 'EXPECT gwt_spec_exists(path={path}).'
    scenario_described:
      args:
        - {name: topic, type: text}
      gwt:
        match: ['THEN the regenerated GWT spec includes a scenario describing (?P<topic>.+?)\.']
        render: 'THEN the regenerated GWT spec includes a scenario describing {topic}.'
      dal:
        render: 'EXPECT scenario_described(topic={topic}).'
`

func draftProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	specs := filepath.Join(root, "specs")
	require.NoError(t, os.MkdirAll(specs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(specs, "vocab.yaml"), []byte(draftVocab), 0o644))
	return root
}

var allAnswers = map[string]string{
	"success_criteria": "a successful password reset",
	"failure_case":     "an expired reset link",
	"constraints":      "a one-hour link lifetime",
}

func TestDefaultSlug(t *testing.T) {
	tests := []struct {
		idea string
		want string
	}{
		{"Password reset flow", "password-reset-flow"},
		{"  Spaced   out  idea!  ", "spaced-out-idea"},
		{"", "interrogation-spec"},
		{"???", "interrogation-spec"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultSlug(tt.idea), "idea %q", tt.idea)
	}
}

func TestParseAnswerFlags(t *testing.T) {
	parsed, err := ParseAnswerFlags([]string{"success_criteria= reset works ", "failure_case=link expired"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"success_criteria": "reset works",
		"failure_case":     "link expired",
	}, parsed)

	_, err = ParseAnswerFlags([]string{"no-separator"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestBuildQuestions(t *testing.T) {
	session := &Session{Answers: map[string]string{}}
	questions := BuildQuestions(session)
	require.Len(t, questions, 3)
	for _, q := range questions {
		assert.True(t, q.Blocking)
	}
	assert.Equal(t, "success_criteria", questions[0].ID)

	session.Answers["success_criteria"] = "it works"
	questions = BuildQuestions(session)
	require.Len(t, questions, 2)
	assert.Equal(t, "failure_case", questions[0].ID)
}

func TestRenderDraftDeterministic(t *testing.T) {
	session := &Session{
		Slug:    "password-reset-flow",
		Idea:    "Password reset flow",
		Answers: map[string]string{"success_criteria": "a successful password reset"},
	}
	first := RenderDraft(session)
	second := RenderDraft(session)
	assert.Equal(t, first, second)

	assert.Contains(t, first, "GIVEN there is no acceptance spec describing Password reset flow.")
	assert.Contains(t, first, `WHEN the user starts the ATDD workflow for "Password reset flow".`)
	assert.Contains(t, first, `THEN a DAL spec file exists at "specs/password-reset-flow.dal".`)
	assert.Contains(t, first, "THEN the regenerated GWT spec includes a scenario describing a successful password reset.")
}

func TestSessionStable(t *testing.T) {
	session := &Session{}
	assert.False(t, session.Stable())
	session.IRHashHistory = []string{"a"}
	assert.False(t, session.Stable())
	session.IRHashHistory = []string{"a", "b"}
	assert.False(t, session.Stable())
	session.IRHashHistory = []string{"a", "b", "b"}
	assert.True(t, session.Stable())
}

func TestSaveLoadSession(t *testing.T) {
	root := t.TempDir()

	session := &Session{
		SessionID: "test-session",
		Slug:      "password-reset-flow",
		Idea:      "Password reset flow",
		Iteration: 2,
	}
	path, err := SaveSession(root, session)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".specforge", "interrogation", "password-reset-flow.json"), path)

	loaded, err := LoadSession(root, "password-reset-flow")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.SessionID, loaded.SessionID)
	assert.Equal(t, 2, loaded.Iteration)
	assert.NotNil(t, loaded.Answers)

	missing, err := LoadSession(root, "never-started")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIterateFirstPass(t *testing.T) {
	root := draftProject(t)

	session, questions, err := Iterate(root, "Password reset flow", "", nil, false)
	require.NoError(t, err)

	assert.Equal(t, "password-reset-flow", session.Slug)
	assert.Equal(t, 1, session.Iteration)
	assert.False(t, session.Approved)
	assert.Len(t, questions, 3)
	require.Len(t, session.IRHashHistory, 1)

	// Draft and compiled artifacts exist.
	for _, rel := range []string{
		filepath.Join("specs", "password-reset-flow.txt"),
		filepath.Join("specs", "password-reset-flow.dal"),
		filepath.Join(".specforge", "ir", "password-reset-flow.json"),
	} {
		_, err := os.Stat(filepath.Join(root, rel))
		assert.NoError(t, err, rel)
	}

	// The session is durable.
	loaded, err := LoadSession(root, "password-reset-flow")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, session.SessionID, loaded.SessionID)
}

func TestIterateApprovalGates(t *testing.T) {
	root := draftProject(t)

	_, _, err := Iterate(root, "Password reset flow", "", nil, false)
	require.NoError(t, err)

	// Unanswered blocking questions veto approval.
	_, _, err = Iterate(root, "Password reset flow", "", nil, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved blocking questions")

	// Answers change the draft, so the hash is not yet stable.
	_, _, err = Iterate(root, "Password reset flow", "", allAnswers, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet stable")

	session, questions, err := Iterate(root, "Password reset flow", "", allAnswers, false)
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.False(t, session.Approved)

	session, questions, err = Iterate(root, "Password reset flow", "", nil, true)
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.True(t, session.Approved)
	assert.True(t, session.Stable())
}

func TestIterateRejectsIdeaMismatch(t *testing.T) {
	root := draftProject(t)

	_, _, err := Iterate(root, "Password reset flow", "shared-slug", nil, false)
	require.NoError(t, err)

	_, _, err = Iterate(root, "A completely different idea", "shared-slug", nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists for a different idea")
}

func TestIterateRequiresVocabulary(t *testing.T) {
	root := t.TempDir()

	_, _, err := Iterate(root, "Password reset flow", "", nil, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing vocabulary file")
}

func TestSortedAnswerKeys(t *testing.T) {
	session := &Session{Answers: map[string]string{"z": "1", "a": "2", "m": "3"}}
	assert.Equal(t, []string{"a", "m", "z"}, SortedAnswerKeys(session))
}
