// Package vocabtest provides a small registration-domain vocabulary for
// tests that need a compiled grammar without depending on a project's
// real vocab.yaml.
package vocabtest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/vocabulary"
)

// Source is a complete vocabulary covering a user-registration domain:
// typed arguments, default arguments, multiple match patterns per
// symbol, and an implementation-leakage lint section.
const Source = `version: 0.1

gwt:
  keywords:
    GIVEN: GIVEN
    WHEN: WHEN
    THEN: THEN
    AND: AND

dal:
  keywords: [FEATURE, SCENARIO, FACT, DO, EXPECT, IMPORT]

types:
  text:
    kind: string
    pattern: '.*'
  email:
    kind: string
    pattern: '[^@\s"]+@[^@\s"]+'
  count:
    kind: string
    pattern: '-?[0-9]+'
  scenario_name:
    kind: string
    pattern: '[a-z][a-z0-9_]*'
  sensitivity:
    kind: enum
    values: [low, medium, high]

lints:
  implementation_leakage:
    banned_tokens: [UserService, PostgreSQL]
    banned_regex: ['/api/\S+']
    allowed_contextual_tokens: [service]

vocabulary:
  facts:
    no_registered_users:
      args: []
      gwt:
        match: ['GIVEN no registered users\.']
        render: 'GIVEN no registered users.'
      dal:
        render: 'FACT no_registered_users().'
    registered_user:
      args:
        - {name: email, type: email}
      gwt:
        match: ['GIVEN a registered user "(?P<email>[^"]+)"\.']
        render: 'GIVEN a registered user "{email}".'
      dal:
        render: 'FACT registered_user(email={email}).'
  actions:
    user_registers:
      args:
        - {name: email, type: email}
        - {name: password, type: text}
      default_args:
        password: secret123
      gwt:
        match:
          - 'WHEN a user registers with email "(?P<email>[^"]+)" and password "(?P<password>[^"]+)"\.'
          - 'WHEN a user registers with email "(?P<email>[^"]+)"\.'
        render: 'WHEN a user registers with email "{email}" and password "{password}".'
      dal:
        render: 'DO user_registers(email={email}, password={password}).'
    user_logs_in:
      args:
        - {name: email, type: email}
        - {name: password, type: text}
      gwt:
        match: ['WHEN the user "(?P<email>[^"]+)" logs in with password "(?P<password>[^"]+)"\.']
        render: 'WHEN the user "{email}" logs in with password "{password}".'
      dal:
        render: 'DO user_logs_in(email={email}, password={password}).'
    user_logs_out:
      args: []
      gwt:
        match: ['WHEN the user logs out\.']
        render: 'WHEN the user logs out.'
      dal:
        render: 'DO user_logs_out().'
  expectations:
    registered_user_count:
      args:
        - {name: count, type: count}
      gwt:
        match: ['THEN there (?:is|are) (?P<count>[0-9]+) registered users?\.']
        render: 'THEN there are {count} registered users.'
      dal:
        render: 'EXPECT registered_user_count(count={count}).'
    user_can_log_in:
      args:
        - {name: email, type: email}
      gwt:
        match: ['THEN the user "(?P<email>[^"]+)" can log in\.']
        render: 'THEN the user "{email}" can log in.'
      dal:
        render: 'EXPECT user_can_log_in(email={email}).'
    user_logged_out:
      args: []
      gwt:
        match: ['THEN the user is logged out\.']
        render: 'THEN the user is logged out.'
      dal:
        render: 'EXPECT user_logged_out().'
`

// GWTSource is a GWT spec expressible in Source's vocabulary. It
// compiles to the same IR as DALSource.
const GWTSource = `;===============================================================
; User registration.
;===============================================================
GIVEN no registered users.

WHEN a user registers with email "bob@example.com" and password "secret123".

THEN there are 1 registered users.
THEN the user "bob@example.com" can log in.
`

// DALSource is the strict-notation equivalent of GWTSource.
const DALSource = `FEATURE registration.

SCENARIO user_registration.

FACT no_registered_users().
DO user_registers(email="bob@example.com", password="secret123").
EXPECT registered_user_count(count="1").
EXPECT user_can_log_in(email="bob@example.com").
`

// EnrichmentSource is a compile-report vocabulary exercising the full
// argument pipeline: pattern-selected reasons, capture-group aliases,
// context-gated derive rules with named derivations, and hint defaults
// that get replaced from scenario context.
const EnrichmentSource = `version: 0.1

gwt:
  keywords:
    GIVEN: GIVEN
    WHEN: WHEN
    THEN: THEN
    AND: AND

dal:
  keywords: [FEATURE, SCENARIO, FACT, DO, EXPECT, IMPORT]

types:
  text:
    kind: string
    pattern: '.*'
  spec_file:
    kind: string
    pattern: '[^"\s]+'
  scenario_name:
    kind: string
    pattern: '[a-z][a-z0-9_]*'

derivations:
  feature_slug:
    transform: slugify_kebab
  canonical_path:
    format: 'specs/{feature_slug}.txt.canonical'

lints:
  implementation_leakage:
    banned_tokens: []
    banned_regex: []
    allowed_contextual_tokens: []

vocabulary:
  facts:
    feature_declared:
      args:
        - {name: feature, type: text}
      gwt:
        match: ['GIVEN the feature (?P<feature>.+?) is declared\.']
        render: 'GIVEN the feature {feature} is declared.'
      dal:
        render: 'FACT feature_declared(feature={feature}).'
    spec_source:
      args:
        - {name: file, type: spec_file}
      gwt:
        match: ['GIVEN a spec source "(?P<file>[^"]+)"\.']
        render: 'GIVEN a spec source "{file}".'
      dal:
        render: 'FACT spec_source(file={file}).'
  actions:
    compile_spec:
      args:
        - {name: file, type: spec_file}
        - {name: reason, type: text}
      reason_by_match:
        - {match_index: 0, reason: first_pass}
        - {match_index: 1, reason: recompile}
      gwt:
        match:
          - 'WHEN the spec "(?P<file>[^"]+)" is compiled\.'
          - 'WHEN the spec "(?P<file>[^"]+)" is compiled again\.'
        render: 'WHEN the spec "{file}" is compiled.'
      dal:
        render: 'DO compile_spec(file={file}, reason={reason}).'
  expectations:
    compile_succeeds:
      args:
        - {name: file, type: spec_file}
      gwt:
        match: ['THEN the compile succeeds\.']
        render: 'THEN the compile of "{file}" succeeds.'
      dal:
        render: 'EXPECT compile_succeeds(file={file}).'
    canonical_line_present:
      args:
        - {name: file, type: spec_file}
        - {name: line_contains, type: text}
      default_args:
        line_contains: any_line
      gwt:
        match:
          - 'THEN the canonical output of "(?P<file>[^"]+)" contains (?P<line>.+?)\.'
          - 'THEN the canonical output of "(?P<file>[^"]+)" is recorded\.'
        render: 'THEN the canonical output of "{file}" contains {line_contains}.'
      dal:
        render: 'EXPECT canonical_line_present(file={file}, line_contains={line_contains}).'
    rejected_line_reported:
      args:
        - {name: file, type: spec_file}
        - {name: bad_line_contains, type: text}
      default_args:
        bad_line_contains: any_line
      gwt:
        match: ['THEN the rejected line of "(?P<file>[^"]+)" is reported\.']
        render: 'THEN the rejected line of "{file}" is reported as {bad_line_contains}.'
      dal:
        render: 'EXPECT rejected_line_reported(file={file}, bad_line_contains={bad_line_contains}).'
    artifact_written:
      args:
        - {name: target, type: spec_file}
      derive_args_from_context:
        - when_match_group_present: feature
          derive:
            feature_slug: feature_slug
            target: canonical_path
      gwt:
        match: ['THEN an artifact for (?P<feature>.+?) is written\.']
        render: 'THEN an artifact is written at "{target}".'
      dal:
        render: 'EXPECT artifact_written(target={target}).'
    gap_recorded:
      args:
        - {name: target, type: spec_file}
      default_args:
        target: specs/pending.txt
      gwt:
        match: ['THEN the gap is recorded\.']
        render: 'THEN the gap is recorded in "{target}".'
      dal:
        render: 'EXPECT gap_recorded(target={target}).'
    rewrite_suggested:
      args:
        - {name: suggestion_contains, type: text}
      gwt:
        match: ['THEN the linter suggests (?P<suggestion>.+?)\.']
        render: 'THEN the linter suggests {suggestion_contains}.'
      dal:
        render: 'EXPECT rewrite_suggested(suggestion_contains={suggestion_contains}).'
    guardian_suggestion:
      args:
        - {name: suggestion, type: text}
      gwt:
        match: ['THEN the guardian suggests (?P<suggestion>.+?)\.']
        render: 'THEN the guardian suggests {suggestion}.'
      dal:
        render: 'EXPECT guardian_suggestion(suggestion={suggestion}).'
`

// Load compiles Source, failing the test on any load error.
func Load(t *testing.T) *vocabulary.Vocabulary {
	t.Helper()
	v, err := vocabulary.Parse([]byte(Source), "vocab.yaml")
	require.NoError(t, err)
	return v
}

// LoadEnrichment compiles EnrichmentSource.
func LoadEnrichment(t *testing.T) *vocabulary.Vocabulary {
	t.Helper()
	v, err := vocabulary.Parse([]byte(EnrichmentSource), "vocab.yaml")
	require.NoError(t, err)
	return v
}

// WriteProject lays out a minimal project root under dir: Source at
// specs/vocab.yaml plus GWTSource at specs/registration.txt. It returns
// the vocabulary path.
func WriteProject(t *testing.T, dir string) string {
	t.Helper()
	specs := filepath.Join(dir, "specs")
	require.NoError(t, os.MkdirAll(specs, 0o755))
	vocabPath := filepath.Join(specs, "vocab.yaml")
	require.NoError(t, os.WriteFile(vocabPath, []byte(Source), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(specs, "registration.txt"), []byte(GWTSource), 0o644))
	return vocabPath
}
