package gwt_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/dal"
	"github.com/specforge/specforge/gwt"
	"github.com/specforge/specforge/ir"
	"github.com/specforge/specforge/vocabulary/vocabtest"
)

func TestParseSample(t *testing.T) {
	vocab := vocabtest.Load(t)

	feature, err := gwt.Parse(vocabtest.GWTSource, "registration.txt", vocab)
	require.NoError(t, err)

	assert.Equal(t, "registration", feature.FeatureID)
	require.Len(t, feature.Scenarios, 1)

	scenario := feature.Scenarios[0]
	assert.Equal(t, "user_registration", scenario.Name)
	require.Len(t, scenario.Givens, 1)
	require.Len(t, scenario.Whens, 1)
	require.Len(t, scenario.Thens, 2)

	assert.Equal(t, "no_registered_users", scenario.Givens[0].Symbol)
	assert.Equal(t, map[string]any{"email": "bob@example.com", "password": "secret123"}, scenario.Whens[0].Args)
	assert.Equal(t, map[string]any{"count": "1"}, scenario.Thens[0].Args)
}

func TestParseMatchesDALIR(t *testing.T) {
	vocab := vocabtest.Load(t)

	gwtIR, err := gwt.Parse(vocabtest.GWTSource, "registration.txt", vocab)
	require.NoError(t, err)
	dalIR, err := dal.Parse(vocabtest.DALSource, "registration.dal", vocab)
	require.NoError(t, err)

	assert.True(t, gwtIR.Equal(dalIR))
}

func TestParseAppliesDefaultArgs(t *testing.T) {
	vocab := vocabtest.Load(t)

	source := `GIVEN no registered users.
WHEN a user registers with email "eve@example.com".
THEN there is 1 registered user.
`
	feature, err := gwt.Parse(source, "defaults.txt", vocab)
	require.NoError(t, err)
	require.Len(t, feature.Scenarios, 1)

	when := feature.Scenarios[0].Whens[0]
	assert.Equal(t, "eve@example.com", when.Args["email"])
	assert.Equal(t, "secret123", when.Args["password"])
}

func TestParseAndContinuesLastKind(t *testing.T) {
	vocab := vocabtest.Load(t)

	source := `GIVEN no registered users.
WHEN a user registers with email "bob@example.com" and password "pw".
THEN there is 1 registered user.
AND the user "bob@example.com" can log in.
`
	feature, err := gwt.Parse(source, "and.txt", vocab)
	require.NoError(t, err)
	require.Len(t, feature.Scenarios, 1)

	thens := feature.Scenarios[0].Thens
	require.Len(t, thens, 2)
	assert.Equal(t, "registered_user_count", thens[0].Symbol)
	assert.Equal(t, "user_can_log_in", thens[1].Symbol)
}

func TestParseAndBeforeAnyKind(t *testing.T) {
	vocab := vocabtest.Load(t)

	_, err := gwt.Parse("AND no registered users.\n", "and.txt", vocab)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AND used before GIVEN/WHEN/THEN")
}

func TestParseGivenAfterThenStartsNewScenario(t *testing.T) {
	vocab := vocabtest.Load(t)

	source := `GIVEN no registered users.
WHEN a user registers with email "bob@example.com" and password "pw".
THEN there is 1 registered user.
GIVEN a registered user "bob@example.com".
WHEN the user "bob@example.com" logs in with password "pw".
THEN the user "bob@example.com" can log in.
`
	feature, err := gwt.Parse(source, "chain.txt", vocab)
	require.NoError(t, err)
	require.Len(t, feature.Scenarios, 2)

	assert.Equal(t, "scenario_1", feature.Scenarios[0].Name)
	assert.Equal(t, "scenario_2", feature.Scenarios[1].Name)
	assert.Equal(t, "registered_user", feature.Scenarios[1].Givens[0].Symbol)
}

func TestParseHeaderTitles(t *testing.T) {
	vocab := vocabtest.Load(t)

	source := `;===============================================================
; First registration.
;===============================================================
GIVEN no registered users.
WHEN a user registers with email "a@b.c" and password "pw".
THEN there is 1 registered user.

;===============================================================
; Repeat login.
;===============================================================
GIVEN a registered user "a@b.c".
WHEN the user "a@b.c" logs in with password "pw".
THEN the user "a@b.c" can log in.
`
	feature, err := gwt.Parse(source, "titles.txt", vocab)
	require.NoError(t, err)
	require.Len(t, feature.Scenarios, 2)
	assert.Equal(t, "first_registration", feature.Scenarios[0].Name)
	assert.Equal(t, "repeat_login", feature.Scenarios[1].Name)
}

func TestParseUnknownLineSuggestsCandidates(t *testing.T) {
	vocab := vocabtest.Load(t)

	_, err := gwt.Parse("GIVEN no registered user accounts at all.\n", "typo.txt", vocab)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not match GWT line")
	assert.Contains(t, err.Error(), "Closest candidates:")
	assert.Contains(t, err.Error(), "GIVEN no registered users.")
}

func TestParseRejectsKeywordlessLine(t *testing.T) {
	vocab := vocabtest.Load(t)

	_, err := gwt.Parse("SOMEDAY users register.\n", "bad.txt", vocab)
	require.Error(t, err)

	var compileErr *ir.CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Equal(t, 1, compileErr.Line)
}

func TestRenderRoundTripIsStable(t *testing.T) {
	vocab := vocabtest.Load(t)

	original, err := gwt.Parse(vocabtest.GWTSource, "registration.txt", vocab)
	require.NoError(t, err)

	canonicalOnce := gwt.Render(original, vocab)
	reparsed, err := gwt.Parse(canonicalOnce, "registration.txt", vocab)
	require.NoError(t, err)
	canonicalTwice := gwt.Render(reparsed, vocab)

	assert.True(t, original.Equal(reparsed))
	assert.Equal(t, canonicalOnce, canonicalTwice)
}

func TestRenderThroughDALPreservesIR(t *testing.T) {
	vocab := vocabtest.Load(t)

	original, err := gwt.Parse(vocabtest.GWTSource, "registration.txt", vocab)
	require.NoError(t, err)

	dalText := dal.Render(original, vocab)
	fromDAL, err := dal.Parse(dalText, "registration.dal", vocab)
	require.NoError(t, err)

	assert.True(t, original.Equal(fromDAL))
}

func TestRenderHeaderFormat(t *testing.T) {
	vocab := vocabtest.Load(t)

	feature, err := gwt.Parse(vocabtest.GWTSource, "registration.txt", vocab)
	require.NoError(t, err)

	rendered := gwt.Render(feature, vocab)
	assert.True(t, strings.HasPrefix(rendered, "; GENERATED FILE - DO NOT EDIT\n"))
	assert.Contains(t, rendered, "; User registration.\n")
	assert.True(t, strings.HasSuffix(rendered, "\n"))
	assert.False(t, strings.HasSuffix(rendered, "\n\n"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, gwt.Similarity("GIVEN no registered users.", "GIVEN no registered users."))
	assert.Greater(t, gwt.Similarity("GIVEN no registered users.", "GIVEN no registered user."), 0.9)
	assert.Less(t, gwt.Similarity("GIVEN no registered users.", "zzzz qqqq xxxx"), 0.5)
}
