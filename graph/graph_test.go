package graph

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specforge/specforge/scenario"
)

func sc(title string, givens, whens, thens []string) scenario.Scenario {
	clause := func(typ string, texts []string) []scenario.Clause {
		out := make([]scenario.Clause, 0, len(texts))
		for _, text := range texts {
			out = append(out, scenario.Clause{Type: typ, Text: text})
		}
		return out
	}
	return scenario.Scenario{
		Title:  title,
		Givens: clause("GIVEN", givens),
		Whens:  clause("WHEN", whens),
		Thens:  clause("THEN", thens),
	}
}

func registrationChain() []scenario.Scenario {
	return []scenario.Scenario{
		sc("Registration",
			[]string{"no registered users"},
			[]string{"a user registers"},
			[]string{"there is 1 registered user"}),
		sc("Login",
			[]string{"there is 1 registered user"},
			[]string{"the user logs in"},
			[]string{"the user is logged in"}),
	}
}

func TestBuildCartesianProduct(t *testing.T) {
	scenarios := []scenario.Scenario{
		sc("Multi",
			[]string{"g1", "g2"},
			[]string{"event"},
			[]string{"t1", "t2"}),
	}
	m := Build(scenarios)

	// 2 givens x 2 thens per when.
	require.Len(t, m.Transitions, 4)
	assert.Len(t, m.States, 4)
	for _, tr := range m.Transitions {
		assert.Equal(t, "event", tr.Event)
		assert.Equal(t, "Multi", tr.SourceScenario)
	}
}

func TestBuildEntryAndTerminalPartition(t *testing.T) {
	m := Build(registrationChain())

	assert.Equal(t, []string{"no registered users"}, m.EntryPoints)
	assert.Equal(t, []string{"the user is logged in"}, m.TerminalStates)
	assert.Empty(t, m.Cycles)

	// The mid-chain state appears on both sides, so in neither set.
	mid := m.States["there is 1 registered user"]
	assert.ElementsMatch(t, []string{"Login", "Registration"}, mid.SourceScenarios)
}

func TestBuildFindsCycles(t *testing.T) {
	scenarios := append(registrationChain(),
		sc("Logout",
			[]string{"the user is logged in"},
			[]string{"the user logs out"},
			[]string{"there is 1 registered user"}))
	m := Build(scenarios)

	require.Len(t, m.Cycles, 1)
	assert.Equal(t, []string{"the user is logged in", "there is 1 registered user"}, m.Cycles[0])
	assert.Empty(t, m.TerminalStates)
}

func TestBuildRecordsSelfLoops(t *testing.T) {
	scenarios := []scenario.Scenario{
		sc("Idempotent refresh",
			[]string{"the session is active"},
			[]string{"the user refreshes"},
			[]string{"the session is active"}),
	}
	m := Build(scenarios)

	require.Len(t, m.Cycles, 1)
	assert.Equal(t, []string{"the session is active"}, m.Cycles[0])
}

func TestBuildIsDeterministic(t *testing.T) {
	scenarios := append(registrationChain(),
		sc("Logout",
			[]string{"the user is logged in"},
			[]string{"the user logs out"},
			[]string{"there is 1 registered user"}))

	first := Build(scenarios)
	second := Build(scenarios)
	assert.Empty(t, cmp.Diff(first, second))

	firstJSON, err := ExportJSON(first)
	require.NoError(t, err)
	secondJSON, err := ExportJSON(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestUpdateIncremental(t *testing.T) {
	m := Build(registrationChain())

	// Replace the Login scenario: it now ends in a lockout state.
	updated := UpdateIncremental(m, []scenario.Scenario{
		sc("Login",
			[]string{"there is 1 registered user"},
			[]string{"the user fails to log in three times"},
			[]string{"the account is locked"}),
	})

	assert.Contains(t, updated.States, "the account is locked")
	assert.Contains(t, updated.TerminalStates, "the account is locked")
	for _, tr := range updated.Transitions {
		if tr.SourceScenario == "Login" {
			assert.Equal(t, "the user fails to log in three times", tr.Event)
		}
	}
}

func TestFindSemanticEquivalences(t *testing.T) {
	m := Build([]scenario.Scenario{
		sc("A", []string{"the user is logged in"}, []string{"x happens"}, []string{"done"}),
		sc("B", []string{"user is logged in"}, []string{"y happens"}, []string{"finished"}),
	})

	equivalences := FindSemanticEquivalences(m, 0.8)
	require.NotEmpty(t, equivalences)

	found := false
	for _, eq := range equivalences {
		if eq.LabelA == "the user is logged in" && eq.LabelB == "user is logged in" {
			// Articles and filler words normalize away, so the pair is exact.
			assert.Equal(t, 1.0, eq.Score)
			found = true
		}
	}
	assert.True(t, found)
}

func TestFindSemanticEquivalencesThreshold(t *testing.T) {
	m := Build([]scenario.Scenario{
		sc("A", []string{"alpha"}, []string{"x"}, []string{"omega"}),
	})
	assert.Empty(t, FindSemanticEquivalences(m, 0.9))
}
