// Package graph builds a state-machine model from parsed scenarios.
// GIVEN clauses become precondition states, THEN clauses postcondition
// states, and each WHEN clause an event edge between every (given, then)
// pair of its scenario.
package graph

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/specforge/specforge/gwt"
	"github.com/specforge/specforge/scenario"
)

// State is a node in the state machine, identified by its label.
type State struct {
	Label           string
	SourceScenarios []string
}

// Transition is a labeled edge between two states.
type Transition struct {
	Event          string
	FromState      string
	ToState        string
	SourceScenario string
}

// Model is the complete state-machine view of a scenario corpus.
type Model struct {
	States         map[string]State
	Transitions    []Transition
	EntryPoints    []string
	TerminalStates []string
	Cycles         [][]string
}

// Equivalence is a pair of state labels that score as near-duplicates.
type Equivalence struct {
	LabelA string  `json:"label_a"`
	LabelB string  `json:"label_b"`
	Score  float64 `json:"score"`
}

func extract(sc scenario.Scenario) ([]State, []Transition) {
	var states []State
	var transitions []Transition

	givenLabels := make([]string, 0, len(sc.Givens))
	for _, g := range sc.Givens {
		givenLabels = append(givenLabels, g.Text)
		states = append(states, State{Label: g.Text, SourceScenarios: []string{sc.Title}})
	}
	thenLabels := make([]string, 0, len(sc.Thens))
	for _, t := range sc.Thens {
		thenLabels = append(thenLabels, t.Text)
		states = append(states, State{Label: t.Text, SourceScenarios: []string{sc.Title}})
	}
	for _, w := range sc.Whens {
		for _, from := range givenLabels {
			for _, to := range thenLabels {
				transitions = append(transitions, Transition{
					Event:          w.Text,
					FromState:      from,
					ToState:        to,
					SourceScenario: sc.Title,
				})
			}
		}
	}
	return states, transitions
}

// Build constructs a Model from parsed scenarios.
func Build(scenarios []scenario.Scenario) *Model {
	allStates := make(map[string]State)
	var allTransitions []Transition

	for _, sc := range scenarios {
		states, transitions := extract(sc)
		for _, st := range states {
			mergeState(allStates, st)
		}
		allTransitions = append(allTransitions, transitions...)
	}

	return finish(allStates, allTransitions)
}

// UpdateIncremental replaces the contribution of the given scenarios
// (matched by title) and recomputes the derived sets. Used by the
// watcher so a single-file edit does not rebuild the whole corpus.
func UpdateIncremental(existing *Model, newScenarios []scenario.Scenario) *Model {
	replaced := make(map[string]bool, len(newScenarios))
	for _, sc := range newScenarios {
		replaced[sc.Title] = true
	}

	var remaining []Transition
	for _, t := range existing.Transitions {
		if !replaced[t.SourceScenario] {
			remaining = append(remaining, t)
		}
	}

	fresh := Build(newScenarios)

	merged := make(map[string]State, len(existing.States))
	for label, st := range existing.States {
		merged[label] = st
	}
	for label, st := range fresh.States {
		merged[label] = st
	}

	return finish(merged, append(remaining, fresh.Transitions...))
}

func mergeState(states map[string]State, st State) {
	existing, ok := states[st.Label]
	if !ok {
		states[st.Label] = st
		return
	}
	seen := make(map[string]bool)
	var sources []string
	for _, s := range append(existing.SourceScenarios, st.SourceScenarios...) {
		if !seen[s] {
			seen[s] = true
			sources = append(sources, s)
		}
	}
	sort.Strings(sources)
	states[st.Label] = State{Label: st.Label, SourceScenarios: sources}
}

func finish(states map[string]State, transitions []Transition) *Model {
	thenLabels := make(map[string]bool)
	givenLabels := make(map[string]bool)
	for _, t := range transitions {
		thenLabels[t.ToState] = true
		givenLabels[t.FromState] = true
	}

	var entries, terminals []string
	for label := range givenLabels {
		if !thenLabels[label] {
			entries = append(entries, label)
		}
	}
	for label := range thenLabels {
		if !givenLabels[label] {
			terminals = append(terminals, label)
		}
	}
	sort.Strings(entries)
	sort.Strings(terminals)

	return &Model{
		States:         states,
		Transitions:    transitions,
		EntryPoints:    entries,
		TerminalStates: terminals,
		Cycles:         findCycles(states, transitions),
	}
}

// findCycles enumerates simple cycles. Self-loops are recorded as
// single-label cycles and kept out of the gonum graph, which rejects
// self-edges.
func findCycles(states map[string]State, transitions []Transition) [][]string {
	labels := make([]string, 0, len(states))
	for label := range states {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	idByLabel := make(map[string]int64, len(labels))
	labelByID := make(map[int64]string, len(labels))
	g := simple.NewDirectedGraph()
	for i, label := range labels {
		id := int64(i)
		idByLabel[label] = id
		labelByID[id] = label
		g.AddNode(simple.Node(id))
	}

	selfLoops := make(map[string]bool)
	for _, t := range transitions {
		if t.FromState == t.ToState {
			selfLoops[t.FromState] = true
			continue
		}
		from, okF := idByLabel[t.FromState]
		to, okT := idByLabel[t.ToState]
		if !okF || !okT {
			continue
		}
		if g.HasEdgeFromTo(from, to) {
			continue
		}
		g.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	var cycles [][]string
	for label := range selfLoops {
		cycles = append(cycles, []string{label})
	}
	for _, nodes := range topo.DirectedCyclesIn(g) {
		// DirectedCyclesIn repeats the first node at the end.
		cycle := make([]string, 0, len(nodes)-1)
		for _, n := range nodes[:len(nodes)-1] {
			cycle = append(cycle, labelByID[n.ID()])
		}
		sort.Strings(cycle)
		cycles = append(cycles, cycle)
	}
	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x00") < strings.Join(cycles[j], "\x00")
	})
	return cycles
}

// FindSemanticEquivalences scores all label pairs after stripping
// articles and filler words. Pairs at or above threshold are returned;
// an exact normalized match scores 1.0.
func FindSemanticEquivalences(m *Model, threshold float64) []Equivalence {
	labels := make([]string, 0, len(m.States))
	for label := range m.States {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var equivalences []Equivalence
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			a, b := labels[i], labels[j]
			normA, normB := normalizeLabel(a), normalizeLabel(b)
			if normA == normB {
				equivalences = append(equivalences, Equivalence{a, b, 1.0})
				continue
			}
			score := gwt.Similarity(normA, normB)
			if score >= threshold {
				equivalences = append(equivalences, Equivalence{a, b, math.Round(score*100) / 100})
			}
		}
	}
	return equivalences
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"is": true, "are": true, "has": true, "have": true, "there": true,
}

func normalizeLabel(label string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(label)) {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
