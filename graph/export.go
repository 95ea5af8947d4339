package graph

import (
	"encoding/json"
	"sort"
	"strings"
)

type jsonState struct {
	Label           string   `json:"label"`
	SourceScenarios []string `json:"source_scenarios"`
}

type jsonTransition struct {
	Event          string `json:"event"`
	FromState      string `json:"from_state"`
	ToState        string `json:"to_state"`
	SourceScenario string `json:"source_scenario"`
}

type jsonModel struct {
	States         map[string]jsonState `json:"states"`
	Transitions    []jsonTransition     `json:"transitions"`
	EntryPoints    []string             `json:"entry_points"`
	TerminalStates []string             `json:"terminal_states"`
	Cycles         [][]string           `json:"cycles"`
}

// ExportJSON renders the model as indented JSON. Map keys are emitted
// sorted, so identical models produce identical bytes.
func ExportJSON(m *Model) ([]byte, error) {
	out := jsonModel{
		States:         make(map[string]jsonState, len(m.States)),
		Transitions:    make([]jsonTransition, 0, len(m.Transitions)),
		EntryPoints:    emptyIfNil(m.EntryPoints),
		TerminalStates: emptyIfNil(m.TerminalStates),
		Cycles:         m.Cycles,
	}
	if out.Cycles == nil {
		out.Cycles = [][]string{}
	}
	for label, st := range m.States {
		out.States[label] = jsonState{
			Label:           st.Label,
			SourceScenarios: emptyIfNil(st.SourceScenarios),
		}
	}
	for _, t := range m.Transitions {
		out.Transitions = append(out.Transitions, jsonTransition{
			Event:          t.Event,
			FromState:      t.FromState,
			ToState:        t.ToState,
			SourceScenario: t.SourceScenario,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ExportDOT renders the model as a Graphviz digraph. Entry points get
// a doublecircle shape, terminal states a bold box.
func ExportDOT(m *Model) string {
	lines := []string{"digraph spec_state_machine {", "  rankdir=LR;", ""}

	if len(m.EntryPoints) > 0 {
		quoted := make([]string, 0, len(m.EntryPoints))
		for _, s := range m.EntryPoints {
			quoted = append(quoted, `"`+dotEscape(s)+`"`)
		}
		lines = append(lines, "  node [shape=doublecircle]; "+strings.Join(quoted, " ")+";")
	}
	if len(m.TerminalStates) > 0 {
		quoted := make([]string, 0, len(m.TerminalStates))
		for _, s := range m.TerminalStates {
			quoted = append(quoted, `"`+dotEscape(s)+`"`)
		}
		lines = append(lines, "  node [shape=box, style=bold]; "+strings.Join(quoted, " ")+";")
	}
	lines = append(lines, "  node [shape=ellipse, style=solid];", "")

	for _, t := range m.Transitions {
		lines = append(lines,
			`  "`+dotEscape(t.FromState)+`" -> "`+dotEscape(t.ToState)+`" [label="`+dotEscape(t.Event)+`"];`)
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}

func dotEscape(text string) string {
	text = strings.ReplaceAll(text, `"`, `\"`)
	return strings.ReplaceAll(text, "\n", `\n`)
}

// SortedLabels returns the state labels in sorted order.
func SortedLabels(m *Model) []string {
	labels := make([]string, 0, len(m.States))
	for label := range m.States {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
