// Package gaps inspects a state-machine model for completeness
// problems: dead ends, unreachable states, missing error handling,
// contradictory outcomes, and absent negative scenarios. A gap's
// description string is its identity: triage decisions are keyed on it,
// so re-analysis after an edit drops exactly the gaps whose
// descriptions no longer occur.
package gaps

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specforge/specforge/graph"
)

// Type classifies a gap.
type Type string

const (
	TypeDeadEnd         Type = "dead-end"
	TypeUnreachable     Type = "unreachable"
	TypeMissingError    Type = "missing-error"
	TypeContradiction   Type = "contradiction"
	TypeMissingNegative Type = "missing-negative"
)

// Severity ranks how urgently a gap needs an answer.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Triage statuses a gap can carry.
const (
	TriageIntentional = "intentional"
	TriageOutOfScope  = "out-of-scope"
	TriageNeedsSpec   = "needs-spec"
)

// Gap is one detected completeness problem.
type Gap struct {
	Type         Type     `json:"gap_type"`
	Severity     Severity `json:"severity"`
	Description  string   `json:"description"`
	Question     string   `json:"question"`
	States       []string `json:"states"`
	Transitions  []string `json:"transitions"`
	TriageStatus string   `json:"triage_status,omitempty"`
}

// Analyze runs all detectors over the model. Gaps whose description
// appears in triaged are suppressed.
func Analyze(m *graph.Model, triaged map[string]string) []Gap {
	if triaged == nil {
		triaged = map[string]string{}
	}
	var out []Gap
	out = append(out, findDeadEnds(m, triaged)...)
	out = append(out, findUnreachable(m, triaged)...)
	out = append(out, findMissingErrors(m, triaged)...)
	out = append(out, findContradictions(m, triaged)...)
	out = append(out, findMissingNegatives(m, triaged)...)
	return out
}

// findDeadEnds flags states that are reached but never left.
func findDeadEnds(m *graph.Model, triaged map[string]string) []Gap {
	outbound := make(map[string]bool)
	inbound := make(map[string]bool)
	for _, t := range m.Transitions {
		outbound[t.FromState] = true
		inbound[t.ToState] = true
	}

	var out []Gap
	for _, label := range graph.SortedLabels(m) {
		if outbound[label] || !inbound[label] {
			continue
		}
		desc := fmt.Sprintf("State %q has no outbound transitions", label)
		if _, done := triaged[desc]; done {
			continue
		}
		out = append(out, Gap{
			Type:        TypeDeadEnd,
			Severity:    SeverityMedium,
			Description: desc,
			Question:    "Is this an intentional terminal state?",
			States:      []string{label},
		})
	}
	return out
}

// findUnreachable flags states with no inbound edge that are not
// declared entry points. States used only as sources are orphan
// entries, not unreachable, and are skipped.
func findUnreachable(m *graph.Model, triaged map[string]string) []Gap {
	inbound := make(map[string]bool)
	outbound := make(map[string]bool)
	for _, t := range m.Transitions {
		inbound[t.ToState] = true
		outbound[t.FromState] = true
	}
	entries := make(map[string]bool, len(m.EntryPoints))
	for _, e := range m.EntryPoints {
		entries[e] = true
	}

	var out []Gap
	for _, label := range graph.SortedLabels(m) {
		if inbound[label] || entries[label] || outbound[label] {
			continue
		}
		desc := fmt.Sprintf("State %q has no inbound transitions from any entry point", label)
		if _, done := triaged[desc]; done {
			continue
		}
		out = append(out, Gap{
			Type:        TypeUnreachable,
			Severity:    SeverityHigh,
			Description: desc,
			Question:    "How does the system reach this state?",
			States:      []string{label},
		})
	}
	return out
}

// findMissingErrors flags states handling two or more events with no
// error-like event among them.
func findMissingErrors(m *graph.Model, triaged map[string]string) []Gap {
	events := eventsByState(m)

	var out []Gap
	for _, state := range sortedKeys(events) {
		evs := events[state]
		if len(evs) < 2 || anyContains(evs, "error", "fail", "invalid") {
			continue
		}
		desc := fmt.Sprintf("State %q handles %d events but has no error transition", state, len(evs))
		if _, done := triaged[desc]; done {
			continue
		}
		out = append(out, Gap{
			Type:        TypeMissingError,
			Severity:    SeverityLow,
			Description: desc,
			Question:    fmt.Sprintf("What happens when a %s encounters an error?", state),
			States:      []string{state},
			Transitions: evs,
		})
	}
	return out
}

// findContradictions flags (precondition, event) pairs with more than
// one distinct outcome.
func findContradictions(m *graph.Model, triaged map[string]string) []Gap {
	type key struct{ from, event string }
	groups := make(map[key][]graph.Transition)
	var order []key
	for _, t := range m.Transitions {
		k := key{t.FromState, t.Event}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], t)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].from != order[j].from {
			return order[i].from < order[j].from
		}
		return order[i].event < order[j].event
	})

	var out []Gap
	for _, k := range order {
		transitions := groups[k]
		toStates := make(map[string]bool)
		for _, t := range transitions {
			toStates[t.ToState] = true
		}
		if len(toStates) <= 1 {
			continue
		}
		desc := fmt.Sprintf("Contradiction: %q + %q leads to %d different outcomes",
			k.from, k.event, len(toStates))
		if _, done := triaged[desc]; done {
			continue
		}
		states := []string{k.from}
		states = append(states, sortedKeys(toStates)...)
		var evs []string
		for _, t := range transitions {
			if t.SourceScenario != "" {
				evs = append(evs, fmt.Sprintf("%s (from %s)", k.event, t.SourceScenario))
			}
		}
		out = append(out, Gap{
			Type:        TypeContradiction,
			Severity:    SeverityHigh,
			Description: desc,
			Question: "These scenarios have the same precondition and event " +
				"but different outcomes. Is there a missing condition?",
			States:      states,
			Transitions: evs,
		})
	}
	return out
}

// findMissingNegatives flags states whose events are all positive and
// suggests failure probes for the first few.
func findMissingNegatives(m *graph.Model, triaged map[string]string) []Gap {
	events := eventsByState(m)

	var out []Gap
	for _, state := range sortedKeys(events) {
		evs := events[state]
		if anyContains(evs, "fail", "invalid", "error", "reject", "deny", "not") {
			continue
		}
		desc := fmt.Sprintf("State %q only has positive scenarios. Missing negative cases.", state)
		if _, done := triaged[desc]; done {
			continue
		}
		var suggestions []string
		for _, e := range evs {
			suggestions = append(suggestions,
				fmt.Sprintf("What happens when %s fails?", e),
				fmt.Sprintf("What happens when %s with invalid data?", e))
		}
		if len(suggestions) > 3 {
			suggestions = suggestions[:3]
		}
		out = append(out, Gap{
			Type:        TypeMissingNegative,
			Severity:    SeverityMedium,
			Description: desc,
			Question:    strings.Join(suggestions, "\n"),
			States:      []string{state},
		})
	}
	return out
}

func eventsByState(m *graph.Model) map[string][]string {
	events := make(map[string][]string)
	for _, t := range m.Transitions {
		events[t.FromState] = append(events[t.FromState], t.Event)
	}
	return events
}

func anyContains(events []string, needles ...string) bool {
	for _, e := range events {
		lower := strings.ToLower(e)
		for _, n := range needles {
			if strings.Contains(lower, n) {
				return true
			}
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
