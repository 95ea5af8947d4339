package ir

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonStep mirrors Step with keys in sorted order so the serialized form
// is byte-stable. encoding/json already sorts the args map keys.
type jsonStep struct {
	Args   map[string]any `json:"args"`
	Kind   string         `json:"kind"`
	Symbol string         `json:"symbol"`
}

type jsonScenario struct {
	Givens  []jsonStep `json:"givens"`
	Imports []string   `json:"imports"`
	Name    string     `json:"name"`
	Thens   []jsonStep `json:"thens"`
	Whens   []jsonStep `json:"whens"`
}

type jsonFeature struct {
	FeatureID string         `json:"feature_id"`
	Scenarios []jsonScenario `json:"scenarios"`
}

// MarshalJSON emits the canonical JSON shape consumed by the
// interrogation workflow's hash gate. Identical IR always yields
// byte-identical output: keys are sorted and slices are never null.
func (f *Feature) MarshalJSON() ([]byte, error) {
	out := jsonFeature{
		FeatureID: f.FeatureID,
		Scenarios: make([]jsonScenario, 0, len(f.Scenarios)),
	}
	for _, sc := range f.Scenarios {
		out.Scenarios = append(out.Scenarios, jsonScenario{
			Givens:  jsonSteps(sc.Givens),
			Imports: nonNil(sc.Imports),
			Name:    sc.Name,
			Thens:   jsonSteps(sc.Thens),
			Whens:   jsonSteps(sc.Whens),
		})
	}
	return json.Marshal(out)
}

// Serialize renders the feature as indented canonical JSON with a
// trailing newline, ready to write to disk.
func Serialize(f *Feature) ([]byte, error) {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize feature IR: %w", err)
	}
	return append(data, '\n'), nil
}

// Deserialize loads a feature from its canonical JSON form. Numeric
// argument values come back as int; the IR value domain has no floats.
func Deserialize(data []byte) (*Feature, error) {
	var raw jsonFeature
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse feature IR: %w", err)
	}
	f := &Feature{
		FeatureID: raw.FeatureID,
		Scenarios: make([]Scenario, 0, len(raw.Scenarios)),
	}
	for _, sc := range raw.Scenarios {
		f.Scenarios = append(f.Scenarios, Scenario{
			Name:    sc.Name,
			Imports: nonNil(sc.Imports),
			Givens:  fromJSONSteps(sc.Givens),
			Whens:   fromJSONSteps(sc.Whens),
			Thens:   fromJSONSteps(sc.Thens),
		})
	}
	return f, nil
}

// LoadFile reads a serialized feature IR from disk.
func LoadFile(path string) (*Feature, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Deserialize(data)
}

func jsonSteps(steps []Step) []jsonStep {
	out := make([]jsonStep, 0, len(steps))
	for _, s := range steps {
		args := s.Args
		if args == nil {
			args = map[string]any{}
		}
		out = append(out, jsonStep{Args: args, Kind: s.Kind, Symbol: s.Symbol})
	}
	return out
}

func fromJSONSteps(steps []jsonStep) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		args := make(map[string]any, len(s.Args))
		for key, value := range s.Args {
			args[key] = normalizeValue(value)
		}
		out = append(out, Step{Kind: s.Kind, Symbol: s.Symbol, Args: args})
	}
	return out
}

// normalizeValue maps json.Unmarshal's float64 numbers back into the IR
// value domain of string | int | bool.
func normalizeValue(value any) any {
	if f, ok := value.(float64); ok {
		return int(f)
	}
	return value
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
