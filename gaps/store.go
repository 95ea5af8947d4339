package gaps

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const reportName = "gaps.json"

// Save writes the gap report to .specforge/gaps.json under projectRoot.
func Save(gapList []Gap, projectRoot string) (string, error) {
	dir := filepath.Join(projectRoot, ".specforge")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if gapList == nil {
		gapList = []Gap{}
	}
	for i := range gapList {
		if gapList[i].States == nil {
			gapList[i].States = []string{}
		}
		if gapList[i].Transitions == nil {
			gapList[i].Transitions = []string{}
		}
	}
	data, err := json.MarshalIndent(gapList, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, reportName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads the gap report. A missing file is an empty report.
func Load(projectRoot string) ([]Gap, error) {
	path := filepath.Join(projectRoot, ".specforge", reportName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []Gap
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTriaged returns descriptions of gaps already marked intentional
// or out-of-scope, keyed for suppression during the next Analyze.
func LoadTriaged(projectRoot string) (map[string]string, error) {
	gapList, err := Load(projectRoot)
	if err != nil {
		return nil, err
	}
	triaged := make(map[string]string)
	for _, g := range gapList {
		if g.TriageStatus == TriageIntentional || g.TriageStatus == TriageOutOfScope {
			triaged[g.Description] = g.TriageStatus
		}
	}
	return triaged, nil
}
