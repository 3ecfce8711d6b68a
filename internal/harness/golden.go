package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot captures every case outcome of a scenario execution.
// Error messages are left out so wording changes don't churn goldens;
// the error code is kept.
type Snapshot struct {
	Scenario string         `json:"scenario"`
	Cases    []CaseSnapshot `json:"cases"`
}

// CaseSnapshot is the golden form of a CaseResult.
type CaseSnapshot struct {
	Name   string  `json:"name"`
	Query  string  `json:"query"`
	Filter string  `json:"filter,omitempty"`
	SQL    string  `json:"sql,omitempty"`
	IDs    []int64 `json:"ids,omitempty"`
	Code   string  `json:"code,omitempty"`
}

// NewSnapshot builds the snapshot of result.
func NewSnapshot(scenarioName string, result *Result) Snapshot {
	snap := Snapshot{Scenario: scenarioName, Cases: make([]CaseSnapshot, len(result.Cases))}
	for i, c := range result.Cases {
		snap.Cases[i] = CaseSnapshot{
			Name:   c.Name,
			Query:  c.Query,
			Filter: c.Filter,
			SQL:    c.SQL,
			IDs:    c.IDs,
			Code:   c.Code,
		}
	}
	return snap
}

// Marshal renders the snapshot as indented JSON with a trailing newline.
// HTML escaping is off so operators like > stay readable.
func (s Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its case outcomes against
// a golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcomes don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
