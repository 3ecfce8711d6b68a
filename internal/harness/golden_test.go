package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Shop(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/shop.yaml")
	require.NoError(t, err)

	// To regenerate:
	//   go test ./internal/harness -run TestRunWithGolden_Shop -update
	err = RunWithGolden(t, scenario)
	require.NoError(t, err)
}

func TestSnapshot_Marshal(t *testing.T) {
	result := NewResult()
	result.AddCase(CaseResult{Name: "a", Query: "price > 10", Filter: "gt(price, 10)", SQL: "price > ?", IDs: []int64{2}})
	result.AddCase(CaseResult{Name: "b", Query: "colour = red", Code: "unknown_field", Error: "unknown field"})

	data, err := NewSnapshot("demo", result).Marshal()
	require.NoError(t, err)

	want := strings.Join([]string{
		`{`,
		`  "scenario": "demo",`,
		`  "cases": [`,
		`    {`,
		`      "name": "a",`,
		`      "query": "price > 10",`,
		`      "filter": "gt(price, 10)",`,
		`      "sql": "price > ?",`,
		`      "ids": [`,
		`        2`,
		`      ]`,
		`    },`,
		`    {`,
		`      "name": "b",`,
		`      "query": "colour = red",`,
		`      "code": "unknown_field"`,
		`    }`,
		`  ]`,
		`}`,
		``,
	}, "\n")
	assert.Equal(t, want, string(data))
}

func TestSnapshot_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/shop.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := NewSnapshot(scenario.Name, first).Marshal()
	require.NoError(t, err)
	b, err := NewSnapshot(scenario.Name, second).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
