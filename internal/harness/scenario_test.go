package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Shop(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/shop.yaml")
	require.NoError(t, err)

	assert.Equal(t, "shop_fixture", s.Name)
	assert.Empty(t, s.Schema)
	require.Len(t, s.Tables, 2)
	assert.Equal(t, "products", s.Tables[1].Name)
	assert.Len(t, s.Tables[1].Rows, 4)

	first := s.Cases[0]
	require.NotNil(t, first.Query)
	assert.Equal(t, "", *first.Query)
	assert.False(t, first.Structured())
	require.NotNil(t, first.IDs)
	assert.Equal(t, []int64{1, 2, 3, 4}, *first.IDs)
}

func TestLoadScenario_ResolvesSchemaPath(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/shop_cue.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "schemas", "shop.cue"), s.Schema)

	structured := s.Cases[0]
	assert.True(t, structured.Structured())
	assert.Equal(t, map[string]string{"sku": "sk"}, structured.Values)
	require.NotNil(t, structured.ExpectQuery)
	assert.Equal(t, `sku:"sk"`, *structured.ExpectQuery)
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"no_freetext", "shop_fixture", "shop_cue_schema"}, names)
}

func TestLoadScenarios_Empty(t *testing.T) {
	_, err := LoadScenarios(t.TempDir())
	assert.ErrorContains(t, err, "no scenario files")
}

func TestLoadScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown key",
			content: "name: x\ndescription: y\ncase:\n  - name: a\n    query: a = 1\n    error: syntax\n",
			want:    "field case not found",
		},
		{
			name:    "missing name",
			content: "description: y\ncases:\n  - name: a\n    query: a\n    error: syntax\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\ncases:\n  - name: a\n    query: a\n    error: syntax\n",
			want:    "description is required",
		},
		{
			name:    "no cases",
			content: "name: x\ndescription: y\n",
			want:    "cases list is required",
		},
		{
			name:    "missing schema file",
			content: "name: x\ndescription: y\nschema: nope.yaml\ncases:\n  - name: a\n    query: a\n    error: syntax\n",
			want:    "schema file not found",
		},
		{
			name:    "case without expectation",
			content: "name: x\ndescription: y\ncases:\n  - name: a\n    query: price > 1\n",
			want:    "at least one of expect_query, filter, sql, ids or error is required",
		},
		{
			name:    "query mixed with values",
			content: "name: x\ndescription: y\ncases:\n  - name: a\n    query: price > 1\n    values: {price: '1'}\n    filter: all()\n",
			want:    "query cannot be combined",
		},
		{
			name:    "unknown error code",
			content: "name: x\ndescription: y\ncases:\n  - name: a\n    query: a\n    error: boom\n",
			want:    `unknown error code "boom"`,
		},
		{
			name:    "error with filter",
			content: "name: x\ndescription: y\ncases:\n  - name: a\n    query: a\n    error: syntax\n    filter: all()\n",
			want:    "error cannot be combined",
		},
		{
			name:    "ids without tables",
			content: "name: x\ndescription: y\ncases:\n  - name: a\n    query: ''\n    ids: [1]\n",
			want:    "ids requires seeded tables",
		},
		{
			name:    "duplicate case",
			content: "name: x\ndescription: y\ncases:\n  - name: a\n    query: a\n    error: syntax\n  - name: a\n    query: b\n    error: syntax\n",
			want:    `duplicate case name "a"`,
		},
		{
			name:    "table without columns",
			content: "name: x\ndescription: y\ntables:\n  - name: t\ncases:\n  - name: a\n    query: a\n    error: syntax\n",
			want:    "columns list is required",
		},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, dir, "scenario.yaml", tt.content)
			_, err := LoadScenario(path)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read scenario file")
}
