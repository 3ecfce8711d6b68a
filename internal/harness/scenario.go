package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/store"
)

// Scenario defines a conformance test scenario.
// Scenarios seed tables, then compile each case's query and assert on the
// resulting predicate, matching rows, or error code.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is a YAML or CUE schema file, relative to the scenario file.
	// If empty, the shop fixture registry is used.
	Schema string `yaml:"schema,omitempty"`

	// Table is searched by cases that expect ids. Defaults to the
	// schema's table, then "products".
	Table string `yaml:"table,omitempty"`

	// Tables are created and seeded before any case runs.
	Tables []TableSeed `yaml:"tables,omitempty"`

	// Cases run in order against the seeded store.
	Cases []Case `yaml:"cases"`
}

// TableSeed creates and fills one table.
type TableSeed struct {
	Name    string           `yaml:"name"`
	Columns []store.Column   `yaml:"columns"`
	Rows    []map[string]any `yaml:"rows,omitempty"`
}

// Case is a single query or structured request and its expectations.
//
// A case either sets Query, or builds a request from Values, Term and
// Advanced. At least one expectation must be given; Error excludes
// Filter, SQL and IDs.
type Case struct {
	Name string `yaml:"name"`

	// Query is compiled as an advanced query. May be empty.
	Query *string `yaml:"query,omitempty"`

	// Structured request input.
	Values   map[string]string `yaml:"values,omitempty"`
	Term     string            `yaml:"term,omitempty"`
	Advanced string            `yaml:"advanced,omitempty"`

	// ExpectQuery is the query string the request formats to.
	ExpectQuery *string `yaml:"expect_query,omitempty"`

	// Filter is the expected predicate in its String form.
	Filter string `yaml:"filter,omitempty"`

	// SQL is the expected WHERE clause.
	SQL string `yaml:"sql,omitempty"`

	// IDs are the expected matching row ids, in order.
	IDs *[]int64 `yaml:"ids,omitempty"`

	// Error is the expected error code, e.g. "unknown_field".
	Error string `yaml:"error,omitempty"`
}

// Structured reports whether the case builds a request from values.
func (c *Case) Structured() bool {
	return c.Query == nil
}

var errorCodes = map[string]bool{
	compiler.CodeSyntax:              true,
	compiler.CodeUnknownField:        true,
	compiler.CodeUnresolvedValue:     true,
	compiler.CodeConfiguration:       true,
	compiler.CodeUnsupportedOperator: true,
	compiler.CodeInvalidValue:        true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// The schema path is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "case:" vs "cases:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by
// file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	if s.Schema != "" {
		if _, err := os.Stat(s.Schema); os.IsNotExist(err) {
			return fmt.Errorf("schema file not found: %s", s.Schema)
		}
	}

	tables := make(map[string]bool, len(s.Tables))
	for i, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("tables[%d]: name is required", i)
		}
		if tables[t.Name] {
			return fmt.Errorf("tables[%d]: duplicate table %q", i, t.Name)
		}
		tables[t.Name] = true
		if len(t.Columns) == 0 {
			return fmt.Errorf("tables[%d]: columns list is required", i)
		}
	}

	names := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if names[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, c.Name)
		}
		names[c.Name] = true
		if err := validateCase(i, c, len(s.Tables) > 0); err != nil {
			return err
		}
	}

	return nil
}

// validateCase validates a single case.
func validateCase(index int, c *Case, seeded bool) error {
	if c.Query != nil && (len(c.Values) > 0 || c.Term != "" || c.Advanced != "") {
		return fmt.Errorf("cases[%d]: query cannot be combined with values, term or advanced", index)
	}

	if c.ExpectQuery == nil && c.Filter == "" && c.SQL == "" && c.IDs == nil && c.Error == "" {
		return fmt.Errorf("cases[%d]: at least one of expect_query, filter, sql, ids or error is required", index)
	}

	if c.Error != "" {
		if !errorCodes[c.Error] {
			return fmt.Errorf("cases[%d]: unknown error code %q", index, c.Error)
		}
		if c.Filter != "" || c.SQL != "" || c.IDs != nil {
			return fmt.Errorf("cases[%d]: error cannot be combined with filter, sql or ids", index)
		}
	}

	if c.IDs != nil && !seeded {
		return fmt.Errorf("cases[%d]: ids requires seeded tables", index)
	}

	return nil
}
