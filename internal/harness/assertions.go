package harness

import (
	"fmt"
	"strings"
)

// Assertion type constants.
const (
	AssertQuery  = "expect_query"
	AssertFilter = "filter"
	AssertSQL    = "sql"
	AssertIDs    = "ids"
	AssertError  = "error"
)

// AssertionError is returned when an expectation fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Case     string // case name
	Type     string // assertion type for categorization
	Expected string // human-readable expected outcome
	Actual   string // human-readable actual outcome
	Query    string // query that was compiled, if any
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s (case %q)\n", e.Type, e.Case)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Query != "" {
		fmt.Fprintf(&buf, "  Query: %s\n", e.Query)
	}

	return buf.String()
}

// EvaluateCase checks got against every expectation c declares and
// returns one error per failed expectation.
//
// An unexpected error fails the case once; the remaining expectations
// are not checked since there is nothing to compare them with.
func EvaluateCase(c Case, got CaseResult) []*AssertionError {
	var failures []*AssertionError
	fail := func(typ, expected, actual string) {
		failures = append(failures, &AssertionError{
			Case:     c.Name,
			Type:     typ,
			Expected: expected,
			Actual:   actual,
			Query:    got.Query,
		})
	}

	if c.ExpectQuery != nil && got.Query != *c.ExpectQuery {
		fail(AssertQuery, fmt.Sprintf("%q", *c.ExpectQuery), fmt.Sprintf("%q", got.Query))
	}

	if c.Error != "" {
		switch {
		case got.Code == "":
			fail(AssertError, "error "+c.Error, "no error, filter "+got.Filter)
		case got.Code != c.Error:
			fail(AssertError, "error "+c.Error, fmt.Sprintf("error %s: %s", got.Code, got.Error))
		}
		return failures
	}

	if got.Code != "" {
		fail(AssertError, "no error", fmt.Sprintf("error %s: %s", got.Code, got.Error))
		return failures
	}

	if c.Filter != "" && got.Filter != c.Filter {
		fail(AssertFilter, c.Filter, got.Filter)
	}

	if c.SQL != "" && got.SQL != c.SQL {
		fail(AssertSQL, c.SQL, got.SQL)
	}

	if c.IDs != nil && !idsEqual(*c.IDs, got.IDs) {
		fail(AssertIDs, fmt.Sprint(*c.IDs), fmt.Sprint(got.IDs))
	}

	return failures
}

func idsEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
