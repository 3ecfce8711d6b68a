package harness

// CaseResult is the observed outcome of one scenario case.
type CaseResult struct {
	Name   string  `json:"name"`
	Query  string  `json:"query"`
	Filter string  `json:"filter,omitempty"`
	SQL    string  `json:"sql,omitempty"`
	IDs    []int64 `json:"ids,omitempty"`
	Code   string  `json:"code,omitempty"`  // compiler.Code of the error, if any
	Error  string  `json:"error,omitempty"` // error message, if any
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every case matched its expectations.
	Pass bool `json:"pass"`

	// Cases holds one entry per scenario case, in order.
	// Used for golden comparison.
	Cases []CaseResult `json:"cases"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Cases:  []CaseResult{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddCase records the outcome of a case.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
}
