package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/logging"
	"github.com/roach88/sift/internal/querysql"
	"github.com/roach88/sift/internal/request"
	"github.com/roach88/sift/internal/schema"
	"github.com/roach88/sift/internal/store"
	"github.com/roach88/sift/internal/testutil"
)

// defaultTable is searched when neither the scenario nor its schema
// names a table.
const defaultTable = "products"

// Harness is the test execution engine.
// It runs the cases of one scenario against a seeded store.
type Harness struct {
	store    *store.Store
	registry *schema.Registry
	searcher *request.Searcher
	sql      *querysql.SQLCompiler
	table    string
	seeded   bool
	logger   *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, with
// sequential request IDs so logs are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Create and seed tables
// 3. Load the schema, or fall back to the shop fixture registry
// 4. Run each case and evaluate its expectations
// 5. Return result with pass/fail, case outcomes and errors
func Run(scenario *Scenario) (*Result, error) {
	return RunWithLogger(context.Background(), scenario, nil)
}

// RunWithLogger is Run with a context and a logger for the store and the
// request façade. A nil logger discards.
func RunWithLogger(ctx context.Context, scenario *Scenario, logger *slog.Logger) (*Result, error) {
	logger = logging.Default(logger).With("component", "harness", "scenario", scenario.Name)

	st, err := store.Open(":memory:", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		sql:    querysql.NewSQLCompiler(nil),
		table:  scenario.Table,
		seeded: len(scenario.Tables) > 0,
		logger: logger,
	}

	if err := h.seed(ctx, scenario.Tables); err != nil {
		return nil, fmt.Errorf("failed to seed tables: %w", err)
	}

	if err := h.loadRegistry(scenario.Schema); err != nil {
		return nil, err
	}
	h.searcher = request.NewSearcher(h.registry, logger, testutil.NewSequentialIDGenerator(scenario.Name))

	result := NewResult()
	for _, c := range scenario.Cases {
		got := h.runCase(ctx, c)
		result.AddCase(got)
		for _, failure := range EvaluateCase(c, got) {
			result.AddError(failure.Error())
		}
	}

	h.logger.Info("scenario completed",
		"cases", len(scenario.Cases),
		"failures", len(result.Errors),
	)
	return result, nil
}

// seed creates and fills the scenario's tables.
func (h *Harness) seed(ctx context.Context, tables []TableSeed) error {
	for _, t := range tables {
		if err := h.store.CreateTable(ctx, t.Name, t.Columns); err != nil {
			return err
		}
		for i, row := range t.Rows {
			if _, err := h.store.Insert(ctx, t.Name, store.Row(row)); err != nil {
				return fmt.Errorf("%s row %d: %w", t.Name, i, err)
			}
		}
		h.logger.Debug("table seeded", "table", t.Name, "rows", len(t.Rows))
	}
	return nil
}

// loadRegistry builds the registry. Reference fields resolve against the
// seeded store.
func (h *Harness) loadRegistry(path string) error {
	if path == "" {
		h.registry = testutil.ShopRegistry(h.store)
	} else {
		s, err := schema.LoadFile(path, h.store)
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}
		h.registry = s.Registry
		if h.table == "" {
			h.table = s.Table
		}
	}
	if h.table == "" {
		h.table = defaultTable
	}
	return nil
}

// runCase compiles one case and records what happened. Failures are
// recorded in the CaseResult, not returned.
func (h *Harness) runCase(ctx context.Context, c Case) CaseResult {
	in := request.Input{Values: c.Values, FreeText: c.Term, Advanced: c.Advanced}
	if !c.Structured() {
		in = request.Input{Advanced: *c.Query}
	}

	got := CaseResult{Name: c.Name}
	res, err := h.searcher.Filter(ctx, in)
	got.Query = res.Query
	if err != nil {
		return failed(got, err)
	}
	got.Filter = res.Filter.String()

	where, _, err := h.sql.CompileWhere(res.Filter)
	if err != nil {
		return failed(got, err)
	}
	got.SQL = where

	if h.seeded {
		ids, err := h.store.IDs(ctx, h.table, res.Filter)
		if err != nil {
			return failed(got, err)
		}
		got.IDs = ids
	}
	return got
}

func failed(got CaseResult, err error) CaseResult {
	got.Code = compiler.Code(err)
	got.Error = err.Error()
	return got
}
