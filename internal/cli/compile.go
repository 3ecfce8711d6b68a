package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/querysql"
	"github.com/roach88/sift/internal/request"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	SQL bool // also print the WHERE clause and its parameters
}

// CompileResult is the output of the compile command.
type CompileResult struct {
	Query       string          `json:"query"`
	Filter      string          `json:"filter"`
	Tree        json.RawMessage `json:"tree"`
	Fingerprint string          `json:"fingerprint"`
	SQL         string          `json:"sql,omitempty"`
	Params      []any           `json:"params,omitempty"`
}

// Text implements TextRenderer.
func (r CompileResult) Text() string {
	if r.SQL == "" {
		return r.Filter
	}
	var b strings.Builder
	fmt.Fprintln(&b, r.Filter)
	fmt.Fprintf(&b, "SQL: %s\n", r.SQL)
	fmt.Fprintf(&b, "Params: %v", r.Params)
	return b.String()
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query>",
		Short: "Compile a query to a predicate",
		Long: `Compile a query against the schema and print the resulting predicate.

With --sql the predicate is also compiled to a SQLite WHERE clause.
Reference fields are resolved against --db when given.

Examples:
  sift compile --schema shop.yaml 'price > 10 and name: "socks"'
  sift compile --schema shop.yaml --sql 'state != used'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SQL, "sql", false, "also print the SQL WHERE clause")

	return cmd
}

func runCompile(opts *CompileOptions, query string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	st, err := openStore(opts.Config, logger)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	s, err := loadSchema(opts.Config, st)
	if err != nil {
		return err
	}

	searcher := request.NewSearcher(s.Registry, logger, nil)
	res, err := searcher.Filter(cmd.Context(), request.Input{Advanced: query})
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	tree, err := filter.Marshal(res.Filter)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	out := CompileResult{
		Query:       res.Query,
		Filter:      res.Filter.String(),
		Tree:        tree,
		Fingerprint: res.Fingerprint,
	}

	if opts.SQL {
		where, params, err := querysql.NewSQLCompiler(nil).CompileWhere(res.Filter)
		if err != nil {
			return formatter.Fail(ExitFailure, err)
		}
		out.SQL = where
		out.Params = params
	}

	return formatter.SuccessWithID(res.ID, out)
}
