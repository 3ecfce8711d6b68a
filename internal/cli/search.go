package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/request"
	"github.com/roach88/sift/internal/store"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	Set  []string // name=value pairs
	Term string   // free-text term
}

// SearchResult is the output of the search command.
type SearchResult struct {
	Query   string      `json:"query"`
	Filter  string      `json:"filter"`
	Table   string      `json:"table"`
	Columns []string    `json:"columns"`
	Rows    []store.Row `json:"rows"`
}

// Text implements TextRenderer: one line per row, columns in table order.
func (r SearchResult) Text() string {
	if len(r.Rows) == 0 {
		return "no matches"
	}
	lines := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		parts := make([]string, 0, len(r.Columns))
		for _, col := range r.Columns {
			v := row[col]
			if col == "id" {
				parts = append(parts, fmt.Sprint(v))
				continue
			}
			if v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				parts = append(parts, fmt.Sprintf("%s=%q", col, s))
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%v", col, v))
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return strings.Join(lines, "\n")
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search a SQLite table",
		Long: `Compile a query and run it against a table in --db.

The query may be given as an argument, or built from --set and --term
the way a search form would. Rows are returned in id order.

Examples:
  sift search --schema shop.yaml --db shop.db 'price < 30 and active'
  sift search --schema shop.yaml --db shop.db --set state=new --term socks`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := request.Input{FreeText: opts.Term}
			if len(args) == 1 {
				in.Advanced = args[0]
			}
			return runSearch(opts, in, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "field value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Term, "term", "", "free-text term")

	return cmd
}

func runSearch(opts *SearchOptions, in request.Input, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()
	ctx := cmd.Context()

	values, err := parseAssignments(opts.Set)
	if err != nil {
		return err
	}
	in.Values = values

	if opts.Config.DB == "" {
		return NewExitError(ExitCommandError, "no database: use --db or SIFT_DB")
	}
	st, err := openStore(opts.Config, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	s, err := loadSchema(opts.Config, st)
	if err != nil {
		return err
	}

	table := opts.Config.Table
	if table == "" {
		table = s.Table
	}
	if table == "" {
		return NewExitError(ExitCommandError, "no table: use --table or declare one in the schema")
	}

	cols, err := st.Columns(ctx, table)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read table", err)
	}

	searcher := request.NewSearcher(s.Registry, logger, nil)
	res, err := searcher.Filter(ctx, in)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	rows, err := st.Search(ctx, table, nil, res.Filter)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	logger.Info("search completed", "request_id", res.ID, "table", table, "rows", len(rows))

	out := SearchResult{
		Query:   res.Query,
		Filter:  res.Filter.String(),
		Table:   table,
		Columns: make([]string, len(cols)),
		Rows:    rows,
	}
	for i, c := range cols {
		out.Columns[i] = c.Name
	}
	if out.Rows == nil {
		out.Rows = []store.Row{}
	}
	return formatter.SuccessWithID(res.ID, out)
}
