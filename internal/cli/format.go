package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/request"
)

// FormatOptions holds flags for the format command.
type FormatOptions struct {
	*RootOptions
	Set   []string // name=value pairs
	Term  string   // free-text term
	Query string   // advanced query; wins when not blank
}

// FormatResult is the output of the format command.
type FormatResult struct {
	Query string `json:"query"`
}

// Text implements TextRenderer.
func (r FormatResult) Text() string {
	return r.Query
}

// NewFormatCommand creates the format command.
func NewFormatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FormatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "format",
		Short: "Render structured values as a query string",
		Long: `Render structured field values and a free-text term as the canonical
query string, the same string a search form would submit.

A non-blank --query is printed as is.

Examples:
  sift format --schema shop.yaml --set price=10 --set state=new
  sift format --schema shop.yaml --term socks`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Set, "set", nil, "field value as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Term, "term", "", "free-text term")
	cmd.Flags().StringVar(&opts.Query, "query", "", "advanced query")

	return cmd
}

func runFormat(opts *FormatOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	values, err := parseAssignments(opts.Set)
	if err != nil {
		return err
	}

	s, err := loadSchema(opts.Config, nil)
	if err != nil {
		return err
	}

	searcher := request.NewSearcher(s.Registry, opts.logger(), nil)
	q, err := searcher.QueryString(request.Input{Advanced: opts.Query, FreeText: opts.Term, Values: values})
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	return formatter.Success(FormatResult{Query: q})
}
