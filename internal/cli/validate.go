package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/internal/schema"
)

// FieldSummary describes one validated field.
type FieldSummary struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Attr      string `json:"attr,omitempty"`
	DefaultOp string `json:"default_op"`
	FreeText  bool   `json:"freetext,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Table  string         `json:"table,omitempty"`
	Fields []FieldSummary `json:"fields,omitempty"`
}

// Text implements TextRenderer.
func (r ValidationResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Schema valid (%d fields)", len(r.Fields))
	for _, f := range r.Fields {
		attr := f.Attr
		if attr == "" {
			attr = "-"
		}
		fmt.Fprintf(&b, "\n  %-16s %-14s %-16s %s", f.Name, f.Kind, attr, f.DefaultOp)
		if f.FreeText {
			b.WriteString(" freetext")
		}
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema-file>",
		Short: "Validate a schema file",
		Long: `Load a YAML or CUE schema file and check every field declaration.

Reference lookups are not executed; only their declarations are checked.

Exit codes:
  0 - Schema is valid
  1 - Schema has an invalid declaration
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	if _, err := os.Stat(path); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("schema file not found: %s", path))
	}

	s, err := schema.LoadFile(path, offlineResolver{})
	if err != nil {
		logger.Debug("schema rejected", "path", path, "error", err)
		_ = formatter.Error(validationCode(err), err.Error(), nil)
		return &ExitError{Code: ExitFailure, Message: "validation failed", Err: err, Reported: true}
	}

	result := ValidationResult{Valid: true, Table: s.Table}
	for _, f := range s.Registry.Fields() {
		result.Fields = append(result.Fields, FieldSummary{
			Name:      f.Name,
			Kind:      string(f.Kind),
			Attr:      f.Attr,
			DefaultOp: string(f.DefaultOp),
			FreeText:  f.FreeText,
		})
	}
	logger.Debug("schema valid", "path", path, "fields", len(result.Fields))
	return formatter.Success(result)
}

// validationCode maps a schema load error to its configuration code.
func validationCode(err error) string {
	var ce *schema.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Code
	}
	var de *schema.DuplicateFieldError
	if errors.As(err, &de) {
		return schema.ErrCodeDuplicateField
	}
	return schema.ErrCodeSchemaFile
}
