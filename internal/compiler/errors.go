package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/querylang"
	"github.com/roach88/sift/internal/schema"
)

// Stable error codes returned by Code.
const (
	CodeSyntax              = "syntax"
	CodeUnknownField        = "unknown_field"
	CodeUnresolvedValue     = "unresolved_value"
	CodeConfiguration       = "configuration"
	CodeUnsupportedOperator = "unsupported_operator"
	CodeInvalidValue        = "invalid_value"
	CodeInternal            = "internal"
)

// UnresolvedValueError reports a value that could not be resolved for a
// field, e.g. a reference lookup with no matching row. It is never
// turned into a predicate that matches nothing.
type UnresolvedValueError struct {
	Field string
	Value ir.Value
	Err   error // reason; wraps schema.ErrUnresolved when set by a value function
}

// Error implements the error interface.
func (e *UnresolvedValueError) Error() string {
	msg := fmt.Sprintf("unknown value %q for field %q", spelling(e.Value), e.Field)
	if e.Err != nil && e.Err != schema.ErrUnresolved {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the reason, or schema.ErrUnresolved when there is none.
func (e *UnresolvedValueError) Unwrap() error {
	if e.Err == nil {
		return schema.ErrUnresolved
	}
	return e.Err
}

// UnsupportedOperatorError reports an operator missing from a field's
// operator map.
type UnsupportedOperatorError struct {
	Field string
	Op    querylang.Operator
	Pos   int
}

// Error implements the error interface.
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("field %q does not support operator %q at position %d", e.Field, e.Op, e.Pos)
}

// Code maps an error from parsing, compiling or formatting to a stable
// string code. It returns "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}

	var syntaxErr *querylang.SyntaxError
	var unknownErr *schema.UnknownFieldError
	var unresolvedErr *UnresolvedValueError
	var opErr *UnsupportedOperatorError

	switch {
	case errors.As(err, &syntaxErr):
		return CodeSyntax
	case errors.As(err, &unknownErr):
		return CodeUnknownField
	case errors.As(err, &unresolvedErr), errors.Is(err, schema.ErrUnresolved):
		return CodeUnresolvedValue
	case errors.As(err, &opErr):
		return CodeUnsupportedOperator
	case schema.IsConfigurationError(err):
		return CodeConfiguration
	case errors.Is(err, ir.ErrUnquotable):
		return CodeInvalidValue
	default:
		return CodeInternal
	}
}

// spelling returns v as the user typed it, without quotes.
func spelling(v ir.Value) string {
	switch val := v.(type) {
	case ir.Text:
		return string(val)
	case ir.Ident:
		return string(val)
	default:
		return ir.String(v)
	}
}
