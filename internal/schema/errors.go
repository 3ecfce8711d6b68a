package schema

import (
	"errors"
	"fmt"
)

// ErrUnresolved is returned (possibly wrapped) by a ValueFunc when the
// value is syntactically fine but cannot be resolved for the field, e.g. a
// reference lookup that finds no row. It never means "match nothing".
var ErrUnresolved = errors.New("value could not be resolved")

// Configuration error codes (E200-E219).
const (
	ErrCodeDuplicateField     = "E200" // two fields share a case-folded name
	ErrCodeEmptyName          = "E201" // field name is required
	ErrCodeInvalidName        = "E202" // name is not a query identifier
	ErrCodeInvalidDefaultOp   = "E203" // default operator not in the operator map
	ErrCodeInvalidOpMap       = "E204" // unknown operator or comparison kind in map
	ErrCodeFreeTextNoAttr     = "E205" // free-text field without attribute
	ErrCodeFreeTextNoContains = "E206" // free-text field without ":" support
	ErrCodeReferenceNoLookup  = "E207" // reference field without lookup/resolver
	ErrCodeChoiceNoChoices    = "E208" // choice field without choices
	ErrCodeNoValueFunc        = "E209" // field without value function
	ErrCodeNoFreeTextFields   = "E210" // free-text clause but no free-text fields
	ErrCodeMalformedPredicate = "E211" // value function built a malformed predicate
	ErrCodeUnknownKind        = "E212" // unknown field kind in a schema file
	ErrCodeSchemaFile         = "E213" // schema file unreadable or malformed
)

// ConfigurationError reports misuse of the schema by the host program:
// an invalid field declaration, or a query feature the schema cannot
// support. It is a programming error, not bad user input.
type ConfigurationError struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] field %q: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// DuplicateFieldError reports two declarations whose names fold to the
// same key.
type DuplicateFieldError struct {
	Name     string // the rejected declaration
	Existing string // the earlier declaration it collides with
}

// Error implements the error interface.
func (e *DuplicateFieldError) Error() string {
	if e.Name == e.Existing {
		return fmt.Sprintf("[%s] duplicate field %q", ErrCodeDuplicateField, e.Name)
	}
	return fmt.Sprintf("[%s] duplicate field %q (collides with %q)", ErrCodeDuplicateField, e.Name, e.Existing)
}

// UnknownFieldError reports an identifier that names no registered field.
type UnknownFieldError struct {
	Name string
	Pos  int // byte offset in the query, or -1 when not from query text
}

// Error implements the error interface.
func (e *UnknownFieldError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("unknown field %q at position %d", e.Name, e.Pos)
	}
	return fmt.Sprintf("unknown field %q", e.Name)
}

// IsConfigurationError returns true if err is or wraps a ConfigurationError
// or a DuplicateFieldError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return true
	}
	var de *DuplicateFieldError
	return errors.As(err, &de)
}

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(code, field, msgFmt string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Field: field, Message: fmt.Sprintf(msgFmt, args...)}
}
