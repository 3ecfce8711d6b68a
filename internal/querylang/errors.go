package querylang

import (
	"errors"
	"fmt"
)

// Lexer errors.
var (
	ErrUnexpectedChar     = errors.New("unexpected character")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrNumberRange        = errors.New("number out of range")
)

// Parser errors.
var (
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrUnexpectedEOF   = errors.New("unexpected end of query")
	ErrUnmatchedParen  = errors.New("unmatched parenthesis")
	ErrTooDeep         = errors.New("query nested too deeply")
)

// SyntaxError reports malformed query text. It always carries the byte
// offset and the fragment of input where parsing stopped.
type SyntaxError struct {
	Pos      int    // byte offset in input
	Fragment string // input text starting at Pos, truncated
	Message  string // human-readable error message
	Err      error  // underlying sentinel error (for errors.Is)
}

func (e *SyntaxError) Error() string {
	if e.Fragment == "" {
		return fmt.Sprintf("invalid query syntax at position %d: %s", e.Pos, e.Message)
	}
	return fmt.Sprintf("invalid query syntax at position %d near %q: %s", e.Pos, e.Fragment, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// maxFragment bounds the input excerpt carried by a SyntaxError.
const maxFragment = 20

// newSyntaxError creates a SyntaxError with the given position and sentinel error.
func newSyntaxError(input string, pos int, err error, msgFmt string, args ...any) *SyntaxError {
	frag := ""
	if pos < len(input) {
		frag = input[pos:]
		if len(frag) > maxFragment {
			frag = frag[:maxFragment]
		}
	}
	return &SyntaxError{
		Pos:      pos,
		Fragment: frag,
		Message:  fmt.Sprintf(msgFmt, args...),
		Err:      err,
	}
}
