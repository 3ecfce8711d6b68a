package querylang

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/ir"
)

// lexAll collects every token up to and including EOF.
func lexAll(t *testing.T, input string) []Token {
	t.Helper()
	lex := NewLexer(input)
	var toks []Token
	for {
		tok, err := lex.Next()
		require.NoError(t, err)
		toks = append(toks, tok)
		if tok.Kind == TokEOF {
			return toks
		}
	}
}

func kinds(toks []Token) []TokenKind {
	out := make([]TokenKind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexerTokenKinds(t *testing.T) {
	toks := lexAll(t, `price >= 10 AND (name: "red socks" Or added < 2015-01-02)`)
	assert.Equal(t, []TokenKind{
		TokIdent, TokOp, TokInt, TokAnd,
		TokLParen, TokIdent, TokOp, TokString, TokOr, TokIdent, TokOp, TokDate, TokRParen,
		TokEOF,
	}, kinds(toks))

	assert.Equal(t, ">=", toks[1].Lit)
	assert.Equal(t, "red socks", toks[7].Lit)
	assert.Equal(t, ir.Date{Year: 2015, Month: 1, Day: 2}, toks[11].Value)
}

func TestLexerOperators(t *testing.T) {
	for _, op := range []string{">", ">=", "=>", "<", "<=", "=<", "=", ":", "!=", "!:"} {
		t.Run(op, func(t *testing.T) {
			toks := lexAll(t, "a"+op+"1")
			require.Len(t, toks, 4)
			assert.Equal(t, TokOp, toks[1].Kind)
			assert.Equal(t, op, toks[1].Lit)
		})
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
		value ir.Value
	}{
		{"42", TokInt, ir.Int(42)},
		{"-7", TokInt, ir.Int(-7)},
		{"+7", TokInt, ir.Int(7)},
		{"1E3", TokInt, ir.Int(1000)},
		{"2e+2", TokInt, ir.Int(200)},
		{"1.5", TokFloat, ir.Float(1.5)},
		{"5.", TokFloat, ir.Float(5)},
		{".25", TokFloat, ir.Float(0.25)},
		{"-.5", TokFloat, ir.Float(-0.5)},
		{"1.5e-3", TokFloat, ir.Float(0.0015)},
		{"2015-13-40", TokDate, ir.Date{Year: 2015, Month: 13, Day: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks := lexAll(t, tt.input)
			require.Len(t, toks, 2)
			assert.Equal(t, tt.kind, toks[0].Kind)
			assert.Equal(t, tt.value, toks[0].Value)
		})
	}
}

func TestLexerIdentifierShapes(t *testing.T) {
	toks := lexAll(t, "owner.first_name a-b$1 and andy OR")
	assert.Equal(t, []TokenKind{TokIdent, TokIdent, TokAnd, TokIdent, TokOr, TokEOF}, kinds(toks))
	assert.Equal(t, "owner.first_name", toks[0].Lit)
	assert.Equal(t, "a-b$1", toks[1].Lit)
	assert.Equal(t, "andy", toks[3].Lit)
	assert.Equal(t, "OR", toks[4].Lit)
}

func TestLexerPositions(t *testing.T) {
	toks := lexAll(t, `  a = "x"`)
	assert.Equal(t, 2, toks[0].Pos)
	assert.Equal(t, 4, toks[1].Pos)
	assert.Equal(t, 6, toks[2].Pos)
	assert.Equal(t, 9, toks[3].Pos)
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		err   error
		pos   int
	}{
		{`a = "open`, ErrUnterminatedString, 4},
		{"a # 1", ErrUnexpectedChar, 2},
		{"a ! 1", ErrUnexpectedChar, 2},
		{"a = 99999999999999999999", ErrNumberRange, 4},
		{"a = 1E30", ErrNumberRange, 4},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lex := NewLexer(tt.input)
			var err error
			for err == nil {
				var tok Token
				tok, err = lex.Next()
				if tok.Kind == TokEOF && err == nil {
					t.Fatal("expected lexer error")
				}
			}
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.pos, se.Pos)
		})
	}
}
