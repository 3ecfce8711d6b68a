package querylang

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/sift/internal/ir"
)

// TokenKind identifies the type of lexical token.
type TokenKind int

const (
	TokEOF    TokenKind = iota
	TokIdent            // identifier, dotted segments joined
	TokString           // double-quoted string (quotes stripped, no escapes)
	TokInt              // integer with optional exponent
	TokFloat            // real number
	TokDate             // YYYY-MM-DD triple
	TokOp               // comparison operator
	TokLParen           // (
	TokRParen           // )
	TokAnd              // AND (case-insensitive)
	TokOr               // OR (case-insensitive)
)

func (k TokenKind) String() string {
	switch k {
	case TokEOF:
		return "EOF"
	case TokIdent:
		return "IDENT"
	case TokString:
		return "STRING"
	case TokInt:
		return "INT"
	case TokFloat:
		return "FLOAT"
	case TokDate:
		return "DATE"
	case TokOp:
		return "OP"
	case TokLParen:
		return "("
	case TokRParen:
		return ")"
	case TokAnd:
		return "AND"
	case TokOr:
		return "OR"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Lit   string   // source text; for strings the unquoted content
	Value ir.Value // literal value for INT, FLOAT and DATE tokens
	Pos   int      // byte offset in input for error reporting
}

// Lexer tokenizes a query string.
type Lexer struct {
	input string
	pos   int // current position in input
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Kind: TokEOF, Pos: l.pos}, nil
	}

	startPos := l.pos
	ch := l.input[l.pos]

	switch {
	case ch == '(':
		l.pos++
		return Token{Kind: TokLParen, Lit: "(", Pos: startPos}, nil
	case ch == ')':
		l.pos++
		return Token{Kind: TokRParen, Lit: ")", Pos: startPos}, nil
	case ch == '"':
		return l.scanString()
	case isLetter(ch):
		return l.scanIdent(), nil
	case isDigit(ch) || l.startsNumber():
		return l.scanNumber()
	}

	for _, op := range Operators {
		if strings.HasPrefix(l.input[l.pos:], string(op)) {
			l.pos += len(op)
			return Token{Kind: TokOp, Lit: string(op), Pos: startPos}, nil
		}
	}

	return Token{}, newSyntaxError(l.input, startPos, ErrUnexpectedChar, "unexpected character %q", ch)
}

// skipWhitespace advances past whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			l.pos++
		} else {
			break
		}
	}
}

// scanString scans a double-quoted string. There are no escape sequences:
// the first closing quote ends the string.
func (l *Lexer) scanString() (Token, error) {
	startPos := l.pos
	end := strings.IndexByte(l.input[l.pos+1:], '"')
	if end < 0 {
		return Token{}, newSyntaxError(l.input, startPos, ErrUnterminatedString, "unterminated string")
	}
	lit := l.input[l.pos+1 : l.pos+1+end]
	l.pos += end + 2
	return Token{Kind: TokString, Lit: lit, Pos: startPos}, nil
}

// scanIdent scans an identifier and any adjacent dotted segments. A lone
// "and" or "or" (any case) is returned as a keyword.
func (l *Lexer) scanIdent() Token {
	startPos := l.pos
	for {
		l.pos++ // first char is a letter
		for l.pos < len(l.input) && isIdentChar(l.input[l.pos]) {
			l.pos++
		}
		if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isLetter(l.input[l.pos+1]) {
			l.pos++
			continue
		}
		break
	}

	lit := l.input[startPos:l.pos]
	switch strings.ToLower(lit) {
	case "and":
		return Token{Kind: TokAnd, Lit: lit, Pos: startPos}
	case "or":
		return Token{Kind: TokOr, Lit: lit, Pos: startPos}
	}
	return Token{Kind: TokIdent, Lit: lit, Pos: startPos}
}

// startsNumber reports whether a sign or a leading dot at the current
// position begins a number.
func (l *Lexer) startsNumber() bool {
	i := l.pos
	if c := l.input[i]; c == '+' || c == '-' {
		i++
	}
	if i < len(l.input) && isDigit(l.input[i]) {
		return i > l.pos
	}
	return i+1 < len(l.input) && l.input[i] == '.' && isDigit(l.input[i+1])
}

// scanNumber scans a date, real number or integer, in that order of
// preference.
//
//	date    = digits "-" digits "-" digits
//	real    = [sign] ( digits "." [digits] | "." digits ) [exponent]
//	integer = [sign] digits [ ("e"|"E") ["+"] digits ]
func (l *Lexer) scanNumber() (Token, error) {
	startPos := l.pos

	if tok, ok := l.scanDate(); ok {
		return tok, nil
	}

	i := l.pos
	if c := l.input[i]; c == '+' || c == '-' {
		i++
	}
	i = l.skipDigits(i)
	isReal := false
	if i < len(l.input) && l.input[i] == '.' {
		isReal = true
		i = l.skipDigits(i + 1)
	}

	mantissaEnd := i
	expStart, expEnd := -1, -1
	if i < len(l.input) && (l.input[i] == 'e' || l.input[i] == 'E') {
		j := i + 1
		if j < len(l.input) && (l.input[j] == '+' || (isReal && l.input[j] == '-')) {
			j++
		}
		if k := l.skipDigits(j); k > j {
			expStart, expEnd = j, k
			i = k
		}
	}

	lit := l.input[startPos:i]
	l.pos = i

	if isReal {
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return Token{}, newSyntaxError(l.input, startPos, ErrNumberRange, "number %s out of range", lit)
		}
		return Token{Kind: TokFloat, Lit: lit, Value: ir.Float(f), Pos: startPos}, nil
	}

	n, err := strconv.ParseInt(strings.TrimPrefix(l.input[startPos:mantissaEnd], "+"), 10, 64)
	if err == nil && expStart >= 0 {
		n, err = scaleInt(n, l.input[expStart:expEnd])
	}
	if err != nil {
		return Token{}, newSyntaxError(l.input, startPos, ErrNumberRange, "number %s out of range", lit)
	}
	return Token{Kind: TokInt, Lit: lit, Value: ir.Int(n), Pos: startPos}, nil
}

// scanDate scans digits-digits-digits at the current position.
func (l *Lexer) scanDate() (Token, bool) {
	var parts [3]int
	i := l.pos
	for p := 0; p < 3; p++ {
		if p > 0 {
			if i >= len(l.input) || l.input[i] != '-' {
				return Token{}, false
			}
			i++
		}
		j := l.skipDigits(i)
		if j == i {
			return Token{}, false
		}
		n, err := strconv.Atoi(l.input[i:j])
		if err != nil {
			return Token{}, false
		}
		parts[p] = n
		i = j
	}

	startPos := l.pos
	l.pos = i
	return Token{
		Kind:  TokDate,
		Lit:   l.input[startPos:i],
		Value: ir.Date{Year: parts[0], Month: parts[1], Day: parts[2]},
		Pos:   startPos,
	}, true
}

func (l *Lexer) skipDigits(i int) int {
	for i < len(l.input) && isDigit(l.input[i]) {
		i++
	}
	return i
}

var errOverflow = errors.New("overflow")

// scaleInt computes n * 10^exp exactly, failing on int64 overflow.
func scaleInt(n int64, exp string) (int64, error) {
	e, err := strconv.Atoi(exp)
	if err != nil {
		return 0, err
	}
	for ; e > 0 && n != 0; e-- {
		if n > math.MaxInt64/10 || n < math.MinInt64/10 {
			return 0, errOverflow
		}
		n *= 10
	}
	return n, nil
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isIdentChar reports whether ch may continue an identifier segment.
func isIdentChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch) || ch == '_' || ch == '$' || ch == '-'
}
