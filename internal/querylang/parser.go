package querylang

import (
	"strings"

	"github.com/roach88/sift/internal/ir"
)

// MaxDepth bounds parenthesis nesting so untrusted input cannot drive the
// recursive-descent parser or the compiler arbitrarily deep.
const MaxDepth = 64

// Parser parses a query string into a parse tree. It knows nothing about
// registered fields; resolving names is the compiler's job.
//
// Grammar (EBNF):
//
//	query      = where_expr EOF
//	where_expr = where_term ( connective where_term )*
//	connective = "and" | "or"
//	where_term = "(" where_expr ")" | binary_stmt | freetext
//	binary_stmt = IDENT OP value
//	freetext   = STRING
//	value      = DATE | FLOAT | INT | IDENT | STRING
//
// Connectives are kept in source order; precedence (and over or) is
// applied by the compiler.
type parser struct {
	input string
	lex   *Lexer
	cur   Token
	depth int
}

// Parse parses a query string. Empty or whitespace-only input yields an
// empty Query, which matches everything.
func Parse(input string) (Query, error) {
	if strings.TrimSpace(input) == "" {
		return Query{}, nil
	}

	p := &parser{input: input, lex: NewLexer(input)}

	// Prime the parser with the first token.
	if err := p.advance(); err != nil {
		return Query{}, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return Query{}, err
	}

	// Ensure we consumed all input.
	switch p.cur.Kind {
	case TokEOF:
	case TokRParen:
		return Query{}, p.errorf(ErrUnmatchedParen, "unmatched closing parenthesis")
	default:
		return Query{}, p.errorf(ErrUnexpectedToken, "unexpected %s after end of expression", describe(p.cur))
	}

	return Query{Expr: expr}, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// static query definitions.
func MustParse(input string) Query {
	q, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return q
}

// advance moves to the next token.
func (p *parser) advance() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

// parseExpr parses: where_expr = where_term ( connective where_term )*
func (p *parser) parseExpr() (Expr, error) {
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	expr := Expr{term}

	for p.cur.Kind == TokAnd || p.cur.Kind == TokOr {
		conn := And
		if p.cur.Kind == TokOr {
			conn = Or
		}
		if err := p.advance(); err != nil {
			return nil, err
		}

		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr = append(expr, conn, term)
	}

	return expr, nil
}

// parseTerm parses: where_term = "(" where_expr ")" | binary_stmt | freetext
func (p *parser) parseTerm() (Node, error) {
	switch p.cur.Kind {
	case TokLParen:
		return p.parseGroup()

	case TokString:
		node := &FreeText{Text: p.cur.Lit, Pos: p.cur.Pos}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return node, nil

	case TokIdent:
		return p.parseStatement()

	case TokEOF:
		return nil, p.errorf(ErrUnexpectedEOF, "expected a clause")

	default:
		return nil, p.errorf(ErrUnexpectedToken, "expected a clause, got %s", describe(p.cur))
	}
}

// parseGroup parses "(" where_expr ")".
func (p *parser) parseGroup() (Node, error) {
	open := p.cur.Pos
	p.depth++
	if p.depth > MaxDepth {
		return nil, p.errorf(ErrTooDeep, "more than %d nested parentheses", MaxDepth)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case TokRParen:
	case TokEOF:
		return nil, newSyntaxError(p.input, open, ErrUnmatchedParen, "unclosed parenthesis")
	default:
		return nil, p.errorf(ErrUnexpectedToken, "expected ), got %s", describe(p.cur))
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	p.depth--

	return &Group{Expr: expr, Pos: open}, nil
}

// parseStatement parses: binary_stmt = IDENT OP value
func (p *parser) parseStatement() (Node, error) {
	stmt := &Statement{Field: p.cur.Lit, Pos: p.cur.Pos}
	if err := p.advance(); err != nil {
		return nil, err
	}

	switch p.cur.Kind {
	case TokOp:
		stmt.Op = Operator(p.cur.Lit)
	case TokEOF:
		return nil, p.errorf(ErrUnexpectedEOF, "expected operator after %s", stmt.Field)
	default:
		return nil, p.errorf(ErrUnexpectedToken, "expected operator after %s, got %s", stmt.Field, describe(p.cur))
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	stmt.Value = value
	return stmt, nil
}

// parseValue parses: value = DATE | FLOAT | INT | IDENT | STRING
// The keywords and/or are accepted as bare identifiers in value position.
func (p *parser) parseValue() (ir.Value, error) {
	var v ir.Value
	switch p.cur.Kind {
	case TokDate, TokFloat, TokInt:
		v = p.cur.Value
	case TokIdent, TokAnd, TokOr:
		v = ir.Ident(p.cur.Lit)
	case TokString:
		v = ir.Text(p.cur.Lit)
	case TokEOF:
		return nil, p.errorf(ErrUnexpectedEOF, "expected a value")
	default:
		return nil, p.errorf(ErrUnexpectedToken, "expected a value, got %s", describe(p.cur))
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *parser) errorf(err error, msgFmt string, args ...any) *SyntaxError {
	return newSyntaxError(p.input, p.cur.Pos, err, msgFmt, args...)
}

// describe names a token for error messages.
func describe(tok Token) string {
	switch tok.Kind {
	case TokEOF:
		return "end of query"
	case TokString:
		return `"` + tok.Lit + `"`
	default:
		return tok.Lit
	}
}
