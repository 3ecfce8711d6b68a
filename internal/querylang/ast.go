package querylang

import (
	"strings"

	"github.com/roach88/sift/internal/ir"
)

// Operator is a comparison operator as written in the query.
type Operator string

const (
	OpGt          Operator = ">"
	OpGte         Operator = ">="
	OpGteAlt      Operator = "=>"
	OpLt          Operator = "<"
	OpLte         Operator = "<="
	OpLteAlt      Operator = "=<"
	OpEq          Operator = "="
	OpContains    Operator = ":"
	OpNotEq       Operator = "!="
	OpNotContains Operator = "!:"
)

// Operators lists every surface operator, longest spellings first so the
// lexer can match greedily.
var Operators = []Operator{
	OpGte, OpGteAlt, OpLte, OpLteAlt, OpNotEq, OpNotContains,
	OpGt, OpLt, OpEq, OpContains,
}

// Canonical folds the alias spellings => and =< into >= and <=.
func (o Operator) Canonical() Operator {
	switch o {
	case OpGteAlt:
		return OpGte
	case OpLteAlt:
		return OpLte
	default:
		return o
	}
}

// Split separates a negated operator into its base operator and a negate
// flag. The base operator is canonical.
//
//	"!=" → ("=", true)
//	"!:" → (":", true)
//	"=>" → (">=", false)
func (o Operator) Split() (Operator, bool) {
	switch o {
	case OpNotEq:
		return OpEq, true
	case OpNotContains:
		return OpContains, true
	default:
		return o.Canonical(), false
	}
}

// Valid reports whether o is one of the surface operators.
func (o Operator) Valid() bool {
	for _, op := range Operators {
		if op == o {
			return true
		}
	}
	return false
}

// Connective joins two terms.
type Connective int

const (
	And Connective = iota + 1
	Or
)

func (c Connective) String() string {
	switch c {
	case And:
		return "and"
	case Or:
		return "or"
	default:
		return "?"
	}
}

// Precedence returns the binding strength of c. And binds tighter than Or.
func (c Connective) Precedence() int {
	switch c {
	case And:
		return 3
	case Or:
		return 2
	default:
		return 0
	}
}

// Node is one element of an infix expression: a term or a connective.
//
// This is a sealed interface: *Statement, *FreeText, *Group and Connective
// are the only implementations, so compilers can switch exhaustively.
type Node interface {
	node()
}

// Statement is a binary clause: field operator value.
type Statement struct {
	Field string   // dotted identifier as written
	Op    Operator // surface operator, not canonicalized
	Value ir.Value // Ident, Text, Int, Float or Date
	Pos   int      // byte offset of the field name
}

// FreeText is a bare quoted string matched against all free-text fields.
type FreeText struct {
	Text string
	Pos  int
}

// Group is a parenthesized sub-expression.
type Group struct {
	Expr Expr
	Pos  int // byte offset of the opening parenthesis
}

func (*Statement) node() {}
func (*FreeText) node()  {}
func (*Group) node()     {}
func (Connective) node() {}

// Expr is an infix sequence where terms and connectives strictly
// alternate: term (connective term)*.
type Expr []Node

// Terms returns the terms of e in order.
func (e Expr) Terms() []Node {
	terms := make([]Node, 0, (len(e)+1)/2)
	for _, n := range e {
		if _, ok := n.(Connective); !ok {
			terms = append(terms, n)
		}
	}
	return terms
}

// Query is a parsed query. The zero Query is empty and matches everything.
type Query struct {
	Expr Expr
}

// Empty reports whether the query has no clauses.
func (q Query) Empty() bool {
	return len(q.Expr) == 0
}

// String renders the query canonically: keywords lowercased, single spaces
// around connectives, no spaces around operators.
func (q Query) String() string {
	var sb strings.Builder
	writeExpr(&sb, q.Expr)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	for i, n := range e {
		if i > 0 {
			sb.WriteByte(' ')
		}
		switch node := n.(type) {
		case *Statement:
			sb.WriteString(node.Field)
			sb.WriteString(string(node.Op))
			sb.WriteString(literal(node.Value))
		case *FreeText:
			sb.WriteString(`"` + node.Text + `"`)
		case *Group:
			sb.WriteByte('(')
			writeExpr(sb, node.Expr)
			sb.WriteByte(')')
		case Connective:
			sb.WriteString(node.String())
		}
	}
}

// literal spells a parsed value the way it appeared. Text is re-quoted
// verbatim; the lexer guarantees it holds no double quote.
func literal(v ir.Value) string {
	if t, ok := v.(ir.Text); ok {
		return `"` + string(t) + `"`
	}
	return ir.String(v)
}
