// Package compiler turns query text into a filter.Predicate using a
// schema.Registry.
//
// Compilation resolves field names, handles the null literal, negation and
// field-to-field references, expands free-text clauses across the
// registry's free-text fields, and applies connective precedence (and
// binds tighter than or) with a shunting-yard pass.
//
// The compiler has no state of its own and never logs. A context is
// threaded through so field value functions can perform lookups.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/querylang"
	"github.com/roach88/sift/internal/schema"
)

// Compile parses and compiles input against reg.
//
// Errors are *querylang.SyntaxError, *schema.UnknownFieldError,
// *UnresolvedValueError, *UnsupportedOperatorError or
// *schema.ConfigurationError; Code maps them to stable strings.
func Compile(ctx context.Context, reg *schema.Registry, input string) (filter.Predicate, error) {
	q, err := querylang.Parse(input)
	if err != nil {
		return nil, err
	}
	return CompileQuery(ctx, reg, q)
}

// CompileQuery compiles an already parsed query. An empty query matches
// everything.
func CompileQuery(ctx context.Context, reg *schema.Registry, q querylang.Query) (filter.Predicate, error) {
	if q.Empty() {
		return filter.All{}, nil
	}
	c := &compiler{ctx: ctx, reg: reg}
	return c.expr(q.Expr)
}

type compiler struct {
	ctx context.Context
	reg *schema.Registry
}

func (c *compiler) expr(e querylang.Expr) (filter.Predicate, error) {
	infix := make([]item, 0, len(e))
	for _, n := range e {
		if conn, ok := n.(querylang.Connective); ok {
			infix = append(infix, item{conn: conn})
			continue
		}
		pred, err := c.term(n)
		if err != nil {
			return nil, err
		}
		infix = append(infix, item{pred: pred})
	}

	if len(infix) == 1 {
		return infix[0].pred, nil
	}
	return evalRPN(toRPN(infix))
}

func (c *compiler) term(n querylang.Node) (filter.Predicate, error) {
	switch node := n.(type) {
	case *querylang.Statement:
		return c.statement(node)
	case *querylang.FreeText:
		return c.freeText(node)
	case *querylang.Group:
		return c.expr(node.Expr)
	default:
		return nil, fmt.Errorf("unexpected node %T", n)
	}
}

func (c *compiler) statement(s *querylang.Statement) (filter.Predicate, error) {
	f, ok := c.reg.Lookup(s.Field)
	if !ok {
		return nil, &schema.UnknownFieldError{Name: s.Field, Pos: s.Pos}
	}
	op, negate := s.Op.Split()

	value := s.Value
	if id, ok := value.(ir.Ident); ok {
		if ref, ok := c.reg.Lookup(string(id)); ok && ref.Filterable() {
			value = ir.FieldRef{Attr: ref.Attr}
		}
	}

	if id, ok := value.(ir.Ident); ok && strings.EqualFold(string(id), "null") {
		if !f.Filterable() {
			return filter.All{}, nil
		}
		return negated(filter.IsNull{Attr: f.Attr}, negate), nil
	}

	if d, ok := value.(ir.Date); ok && !d.Valid() {
		return nil, &UnresolvedValueError{
			Field: f.Name,
			Value: value,
			Err:   fmt.Errorf("%w: invalid date", schema.ErrUnresolved),
		}
	}

	if _, ok := f.KindFor(op); !ok {
		return nil, &UnsupportedOperatorError{Field: f.Name, Op: s.Op, Pos: s.Pos}
	}

	if !f.Filterable() {
		return filter.All{}, nil
	}

	leaf, err := f.Value(c.ctx, f, op, value)
	switch {
	case errors.Is(err, schema.ErrUnresolved):
		return nil, &UnresolvedValueError{Field: f.Name, Value: value, Err: err}
	case err != nil:
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	case leaf == nil:
		return nil, &UnresolvedValueError{Field: f.Name, Value: value}
	}

	if res := filter.Validate(leaf); !res.Valid {
		return nil, schema.NewConfigurationError(schema.ErrCodeMalformedPredicate, f.Name,
			"value function built a malformed predicate: %s", strings.Join(res.Problems, "; "))
	}
	return negated(leaf, negate), nil
}

// freeText expands a bare quoted string into an OR over the free-text
// fields, left-folded in declaration order.
func (c *compiler) freeText(ft *querylang.FreeText) (filter.Predicate, error) {
	fields := c.reg.FreeTextFields()
	if len(fields) == 0 {
		return nil, schema.NewConfigurationError(schema.ErrCodeNoFreeTextFields, "",
			"free-text clause %q at position %d but no free-text fields are registered", ft.Text, ft.Pos)
	}

	var pred filter.Predicate
	for _, f := range fields {
		kind, _ := f.KindFor(querylang.OpContains)
		leaf := filter.Compare{Attr: f.Attr, Kind: kind, Value: ir.Text(ft.Text)}
		if pred == nil {
			pred = leaf
		} else {
			pred = filter.NewOr(pred, leaf)
		}
	}
	return pred, nil
}

func negated(p filter.Predicate, negate bool) filter.Predicate {
	if negate {
		return filter.NewNot(p)
	}
	return p
}
