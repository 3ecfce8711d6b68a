package compiler

import (
	"fmt"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/querylang"
)

// item is an infix element after its terms are compiled: either an
// operand predicate or a connective.
type item struct {
	pred filter.Predicate
	conn querylang.Connective
}

func (it item) isOperator() bool {
	return it.conn != 0
}

// toRPN reorders an infix sequence into reverse Polish notation using the
// shunting-yard algorithm. All connectives are left-associative.
func toRPN(infix []item) []item {
	out := make([]item, 0, len(infix))
	var ops []item
	for _, it := range infix {
		if !it.isOperator() {
			out = append(out, it)
			continue
		}
		for len(ops) > 0 && ops[len(ops)-1].conn.Precedence() >= it.conn.Precedence() {
			out = append(out, ops[len(ops)-1])
			ops = ops[:len(ops)-1]
		}
		ops = append(ops, it)
	}
	for i := len(ops) - 1; i >= 0; i-- {
		out = append(out, ops[i])
	}
	return out
}

// evalRPN folds an RPN sequence into a single predicate, combining
// operands pairwise.
func evalRPN(rpn []item) (filter.Predicate, error) {
	var stack []filter.Predicate
	for _, it := range rpn {
		if !it.isOperator() {
			stack = append(stack, it.pred)
			continue
		}
		if len(stack) < 2 {
			return nil, fmt.Errorf("connective %s is missing an operand", it.conn)
		}
		left, right := stack[len(stack)-2], stack[len(stack)-1]
		stack = stack[:len(stack)-2]
		switch it.conn {
		case querylang.And:
			stack = append(stack, filter.NewAnd(left, right))
		case querylang.Or:
			stack = append(stack, filter.NewOr(left, right))
		default:
			return nil, fmt.Errorf("unknown connective %d", it.conn)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("expression reduced to %d operands", len(stack))
	}
	return stack[0], nil
}
