package filter

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationResult contains the structural problems found in a predicate.
//
// The compiler builds well-formed trees on its own, but leaves come from
// field value functions supplied by the host, so every leaf is checked
// before it is spliced into a larger tree.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems lists each defect with its path from the root,
	// e.g. "and.left.not: nil predicate".
	Problems []string
}

// Err returns nil for a valid result, otherwise an error listing every problem.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(strings.Join(r.Problems, "; "))
}

// Validate checks that p is a well-formed predicate tree:
//  1. No nil predicates anywhere in the tree
//  2. Every Compare has an attribute, a known kind and a value
//  3. Every IsNull has an attribute
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate("root", p)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

// addProblem appends a problem message.
func (v *validator) addProblem(path, format string, args ...any) {
	v.problems = append(v.problems, path+": "+fmt.Sprintf(format, args...))
}

// validate recursively validates a predicate node.
func (v *validator) validate(path string, p Predicate) {
	if p == nil {
		v.addProblem(path, "nil predicate")
		return
	}

	switch pred := p.(type) {
	case Compare:
		if pred.Attr == "" {
			v.addProblem(path, "comparison without attribute")
		}
		if !pred.Kind.Valid() {
			v.addProblem(path, "unknown comparison kind %q", pred.Kind)
		}
		if pred.Value == nil {
			v.addProblem(path, "comparison on %q without value", pred.Attr)
		}
	case IsNull:
		if pred.Attr == "" {
			v.addProblem(path, "null check without attribute")
		}
	case And:
		v.validate(path+".and.left", pred.Left)
		v.validate(path+".and.right", pred.Right)
	case Or:
		v.validate(path+".or.left", pred.Left)
		v.validate(path+".or.right", pred.Right)
	case Not:
		v.validate(path+".not", pred.Inner)
	case All:
	default:
		v.addProblem(path, "unknown predicate type %T", p)
	}
}
