package schema

import (
	"context"
	"maps"
	"slices"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/querylang"
)

// Kind names the value type of a field. It selects the default operator
// map and value coercion.
type Kind string

const (
	KindText          Kind = "text"
	KindCaseSensitive Kind = "case_sensitive"
	KindChoice        Kind = "choice"
	KindBoolean       Kind = "boolean"
	KindInteger       Kind = "integer"
	KindNumber        Kind = "number"
	KindDate          Kind = "date"
	KindReference     Kind = "reference"
)

// OpMap maps a canonical, non-negated operator to a comparison kind.
type OpMap map[querylang.Operator]filter.Kind

// ValueFunc builds the leaf predicate for a statement on field f.
//
// The compiler calls it with a canonical, non-negated operator and a value
// that is never the null literal; negation and null checks are applied by
// the compiler around it. An unquoted identifier naming another field
// arrives as ir.FieldRef.
//
// Return ErrUnresolved (optionally wrapped with a reason) when the value
// cannot be resolved for this field. A nil predicate with a nil error is
// treated the same way.
type ValueFunc func(ctx context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error)

// Resolver maps a reference value to the key of the referenced row.
// It returns ErrUnresolved when no row matches.
type Resolver interface {
	Resolve(ctx context.Context, lookup Lookup, v ir.Value) (ir.Value, error)
}

// Lookup describes how a reference field finds its target row: the value
// typed by the user is matched against Table.Column and the row's Key is
// compared against the field's attribute.
type Lookup struct {
	Table    string
	Column   string
	Key      string
	Resolver Resolver
}

// Field is a named, typed, searchable attribute.
//
// Fields are built with the per-kind constructors (Text, Choice, Integer, ...)
// and become immutable once registered.
type Field struct {
	Name      string             // unique, case-insensitive
	Attr      string             // dotted backend path; empty = not filterable
	Kind      Kind               // value type
	DefaultOp querylang.Operator // operator used by the formatter
	Ops       OpMap              // operator → comparison kind
	Value     ValueFunc          // leaf predicate builder
	FreeText  bool               // matched by bare quoted strings
	Choices   []string           // allowed values (choice kind)
	Lookup    *Lookup            // reference target (reference kind)
}

// KindFor returns the comparison kind for op, accepting alias spellings.
func (f *Field) KindFor(op querylang.Operator) (filter.Kind, bool) {
	k, ok := f.Ops[op.Canonical()]
	return k, ok
}

// Filterable reports whether statements on f constrain anything.
func (f *Field) Filterable() bool {
	return f.Attr != ""
}

// clone returns a deep copy so a registered field cannot be changed
// through the caller's maps and slices.
func (f Field) clone() *Field {
	f.Ops = maps.Clone(f.Ops)
	f.Choices = slices.Clone(f.Choices)
	if f.Lookup != nil {
		l := *f.Lookup
		f.Lookup = &l
	}
	return &f
}

// Option customizes a field declaration.
type Option func(*Field)

// WithAttr sets the backend attribute path. The default is the field name.
func WithAttr(path string) Option {
	return func(f *Field) { f.Attr = path }
}

// WithoutAttr makes the field non-filterable: statements on it match
// everything.
func WithoutAttr() Option {
	return func(f *Field) { f.Attr = "" }
}

// AsFreeText includes the field in bare quoted-string clauses.
func AsFreeText() Option {
	return func(f *Field) { f.FreeText = true }
}

// WithDefaultOp sets the operator the formatter writes for this field.
func WithDefaultOp(op querylang.Operator) Option {
	return func(f *Field) { f.DefaultOp = op }
}

// WithOps overrides entries of the field's operator map. Other entries
// keep their kind defaults.
func WithOps(ops OpMap) Option {
	return func(f *Field) {
		for op, k := range ops {
			f.Ops[op] = k
		}
	}
}

// WithValueFunc replaces the kind's default value coercion.
func WithValueFunc(fn ValueFunc) Option {
	return func(f *Field) { f.Value = fn }
}

// baseOps is the default operator map: ordering comparisons plus
// case-insensitive equality and containment.
func baseOps() OpMap {
	return OpMap{
		querylang.OpGt:       filter.Gt,
		querylang.OpGte:      filter.Gte,
		querylang.OpLt:       filter.Lt,
		querylang.OpLte:      filter.Lte,
		querylang.OpEq:       filter.IExact,
		querylang.OpContains: filter.IContains,
	}
}

// orderedOps is the operator map for numbers and dates.
func orderedOps() OpMap {
	return OpMap{
		querylang.OpGt:  filter.Gt,
		querylang.OpGte: filter.Gte,
		querylang.OpLt:  filter.Lt,
		querylang.OpLte: filter.Lte,
		querylang.OpEq:  filter.Exact,
	}
}

func newField(name string, kind Kind, ops OpMap, value ValueFunc, opts []Option) Field {
	f := Field{
		Name:      name,
		Attr:      name,
		Kind:      kind,
		DefaultOp: querylang.OpEq,
		Ops:       ops,
		Value:     value,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// Text declares a case-insensitive text field: "=" is iexact, ":" is
// icontains.
func Text(name string, opts ...Option) Field {
	return newField(name, KindText, baseOps(), textValue, opts)
}

// CaseSensitive declares a text field whose "=" is exact and ":" is
// contains.
func CaseSensitive(name string, opts ...Option) Field {
	ops := baseOps()
	ops[querylang.OpEq] = filter.Exact
	ops[querylang.OpContains] = filter.Contains
	return newField(name, KindCaseSensitive, ops, textValue, opts)
}

// Choice declares a field whose value is one of choices. Values match
// choices case-insensitively and are rewritten to the declared spelling;
// anything else is unresolved.
func Choice(name string, choices []string, opts ...Option) Field {
	f := newField(name, KindChoice, baseOps(), choiceValue, opts)
	f.Choices = slices.Clone(choices)
	return f
}

// Boolean declares a boolean field. Values are parsed leniently: 1/0,
// true/false, yes/no, on/off.
func Boolean(name string, opts ...Option) Field {
	return newField(name, KindBoolean, OpMap{querylang.OpEq: filter.Exact}, booleanValue, opts)
}

// Integer declares an integer field.
func Integer(name string, opts ...Option) Field {
	return newField(name, KindInteger, orderedOps(), integerValue, opts)
}

// Number declares a numeric field accepting integers and reals.
func Number(name string, opts ...Option) Field {
	return newField(name, KindNumber, orderedOps(), numberValue, opts)
}

// Date declares a date field accepting YYYY-MM-DD values.
func Date(name string, opts ...Option) Field {
	return newField(name, KindDate, orderedOps(), dateValue, opts)
}

// Reference declares a field pointing at a row of another table. The
// typed value is resolved to the row's key through lookup.Resolver, and a
// missing row is unresolved. Only "=" (and its negation) is supported.
func Reference(name string, lookup Lookup, opts ...Option) Field {
	f := newField(name, KindReference, OpMap{querylang.OpEq: filter.Exact}, referenceValue, opts)
	f.Lookup = &lookup
	return f
}
