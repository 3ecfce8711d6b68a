package filter

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/sift/internal/ir"
)

// Kind is a backend comparison kind, the target of a field's operator map.
type Kind string

const (
	Exact     Kind = "exact"     // case-sensitive equality
	IExact    Kind = "iexact"    // case-insensitive equality
	Contains  Kind = "contains"  // case-sensitive substring
	IContains Kind = "icontains" // case-insensitive substring
	Gt        Kind = "gt"
	Gte       Kind = "gte"
	Lt        Kind = "lt"
	Lte       Kind = "lte"
)

// Kinds lists every comparison kind.
var Kinds = []Kind{Exact, IExact, Contains, IContains, Gt, Gte, Lt, Lte}

// Valid reports whether k is a known comparison kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if known == k {
			return true
		}
	}
	return false
}

// Predicate represents a boolean filter condition.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
	String() string
}

// Compare represents a field-level comparison.
//
// Semantics:
//
//	<attr> <kind> <value>
//
// Value is any ir.Value; an ir.FieldRef compares against another
// attribute instead of a literal.
type Compare struct {
	Attr  string   // dotted backend attribute path
	Kind  Kind     // comparison kind
	Value ir.Value // literal or field reference
}

func (Compare) predicateNode() {}

func (c Compare) String() string {
	return fmt.Sprintf("%s(%s, %s)", c.Kind, c.Attr, ir.String(c.Value))
}

// IsNull matches rows where the attribute is absent.
type IsNull struct {
	Attr string
}

func (IsNull) predicateNode() {}

func (n IsNull) String() string {
	return fmt.Sprintf("isnull(%s)", n.Attr)
}

// And is true when both sides are true.
type And struct {
	Left  Predicate
	Right Predicate
}

func (And) predicateNode() {}

func (a And) String() string {
	return fmt.Sprintf("and(%s, %s)", str(a.Left), str(a.Right))
}

// Or is true when either side is true.
type Or struct {
	Left  Predicate
	Right Predicate
}

func (Or) predicateNode() {}

func (o Or) String() string {
	return fmt.Sprintf("or(%s, %s)", str(o.Left), str(o.Right))
}

// Not is the logical complement of Inner.
type Not struct {
	Inner Predicate
}

func (Not) predicateNode() {}

func (n Not) String() string {
	return fmt.Sprintf("not(%s)", str(n.Inner))
}

// All matches everything. It is the result of compiling an empty query.
type All struct{}

func (All) predicateNode() {}

func (All) String() string {
	return "all()"
}

// NewAnd combines two predicates with AND.
func NewAnd(left, right Predicate) Predicate {
	return And{Left: left, Right: right}
}

// NewOr combines two predicates with OR.
func NewOr(left, right Predicate) Predicate {
	return Or{Left: left, Right: right}
}

// NewNot negates a predicate.
func NewNot(inner Predicate) Predicate {
	return Not{Inner: inner}
}

func str(p Predicate) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}

// Walk calls fn for p and every predicate beneath it, depth-first,
// left to right. Nil children are skipped.
func Walk(p Predicate, fn func(Predicate)) {
	if p == nil {
		return
	}
	fn(p)
	switch pred := p.(type) {
	case And:
		Walk(pred.Left, fn)
		Walk(pred.Right, fn)
	case Or:
		Walk(pred.Left, fn)
		Walk(pred.Right, fn)
	case Not:
		Walk(pred.Inner, fn)
	}
}

// Attrs returns every attribute referenced by p, including field
// references on the value side, in first-seen order without duplicates.
func Attrs(p Predicate) []string {
	var attrs []string
	seen := make(map[string]bool)
	add := func(a string) {
		if !seen[a] {
			seen[a] = true
			attrs = append(attrs, a)
		}
	}
	Walk(p, func(node Predicate) {
		switch n := node.(type) {
		case Compare:
			add(n.Attr)
			if ref, ok := n.Value.(ir.FieldRef); ok {
				add(ref.Attr)
			}
		case IsNull:
			add(n.Attr)
		}
	})
	return attrs
}

// Marshal encodes p as JSON:
//
//	{"op":"and","args":[{"op":"gt","attr":"price","value":10}, ...]}
func Marshal(p Predicate) ([]byte, error) {
	node, err := toJSON(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

type jsonNode struct {
	Op    string          `json:"op"`
	Attr  string          `json:"attr,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Args  []jsonNode      `json:"args,omitempty"`
}

func toJSON(p Predicate) (jsonNode, error) {
	switch pred := p.(type) {
	case Compare:
		raw, err := ir.MarshalValue(pred.Value)
		if err != nil {
			return jsonNode{}, fmt.Errorf("marshal %s: %w", pred.Attr, err)
		}
		return jsonNode{Op: string(pred.Kind), Attr: pred.Attr, Value: raw}, nil
	case IsNull:
		return jsonNode{Op: "isnull", Attr: pred.Attr}, nil
	case And:
		return binaryJSON("and", pred.Left, pred.Right)
	case Or:
		return binaryJSON("or", pred.Left, pred.Right)
	case Not:
		inner, err := toJSON(pred.Inner)
		if err != nil {
			return jsonNode{}, err
		}
		return jsonNode{Op: "not", Args: []jsonNode{inner}}, nil
	case All:
		return jsonNode{Op: "all"}, nil
	default:
		return jsonNode{}, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func binaryJSON(op string, left, right Predicate) (jsonNode, error) {
	l, err := toJSON(left)
	if err != nil {
		return jsonNode{}, err
	}
	r, err := toJSON(right)
	if err != nil {
		return jsonNode{}, err
	}
	return jsonNode{Op: op, Args: []jsonNode{l, r}}, nil
}
