package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/ir"
)

func TestPredicateSealed(t *testing.T) {
	// Verify all types implement Predicate (compile-time check via assignment)
	var _ Predicate = Compare{}
	var _ Predicate = IsNull{}
	var _ Predicate = And{}
	var _ Predicate = Or{}
	var _ Predicate = Not{}
	var _ Predicate = All{}
}

func TestPredicateString(t *testing.T) {
	p := NewAnd(
		Compare{Attr: "price", Kind: Gt, Value: ir.Int(10)},
		NewOr(
			Compare{Attr: "name", Kind: IContains, Value: ir.Text("socks")},
			Compare{Attr: "price", Kind: Lt, Value: ir.Int(2)},
		),
	)
	assert.Equal(t, `and(gt(price, 10), or(icontains(name, "socks"), lt(price, 2)))`, p.String())

	assert.Equal(t, "not(isnull(price))", NewNot(IsNull{Attr: "price"}).String())
	assert.Equal(t, "gte(price, F(cost))", Compare{Attr: "price", Kind: Gte, Value: ir.FieldRef{Attr: "cost"}}.String())
	assert.Equal(t, "all()", All{}.String())
	assert.Equal(t, "and(<nil>, all())", And{Right: All{}}.String())
}

func TestKindValid(t *testing.T) {
	for _, k := range Kinds {
		assert.True(t, k.Valid())
	}
	assert.False(t, Kind("regex").Valid())
}

func TestAttrs(t *testing.T) {
	p := NewOr(
		NewAnd(
			Compare{Attr: "price", Kind: Gt, Value: ir.FieldRef{Attr: "cost"}},
			NewNot(IsNull{Attr: "name"}),
		),
		Compare{Attr: "price", Kind: Lt, Value: ir.Int(1)},
	)
	assert.Equal(t, []string{"price", "cost", "name"}, Attrs(p))
	assert.Empty(t, Attrs(All{}))
}

func TestWalkOrder(t *testing.T) {
	p := NewAnd(IsNull{Attr: "a"}, NewNot(IsNull{Attr: "b"}))
	var seen []string
	Walk(p, func(n Predicate) { seen = append(seen, n.String()) })
	assert.Equal(t, []string{
		"and(isnull(a), not(isnull(b)))",
		"isnull(a)",
		"not(isnull(b))",
		"isnull(b)",
	}, seen)
}

func TestMarshal(t *testing.T) {
	p := NewAnd(
		Compare{Attr: "price", Kind: Gt, Value: ir.Int(10)},
		NewNot(Compare{Attr: "price", Kind: Lte, Value: ir.FieldRef{Attr: "cost"}}),
	)
	b, err := Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"op": "and",
		"args": [
			{"op": "gt", "attr": "price", "value": 10},
			{"op": "not", "args": [{"op": "lte", "attr": "price", "value": {"field": "cost"}}]}
		]
	}`, string(b))

	b, err = Marshal(All{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":"all"}`, string(b))
}
