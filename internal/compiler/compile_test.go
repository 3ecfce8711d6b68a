package compiler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/querylang"
	"github.com/roach88/sift/internal/schema"
	"github.com/roach88/sift/internal/testutil"
)

func compileString(t *testing.T, reg *schema.Registry, input string) string {
	t.Helper()
	pred, err := Compile(context.Background(), reg, input)
	require.NoError(t, err, "query: %s", input)
	return pred.String()
}

func TestCompile_EndToEnd(t *testing.T) {
	reg := testutil.ShopRegistry(nil)
	got := compileString(t, reg, `price > 10 and (name: "socks" or price < 2)`)
	assert.Equal(t, `and(gt(price, 10), or(icontains(name, "socks"), lt(price, 2)))`, got)
}

func TestCompile_Precedence(t *testing.T) {
	reg := testutil.ShopRegistry(nil)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			"and binds tighter than or (right)",
			"price > 1 or price < 5 and qty = 3",
			"or(gt(price, 1), and(lt(price, 5), exact(qty, 3)))",
		},
		{
			"and binds tighter than or (left)",
			"price > 1 and price < 5 or qty = 3",
			"or(and(gt(price, 1), lt(price, 5)), exact(qty, 3))",
		},
		{
			"explicit grouping",
			"(price > 1 or price < 5) and qty = 3",
			"and(or(gt(price, 1), lt(price, 5)), exact(qty, 3))",
		},
		{
			"or is left associative",
			"qty = 1 or qty = 2 or qty = 3",
			"or(or(exact(qty, 1), exact(qty, 2)), exact(qty, 3))",
		},
		{
			"and is left associative",
			"qty = 1 and qty = 2 and qty = 3",
			"and(and(exact(qty, 1), exact(qty, 2)), exact(qty, 3))",
		},
		{
			"mixed chain",
			"qty = 1 or qty = 2 and qty = 3 or qty = 4",
			"or(or(exact(qty, 1), and(exact(qty, 2), exact(qty, 3))), exact(qty, 4))",
		},
		{
			"nested groups",
			"((qty = 1))",
			"exact(qty, 1)",
		},
		{
			"group on the right",
			"qty = 1 and (qty = 2 or (qty = 3 and qty = 4))",
			"and(exact(qty, 1), or(exact(qty, 2), and(exact(qty, 3), exact(qty, 4))))",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compileString(t, reg, tt.query))
		})
	}
}

func TestCompile_Statements(t *testing.T) {
	reg := testutil.ShopRegistry(nil)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"empty", "", "all()"},
		{"whitespace", "  \t ", "all()"},
		{"not equal", "color != red", `not(iexact(color, "red"))`},
		{"not contains", `name !: "x"`, `not(icontains(name, "x"))`},
		{"null literal", "price = null", "isnull(price)"},
		{"negated null", "price != NULL", "not(isnull(price))"},
		{"null ignores operator", "price > null", "isnull(price)"},
		{"null on any kind", "active : null", "isnull(active)"},
		{"quoted null is text", `name = "null"`, `iexact(name, "null")`},
		{"case-insensitive field", "PRICE > 10", "gt(price, 10)"},
		{"case-insensitive keyword", "price > 1 AnD qty < 2", "and(gt(price, 1), lt(qty, 2))"},
		{"alias gte", "price => 3", "gte(price, 3)"},
		{"alias lte", "price =< 3", "lte(price, 3)"},
		{"field reference", "price > cost", "gt(price, F(cost))"},
		{"field reference uses attr", "name = description", "iexact(name, F(body))"},
		{"field without attr is not a reference", "name = label", `iexact(name, "label")`},
		{"quoted field name is literal", `name = "cost"`, `iexact(name, "cost")`},
		{"field without attr matches all", "label = anything", "all()"},
		{"keyword as value", "name = and", `iexact(name, "and")`},
		{"date", "added > 2024-01-31", "gt(added, 2024-01-31)"},
		{"reference", "vendor = ACME", "exact(vendor_id, 1)"},
		{"negated reference", `vendor != "globex"`, "not(exact(vendor_id, 2))"},
		{"boolean", "active = yes", "exact(active, 1)"},
		{"choice", "color = RED", `iexact(color, "red")`},
		{"case-sensitive", `sku: "AB"`, `contains(sku, "AB")`},
		{"exponent", "price > 1e3", "gt(price, 1000)"},
		{"leading dot", "price < .5", "lt(price, 0.5)"},
		{"negative", "price > -2", "gt(price, -2)"},
		{"no whitespace", "PRICE>=10", "gte(price, 10)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, compileString(t, reg, tt.query))
		})
	}
}

func TestCompile_FreeText(t *testing.T) {
	reg := testutil.ShopRegistry(nil)

	got := compileString(t, reg, `"socks"`)
	assert.Equal(t, `or(icontains(name, "socks"), icontains(body, "socks"))`, got)

	got = compileString(t, reg, `"socks" and price < 5`)
	assert.Equal(t, `and(or(icontains(name, "socks"), icontains(body, "socks")), lt(price, 5))`, got)

	single := schema.MustRegistry(schema.CaseSensitive("code", schema.AsFreeText()))
	assert.Equal(t, `contains(code, "AB")`, compileString(t, single, `"AB"`))

	none := schema.MustRegistry(schema.Number("price"))
	_, err := Compile(context.Background(), none, `"socks"`)
	var ce *schema.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, schema.ErrCodeNoFreeTextFields, ce.Code)
	assert.Equal(t, CodeConfiguration, Code(err))
}

func TestCompile_NegationIsComplement(t *testing.T) {
	reg := testutil.ShopRegistry(nil)
	ctx := context.Background()

	pairs := [][2]string{
		{"color = red", "color != red"},
		{`name: "x"`, `name !: "x"`},
		{"price = null", "price != null"},
		{"vendor = acme", "vendor != acme"},
	}
	for _, pair := range pairs {
		pos, err := Compile(ctx, reg, pair[0])
		require.NoError(t, err)
		neg, err := Compile(ctx, reg, pair[1])
		require.NoError(t, err)
		assert.Equal(t, filter.Not{Inner: pos}, neg, pair[1])
	}
}

func TestCompile_Errors(t *testing.T) {
	reg := testutil.ShopRegistry(nil)

	tests := []struct {
		name  string
		query string
		code  string
		msg   string
	}{
		{"unknown field", "bogus = 1", CodeUnknownField, `unknown field "bogus" at position 0`},
		{"unknown field later", "price > 1 and Bogus = 2", CodeUnknownField, `unknown field "Bogus" at position 14`},
		{"unknown field in value position is text", "name = bogus", "", ""},
		{"missing reference", "vendor = umbrella", CodeUnresolvedValue, `unknown value "umbrella" for field "vendor"`},
		{"unknown choice", "color = purple", CodeUnresolvedValue, `unknown value "purple" for field "color": value could not be resolved: want one of red, blue, green, black`},
		{"invalid date", "added = 2023-02-30", CodeUnresolvedValue, `unknown value "2023-02-30" for field "added": value could not be resolved: invalid date`},
		{"bad integer", "qty = many", CodeUnresolvedValue, ""},
		{"unsupported operator", "price : 3", CodeUnsupportedOperator, `field "price" does not support operator ":" at position 0`},
		{"unsupported negated operator", "active !: 1", CodeUnsupportedOperator, `field "active" does not support operator "!:" at position 0`},
		{"syntax", "price >", CodeSyntax, ""},
		{"unbalanced", "(price > 1", CodeSyntax, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := Compile(context.Background(), reg, tt.query)
			if tt.code == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Nil(t, pred)
			assert.Equal(t, tt.code, Code(err))
			if tt.msg != "" {
				assert.Equal(t, tt.msg, err.Error())
			}
		})
	}
}

func TestCompile_UnresolvedErrorDetails(t *testing.T) {
	reg := testutil.ShopRegistry(nil)
	_, err := Compile(context.Background(), reg, "vendor = umbrella")

	var ue *UnresolvedValueError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "vendor", ue.Field)
	assert.Equal(t, ir.Ident("umbrella"), ue.Value)
	assert.ErrorIs(t, err, schema.ErrUnresolved)
}

func TestCompile_UnknownFieldDetails(t *testing.T) {
	reg := testutil.ShopRegistry(nil)
	_, err := Compile(context.Background(), reg, "(price > 1) or nope = 1")

	var ue *schema.UnknownFieldError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "nope", ue.Name)
	assert.Equal(t, 15, ue.Pos)
}

func TestCompile_CustomValueFuncs(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	tests := []struct {
		name string
		fn   schema.ValueFunc
		code string
	}{
		{
			"nil predicate is unresolved",
			func(context.Context, *schema.Field, querylang.Operator, ir.Value) (filter.Predicate, error) {
				return nil, nil
			},
			CodeUnresolvedValue,
		},
		{
			"malformed predicate is a configuration error",
			func(_ context.Context, f *schema.Field, _ querylang.Operator, v ir.Value) (filter.Predicate, error) {
				return filter.Compare{Attr: f.Attr, Value: v}, nil
			},
			CodeConfiguration,
		},
		{
			"nil child is a configuration error",
			func(context.Context, *schema.Field, querylang.Operator, ir.Value) (filter.Predicate, error) {
				return filter.Not{}, nil
			},
			CodeConfiguration,
		},
		{
			"other errors are wrapped",
			func(context.Context, *schema.Field, querylang.Operator, ir.Value) (filter.Predicate, error) {
				return nil, boom
			},
			CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := schema.MustRegistry(schema.Text("x", schema.WithValueFunc(tt.fn)))
			_, err := Compile(ctx, reg, "x = 1")
			require.Error(t, err)
			assert.Equal(t, tt.code, Code(err))
		})
	}

	reg := schema.MustRegistry(schema.Text("x", schema.WithValueFunc(
		func(context.Context, *schema.Field, querylang.Operator, ir.Value) (filter.Predicate, error) {
			return nil, boom
		})))
	_, err := Compile(ctx, reg, "x = 1")
	assert.ErrorIs(t, err, boom)
}

func TestCompile_ValueFuncSeesCanonicalOperator(t *testing.T) {
	var seen []querylang.Operator
	reg := schema.MustRegistry(schema.Number("n", schema.WithValueFunc(
		func(_ context.Context, f *schema.Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
			seen = append(seen, op)
			kind, _ := f.KindFor(op)
			return filter.Compare{Attr: f.Attr, Kind: kind, Value: v}, nil
		})))

	for _, q := range []string{"n => 1", "n =< 1", "n != 1", "n = 1"} {
		_, err := Compile(context.Background(), reg, q)
		require.NoError(t, err)
	}
	assert.Equal(t, []querylang.Operator{querylang.OpGte, querylang.OpLte, querylang.OpEq, querylang.OpEq}, seen)
}

func TestCompile_ContextReachesResolver(t *testing.T) {
	type key struct{}
	var got any
	resolver := resolverFunc(func(ctx context.Context, _ schema.Lookup, _ ir.Value) (ir.Value, error) {
		got = ctx.Value(key{})
		return ir.Int(9), nil
	})
	reg := testutil.ShopRegistry(resolver)

	ctx := context.WithValue(context.Background(), key{}, "marker")
	pred, err := Compile(ctx, reg, "vendor = anyone")
	require.NoError(t, err)
	assert.Equal(t, "exact(vendor_id, 9)", pred.String())
	assert.Equal(t, "marker", got)
}

func TestCompileQuery_Empty(t *testing.T) {
	pred, err := CompileQuery(context.Background(), testutil.ShopRegistry(nil), querylang.Query{})
	require.NoError(t, err)
	assert.Equal(t, filter.All{}, pred)
}

func TestCompile_ConcurrentReaders(t *testing.T) {
	reg := testutil.ShopRegistry(nil)
	const want = `and(gt(price, 10), or(icontains(name, "socks"), lt(price, 2)))`

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pred, err := Compile(context.Background(), reg, `PRICE > 10 and (Name: "socks" or price < 2)`)
			if err != nil {
				errs <- err
				return
			}
			if pred.String() != want {
				errs <- errors.New(pred.String())
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestCode(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, CodeInvalidValue, Code(ir.ErrUnquotable))
	assert.Equal(t, CodeUnresolvedValue, Code(schema.ErrUnresolved))
	assert.Equal(t, CodeConfiguration, Code(&schema.DuplicateFieldError{Name: "a", Existing: "A"}))
	assert.Equal(t, CodeInternal, Code(errors.New("other")))
}

type resolverFunc func(ctx context.Context, lookup schema.Lookup, v ir.Value) (ir.Value, error)

func (f resolverFunc) Resolve(ctx context.Context, lookup schema.Lookup, v ir.Value) (ir.Value, error) {
	return f(ctx, lookup, v)
}
