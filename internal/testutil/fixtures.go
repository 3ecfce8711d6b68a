package testutil

import (
	"context"
	"strings"

	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/schema"
)

// ShopFields declares the product catalogue used across the test suite.
//
//	name, description  free-text (description is stored in "body")
//	price, cost        numbers, so price > cost compares two columns
//	qty                integer
//	color, state       choices
//	active             boolean
//	added              date
//	sku                case-sensitive text
//	vendor             reference to vendors.name, stored in "vendor_id"
//	label              display only, no attribute
func ShopFields(resolver schema.Resolver) []schema.Field {
	return []schema.Field{
		schema.Text("name", schema.AsFreeText()),
		schema.Text("description", schema.WithAttr("body"), schema.AsFreeText()),
		schema.Number("price"),
		schema.Number("cost"),
		schema.Integer("qty"),
		schema.Choice("color", []string{"red", "blue", "green", "black"}),
		schema.Choice("state", []string{"new", "used", "refurbished"}),
		schema.Boolean("active"),
		schema.Date("added"),
		schema.CaseSensitive("sku"),
		schema.Reference("vendor", schema.Lookup{
			Table:    "vendors",
			Column:   "name",
			Key:      "id",
			Resolver: resolver,
		}, schema.WithAttr("vendor_id")),
		schema.Text("label", schema.WithoutAttr()),
	}
}

// ShopRegistry builds the fixture registry. A nil resolver uses Vendors.
func ShopRegistry(resolver schema.Resolver) *schema.Registry {
	if resolver == nil {
		resolver = Vendors
	}
	return schema.MustRegistry(ShopFields(resolver)...)
}

// StaticResolver resolves reference values from an in-memory table keyed
// by lowercased name.
type StaticResolver map[string]ir.Value

// Resolve implements schema.Resolver.
func (r StaticResolver) Resolve(_ context.Context, _ schema.Lookup, v ir.Value) (ir.Value, error) {
	var name string
	switch val := v.(type) {
	case ir.Text:
		name = string(val)
	case ir.Ident:
		name = string(val)
	default:
		s, err := ir.Render(v)
		if err != nil {
			return nil, schema.ErrUnresolved
		}
		name = s
	}
	key, ok := r[strings.ToLower(name)]
	if !ok {
		return nil, schema.ErrUnresolved
	}
	return key, nil
}

// Vendors mirrors the vendors table seeded by the conformance scenarios.
var Vendors = StaticResolver{
	"acme":    ir.Int(1),
	"globex":  ir.Int(2),
	"initech": ir.Int(3),
}
