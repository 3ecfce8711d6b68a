// Package schema declares the searchable fields of a query language
// instance.
//
// A Field ties a user-facing name to a backend attribute, a value kind, an
// operator map and a value function. Fields are declared with one
// constructor per kind and functional options:
//
//	reg, err := schema.NewRegistry(
//		schema.Text("name", schema.AsFreeText()),
//		schema.Number("price"),
//		schema.Choice("state", []string{"new", "used"}),
//		schema.Reference("vendor", schema.Lookup{
//			Table: "vendors", Column: "name", Key: "id", Resolver: st,
//		}, schema.WithAttr("vendor_id")),
//	)
//
// Registries may also be loaded from YAML or CUE files with LoadFile.
//
// Names are matched case-insensitively (Unicode case folding). A Registry
// is immutable after NewRegistry returns.
package schema
