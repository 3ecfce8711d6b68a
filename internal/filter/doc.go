// Package filter provides the backend-neutral predicate tree produced by
// the query compiler.
//
// The predicate tree is the abstraction boundary between the query language
// and storage backends:
//
//	[query string] → [parse tree] → [filter.Predicate] → [SQL backend]
//	                                                   → [other backends]
//
// The core never executes a predicate and never inspects one after it is
// built; backends walk the tree and translate it.
//
// SEALED INTERFACE:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package implement it, which enables exhaustive type
// switches in backends:
//
//	switch p := pred.(type) {
//	case filter.Compare:
//	case filter.IsNull:
//	case filter.And:
//	case filter.Or:
//	case filter.Not:
//	case filter.All:
//	}
//
// COMPOSITION:
//
// And and Or are binary, mirroring the pairwise reduction the compiler
// performs. All is the identity "match everything" predicate produced by an
// empty query.
//
// Every predicate has a stable String form, e.g.
//
//	and(gt(price, 10), or(icontains(name, "socks"), lt(price, 2)))
//
// which tests use as a distinguishable stand-in for backend objects.
package filter
