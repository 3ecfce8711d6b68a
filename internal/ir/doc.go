// Package ir provides the literal value types shared by the query parser,
// the compiler, the predicate tree and the backends.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This ensures ir remains the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Value is sealed; exhaustive type switches are expected in callers
//   - Quoted text (Text) and bare identifiers (Ident) are distinct types,
//     because an unquoted identifier may name another field
//   - Dates are kept as parsed triples until the compiler validates them
//   - Every value carries one canonical query-string spelling (Render)
package ir
