// Package querylang implements the syntax of the filter query language.
//
// A query is a sequence of clauses joined by "and"/"or" (case-insensitive),
// where parentheses group sub-expressions:
//
//	price > 10 and (name: "socks" or price < 2)
//
// A clause is either a binary statement (identifier, operator, value) or a
// bare quoted string that is matched against every free-text field.
//
// This package is pure syntax. It produces a parse tree (Query) without
// consulting any field registry; see package compiler for name resolution
// and predicate construction.
package querylang
