// Package harness provides conformance testing for query schemas.
//
// A scenario seeds an in-memory SQLite store, loads a schema (or the shop
// fixture registry), and runs cases through the request façade. Each
// case's compiled predicate, WHERE clause, matching row ids, or error
// code is checked against its expectations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: ../schemas/shop.yaml   # optional, relative to this file
//	table: products                # optional
//	tables:
//	  - name: products
//	    columns:
//	      - { name: name, type: text }
//	      - { name: price, type: real }
//	    rows:
//	      - { name: Wool Socks, price: 12.5 }
//	cases:
//	  - name: precedence
//	    query: 'price > 10 or name: "socks"'
//	    filter: 'or(gt(price, 10), icontains(name, "socks"))'
//	    ids: [1]
//	  - name: structured
//	    values: { price: "10" }
//	    term: socks
//	    expect_query: 'price=10 and (name:"socks" or description:"socks")'
//	  - name: typo
//	    query: "colour = red"
//	    error: unknown_field
//
// # Expectations
//
//   - expect_query: the query string the request formats to
//   - filter: the predicate's String form
//   - sql: the compiled WHERE clause
//   - ids: matching row ids in id order
//   - error: a compiler.Code value
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory database with sequential
// request IDs, and every search orders by id, so results and golden
// snapshots are identical across runs.
package harness
