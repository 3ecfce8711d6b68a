// Package format renders structured search values as a canonical query
// string that the compiler accepts.
//
// Structured input and hand-written queries therefore share one code
// path: format, then compile.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/querylang"
	"github.com/roach88/sift/internal/schema"
)

// ReservedTerm is the parameter name carrying free text. A field with this
// name is never emitted as a clause.
const ReservedTerm = "term"

// Format builds a query string from per-field values, a free-text term and
// an advanced query.
//
// A non-blank advanced query is returned verbatim. Otherwise each
// non-empty value emits name + DefaultOp + literal, walking fields in
// declaration order, followed by a free-text clause over every free-text
// field:
//
//	price=10 and color="red" and (name:"socks" or description:"socks")
//
// Clauses are joined with " and ". No input yields "".
func Format(reg *schema.Registry, values map[string]ir.Value, freetext, advanced string) (string, error) {
	if strings.TrimSpace(advanced) != "" {
		return advanced, nil
	}

	byField, err := bindValues(reg, values)
	if err != nil {
		return "", err
	}

	var clauses []string
	for _, f := range reg.Fields() {
		if schema.Fold(f.Name) == ReservedTerm {
			continue
		}
		v := byField[f]
		if ir.IsEmpty(v) {
			continue
		}
		lit, err := ir.Render(v)
		if err != nil {
			return "", fmt.Errorf("field %q: %w", f.Name, err)
		}
		clauses = append(clauses, f.Name+string(f.DefaultOp)+lit)
	}

	if strings.TrimSpace(freetext) != "" {
		clause, err := freeTextClause(reg, freetext)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	return strings.Join(clauses, " and "), nil
}

// bindValues matches value keys to fields case-insensitively.
func bindValues(reg *schema.Registry, values map[string]ir.Value) (map[*schema.Field]ir.Value, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	byField := make(map[*schema.Field]ir.Value, len(values))
	seen := make(map[*schema.Field]string, len(values))
	for _, k := range keys {
		if schema.Fold(k) == ReservedTerm {
			continue
		}
		f, ok := reg.Lookup(k)
		if !ok {
			return nil, &schema.UnknownFieldError{Name: k, Pos: -1}
		}
		if prev, dup := seen[f]; dup {
			return nil, fmt.Errorf("field %q given twice (%q and %q)", f.Name, prev, k)
		}
		seen[f] = k
		byField[f] = values[k]
	}
	return byField, nil
}

// freeTextClause builds (f1:"text" or f2:"text").
func freeTextClause(reg *schema.Registry, text string) (string, error) {
	fields := reg.FreeTextFields()
	if len(fields) == 0 {
		return "", schema.NewConfigurationError(schema.ErrCodeNoFreeTextFields, "",
			"free-text term %q but no free-text fields are registered", text)
	}
	quoted, err := ir.Quote(text)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.Name + string(querylang.OpContains) + quoted
	}
	return "(" + strings.Join(parts, " or ") + ")", nil
}
