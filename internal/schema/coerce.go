package schema

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/querylang"
)

// compare builds Compare{f.Attr, Ops[op], v}.
func compare(f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	kind, ok := f.KindFor(op)
	if !ok {
		return nil, fmt.Errorf("field %q does not support operator %q", f.Name, op)
	}
	return filter.Compare{Attr: f.Attr, Kind: kind, Value: v}, nil
}

// textOf returns the textual spelling of a literal. FieldRef and Null
// have none.
func textOf(v ir.Value) (string, bool) {
	switch val := v.(type) {
	case ir.Text:
		return string(val), true
	case ir.Ident:
		return string(val), true
	case ir.Int, ir.Float, ir.Date, ir.Bool:
		s, err := ir.Render(val)
		return s, err == nil
	default:
		return "", false
	}
}

func unresolved(reason string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnresolved, fmt.Sprintf(reason, args...))
}

// textValue compares text as written; numbers and dates typed into a text
// field compare by their spelling.
func textValue(_ context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	if ref, ok := v.(ir.FieldRef); ok {
		return compare(f, op, ref)
	}
	s, ok := textOf(v)
	if !ok {
		return nil, unresolved("%s is not text", ir.String(v))
	}
	return compare(f, op, ir.Text(s))
}

func choiceValue(_ context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	if ref, ok := v.(ir.FieldRef); ok {
		return compare(f, op, ref)
	}
	s, ok := textOf(v)
	if !ok {
		return nil, unresolved("%s is not a choice", ir.String(v))
	}
	key := Fold(s)
	for _, c := range f.Choices {
		if Fold(c) == key {
			return compare(f, op, ir.Text(c))
		}
	}
	return nil, unresolved("want one of %s", strings.Join(f.Choices, ", "))
}

// ParseBool parses the lenient boolean spellings accepted by boolean
// fields.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true, true
	case "0", "false", "f", "no", "n", "off":
		return false, true
	}
	return false, false
}

func booleanValue(_ context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	switch val := v.(type) {
	case ir.FieldRef:
		return compare(f, op, val)
	case ir.Bool:
		return compare(f, op, val)
	case ir.Int:
		if val == 0 || val == 1 {
			return compare(f, op, ir.Bool(val == 1))
		}
	case ir.Text, ir.Ident:
		s, _ := textOf(val)
		if b, ok := ParseBool(s); ok {
			return compare(f, op, ir.Bool(b))
		}
	}
	return nil, unresolved("%s is not a boolean", ir.String(v))
}

func integerValue(_ context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	switch val := v.(type) {
	case ir.FieldRef:
		return compare(f, op, val)
	case ir.Int:
		return compare(f, op, val)
	case ir.Float:
		if fv := float64(val); fv == math.Trunc(fv) && math.Abs(fv) < 1<<63 {
			return compare(f, op, ir.Int(int64(fv)))
		}
	case ir.Text, ir.Ident:
		s, _ := textOf(val)
		if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return compare(f, op, ir.Int(n))
		}
	}
	return nil, unresolved("%s is not an integer", ir.String(v))
}

func numberValue(_ context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	switch val := v.(type) {
	case ir.FieldRef, ir.Int, ir.Float:
		return compare(f, op, val)
	case ir.Text, ir.Ident:
		s, _ := textOf(val)
		s = strings.TrimSpace(s)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return compare(f, op, ir.Int(n))
		}
		if x, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(x, 0) && !math.IsNaN(x) {
			return compare(f, op, ir.Float(x))
		}
	}
	return nil, unresolved("%s is not a number", ir.String(v))
}

func dateValue(_ context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	switch val := v.(type) {
	case ir.FieldRef:
		return compare(f, op, val)
	case ir.Date:
		if val.Valid() {
			return compare(f, op, val)
		}
		return nil, unresolved("invalid date %s", val)
	case ir.Text, ir.Ident:
		s, _ := textOf(val)
		d, err := ir.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnresolved, err)
		}
		return compare(f, op, d)
	}
	return nil, unresolved("%s is not a date", ir.String(v))
}

func referenceValue(ctx context.Context, f *Field, op querylang.Operator, v ir.Value) (filter.Predicate, error) {
	if ref, ok := v.(ir.FieldRef); ok {
		return compare(f, op, ref)
	}
	if f.Lookup == nil || f.Lookup.Resolver == nil {
		return nil, NewConfigurationError(ErrCodeReferenceNoLookup, f.Name, "reference field has no resolver")
	}
	if id, ok := v.(ir.Ident); ok {
		v = ir.Text(id)
	}
	key, err := f.Lookup.Resolver.Resolve(ctx, *f.Lookup, v)
	if err != nil {
		return nil, err
	}
	return compare(f, op, key)
}
