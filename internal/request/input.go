package request

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/sift/internal/format"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/schema"
)

// Reserved parameter names.
const (
	ParamAdvanced = "query"
	ParamFreeText = format.ReservedTerm
)

// Input is raw search input as submitted by a form or query string.
type Input struct {
	Advanced string            // hand-written query; wins when non-blank
	FreeText string            // free-text term
	Values   map[string]string // field name → raw value
}

// InputFromValues reads the reserved "query" and "term" parameters and
// treats every other key as a field value. Only the first value of a
// repeated key is used.
func InputFromValues(v url.Values) Input {
	in := Input{
		Advanced: v.Get(ParamAdvanced),
		FreeText: v.Get(ParamFreeText),
		Values:   make(map[string]string, len(v)),
	}
	for key := range v {
		if key == ParamAdvanced || key == ParamFreeText {
			continue
		}
		in.Values[key] = v.Get(key)
	}
	return in
}

// IsAdvanced reports whether the advanced query takes precedence.
func (in Input) IsAdvanced() bool {
	return strings.TrimSpace(in.Advanced) != ""
}

// FieldValueError reports a raw form value that cannot be converted to
// its field's kind.
type FieldValueError struct {
	Field string
	Raw   string
	Err   error
}

// Error implements the error interface.
func (e *FieldValueError) Error() string {
	return fmt.Sprintf("invalid value %q for field %q: %v", e.Raw, e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *FieldValueError) Unwrap() error {
	return e.Err
}

// coerceValues converts raw strings to typed values per field kind. Blank
// values become ir.Null and are skipped by the formatter.
func coerceValues(reg *schema.Registry, raw map[string]string) (map[string]ir.Value, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make(map[string]ir.Value, len(raw))
	for _, k := range keys {
		if k == ParamAdvanced || k == ParamFreeText {
			continue
		}
		f, ok := reg.Lookup(k)
		if !ok {
			return nil, &schema.UnknownFieldError{Name: k, Pos: -1}
		}
		v, err := coerce(f, raw[k])
		if err != nil {
			return nil, &FieldValueError{Field: f.Name, Raw: raw[k], Err: err}
		}
		values[k] = v
	}
	return values, nil
}

func coerce(f *schema.Field, raw string) (ir.Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ir.Null{}, nil
	}

	switch f.Kind {
	case schema.KindBoolean:
		b, ok := schema.ParseBool(s)
		if !ok {
			return nil, fmt.Errorf("%w: not a boolean", schema.ErrUnresolved)
		}
		return ir.Bool(b), nil

	case schema.KindInteger:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: not an integer", schema.ErrUnresolved)
		}
		return ir.Int(n), nil

	case schema.KindNumber:
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return ir.Int(n), nil
		}
		x, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("%w: not a number", schema.ErrUnresolved)
		}
		return ir.Float(x), nil

	case schema.KindDate:
		d, err := ir.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", schema.ErrUnresolved, err)
		}
		return d, nil

	case schema.KindChoice:
		key := schema.Fold(s)
		for _, c := range f.Choices {
			if schema.Fold(c) == key {
				return ir.Text(c), nil
			}
		}
		return nil, fmt.Errorf("%w: want one of %s", schema.ErrUnresolved, strings.Join(f.Choices, ", "))

	default:
		return ir.Text(s), nil
	}
}
