package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrUnquotable is returned when a text value cannot be rendered as a query
// literal because it contains a double quote. The query language has no
// escape sequences.
var ErrUnquotable = errors.New("text contains a double quote and cannot be quoted")

// Value is a sealed interface representing the literal values that flow
// from the parser through the compiler into predicates.
// Only the types in this file implement it.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Null represents an absent value.
type Null struct{}

func (Null) irValue() {}

// Text represents a quoted string literal with the quotes stripped.
type Text string

func (Text) irValue() {}

// Ident represents a bare (unquoted) identifier in value position.
// The compiler decides whether it names another field, the null literal,
// or plain text.
type Ident string

func (Ident) irValue() {}

// Int represents an integer literal.
type Int int64

func (Int) irValue() {}

// Float represents a real number literal.
type Float float64

func (Float) irValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) irValue() {}

// Date represents a YYYY-MM-DD literal. The triple is kept as parsed;
// call Valid before treating it as a calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (Date) irValue() {}

// Valid reports whether the triple names a real calendar date.
func (d Date) Valid() bool {
	if d.Year < 1 || d.Year > 9999 || d.Month < 1 || d.Month > 12 || d.Day < 1 {
		return false
	}
	t := d.Time()
	return t.Year() == d.Year && int(t.Month()) == d.Month && t.Day() == d.Day
}

// Time returns the date at midnight UTC. Invalid triples are normalized
// by time.Date, so check Valid first.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// String returns the ISO form YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// FieldRef refers to another field's backend attribute. It is produced
// when a bare identifier in value position names a registered field.
type FieldRef struct {
	Attr string
}

func (FieldRef) irValue() {}

// ParseDate parses a YYYY-MM-DD string into a valid Date.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || p == "" || p[0] == '+' || p[0] == '-' {
			return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
		}
		nums[i] = n
	}
	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if !d.Valid() {
		return Date{}, fmt.Errorf("invalid date %q: not a calendar date", s)
	}
	return d, nil
}

// IsEmpty reports whether v carries no value: nil, Null, or empty Text.
func IsEmpty(v Value) bool {
	switch val := v.(type) {
	case nil:
		return true
	case Null:
		return true
	case Text:
		return val == ""
	default:
		return false
	}
}

// Render returns the canonical query-language spelling of v.
//
// Rendering rules:
//   - Bool renders as 1 or 0
//   - Int renders as decimal
//   - Float renders as shortest decimal and always re-lexes as a real number
//   - Date renders bare as YYYY-MM-DD so it re-lexes as a date
//   - Text renders double-quoted; embedded quotes fail with ErrUnquotable
//   - Ident renders bare, Null renders as null
//
// FieldRef has no literal spelling and returns an error.
func Render(v Value) (string, error) {
	switch val := v.(type) {
	case Bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case Int:
		return strconv.FormatInt(int64(val), 10), nil
	case Float:
		return renderFloat(float64(val))
	case Date:
		return val.String(), nil
	case Text:
		return Quote(string(val))
	case Ident:
		return string(val), nil
	case Null:
		return "null", nil
	case FieldRef:
		return "", fmt.Errorf("field reference %q has no literal form", val.Attr)
	default:
		return "", fmt.Errorf("unknown Value type: %T", v)
	}
}

// Quote wraps s in double quotes.
func Quote(s string) (string, error) {
	if strings.ContainsRune(s, '"') {
		return "", fmt.Errorf("%w: %s", ErrUnquotable, s)
	}
	return `"` + s + `"`, nil
}

func renderFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("float %v has no literal form", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s, nil
	}
	// 1e+21 would re-lex as an integer with exponent
	if i := strings.IndexByte(s, 'e'); i >= 0 {
		return s[:i] + ".0" + s[i:], nil
	}
	return s + ".0", nil
}

// String returns a debug spelling of v used in predicate rendering and
// error messages. Unlike Render it never fails.
func String(v Value) string {
	switch val := v.(type) {
	case nil:
		return "<nil>"
	case Text:
		return strconv.Quote(string(val))
	case FieldRef:
		return "F(" + val.Attr + ")"
	case Float:
		s, err := renderFloat(float64(val))
		if err != nil {
			return fmt.Sprint(float64(val))
		}
		return s
	default:
		s, err := Render(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return s
	}
}

// Native converts v to the plain Go value a database driver or JSON
// encoder expects. Dates become ISO strings; FieldRef has no native form.
func Native(v Value) (any, error) {
	switch val := v.(type) {
	case Null:
		return nil, nil
	case Text:
		return string(val), nil
	case Ident:
		return string(val), nil
	case Int:
		return int64(val), nil
	case Float:
		return float64(val), nil
	case Bool:
		return bool(val), nil
	case Date:
		return val.String(), nil
	case FieldRef:
		return nil, fmt.Errorf("field reference %q has no native value", val.Attr)
	default:
		return nil, fmt.Errorf("unsupported Value type: %T", v)
	}
}

// FromNative converts a decoded YAML/JSON/SQL value to a Value.
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case string:
		return Text(val), nil
	case []byte:
		return Text(string(val)), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case float64:
		return Float(val), nil
	case bool:
		return Bool(val), nil
	case time.Time:
		return Date{Year: val.Year(), Month: int(val.Month()), Day: val.Day()}, nil
	default:
		return nil, fmt.Errorf("unsupported native type: %T", v)
	}
}

// MarshalValue marshals a Value to JSON bytes.
// Uses type-switch dispatch; FieldRef marshals as {"field": attr}.
func MarshalValue(v Value) ([]byte, error) {
	if ref, ok := v.(FieldRef); ok {
		return json.Marshal(map[string]string{"field": ref.Attr})
	}
	native, err := Native(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(native)
}
