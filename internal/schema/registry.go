package schema

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/sift/internal/querylang"
)

// Registry is an immutable, ordered set of fields keyed by case-folded
// name. It is safe for concurrent use once built; the *Field values it
// returns must not be modified.
type Registry struct {
	fields []*Field
	byKey  map[string]*Field
}

// Fold returns the case-folded, NFC-normalized key used for
// case-insensitive name and value matching.
// Casers are not safe for concurrent use, so one is built per call.
func Fold(s string) string {
	return norm.NFC.String(cases.Fold().String(s))
}

// NewRegistry validates the declarations and builds a Registry. Fields
// keep their declaration order.
func NewRegistry(fields ...Field) (*Registry, error) {
	r := &Registry{
		fields: make([]*Field, 0, len(fields)),
		byKey:  make(map[string]*Field, len(fields)),
	}
	for i := range fields {
		f := fields[i].clone()
		if err := validateField(f); err != nil {
			return nil, err
		}
		key := Fold(f.Name)
		if existing, ok := r.byKey[key]; ok {
			return nil, &DuplicateFieldError{Name: f.Name, Existing: existing.Name}
		}
		r.byKey[key] = f
		r.fields = append(r.fields, f)
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Intended for tests
// and static schemas.
func MustRegistry(fields ...Field) *Registry {
	r, err := NewRegistry(fields...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup finds a field by name, case-insensitively.
func (r *Registry) Lookup(name string) (*Field, bool) {
	f, ok := r.byKey[Fold(name)]
	return f, ok
}

// Fields returns all fields in declaration order.
func (r *Registry) Fields() []*Field {
	out := make([]*Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// FreeTextFields returns the fields matched by bare quoted strings, in
// declaration order.
func (r *Registry) FreeTextFields() []*Field {
	var out []*Field
	for _, f := range r.fields {
		if f.FreeText {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.fields)
}

func validateField(f *Field) error {
	if f.Name == "" {
		return NewConfigurationError(ErrCodeEmptyName, "", "field name is required")
	}
	if !validName(f.Name) {
		return NewConfigurationError(ErrCodeInvalidName, f.Name, "name must be an identifier: a letter followed by letters, digits, _, $ or -, with dotted segments")
	}
	if f.Value == nil {
		return NewConfigurationError(ErrCodeNoValueFunc, f.Name, "no value function")
	}

	for op, kind := range f.Ops {
		if !op.Valid() {
			return NewConfigurationError(ErrCodeInvalidOpMap, f.Name, "unknown operator %q", op)
		}
		if base, negated := op.Split(); negated || base != op {
			return NewConfigurationError(ErrCodeInvalidOpMap, f.Name, "operator %q must be given in canonical, non-negated form", op)
		}
		if !kind.Valid() {
			return NewConfigurationError(ErrCodeInvalidOpMap, f.Name, "unknown comparison kind %q for operator %q", kind, op)
		}
	}

	if base, _ := f.DefaultOp.Split(); !f.DefaultOp.Valid() || f.Ops[base] == "" {
		return NewConfigurationError(ErrCodeInvalidDefaultOp, f.Name, "default operator %q is not supported by the field", f.DefaultOp)
	}

	if f.FreeText {
		if !f.Filterable() {
			return NewConfigurationError(ErrCodeFreeTextNoAttr, f.Name, "free-text field needs an attribute")
		}
		if _, ok := f.Ops[querylang.OpContains]; !ok {
			return NewConfigurationError(ErrCodeFreeTextNoContains, f.Name, "free-text field must support %q", querylang.OpContains)
		}
	}

	switch f.Kind {
	case KindChoice:
		if len(f.Choices) == 0 {
			return NewConfigurationError(ErrCodeChoiceNoChoices, f.Name, "choice field has no choices")
		}
	case KindReference:
		if f.Lookup == nil || f.Lookup.Resolver == nil {
			return NewConfigurationError(ErrCodeReferenceNoLookup, f.Name, "reference field has no resolver")
		}
	}
	return nil
}

// validName reports whether name lexes as a single query identifier.
func validName(name string) bool {
	tok, err := querylang.NewLexer(name).Next()
	if err != nil || tok.Kind != querylang.TokIdent || tok.Lit != name {
		return false
	}
	return true
}
