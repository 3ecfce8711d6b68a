package schema

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/querylang"
)

// Declaration is the file form of a schema.
type Declaration struct {
	Table  string      `yaml:"table"`
	Fields []FieldDecl `yaml:"fields"`
}

// FieldDecl declares one field. A nil Attr defaults to the field name; an
// explicit empty Attr makes the field non-filterable.
type FieldDecl struct {
	Name      string            `yaml:"name"`
	Kind      Kind              `yaml:"kind"`
	Attr      *string           `yaml:"attr"`
	DefaultOp string            `yaml:"default_op"`
	FreeText  bool              `yaml:"freetext"`
	Choices   []string          `yaml:"choices"`
	Ops       map[string]string `yaml:"ops"`
	Lookup    *LookupDecl       `yaml:"lookup"`
}

// LookupDecl is the file form of Lookup.
type LookupDecl struct {
	Table  string `yaml:"table"`
	Column string `yaml:"column"`
	Key    string `yaml:"key"`
}

// Schema is a loaded schema file: the registry plus the backend table it
// describes.
type Schema struct {
	Table    string
	Registry *Registry
}

// LoadFile reads a .yaml, .yml or .cue schema file and builds its
// registry. Reference fields resolve through resolver.
func LoadFile(path string, resolver Resolver) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigurationError(ErrCodeSchemaFile, "", "read schema: %v", err)
	}
	decl, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	reg, err := Build(decl, resolver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Schema{Table: decl.Table, Registry: reg}, nil
}

// Parse decodes a schema declaration, choosing the format from the file
// extension of name.
func Parse(data []byte, name string) (*Declaration, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, name)
	default:
		return nil, NewConfigurationError(ErrCodeSchemaFile, "", "unsupported schema file %q: want .yaml, .yml or .cue", name)
	}
}

// ParseYAML decodes a YAML schema declaration. Unknown keys are rejected.
func ParseYAML(data []byte) (*Declaration, error) {
	var decl Declaration
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&decl); err != nil {
		return nil, NewConfigurationError(ErrCodeSchemaFile, "", "parse YAML: %v", err)
	}
	return &decl, nil
}

// ParseCUE decodes a CUE schema declaration:
//
//	table: "products"
//	fields: {
//		name: {kind: "text", freetext: true}
//		price: {kind: "number"}
//		state: {kind: "choice", choices: ["new", "used"]}
//	}
//
// Field order follows the struct's declaration order.
func ParseCUE(data []byte, filename string) (*Declaration, error) {
	v := cuecontext.New().CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	decl := &Declaration{}
	table, _, err := cueString(v, "table")
	if err != nil {
		return nil, err
	}
	decl.Table = table

	fieldsVal := v.LookupPath(cue.ParsePath("fields"))
	if !fieldsVal.Exists() {
		return decl, nil
	}
	iter, err := fieldsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		fd, err := parseCUEField(label(iter), iter.Value())
		if err != nil {
			return nil, err
		}
		decl.Fields = append(decl.Fields, fd)
	}
	return decl, nil
}

func parseCUEField(name string, v cue.Value) (FieldDecl, error) {
	fd := FieldDecl{Name: name}

	kind, _, err := cueString(v, "kind")
	if err != nil {
		return fd, err
	}
	fd.Kind = Kind(kind)

	if attr, ok, err := cueString(v, "attr"); err != nil {
		return fd, err
	} else if ok {
		fd.Attr = &attr
	}

	if fd.DefaultOp, _, err = cueString(v, "default_op"); err != nil {
		return fd, err
	}

	if ft := v.LookupPath(cue.ParsePath("freetext")); ft.Exists() {
		b, err := ft.Bool()
		if err != nil {
			return fd, formatCUEError(err)
		}
		fd.FreeText = b
	}

	if choices := v.LookupPath(cue.ParsePath("choices")); choices.Exists() {
		list, err := choices.List()
		if err != nil {
			return fd, formatCUEError(err)
		}
		for list.Next() {
			s, err := list.Value().String()
			if err != nil {
				return fd, formatCUEError(err)
			}
			fd.Choices = append(fd.Choices, s)
		}
	}

	if ops := v.LookupPath(cue.ParsePath("ops")); ops.Exists() {
		iter, err := ops.Fields()
		if err != nil {
			return fd, formatCUEError(err)
		}
		fd.Ops = make(map[string]string)
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return fd, formatCUEError(err)
			}
			fd.Ops[label(iter)] = s
		}
	}

	if lookup := v.LookupPath(cue.ParsePath("lookup")); lookup.Exists() {
		ld := &LookupDecl{}
		for path, dst := range map[string]*string{"table": &ld.Table, "column": &ld.Column, "key": &ld.Key} {
			if *dst, _, err = cueString(lookup, path); err != nil {
				return fd, err
			}
		}
		fd.Lookup = ld
	}

	return fd, nil
}

// cueString reads an optional string at path.
func cueString(v cue.Value, path string) (string, bool, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", false, nil
	}
	s, err := sv.String()
	if err != nil {
		return "", false, formatCUEError(err)
	}
	return s, true, nil
}

// label returns the unquoted label of the current struct field, so that
// quoted labels such as ">=" come back as written.
func label(iter *cue.Iterator) string {
	sel := iter.Selector()
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return NewConfigurationError(ErrCodeSchemaFile, "", "%v", err)
	}

	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pos := positions[0]
		return NewConfigurationError(ErrCodeSchemaFile, "", "%s:%d:%d: %v",
			pos.Filename(), pos.Line(), pos.Column(), first)
	}
	return NewConfigurationError(ErrCodeSchemaFile, "", "%v", first)
}

// Build turns a declaration into a Registry.
func Build(decl *Declaration, resolver Resolver) (*Registry, error) {
	fields := make([]Field, 0, len(decl.Fields))
	for _, fd := range decl.Fields {
		f, err := buildField(fd, resolver)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return NewRegistry(fields...)
}

func buildField(fd FieldDecl, resolver Resolver) (Field, error) {
	var opts []Option
	if fd.Attr != nil {
		if *fd.Attr == "" {
			opts = append(opts, WithoutAttr())
		} else {
			opts = append(opts, WithAttr(*fd.Attr))
		}
	}
	if fd.FreeText {
		opts = append(opts, AsFreeText())
	}
	if fd.DefaultOp != "" {
		opts = append(opts, WithDefaultOp(querylang.Operator(fd.DefaultOp)))
	}
	if len(fd.Ops) > 0 {
		ops := make(OpMap, len(fd.Ops))
		for op, kind := range fd.Ops {
			ops[querylang.Operator(op)] = filter.Kind(kind)
		}
		opts = append(opts, WithOps(ops))
	}

	switch fd.Kind {
	case KindText, "":
		return Text(fd.Name, opts...), nil
	case KindCaseSensitive:
		return CaseSensitive(fd.Name, opts...), nil
	case KindChoice:
		return Choice(fd.Name, fd.Choices, opts...), nil
	case KindBoolean:
		return Boolean(fd.Name, opts...), nil
	case KindInteger:
		return Integer(fd.Name, opts...), nil
	case KindNumber:
		return Number(fd.Name, opts...), nil
	case KindDate:
		return Date(fd.Name, opts...), nil
	case KindReference:
		if fd.Lookup == nil {
			return Field{}, NewConfigurationError(ErrCodeReferenceNoLookup, fd.Name, "reference field needs a lookup")
		}
		if resolver == nil {
			return Field{}, NewConfigurationError(ErrCodeReferenceNoLookup, fd.Name, "reference field needs a resolver")
		}
		return Reference(fd.Name, Lookup{
			Table:    fd.Lookup.Table,
			Column:   fd.Lookup.Column,
			Key:      fd.Lookup.Key,
			Resolver: resolver,
		}, opts...), nil
	default:
		return Field{}, NewConfigurationError(ErrCodeUnknownKind, fd.Name, "unknown kind %q", fd.Kind)
	}
}

// IsSchemaFileError reports whether err came from reading or decoding a
// schema file rather than from a field declaration.
func IsSchemaFileError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce) && ce.Code == ErrCodeSchemaFile
}
