package querysql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/ir"
)

// identPattern matches identifiers that are safe to splice into SQL.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// likeEscaper escapes LIKE wildcards; the escape character is backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SQLCompiler compiles predicates to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized, never interpolated.
// CRITICAL: Every SELECT ends in ORDER BY id ASC COLLATE BINARY so results
// are deterministic.
type SQLCompiler struct {
	// Columns maps a predicate attribute to its column. With a nil map
	// attributes are used as column names and must be plain identifiers.
	Columns map[string]string
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler(columns map[string]string) *SQLCompiler {
	return &SQLCompiler{Columns: columns}
}

// CompileSelect builds a full SELECT over table. A nil columns list
// selects every column; an All predicate omits the WHERE clause.
func (c *SQLCompiler) CompileSelect(table string, columns []string, p filter.Predicate) (string, []any, error) {
	if !identPattern.MatchString(table) {
		return "", nil, fmt.Errorf("unsafe table name %q", table)
	}

	selectClause := "*"
	if len(columns) > 0 {
		for _, col := range columns {
			if !identPattern.MatchString(col) {
				return "", nil, fmt.Errorf("unsafe column name %q", col)
			}
		}
		selectClause = strings.Join(columns, ", ")
	}

	var whereClause string
	var params []any
	if _, all := p.(filter.All); !all {
		where, whereParams, err := c.CompileWhere(p)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + where
		params = whereParams
	}

	// MANDATORY: deterministic order
	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY id ASC COLLATE BINARY",
		selectClause, table, whereClause)
	return sql, params, nil
}

// CompileWhere compiles p to a WHERE clause fragment and its parameters.
func (c *SQLCompiler) CompileWhere(p filter.Predicate) (string, []any, error) {
	if p == nil {
		return "", nil, fmt.Errorf("cannot compile nil predicate")
	}

	switch pred := p.(type) {
	case filter.Compare:
		return c.compileCompare(pred)
	case filter.IsNull:
		col, err := c.column(pred.Attr)
		if err != nil {
			return "", nil, err
		}
		return col + " IS NULL", nil, nil
	case filter.And:
		return c.compileBinary("AND", pred.Left, pred.Right)
	case filter.Or:
		return c.compileBinary("OR", pred.Left, pred.Right)
	case filter.Not:
		inner, params, err := c.CompileWhere(pred.Inner)
		if err != nil {
			return "", nil, err
		}
		// NULL comparisons are unknown; COALESCE makes NOT a row complement
		return "NOT COALESCE((" + inner + "), 0)", params, nil
	case filter.All:
		return "1 = 1", nil, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileBinary(op string, left, right filter.Predicate) (string, []any, error) {
	l, lp, err := c.CompileWhere(left)
	if err != nil {
		return "", nil, err
	}
	r, rp, err := c.CompileWhere(right)
	if err != nil {
		return "", nil, err
	}
	return "(" + l + " " + op + " " + r + ")", append(lp, rp...), nil
}

var comparisonOps = map[filter.Kind]string{
	filter.Exact: "=",
	filter.Gt:    ">",
	filter.Gte:   ">=",
	filter.Lt:    "<",
	filter.Lte:   "<=",
}

// compileCompare compiles a comparison. A field reference on the value
// side compares two columns.
func (c *SQLCompiler) compileCompare(cmp filter.Compare) (string, []any, error) {
	col, err := c.column(cmp.Attr)
	if err != nil {
		return "", nil, err
	}

	if ref, ok := cmp.Value.(ir.FieldRef); ok {
		other, err := c.column(ref.Attr)
		if err != nil {
			return "", nil, err
		}
		switch cmp.Kind {
		case filter.IExact:
			return col + " = " + other + " COLLATE NOCASE", nil, nil
		case filter.Contains:
			return "instr(" + col + ", " + other + ") > 0", nil, nil
		case filter.IContains:
			return "instr(lower(" + col + "), lower(" + other + ")) > 0", nil, nil
		}
		if op, ok := comparisonOps[cmp.Kind]; ok {
			return col + " " + op + " " + other, nil, nil
		}
		return "", nil, fmt.Errorf("unsupported comparison kind %q", cmp.Kind)
	}

	param, err := ir.Native(cmp.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value for %s: %w", cmp.Attr, err)
	}

	switch cmp.Kind {
	case filter.IExact:
		return col + " = ? COLLATE NOCASE", []any{param}, nil
	case filter.Contains:
		return "instr(" + col + ", ?) > 0", []any{param}, nil
	case filter.IContains:
		s, err := likeText(cmp.Value)
		if err != nil {
			return "", nil, fmt.Errorf("convert value for %s: %w", cmp.Attr, err)
		}
		return col + ` LIKE ? ESCAPE '\'`, []any{"%" + likeEscaper.Replace(s) + "%"}, nil
	}
	if op, ok := comparisonOps[cmp.Kind]; ok {
		return col + " " + op + " ?", []any{param}, nil
	}
	return "", nil, fmt.Errorf("unsupported comparison kind %q", cmp.Kind)
}

func likeText(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Text:
		return string(val), nil
	case ir.Ident:
		return string(val), nil
	default:
		return ir.Render(v)
	}
}

// column maps an attribute to a safe column name.
func (c *SQLCompiler) column(attr string) (string, error) {
	col := attr
	if c.Columns != nil {
		mapped, ok := c.Columns[attr]
		if !ok {
			return "", fmt.Errorf("unknown attribute %q", attr)
		}
		col = mapped
	}
	if !identPattern.MatchString(col) {
		return "", fmt.Errorf("unsafe column name %q for attribute %q", col, attr)
	}
	return col, nil
}
