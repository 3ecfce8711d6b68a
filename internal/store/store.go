package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/logging"
	"github.com/roach88/sift/internal/querysql"
	"github.com/roach88/sift/internal/schema"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// columnTypes maps declared column types to SQLite storage types.
// Dates are TEXT so the driver never converts them to time.Time.
var columnTypes = map[string]string{
	"text":    "TEXT",
	"integer": "INTEGER",
	"real":    "REAL",
	"number":  "REAL",
	"boolean": "INTEGER",
	"date":    "TEXT",
}

// Store is a SQLite database that searches run against.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	sql    *querysql.SQLCompiler
}

// Column declares a table column. Type is one of text, integer, real,
// number, boolean or date.
type Column struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
}

// Row is one result row keyed by column name.
type Row map[string]any

// Open creates or opens a SQLite database at the given path. ":memory:"
// opens a private in-memory database.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func Open(path string, logger *slog.Logger) (*Store, error) {
	logger = logging.Default(logger).With("component", "store")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single connection: SQLite has one writer, and an in-memory
	// database lives only as long as its connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	logger.Debug("store opened", "path", path)
	return &Store{db: db, logger: logger, sql: querysql.NewSQLCompiler(nil)}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("store closed")
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateTable creates table with an "id INTEGER PRIMARY KEY" column
// followed by columns. An existing table is left alone.
func (s *Store) CreateTable(ctx context.Context, table string, columns []Column) error {
	if err := checkIdent("table", table); err != nil {
		return err
	}

	defs := []string{"id INTEGER PRIMARY KEY"}
	for _, col := range columns {
		if err := checkIdent("column", col.Name); err != nil {
			return err
		}
		if strings.EqualFold(col.Name, "id") {
			continue
		}
		typ := col.Type
		if typ == "" {
			typ = "text"
		}
		sqlType, ok := columnTypes[strings.ToLower(typ)]
		if !ok {
			return fmt.Errorf("column %q: unknown type %q", col.Name, col.Type)
		}
		defs = append(defs, col.Name+" "+sqlType)
	}

	stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	s.logger.Debug("table created", "table", table, "columns", len(defs))
	return nil
}

// Insert adds row to table and returns its id. Values may be ir.Value,
// time.Time (stored as a date) or plain Go values the driver accepts.
func (s *Store) Insert(ctx context.Context, table string, row Row) (int64, error) {
	if err := checkIdent("table", table); err != nil {
		return 0, err
	}
	if len(row) == 0 {
		return 0, fmt.Errorf("insert into %s: empty row", table)
	}

	names := make([]string, 0, len(row))
	for name := range row {
		if err := checkIdent("column", name); err != nil {
			return 0, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	args := make([]any, len(names))
	for i, name := range names {
		v, err := bindValue(row[name])
		if err != nil {
			return 0, fmt.Errorf("insert into %s: column %s: %w", table, name, err)
		}
		args[i] = v
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", "))
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", table, err)
	}
	return res.LastInsertId()
}

// Search returns the rows of table matching p, ordered by id. A nil
// columns list returns every column.
func (s *Store) Search(ctx context.Context, table string, columns []string, p filter.Predicate) ([]Row, error) {
	query, params, err := s.sql.CompileSelect(table, columns, p)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("searching", "table", table, "sql", query)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", table, err)
	}

	var result []Row
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(Row, len(names))
		for i, name := range names {
			if b, ok := values[i].([]byte); ok {
				values[i] = string(b)
			}
			row[name] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search %s: %w", table, err)
	}
	return result, nil
}

// IDs is Search returning only the id column.
func (s *Store) IDs(ctx context.Context, table string, p filter.Predicate) ([]int64, error) {
	rows, err := s.Search(ctx, table, []string{"id"}, p)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		id, ok := row["id"].(int64)
		if !ok {
			return nil, fmt.Errorf("search %s: id is %T, want int64", table, row["id"])
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Resolve implements schema.Resolver: it returns the key column of the
// first row whose match column equals v. No row is schema.ErrUnresolved.
func (s *Store) Resolve(ctx context.Context, lookup schema.Lookup, v ir.Value) (ir.Value, error) {
	for _, name := range []string{lookup.Table, lookup.Column, lookup.Key} {
		if err := checkIdent("lookup", name); err != nil {
			return nil, err
		}
	}
	arg, err := ir.Native(v)
	if err != nil {
		return nil, fmt.Errorf("resolve in %s: %w", lookup.Table, err)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? ORDER BY rowid LIMIT 1",
		lookup.Key, lookup.Table, lookup.Column)

	var key any
	err = s.db.QueryRowContext(ctx, query, arg).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("lookup missed", "table", lookup.Table, "column", lookup.Column, "value", ir.String(v))
		return nil, fmt.Errorf("%w: no %s with %s %s", schema.ErrUnresolved, lookup.Table, lookup.Column, ir.String(v))
	}
	if err != nil {
		return nil, fmt.Errorf("resolve in %s: %w", lookup.Table, err)
	}
	return ir.FromNative(key)
}

// Columns returns the declared columns of table in order.
func (s *Store) Columns(ctx context.Context, table string) ([]Column, error) {
	if err := checkIdent("table", table); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid      int
			name     string
			typ      string
			notNull  int
			defValue sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defValue, &pk); err != nil {
			return nil, fmt.Errorf("table info %s: %w", table, err)
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table info %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no such table: %s", table)
	}
	return cols, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func bindValue(v any) (any, error) {
	switch val := v.(type) {
	case ir.Value:
		return ir.Native(val)
	case time.Time:
		return val.Format(time.DateOnly), nil
	case int:
		return int64(val), nil
	case nil, string, int64, float64, bool:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func checkIdent(what, name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("unsafe %s name %q", what, name)
	}
	return nil
}
