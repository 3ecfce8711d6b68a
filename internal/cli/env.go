package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/schema"
	"github.com/roach88/sift/internal/store"
)

// errNoDatabase is returned by reference lookups when no --db is set.
var errNoDatabase = schema.NewConfigurationError(schema.ErrCodeReferenceNoLookup, "",
	"reference lookups need a database (--db or SIFT_DB)")

// offlineResolver fails every lookup. It lets reference fields load when
// no database is configured; only compiling a reference clause fails.
type offlineResolver struct{}

func (offlineResolver) Resolve(context.Context, schema.Lookup, ir.Value) (ir.Value, error) {
	return nil, errNoDatabase
}

// loadSchema loads cfg.Schema. Reference fields resolve through st, or
// fail at compile time when st is nil.
func loadSchema(cfg Config, st *store.Store) (*schema.Schema, error) {
	if cfg.Schema == "" {
		return nil, NewExitError(ExitCommandError, "no schema: use --schema or SIFT_SCHEMA")
	}
	var resolver schema.Resolver = offlineResolver{}
	if st != nil {
		resolver = st
	}
	s, err := schema.LoadFile(cfg.Schema, resolver)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load schema", err)
	}
	return s, nil
}

// openStore opens cfg.DB, or returns nil when no database is configured.
func openStore(cfg Config, logger *slog.Logger) (*store.Store, error) {
	if cfg.DB == "" {
		return nil, nil
	}
	st, err := store.Open(cfg.DB, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// parseAssignments parses repeated --set name=value flags.
func parseAssignments(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --set %q: want name=value", pair))
		}
		values[name] = value
	}
	return values, nil
}
