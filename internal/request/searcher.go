// Package request turns raw search input into a predicate.
//
// Both entry points converge on compiler.Compile: an advanced query is
// compiled as typed, and structured values are first rendered to the
// same query language by package format.
package request

import (
	"context"
	"log/slog"

	"github.com/roach88/sift/internal/compiler"
	"github.com/roach88/sift/internal/filter"
	"github.com/roach88/sift/internal/format"
	"github.com/roach88/sift/internal/ir"
	"github.com/roach88/sift/internal/logging"
	"github.com/roach88/sift/internal/schema"
)

// Searcher is the request façade over a registry.
//
// It is safe for concurrent use as long as IDs is.
type Searcher struct {
	Registry *schema.Registry
	Logger   *slog.Logger // nil discards
	IDs      IDGenerator  // nil uses UUIDv7Generator
}

// NewSearcher creates a Searcher with a component-scoped logger.
func NewSearcher(reg *schema.Registry, logger *slog.Logger, ids IDGenerator) *Searcher {
	return &Searcher{
		Registry: reg,
		Logger:   logging.Default(logger).With("component", "request"),
		IDs:      ids,
	}
}

// Result is a compiled request.
type Result struct {
	ID          string           // request ID, as logged
	Query       string           // canonical query string that was compiled
	Filter      filter.Predicate // compiled predicate
	Fingerprint string           // filter.Fingerprint of Filter
}

// Values converts raw field values to typed values per field kind.
// Unknown names fail with *schema.UnknownFieldError and malformed values
// with *FieldValueError.
func (s *Searcher) Values(in Input) (map[string]ir.Value, error) {
	return coerceValues(s.Registry, in.Values)
}

// QueryString returns the query string in represents: the advanced query
// when present, otherwise the formatted structured values.
func (s *Searcher) QueryString(in Input) (string, error) {
	if in.IsAdvanced() {
		return in.Advanced, nil
	}
	values, err := s.Values(in)
	if err != nil {
		return "", err
	}
	return format.Format(s.Registry, values, in.FreeText, "")
}

// Filter builds the query string for in and compiles it.
func (s *Searcher) Filter(ctx context.Context, in Input) (Result, error) {
	res := Result{ID: s.ids().Generate()}
	logger := s.logger().With("request_id", res.ID, "mode", mode(in))

	q, err := s.QueryString(in)
	if err != nil {
		logger.Warn("request rejected", "code", compiler.Code(err), "error", err)
		return res, err
	}
	res.Query = q
	logger.Debug("compiling query", "query", q)

	pred, err := compiler.Compile(ctx, s.Registry, q)
	if err != nil {
		logger.Warn("query rejected", "query", q, "code", compiler.Code(err), "error", err)
		return res, err
	}
	fp, err := filter.Fingerprint(pred)
	if err != nil {
		logger.Error("fingerprint failed", "error", err)
		return res, err
	}
	res.Filter = pred
	res.Fingerprint = fp
	logger.Debug("query compiled", "filter", pred.String(), "fingerprint", fp)
	return res, nil
}

func (s *Searcher) logger() *slog.Logger {
	return logging.Default(s.Logger)
}

func (s *Searcher) ids() IDGenerator {
	if s.IDs == nil {
		return UUIDv7Generator{}
	}
	return s.IDs
}

func mode(in Input) string {
	if in.IsAdvanced() {
		return "advanced"
	}
	return "structured"
}
