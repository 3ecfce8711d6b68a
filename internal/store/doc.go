// Package store provides the SQLite backend that compiled searches run
// against.
//
// Tables are created and seeded through CreateTable and Insert; Search
// compiles a filter.Predicate with package querysql and returns the
// matching rows. Store also implements schema.Resolver so reference
// fields can look up keys by name.
//
// # Critical Patterns
//
//   - Values are always bound as parameters, never interpolated.
//   - Table and column names must be plain identifiers.
//   - Every search ends in ORDER BY id ASC COLLATE BINARY.
//   - Dates are stored as ISO-8601 TEXT.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
