// Package history records one row per sync run in a SQLite database under
// the state directory.
//
// The table is append-only and write-only from a run's point of view: the
// alert flag of a later run never depends on it. The history command reads
// it back for operators.
package history
