// Package sqlite persists growth runs and their branch skeletons in SQLite.
//
// The schema is owned by the embedded migrations and applied with
// golang-migrate when a database is opened. Runs are keyed by UUID; the
// branches of a run are stored in index order so a skeleton.Graph can be
// rebuilt exactly.
package sqlite
