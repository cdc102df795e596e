// Package history persists one row per pipeline run in a SQLite database so
// that `icecale history` can show what ran, how far it got, and why it
// failed. The pipeline updates the row at every stage boundary; the database
// is never consulted to resume work.
package history
