// Package logs reads the icecale log file for the CLI: the last lines of a
// run, optionally narrowed to one session id, and a polling follow mode.
package logs
