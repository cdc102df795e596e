// Package main hosts the icecale CLI entrypoint and command graph.
//
// The root command runs the upscaling pipeline for one input/output pair:
// it verifies the environment, then hands the resolved tools to
// internal/pipeline and narrates each stage on stdout. Structured logs go to
// stderr and the log file. Subcommands expose the building blocks on their
// own: probe a file, check the environment, inspect run history, and manage
// session workspaces.
//
// Keep this package thin. Behaviour belongs in the internal packages; commands
// here resolve configuration, render tables, and map errors to exit codes.
package main
