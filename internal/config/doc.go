// Package config loads, normalizes, and validates icecale configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ICECALE_WORK_DIR. The Config type centralizes every knob the pipeline and CLI
// need: tool locations, upscaler selectors, assembly caps, workspace policy,
// and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
