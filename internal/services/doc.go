// Package services defines shared utilities consumed by the pipeline stages
// and the external tool clients.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the pipeline taxonomy (probe, workspace, extraction, upscale,
//     assembly, environment).
//   - ToolFailure, which carries an external tool's exit code and combined
//     output so operators see exactly what the tool printed.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
