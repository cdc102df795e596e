// Package preflight provides readiness checks for the external tools and
// filesystem paths icecale depends on.
//
// These checks run in two contexts:
//   - The pipeline calls RunAll before probing. If any required check fails
//     the run stops before any frame is written, with ErrEnvironment.
//   - The CLI "icecale check" command renders every Result as a table.
//
// The GPU check is gated by preflight.require_gpu and the --skip-gpu-check flag.
package preflight
