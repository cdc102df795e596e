// Package ffprobe reads the metadata the upscale pipeline needs from ffprobe.
//
// Key types:
//   - Metadata: dimensions, frame rate (decimal and original rational text),
//     duration, and the reconciled total frame count
//
// Primary entry point:
//   - Probe: executes ffprobe once and returns parsed Metadata
//
// The parsing helpers are permissive: ffprobe's "N/A" placeholder and empty
// tokens map to sentinel values instead of errors, and ReconcileFrames picks
// the most trustworthy frame count from the signals that survived.
package ffprobe
