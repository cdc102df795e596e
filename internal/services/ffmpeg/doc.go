// Package ffmpeg drives the ffmpeg CLI for the three jobs the pipeline needs
// from it: copying the audio stream out of the source, dumping every video
// frame as a numbered PNG, and encoding the upscaled frame sequence back into
// a video with the audio muxed alongside.
//
// The client never interprets media itself. It builds argument vectors, runs
// them through a toolexec.Executor, and maps non-zero exits onto the service
// error taxonomy with the tool's combined output attached.
package ffmpeg
