// Package toolexec runs external tools with an explicit argument vector and
// captures their interleaved stdout/stderr.
//
// Every pipeline stage talks to ffmpeg, ffprobe, and the upscaler through the
// Executor interface so tests can substitute scripted fakes. No shell is ever
// involved: arguments reach the tool exactly as given.
package toolexec
