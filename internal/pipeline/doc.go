// Package pipeline runs one upscale job end to end.
//
// The job moves through an ordered stage list:
//
//	probe -> extract audio -> extract frames -> upscale -> assemble
//
// Each stage is a stage.Handler executed through stageexec.Run, which owns
// status transitions, logging, and history updates. Stages talk to the
// external tools only through the Prober, MediaTool, and Upscaler interfaces,
// so tests substitute fakes for ffprobe, ffmpeg, and realesrgan-ncnn-vulkan.
//
// Every failure is fatal except a missing audio track, which turns into a
// video-only assembly.
package pipeline
