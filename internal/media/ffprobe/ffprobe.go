package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"icecale/internal/services"
	"icecale/internal/toolexec"
)

// Metadata describes the first video stream of an input.
type Metadata struct {
	Width  int
	Height int
	// FPS is derived from FPSText and only used for arithmetic.
	FPS float64
	// FPSText is ffprobe's avg_frame_rate verbatim (e.g. "30000/1001"). It is
	// what assembly passes back to ffmpeg so the output rate does not drift.
	FPSText         string
	DurationSeconds float64
	TotalFrames     int64
}

// Field order of the probe record.
const (
	fieldWidth = iota
	fieldHeight
	fieldReadFrames
	fieldContainerFrames
	fieldFrameRate
	fieldDuration
	fieldCount
)

// Args returns the ffprobe argument vector for input.
func Args(input string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_frames",
		"-show_entries", "stream=width,height,nb_read_frames,nb_frames,avg_frame_rate,duration",
		"-of", "csv=p=0:nk=0",
		input,
	}
}

// recordKeys maps ffprobe entry names onto the fixed record order. ffprobe
// prints entries in its own section order, not the order requested, so the
// probe asks for keyed output and reorders it here.
var recordKeys = map[string]int{
	"width":          fieldWidth,
	"height":         fieldHeight,
	"nb_read_frames": fieldReadFrames,
	"nb_frames":      fieldContainerFrames,
	"avg_frame_rate": fieldFrameRate,
	"duration":       fieldDuration,
}

// Probe runs ffprobe once and parses the single-line record it prints.
func Probe(ctx context.Context, executor toolexec.Executor, binary, input string) (Metadata, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	if strings.TrimSpace(input) == "" {
		return Metadata{}, services.Wrap(services.ErrProbe, "probe", "", "empty input path", nil)
	}
	if executor == nil {
		executor = toolexec.NewExecutor()
	}

	args := Args(input)
	result, err := executor.Run(ctx, binary, args)
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrProbe, "probe", "run ffprobe", "", err)
	}
	if !result.Success() {
		return Metadata{}, services.Wrap(services.ErrProbe, "probe", "", "failed to probe video metadata",
			&services.ToolFailure{Tool: "ffprobe", ExitCode: result.ExitCode, Output: result.Output, Command: toolexec.CommandLine(binary, args)})
	}

	meta, err := ParseRecord(result.FirstLine())
	if err != nil {
		return Metadata{}, services.Wrap(services.ErrProbe, "probe", "", "unexpected ffprobe output",
			fmt.Errorf("%w:\n%s", err, result.Output))
	}
	return meta, nil
}

var errShortRecord = errors.New("probe record has fewer than 6 fields")

// ParseRecord decodes one comma-separated probe line. The line is either
// positional (width,height,nb_read_frames,nb_frames,avg_frame_rate,duration)
// or keyed (key=value pairs in any order).
func ParseRecord(line string) (Metadata, error) {
	tokens := strings.Split(strings.TrimSpace(line), ",")
	if strings.Contains(tokens[0], "=") {
		tokens = orderKeyed(tokens)
	}
	if len(tokens) < fieldCount {
		return Metadata{}, errShortRecord
	}

	meta := Metadata{
		Width:           int(ParseCount(tokens[fieldWidth])),
		Height:          int(ParseCount(tokens[fieldHeight])),
		FPSText:         strings.TrimSpace(tokens[fieldFrameRate]),
		DurationSeconds: ParseSeconds(tokens[fieldDuration]),
	}
	meta.FPS = ParseFrameRate(meta.FPSText)
	meta.TotalFrames = ReconcileFrames(
		ParseCount(tokens[fieldReadFrames]),
		ParseCount(tokens[fieldContainerFrames]),
		meta.DurationSeconds,
		meta.FPS,
	)
	return meta, nil
}

// FrameRateLabel returns the rational text when known, else the decimal rate.
func (m Metadata) FrameRateLabel() string {
	if m.FPSText != "" {
		return m.FPSText
	}
	return fmt.Sprintf("%.3f", m.FPS)
}

func orderKeyed(pairs []string) []string {
	ordered := make([]string, fieldCount)
	found := 0
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		if idx, known := recordKeys[strings.TrimSpace(key)]; known {
			ordered[idx] = value
			found++
		}
	}
	if found < fieldCount {
		return nil
	}
	return ordered
}

// Prober binds Probe to a binary and executor.
type Prober struct {
	Binary   string
	Executor toolexec.Executor
}

// Probe inspects input.
func (p Prober) Probe(ctx context.Context, input string) (Metadata, error) {
	return Probe(ctx, p.Executor, p.Binary, input)
}
