package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"icecale/internal/services"
	"icecale/internal/toolexec"
)

// FramePattern is the printf-style name of extracted and upscaled frames.
// Eight digits keep lexical and numeric order identical.
const FramePattern = "frame_%08d.png"

// EncodeSettings selects the final encode. The zero value is replaced by
// DefaultEncodeSettings.
type EncodeSettings struct {
	MaxWidth         int
	MaxHeight        int
	VideoCodec       string
	Preset           string
	PixelFormat      string
	DefaultFrameRate string
}

// DefaultEncodeSettings returns the NVENC H.264 policy capped at 1440p.
func DefaultEncodeSettings() EncodeSettings {
	return EncodeSettings{
		MaxWidth:         2560,
		MaxHeight:        1440,
		VideoCodec:       "h264_nvenc",
		Preset:           "p3",
		PixelFormat:      "yuv420p",
		DefaultFrameRate: "30",
	}
}

// AssembleRequest describes one assembly run.
type AssembleRequest struct {
	FramesDir  string
	AudioFile  string
	OutputPath string
	// FrameRate is passed to ffmpeg verbatim; empty falls back to the
	// configured default.
	FrameRate string
	HasAudio  bool
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolexec.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithEncodeSettings overrides the assembly encode policy.
func WithEncodeSettings(settings EncodeSettings) Option {
	return func(c *Client) {
		c.encode = settings.withDefaults()
	}
}

// Client wraps ffmpeg CLI interactions.
type Client struct {
	binary string
	exec   toolexec.Executor
	encode EncodeSettings
}

// New constructs an ffmpeg client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("ffmpeg binary required")
	}
	client := &Client{
		binary: binary,
		exec:   toolexec.NewExecutor(),
		encode: DefaultEncodeSettings(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the ffmpeg executable the client runs.
func (c *Client) Binary() string {
	return c.binary
}

// Encode returns the effective encode settings.
func (c *Client) Encode() EncodeSettings {
	return c.encode
}

// ExtractAudioArgs returns the argument vector for a stream-copy audio dump.
func ExtractAudioArgs(input, output string) []string {
	return []string{"-y", "-i", input, "-vn", "-acodec", "copy", output}
}

// ExtractAudio copies the input's audio stream into output without
// re-encoding. A source with no audio makes ffmpeg exit non-zero; that is
// reported through the returned Result, not the error. The error is set only
// when ffmpeg could not be run.
func (c *Client) ExtractAudio(ctx context.Context, input, output string) (toolexec.Result, error) {
	result, err := c.exec.Run(ctx, c.binary, ExtractAudioArgs(input, output))
	if err != nil {
		return result, services.Wrap(services.ErrEnvironment, "extract audio", "run ffmpeg", "", err)
	}
	return result, nil
}

// ExtractFramesArgs returns the argument vector that writes every decoded
// frame of input into dir as a numbered PNG, without duplicating or dropping
// frames.
func ExtractFramesArgs(input, dir string) []string {
	return []string{"-y", "-i", input, "-vsync", "0", filepath.Join(dir, FramePattern)}
}

// ExtractFrames writes every frame of input into dir. The directory must
// already exist.
func (c *Client) ExtractFrames(ctx context.Context, input, dir string) error {
	args := ExtractFramesArgs(input, dir)
	result, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return services.Wrap(services.ErrExtraction, "extract frames", "run ffmpeg", "", err)
	}
	if !result.Success() {
		return services.Wrap(services.ErrExtraction, "extract frames", "", "failed to extract frames",
			&services.ToolFailure{Tool: "ffmpeg", ExitCode: result.ExitCode, Output: result.Output, Command: toolexec.CommandLine(c.binary, args)})
	}
	return nil
}

// AssembleArgs returns the argument vector for req under the client's
// encode settings.
func (c *Client) AssembleArgs(req AssembleRequest) []string {
	rate := strings.TrimSpace(req.FrameRate)
	if rate == "" {
		rate = c.encode.DefaultFrameRate
	}

	args := []string{
		"-y",
		"-framerate", rate,
		"-i", filepath.Join(req.FramesDir, FramePattern),
	}
	if req.HasAudio {
		args = append(args, "-i", req.AudioFile, "-map", "0:v:0", "-map", "1:a:0")
	} else {
		args = append(args, "-map", "0:v:0")
	}
	args = append(args,
		"-vf", ScaleFilter(c.encode.MaxWidth, c.encode.MaxHeight),
		"-c:v", c.encode.VideoCodec,
		"-preset", c.encode.Preset,
		"-pix_fmt", c.encode.PixelFormat,
	)
	if req.HasAudio {
		args = append(args, "-c:a", "copy")
	}
	return append(args, req.OutputPath)
}

// Assemble encodes the upscaled frame sequence into req.OutputPath.
func (c *Client) Assemble(ctx context.Context, req AssembleRequest) error {
	if strings.TrimSpace(req.OutputPath) == "" {
		return services.Wrap(services.ErrAssembly, "assemble", "", "output path required", nil)
	}
	args := c.AssembleArgs(req)
	result, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return services.Wrap(services.ErrAssembly, "assemble", "run ffmpeg", "", err)
	}
	if !result.Success() {
		return services.Wrap(services.ErrAssembly, "assemble", "", "failed to assemble video",
			&services.ToolFailure{Tool: "ffmpeg", ExitCode: result.ExitCode, Output: result.Output, Command: toolexec.CommandLine(c.binary, args)})
	}
	return nil
}

func (s EncodeSettings) withDefaults() EncodeSettings {
	def := DefaultEncodeSettings()
	if s.MaxWidth <= 0 {
		s.MaxWidth = def.MaxWidth
	}
	if s.MaxHeight <= 0 {
		s.MaxHeight = def.MaxHeight
	}
	if strings.TrimSpace(s.VideoCodec) == "" {
		s.VideoCodec = def.VideoCodec
	}
	if strings.TrimSpace(s.Preset) == "" {
		s.Preset = def.Preset
	}
	if strings.TrimSpace(s.PixelFormat) == "" {
		s.PixelFormat = def.PixelFormat
	}
	if strings.TrimSpace(s.DefaultFrameRate) == "" {
		s.DefaultFrameRate = def.DefaultFrameRate
	}
	return s
}

func (s EncodeSettings) String() string {
	return fmt.Sprintf("%s/%s/%s capped at %dx%d", s.VideoCodec, s.Preset, s.PixelFormat, s.MaxWidth, s.MaxHeight)
}
