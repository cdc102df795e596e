package realesrgan

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"icecale/internal/services"
	"icecale/internal/toolexec"
)

// Settings selects the network and device for every invocation.
type Settings struct {
	Model  string
	Scale  int
	Device string
}

// DefaultSettings returns the 4x general-purpose model on GPU 0.
func DefaultSettings() Settings {
	return Settings{Model: "realesrgan-x4plus", Scale: 4, Device: "0"}
}

// Upscaler upscales a single image file.
type Upscaler interface {
	UpscaleFrame(ctx context.Context, input, output string) error
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

// WithSettings overrides the model selection.
func WithSettings(settings Settings) Option {
	return func(c *Client) {
		def := DefaultSettings()
		if strings.TrimSpace(settings.Model) == "" {
			settings.Model = def.Model
		}
		if settings.Scale <= 0 {
			settings.Scale = def.Scale
		}
		if strings.TrimSpace(settings.Device) == "" {
			settings.Device = def.Device
		}
		c.settings = settings
	}
}

// Client wraps realesrgan-ncnn-vulkan.
type Client struct {
	binary   string
	exec     toolexec.Executor
	settings Settings
}

// New constructs a Real-ESRGAN client.
func New(binary string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("realesrgan binary required")
	}
	client := &Client{
		binary:   binary,
		exec:     toolexec.NewExecutor(),
		settings: DefaultSettings(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Settings returns the effective model selection.
func (c *Client) Settings() Settings {
	return c.settings
}

// Args returns the argument vector for one frame.
func (c *Client) Args(input, output string) []string {
	return []string{
		"-i", input,
		"-o", output,
		"-n", c.settings.Model,
		"-s", strconv.Itoa(c.settings.Scale),
		"-g", c.settings.Device,
	}
}

// UpscaleFrame writes an upscaled copy of input to output.
func (c *Client) UpscaleFrame(ctx context.Context, input, output string) error {
	args := c.Args(input, output)
	result, err := c.exec.Run(ctx, c.binary, args)
	if err != nil {
		return services.Wrap(services.ErrUpscale, "upscale", "run realesrgan",
			fmt.Sprintf("frame %s", input), err)
	}
	if !result.Success() {
		return services.Wrap(services.ErrUpscale, "upscale", "",
			fmt.Sprintf("Real-ESRGAN failed on frame %s", input),
			&services.ToolFailure{Tool: "realesrgan-ncnn-vulkan", ExitCode: result.ExitCode, Output: result.Output, Command: toolexec.CommandLine(c.binary, args)})
	}
	return nil
}
