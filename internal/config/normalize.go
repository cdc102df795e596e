package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizeUpscale()
	c.normalizeAssembly()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(workDirEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.WorkDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir()
	}
	var err error
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTools() {
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobeBinary
	}
	c.Tools.Upscaler = strings.TrimSpace(c.Tools.Upscaler)
	if c.Tools.Upscaler == "" {
		c.Tools.Upscaler = defaultUpscalerBinary
	}
	c.Tools.NvidiaSMI = strings.TrimSpace(c.Tools.NvidiaSMI)
	if c.Tools.NvidiaSMI == "" {
		c.Tools.NvidiaSMI = defaultNvidiaSMIBinary
	}
}

func (c *Config) normalizeUpscale() {
	c.Upscale.Model = strings.TrimSpace(c.Upscale.Model)
	if c.Upscale.Model == "" {
		c.Upscale.Model = defaultUpscaleModel
	}
	c.Upscale.Device = strings.TrimSpace(c.Upscale.Device)
	if c.Upscale.Device == "" {
		c.Upscale.Device = defaultUpscaleDevice
	}
	if c.Upscale.Scale == 0 {
		c.Upscale.Scale = defaultUpscaleScale
	}
	if c.Upscale.Workers <= 0 {
		c.Upscale.Workers = defaultUpscaleWorkers
	}
}

func (c *Config) normalizeAssembly() {
	if c.Assembly.MaxWidth == 0 {
		c.Assembly.MaxWidth = defaultMaxWidth
	}
	if c.Assembly.MaxHeight == 0 {
		c.Assembly.MaxHeight = defaultMaxHeight
	}
	c.Assembly.VideoCodec = strings.TrimSpace(c.Assembly.VideoCodec)
	if c.Assembly.VideoCodec == "" {
		c.Assembly.VideoCodec = defaultVideoCodec
	}
	c.Assembly.Preset = strings.TrimSpace(c.Assembly.Preset)
	if c.Assembly.Preset == "" {
		c.Assembly.Preset = defaultPreset
	}
	c.Assembly.PixelFormat = strings.TrimSpace(c.Assembly.PixelFormat)
	if c.Assembly.PixelFormat == "" {
		c.Assembly.PixelFormat = defaultPixelFormat
	}
	c.Assembly.DefaultFrameRate = strings.TrimSpace(c.Assembly.DefaultFrameRate)
	if c.Assembly.DefaultFrameRate == "" {
		c.Assembly.DefaultFrameRate = defaultFrameRate
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(logLevelEnv); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
