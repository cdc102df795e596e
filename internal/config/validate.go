package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUpscale(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateWorkspace(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUpscale() error {
	switch c.Upscale.Scale {
	case 2, 3, 4:
	default:
		return fmt.Errorf("upscale.scale must be 2, 3, or 4 (got %d)", c.Upscale.Scale)
	}
	if c.Upscale.Workers < 1 {
		return errors.New("upscale.workers must be at least 1")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if c.Assembly.MaxWidth <= 0 || c.Assembly.MaxHeight <= 0 {
		return errors.New("assembly.max_width and assembly.max_height must be positive")
	}
	if c.Assembly.MaxWidth%2 != 0 || c.Assembly.MaxHeight%2 != 0 {
		return errors.New("assembly.max_width and assembly.max_height must be even")
	}
	return nil
}

func (c *Config) validateWorkspace() error {
	if c.Workspace.StaleAfterHours < 0 {
		return errors.New("workspace.stale_after_hours must be >= 0")
	}
	if c.Preflight.MinFreeGiB < 0 {
		return errors.New("preflight.min_free_gib must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
