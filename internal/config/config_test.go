package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"icecale/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("ICECALE_WORK_DIR", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogDir := filepath.Join(tempHome, ".local", "share", "icecale", "logs")
	if cfg.Paths.LogDir != wantLogDir {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogDir)
	}
	if cfg.Paths.WorkDir != filepath.Join(os.TempDir(), "icecale-work") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Upscale.Model != "realesrgan-x4plus" || cfg.Upscale.Scale != 4 || cfg.Upscale.Device != "0" {
		t.Fatalf("unexpected upscale defaults: %+v", cfg.Upscale)
	}
	if cfg.Assembly.MaxWidth != 2560 || cfg.Assembly.MaxHeight != 1440 {
		t.Fatalf("unexpected assembly caps: %+v", cfg.Assembly)
	}
	if cfg.Assembly.VideoCodec != "h264_nvenc" || cfg.Assembly.Preset != "p3" || cfg.Assembly.PixelFormat != "yuv420p" {
		t.Fatalf("unexpected encoder defaults: %+v", cfg.Assembly)
	}
	if cfg.Assembly.DefaultFrameRate != "30" {
		t.Fatalf("unexpected default frame rate: %q", cfg.Assembly.DefaultFrameRate)
	}
	if !cfg.Workspace.KeepArtifacts {
		t.Fatal("expected artifacts to be kept by default")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "icecale.toml")

	type payload struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
		} `toml:"paths"`
		Upscale struct {
			Workers int `toml:"workers"`
			Scale   int `toml:"scale"`
		} `toml:"upscale"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "work")
	custom.Upscale.Workers = 3
	custom.Upscale.Scale = 2
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempDir, "work") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Upscale.Workers != 3 || cfg.Upscale.Scale != 2 {
		t.Fatalf("unexpected upscale: %+v", cfg.Upscale)
	}
	if cfg.Upscale.Model != "realesrgan-x4plus" {
		t.Fatalf("expected default model to survive partial file, got %q", cfg.Upscale.Model)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected normalized format, got %q", cfg.Logging.Format)
	}
}

func TestWorkDirEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ICECALE_WORK_DIR", dir)

	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.WorkDir != dir {
		t.Fatalf("expected env work dir %q, got %q", dir, cfg.Paths.WorkDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"scale", func(c *config.Config) { c.Upscale.Scale = 5 }, "upscale.scale"},
		{"workers", func(c *config.Config) { c.Upscale.Workers = 0 }, "upscale.workers"},
		{"odd cap", func(c *config.Config) { c.Assembly.MaxWidth = 2561 }, "even"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"stale", func(c *config.Config) { c.Workspace.StaleAfterHours = -1 }, "stale_after_hours"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in %v", tt.want, err)
			}
		})
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icecale.toml")
	if err := os.WriteFile(path, []byte("[upscale]\nmodle = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load: exists=%v err=%v", exists, err)
	}
}
