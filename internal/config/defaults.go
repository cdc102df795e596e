package config

import (
	"os"
	"path/filepath"
)

const (
	defaultLogDir            = "~/.local/share/icecale/logs"
	defaultStateDir          = "~/.local/share/icecale"
	defaultUpscaleModel      = "realesrgan-x4plus"
	defaultUpscaleScale      = 4
	defaultUpscaleDevice     = "0"
	defaultUpscaleWorkers    = 1
	defaultMaxWidth          = 2560
	defaultMaxHeight         = 1440
	defaultVideoCodec        = "h264_nvenc"
	defaultPreset            = "p3"
	defaultPixelFormat       = "yuv420p"
	defaultFrameRate         = "30"
	defaultStaleAfterHours   = 48
	defaultMinFreeGiB        = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultWorkDirName       = "icecale-work"
	defaultFFmpegBinary      = "ffmpeg"
	defaultFFprobeBinary     = "ffprobe"
	defaultUpscalerBinary    = "realesrgan-ncnn-vulkan"
	defaultNvidiaSMIBinary   = "nvidia-smi"
	workDirEnv               = "ICECALE_WORK_DIR"
	logLevelEnv              = "ICECALE_LOG_LEVEL"
	defaultRequireGPUSetting = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir(),
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Tools: Tools{
			FFmpeg:    defaultFFmpegBinary,
			FFprobe:   defaultFFprobeBinary,
			Upscaler:  defaultUpscalerBinary,
			NvidiaSMI: defaultNvidiaSMIBinary,
		},
		Upscale: Upscale{
			Model:   defaultUpscaleModel,
			Scale:   defaultUpscaleScale,
			Device:  defaultUpscaleDevice,
			Workers: defaultUpscaleWorkers,
		},
		Assembly: Assembly{
			MaxWidth:         defaultMaxWidth,
			MaxHeight:        defaultMaxHeight,
			VideoCodec:       defaultVideoCodec,
			Preset:           defaultPreset,
			PixelFormat:      defaultPixelFormat,
			DefaultFrameRate: defaultFrameRate,
		},
		Workspace: Workspace{
			KeepArtifacts:   true,
			StaleAfterHours: defaultStaleAfterHours,
		},
		Preflight: Preflight{
			RequireGPU: defaultRequireGPUSetting,
			MinFreeGiB: defaultMinFreeGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultWorkDir() string {
	return filepath.Join(os.TempDir(), defaultWorkDirName)
}
