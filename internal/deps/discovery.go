// Package deps locates the external tools icecale drives and confirms they
// start: an explicit configured path, then the directories shipped next to the
// icecale binary, then PATH.
package deps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"icecale/internal/services"
	"icecale/internal/toolexec"
)

// Tool names as shipped by upstream releases.
const (
	FFmpeg    = "ffmpeg"
	FFprobe   = "ffprobe"
	Upscaler  = "realesrgan-ncnn-vulkan"
	NvidiaSMI = "nvidia-smi"
)

// ExecutableDir returns the directory holding the running binary with
// symlinks resolved. It returns "" when the location cannot be determined.
func ExecutableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Candidates lists the project-local locations searched for name, in order:
// next to the executable, bin/, third_party/<name>/, third_party/bin/.
func Candidates(baseDir, name string) []string {
	if strings.TrimSpace(baseDir) == "" {
		return nil
	}
	file := executableName(name)
	return []string{
		filepath.Join(baseDir, file),
		filepath.Join(baseDir, "bin", file),
		filepath.Join(baseDir, "third_party", name, file),
		filepath.Join(baseDir, "third_party", "bin", file),
	}
}

// ResolveTool returns the executable path for a tool.
//
// A configured value containing a path separator is used as-is after an
// executable check. A bare configured name (or an empty value, which falls
// back to name) is searched in the project-local candidates first and then
// on PATH.
func ResolveTool(configured, baseDir, name string) (string, error) {
	configured = strings.TrimSpace(configured)
	if configured == "" {
		configured = name
	}

	if strings.ContainsRune(configured, os.PathSeparator) {
		if isExecutablePath(configured) {
			return configured, nil
		}
		return "", services.Wrap(services.ErrEnvironment, "environment", "locate "+name,
			fmt.Sprintf("configured tool %q is not an executable file", configured), nil)
	}

	searched := Candidates(baseDir, configured)
	for _, candidate := range searched {
		if isExecutablePath(candidate) {
			return candidate, nil
		}
	}
	if resolved, err := exec.LookPath(configured); err == nil {
		return resolved, nil
	}
	searched = append(searched, "$PATH")
	return "", services.Wrap(services.ErrEnvironment, "environment", "locate "+name,
		fmt.Sprintf("required tool %q not found (searched %s)", configured, strings.Join(searched, ", ")), nil)
}

// VerifyTool runs binary with a version or help flag and fails when the tool
// cannot be started or exits non-zero.
func VerifyTool(ctx context.Context, executor toolexec.Executor, binary, flag string) (toolexec.Result, error) {
	if executor == nil {
		executor = toolexec.NewExecutor()
	}
	var args []string
	if flag = strings.TrimSpace(flag); flag != "" {
		args = []string{flag}
	}
	result, err := executor.Run(ctx, binary, args)
	if err != nil {
		return result, services.Wrap(services.ErrEnvironment, "environment", "verify "+filepath.Base(binary),
			fmt.Sprintf("required command %q is not available", binary), err)
	}
	if !result.Success() {
		return result, services.Wrap(services.ErrEnvironment, "environment", "verify "+filepath.Base(binary),
			fmt.Sprintf("required command %q is not available", binary),
			&services.ToolFailure{Tool: filepath.Base(binary), ExitCode: result.ExitCode, Output: result.Output})
	}
	return result, nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isExecutablePath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return isExecutable(info)
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
