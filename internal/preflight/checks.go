package preflight

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"icecale/internal/deps"
	"icecale/internal/toolexec"
)

const gib = 1 << 30

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minGiB available. A path that does not exist yet is checked through its
// nearest existing parent. A minimum of zero only reports the free space.
func CheckFreeSpace(name, path string, minGiB int) Result {
	probe := nearestExisting(path)
	var stat unix.Statfs_t
	if err := unix.Statfs(probe, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", probe, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%.1f GiB free on %s", float64(free)/gib, probe)
	if minGiB > 0 && free < uint64(minGiB)*gib {
		return Result{Name: name, Detail: fmt.Sprintf("%s (need at least %d GiB)", detail, minGiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// GPUQueryArgs is the nvidia-smi invocation that lists GPU names.
var GPUQueryArgs = []string{"--query-gpu=name", "--format=csv,noheader"}

// GPUCheckName names the CheckGPU result.
const GPUCheckName = "NVIDIA GPU"

// CheckGPU verifies that nvidia-smi reports at least one NVIDIA GPU. The
// detail carries the first GPU name.
func CheckGPU(ctx context.Context, executor toolexec.Executor, binary string) Result {
	const name = GPUCheckName
	if executor == nil {
		executor = toolexec.NewExecutor()
	}
	if strings.TrimSpace(binary) == "" {
		binary = deps.NvidiaSMI
	}
	result, err := executor.Run(ctx, binary, GPUQueryArgs)
	if err != nil || !result.Success() || result.FirstLine() == "" {
		return Result{Name: name, Detail: "No NVIDIA GPU detected. The application requires an NVIDIA GPU to run."}
	}
	return Result{Name: name, Passed: true, Detail: result.FirstLine()}
}

// ToolSpec describes one external tool to resolve and verify.
type ToolSpec struct {
	Label      string
	Name       string
	Configured string
	VerifyFlag string
}

// CheckTool resolves a tool and runs its version or help flag. The resolved
// path is returned even when verification fails, so callers can report it.
func CheckTool(ctx context.Context, executor toolexec.Executor, baseDir string, spec ToolSpec) (Result, string) {
	path, err := deps.ResolveTool(spec.Configured, baseDir, spec.Name)
	if err != nil {
		return Result{Name: spec.Label, Detail: fmt.Sprintf("required tool not found: %s", spec.Name)}, ""
	}
	res, err := deps.VerifyTool(ctx, executor, path, spec.VerifyFlag)
	if err != nil {
		detail := fmt.Sprintf("%s failed %s", path, spec.VerifyFlag)
		if line := res.FirstLine(); line != "" {
			detail += ": " + line
		}
		return Result{Name: spec.Label, Detail: detail}, path
	}
	detail := path
	if line := res.FirstLine(); line != "" && spec.VerifyFlag == "-version" {
		detail = fmt.Sprintf("%s (%s)", path, line)
	}
	return Result{Name: spec.Label, Passed: true, Detail: detail}, path
}

func nearestExisting(path string) string {
	path = filepath.Clean(path)
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
