package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"scribe/internal/config"
)

// Requirement defines an external binary scribe shells out to.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Requirements lists the binaries needed for the given config.
func Requirements(cfg *config.Config) []Requirement {
	uvx := strings.TrimSpace(cfg.WhisperX.UVXBinary)
	if uvx == "" {
		uvx = "uvx"
	}
	return []Requirement{
		{
			Name:        "uvx",
			Command:     uvx,
			Description: "Required to run WhisperX",
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Required by WhisperX to decode audio",
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Downloader.Binary,
			Description: "Required for remote video transcription",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		result := Result{Name: req.Name, Optional: req.Optional}
		switch {
		case cmd == "":
			result.Detail = "command not configured"
		default:
			path, err := exec.LookPath(cmd)
			if err != nil {
				result.Detail = fmt.Sprintf("binary %q not found (%s)", cmd, strings.ToLower(req.Description))
			} else {
				result.Passed = true
				result.Detail = path
			}
		}
		results = append(results, result)
	}
	return results
}

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
