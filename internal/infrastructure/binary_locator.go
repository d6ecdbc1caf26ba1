package infrastructure

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

// Binary names resolved by the engine
const (
	YTDLPBinaryName  = "yt-dlp"
	FFmpegBinaryName = "ffmpeg"
)

// PathLocator resolves external binaries lazily. A successful lookup is
// cached; a missing binary is looked up again on the next call.
type PathLocator struct {
	overrides   map[string]string
	commonPaths []string
	executable  func() (string, error)

	mu    sync.Mutex
	found map[string]string
}

// NewBinaryLocator creates a locator. Overrides map a binary name to a
// configured path or command name.
func NewBinaryLocator(overrides map[string]string) *PathLocator {
	home := os.Getenv("HOME")
	return &PathLocator{
		overrides: overrides,
		commonPaths: []string{
			"/usr/local/bin",
			"/opt/homebrew/bin",
			"/usr/bin",
			filepath.Join(home, ".local/bin"),
			filepath.Join(home, "go/bin"),
		},
		executable: os.Executable,
		found:      make(map[string]string),
	}
}

// NewEngineBinaryLocator builds a locator from the engine configuration
func NewEngineBinaryLocator(config *domain.EngineConfig) *PathLocator {
	return NewBinaryLocator(map[string]string{
		YTDLPBinaryName:  config.YTDLPBinary,
		FFmpegBinaryName: config.FFmpegBinary,
	})
}

// Locate finds a binary: configured path, next to our executable, PATH,
// then common install locations
func (l *PathLocator) Locate(name string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.found[name]; ok {
		return p, nil
	}

	p, err := l.search(name)
	if err != nil {
		return "", err
	}
	l.found[name] = p
	return p, nil
}

func (l *PathLocator) search(name string) (string, error) {
	// 1. Configured location
	if override := strings.TrimSpace(l.overrides[name]); override != "" && override != name {
		if strings.ContainsRune(override, filepath.Separator) || strings.ContainsRune(override, '/') {
			if isExecutable(override) {
				return override, nil
			}
			return "", domain.NewError(domain.KindEngineUnavailable,
				fmt.Sprintf("%s not found at configured path %s", name, override), nil)
		}
		if p, err := exec.LookPath(override); err == nil {
			return p, nil
		}
	}

	file := name
	if runtime.GOOS == "windows" {
		file += ".exe"
	}

	// 2. Same directory as our binary
	if l.executable != nil {
		if execPath, err := l.executable(); err == nil {
			candidate := filepath.Join(filepath.Dir(execPath), file)
			if isExecutable(candidate) {
				return candidate, nil
			}
		}
	}

	// 3. PATH
	if p, err := exec.LookPath(file); err == nil {
		return p, nil
	}

	// 4. Common locations
	for _, dir := range l.commonPaths {
		candidate := filepath.Join(dir, file)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	return "", domain.NewError(domain.KindEngineUnavailable, name+" binary not found", nil)
}

// isExecutable reports a regular file with an exec bit (any file on Windows)
func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0111 != 0
}
