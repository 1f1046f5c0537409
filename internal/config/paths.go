package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths centralizes every filesystem location the application touches.
// Relative configuration values resolve against the working directory once,
// here, so the rest of the code never joins paths against ambient state.
type Paths struct {
	BaseDir    string
	DataDir    string
	ReportsDir string
	LogsDir    string
}

// NewPaths resolves the configured directories against the working
// directory.
func NewPaths(cfg PathsConfig) (*Paths, error) {
	base, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to determine working directory: %w", err)
	}
	return NewPathsFrom(base, cfg), nil
}

// NewPathsFrom resolves the configured directories against an explicit
// base directory. Used directly by tests.
func NewPathsFrom(base string, cfg PathsConfig) *Paths {
	return &Paths{
		BaseDir:    base,
		DataDir:    resolve(base, cfg.DataDir),
		ReportsDir: resolve(base, cfg.ReportsDir),
		LogsDir:    resolve(base, cfg.LogsDir),
	}
}

// EnsureDirectories creates every managed directory that does not exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.DataDir, p.ReportsDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// DataPath joins a name onto the data directory.
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir, name)
}

// ReportPath joins a name onto the reports directory.
func (p *Paths) ReportPath(name string) string {
	return filepath.Join(p.ReportsDir, name)
}

// LogPath joins a name onto the logs directory.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}

func resolve(base, dir string) string {
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
