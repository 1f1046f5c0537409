package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered export file.
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery locates lab export files under a base directory.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindExports finds all Excel and CSV files in the directory, newest
// first. Office lock files ("~$...") are skipped.
func (d *Discovery) FindExports(dir string) ([]FileInfo, error) {
	return d.findByExt(dir, ".xlsx", ".xls", ".csv")
}

// Latest returns the most recently modified export, or an error when
// the directory holds none.
func (d *Discovery) Latest(dir string) (FileInfo, error) {
	found, err := d.FindExports(dir)
	if err != nil {
		return FileInfo{}, err
	}
	if len(found) == 0 {
		return FileInfo{}, fmt.Errorf("no export files found in %s", d.resolve(dir))
	}
	return found[0], nil
}

// LatestNamed returns the newest export whose name contains the given
// fragment, case-insensitively. Lets the results and targets workbooks
// share one data directory.
func (d *Discovery) LatestNamed(dir, fragment string) (FileInfo, error) {
	found, err := d.FindExports(dir)
	if err != nil {
		return FileInfo{}, err
	}
	fragment = strings.ToLower(fragment)
	for _, f := range found {
		if strings.Contains(strings.ToLower(f.Name), fragment) {
			return f, nil
		}
	}
	return FileInfo{}, fmt.Errorf("no export matching %q found in %s", fragment, d.resolve(dir))
}

func (d *Discovery) findByExt(dir string, exts ...string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var found []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if !hasExt(name, exts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		found = append(found, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].ModTime.After(found[j].ModTime)
	})
	return found, nil
}

func (d *Discovery) resolve(dir string) string {
	if dir == "" {
		return d.basePath
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		if ext == want {
			return true
		}
	}
	return false
}
