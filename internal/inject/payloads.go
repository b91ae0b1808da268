package inject

import (
	"fmt"
	"os"
	"path/filepath"
)

// Source supplies the two injection payloads as opaque JavaScript text.
type Source interface {
	// Library returns the support library evaluated before the main payload.
	Library() (string, error)
	// Main returns the instrumentation payload. It depends on symbols the
	// library defines, so it is always evaluated second.
	Main() (string, error)
}

// Files reads payloads from a directory on disk.
type Files struct {
	dir     string
	library string
	main    string
}

// NewFiles returns a Source reading library and main from dir.
func NewFiles(dir, library, main string) *Files {
	return &Files{dir: dir, library: library, main: main}
}

func (f *Files) Library() (string, error) {
	return f.read(f.library)
}

func (f *Files) Main() (string, error) {
	return f.read(f.main)
}

func (f *Files) read(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, name))
	if err != nil {
		return "", fmt.Errorf("read payload %s: %w", name, err)
	}
	return string(data), nil
}
