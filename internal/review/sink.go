package review

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives exported documents.
type Sink interface {
	Save(filename, mime, content string) (string, error)
}

// FileSink writes exports into a directory.
type FileSink struct {
	Dir string
}

// Save writes content to Dir under the base name of filename and returns the
// path written.
func (s FileSink) Save(filename, _ string, content string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid export filename %q", filename)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing export: %w", err)
	}
	return path, nil
}
