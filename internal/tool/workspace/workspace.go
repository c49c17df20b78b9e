// Package workspace resolves tool paths within the workspace boundary.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotADirectory = errors.New("workspace root is not a directory")
	ErrOutsideRoot   = errors.New("path escapes workspace root")
)

// Context carries the canonical workspace root shared by all tools.
type Context struct {
	Root string
}

// New canonicalises root (absolute, symlinks resolved) and validates it.
func New(root string) (*Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, resolved)
	}
	return &Context{Root: resolved}, nil
}

// Resolve turns a tool-supplied path into an absolute path and validates it
// does not escape the workspace root.
func (c *Context) Resolve(path string) (string, error) {
	abs := filepath.Clean(path)
	if !filepath.IsAbs(abs) {
		abs = filepath.Clean(filepath.Join(c.Root, path))
	}

	if abs != c.Root && !strings.HasPrefix(abs, c.Root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return abs, nil
}
