// Package directory implements the list_directory tool with gitignore-aware
// filtering.
package directory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Cyclone1070/loom/internal/tool/workspace"
)

// DefaultLimit caps the number of entries returned in one call.
const DefaultLimit = 500

// ListRequest lists a directory, optionally recursively.
type ListRequest struct {
	Path      string `mapstructure:"path"`
	Recursive bool   `mapstructure:"recursive"`
	Limit     int    `mapstructure:"limit"`
}

func (r *ListRequest) Validate() error {
	if r.Path == "" {
		r.Path = "."
	}
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	return nil
}

// Entry is one directory entry, with paths relative to the workspace root.
type Entry struct {
	Path  string `json:"path"`
	IsDir bool   `json:"is_dir"`
}

// ListResponse lists entries; Truncated is set when Limit was hit.
type ListResponse struct {
	Entries   []Entry `json:"entries"`
	Truncated bool    `json:"truncated,omitempty"`
}

// Service lists workspace directories, skipping .git and anything the
// workspace .gitignore ignores.
type Service struct {
	ws      *workspace.Context
	matcher gitignore.Matcher
}

// NewService creates a Service, loading patterns from the workspace root's
// .gitignore if present. A missing .gitignore means nothing is ignored.
func NewService(ws *workspace.Context) *Service {
	return &Service{ws: ws, matcher: loadIgnoreMatcher(ws.Root)}
}

// List returns the entries under the requested directory.
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	root, err := s.ws.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	resp := &ListResponse{}
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(s.ws.Root, path)
		if err != nil {
			return err
		}
		if d.Name() == ".git" && d.IsDir() {
			return filepath.SkipDir
		}
		if s.ignored(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if len(resp.Entries) >= req.Limit {
			resp.Truncated = true
			return filepath.SkipAll
		}
		resp.Entries = append(resp.Entries, Entry{Path: rel, IsDir: d.IsDir()})

		if d.IsDir() && !req.Recursive {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", req.Path, err)
	}
	return resp, nil
}

func (s *Service) ignored(rel string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	return s.matcher.Match(strings.Split(rel, string(filepath.Separator)), isDir)
}

func loadIgnoreMatcher(root string) gitignore.Matcher {
	data, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil
	}
	return gitignore.NewMatcher(patterns)
}
