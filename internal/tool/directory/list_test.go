package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cyclone1070/loom/internal/tool/workspace"
)

func setupTree(t *testing.T, files map[string]string) *Service {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	ws, err := workspace.New(dir)
	require.NoError(t, err)
	return NewService(ws)
}

func paths(resp *ListResponse) []string {
	var out []string
	for _, e := range resp.Entries {
		out = append(out, e.Path)
	}
	return out
}

func TestListTopLevel(t *testing.T) {
	svc := setupTree(t, map[string]string{
		"main.go":        "package main",
		"sub/nested.go":  "package sub",
		"sub/deep/x.txt": "x",
	})

	resp, err := svc.List(context.Background(), &ListRequest{Path: "."})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "sub"}, paths(resp))
}

func TestListRecursive(t *testing.T) {
	svc := setupTree(t, map[string]string{
		"main.go":       "package main",
		"sub/nested.go": "package sub",
	})

	resp, err := svc.List(context.Background(), &ListRequest{Path: ".", Recursive: true})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go", "sub", filepath.Join("sub", "nested.go")}, paths(resp))
}

func TestListRespectsGitignore(t *testing.T) {
	svc := setupTree(t, map[string]string{
		".gitignore":     "build/\n*.log\n",
		"main.go":        "package main",
		"debug.log":      "noise",
		"build/out.bin":  "bin",
		"src/keep.go":    "package src",
		"src/trace.log":  "noise",
	})

	resp, err := svc.List(context.Background(), &ListRequest{Path: ".", Recursive: true})

	require.NoError(t, err)
	got := paths(resp)
	assert.Contains(t, got, "main.go")
	assert.Contains(t, got, filepath.Join("src", "keep.go"))
	assert.NotContains(t, got, "debug.log")
	assert.NotContains(t, got, "build")
	assert.NotContains(t, got, filepath.Join("src", "trace.log"))
}

func TestListSkipsGitDir(t *testing.T) {
	svc := setupTree(t, map[string]string{
		".git/HEAD": "ref: refs/heads/main",
		"main.go":   "package main",
	})

	resp, err := svc.List(context.Background(), &ListRequest{Path: ".", Recursive: true})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"main.go"}, paths(resp))
}

func TestListSubdirectory(t *testing.T) {
	svc := setupTree(t, map[string]string{
		"sub/a.txt": "a",
		"sub/b.txt": "b",
		"top.txt":   "t",
	})

	resp, err := svc.List(context.Background(), &ListRequest{Path: "sub"})

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join("sub", "a.txt"), filepath.Join("sub", "b.txt")}, paths(resp))
}

func TestListOutsideWorkspace(t *testing.T) {
	svc := setupTree(t, map[string]string{"a.txt": "a"})

	_, err := svc.List(context.Background(), &ListRequest{Path: "../elsewhere"})

	assert.ErrorIs(t, err, workspace.ErrOutsideRoot)
}

func TestListTruncation(t *testing.T) {
	svc := setupTree(t, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
		"c.txt": "c",
	})

	resp, err := svc.List(context.Background(), &ListRequest{Path: ".", Limit: 2})

	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)
	assert.True(t, resp.Truncated)
}
