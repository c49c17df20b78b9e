// Package file implements the read_file, write_file, and insert_text tools.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Cyclone1070/loom/internal/tool/workspace"
)

// Service executes file operations inside the workspace.
type Service struct {
	ws *workspace.Context
}

// NewService creates a Service bound to the workspace.
func NewService(ws *workspace.Context) *Service {
	return &Service{ws: ws}
}

// Read returns the requested line range of a file.
func (s *Service) Read(ctx context.Context, req *ReadFileRequest) (*ReadFileResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path, err := s.ws.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Path, err)
	}

	lines := splitLines(string(data))
	total := len(lines)

	start := req.StartLine
	if total == 0 && start == 1 {
		// An empty file is readable, not a range error.
		return &ReadFileResponse{StartLine: 1, EndLine: 0, TotalLines: 0}, nil
	}
	if start > total {
		return nil, &InvalidRangeError{Reason: fmt.Sprintf("start_line %d is past end of file (%d lines)", start, total)}
	}
	end := req.EndLine
	if end == -1 || end > total {
		end = total
	}

	return &ReadFileResponse{
		Content:    strings.Join(lines[start-1:end], "\n"),
		StartLine:  start,
		EndLine:    end,
		TotalLines: total,
	}, nil
}

// Write overwrites (or creates) a file, creating parent directories.
func (s *Service) Write(ctx context.Context, req *WriteFileRequest) (*WriteFileResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path, err := s.ws.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(req.Content), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.Path, err)
	}

	return &WriteFileResponse{
		Path:         req.Path,
		LinesWritten: len(splitLines(req.Content)),
	}, nil
}

// Insert places content before the given 1-based line of an existing file.
func (s *Service) Insert(ctx context.Context, req *InsertTextRequest) (*InsertTextResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	path, err := s.ws.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.Path, err)
	}

	lines := splitLines(string(data))
	if req.LineNumber > len(lines)+1 {
		return nil, &InvalidRangeError{Reason: fmt.Sprintf("line_number %d is past end of file (%d lines)", req.LineNumber, len(lines))}
	}

	inserted := splitLines(req.Content)
	at := req.LineNumber - 1
	merged := make([]string, 0, len(lines)+len(inserted))
	merged = append(merged, lines[:at]...)
	merged = append(merged, inserted...)
	merged = append(merged, lines[at:]...)

	if err := os.WriteFile(path, []byte(strings.Join(merged, "\n")), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", req.Path, err)
	}

	return &InsertTextResponse{
		Path:          req.Path,
		LineNumber:    req.LineNumber,
		LinesInserted: len(inserted),
	}, nil
}

// splitLines splits on "\n" but treats an empty string as zero lines so line
// accounting matches what editors display.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}
