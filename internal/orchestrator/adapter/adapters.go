package adapter

import (
	provider "github.com/Cyclone1070/loom/internal/provider/models"
	"github.com/Cyclone1070/loom/internal/tool/directory"
	"github.com/Cyclone1070/loom/internal/tool/file"
	"github.com/Cyclone1070/loom/internal/tool/shell"
	"github.com/Cyclone1070/loom/internal/tool/todo"
)

// This file consolidates all tool adapters using the BaseAdapter pattern.
// Each adapter is a constructor function instead of a full type definition.

// NewReadFile creates a read_file adapter
func NewReadFile(svc *file.Service) Tool {
	return NewBaseAdapter(
		"read_file",
		"Reads a file from the workspace, optionally restricted to a line range",
		&provider.ParameterSchema{
			Type: "object",
			Properties: map[string]provider.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to the file (relative to workspace root)",
				},
				"start_line": {
					Type:        "integer",
					Description: "First line to read (1-based, default 1)",
				},
				"end_line": {
					Type:        "integer",
					Description: "Last line to read inclusive (-1 for end of file)",
				},
			},
			Required: []string{"path"},
		},
		svc.Read,
	)
}

// NewWriteFile creates a write_file adapter
func NewWriteFile(svc *file.Service) Tool {
	return NewBaseAdapter(
		"write_file",
		"Creates or overwrites a file in the workspace",
		&provider.ParameterSchema{
			Type: "object",
			Properties: map[string]provider.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to the file (relative to workspace root)",
				},
				"content": {
					Type:        "string",
					Description: "File content",
				},
			},
			Required: []string{"path", "content"},
		},
		svc.Write,
	)
}

// NewInsertText creates an insert_text adapter
func NewInsertText(svc *file.Service) Tool {
	return NewBaseAdapter(
		"insert_text",
		"Inserts text before a given line in an existing file",
		&provider.ParameterSchema{
			Type: "object",
			Properties: map[string]provider.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Path to the file (relative to workspace root)",
				},
				"line_number": {
					Type:        "integer",
					Description: "Line the text is inserted before (1-based, one past the last line appends)",
				},
				"content": {
					Type:        "string",
					Description: "Text to insert",
				},
			},
			Required: []string{"path", "line_number", "content"},
		},
		svc.Insert,
	)
}

// NewListDirectory creates a list_directory adapter
func NewListDirectory(svc *directory.Service) Tool {
	return NewBaseAdapter(
		"list_directory",
		"Lists directory contents, honoring the workspace .gitignore",
		&provider.ParameterSchema{
			Type: "object",
			Properties: map[string]provider.PropertySchema{
				"path": {
					Type:        "string",
					Description: "Directory path (relative to workspace root, defaults to the root)",
				},
				"recursive": {
					Type:        "boolean",
					Description: "Recurse into subdirectories",
				},
				"limit": {
					Type:        "integer",
					Description: "Maximum number of entries to return",
				},
			},
		},
		svc.List,
	)
}

// NewRunShellCommand creates a run_shell_command adapter
func NewRunShellCommand(svc *shell.Service) Tool {
	return NewBaseAdapter(
		"run_shell_command",
		"Executes a shell command in the workspace and returns its combined output",
		&provider.ParameterSchema{
			Type: "object",
			Properties: map[string]provider.PropertySchema{
				"command": {
					Type:        "string",
					Description: "The shell command to execute",
				},
			},
			Required: []string{"command"},
		},
		svc.Run,
	)
}

// NewReadTodos creates a read_todos adapter
func NewReadTodos(svc *todo.Service) Tool {
	return NewBaseAdapter(
		"read_todos",
		"Reads the current TODO list",
		&provider.ParameterSchema{
			Type:       "object",
			Properties: map[string]provider.PropertySchema{},
		},
		svc.Read,
	)
}

// NewWriteTodos creates a write_todos adapter
func NewWriteTodos(svc *todo.Service) Tool {
	return NewBaseAdapter(
		"write_todos",
		"Replaces the TODO list with the given items",
		&provider.ParameterSchema{
			Type: "object",
			Properties: map[string]provider.PropertySchema{
				"todos": {
					Type:        "array",
					Description: "Full replacement TODO list",
					Items: &provider.PropertySchema{
						Type: "object",
					},
				},
			},
			Required: []string{"todos"},
		},
		svc.Write,
	)
}
