package cli

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
)

//go:embed instructions.md
var staticInstructions string

// overrideFile is a project-local instructions document appended as a second
// system message when present in the workspace root.
const overrideFile = "AGENTS.md"

// loadInstructions returns the system instruction documents in the order
// they are sent to the model.
func loadInstructions(workspaceRoot string) []string {
	docs := []string{strings.TrimSpace(staticInstructions)}

	data, err := os.ReadFile(filepath.Join(workspaceRoot, overrideFile))
	if err != nil {
		return docs
	}
	override := strings.TrimSpace(string(data))
	if override != "" {
		docs = append(docs, override)
	}
	return docs
}
