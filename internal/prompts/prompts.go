// Package prompts loads user-defined prompt templates from
// .loom/prompts/*.prompt.md files.
package prompts

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	// Extension identifies prompt template files.
	Extension = ".prompt.md"

	frontmatterDelimiter = "---"
	argsPlaceholder      = "{{args}}"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Prompt is one loaded template. Name is what the user types after the
// slash; Body may contain an {{args}} placeholder.
type Prompt struct {
	Name        string
	Description string
	Body        string
}

// Render substitutes args into the template. A template without the
// placeholder gets the args appended after a blank line instead, so trailing
// user input is never silently dropped.
func (p Prompt) Render(args string) string {
	if strings.Contains(p.Body, argsPlaceholder) {
		return strings.ReplaceAll(p.Body, argsPlaceholder, args)
	}
	if args == "" {
		return p.Body
	}
	return p.Body + "\n\n" + args
}

type frontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Library holds the loaded prompts keyed by name.
type Library struct {
	prompts map[string]Prompt
	names   []string
}

// Load reads every *.prompt.md file under dir. Files that fail to parse or
// carry an invalid name are skipped with a warning; a missing directory
// yields an empty library.
func Load(dir string, log *zap.Logger) *Library {
	if log == nil {
		log = zap.NewNop()
	}
	lib := &Library{prompts: make(map[string]Prompt)}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return lib
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Extension) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		prompt, err := parseFile(path)
		if err != nil {
			log.Warn("skipping prompt file", zap.String("path", path), zap.Error(err))
			continue
		}
		if _, dup := lib.prompts[prompt.Name]; dup {
			log.Warn("skipping duplicate prompt", zap.String("path", path), zap.String("name", prompt.Name))
			continue
		}
		lib.prompts[prompt.Name] = prompt
		lib.names = append(lib.names, prompt.Name)
	}
	return lib
}

// Lookup returns the prompt registered under name.
func (l *Library) Lookup(name string) (Prompt, bool) {
	p, ok := l.prompts[name]
	return p, ok
}

// Names returns prompt names in load order.
func (l *Library) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func parseFile(path string) (Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Prompt{}, err
	}

	meta, body, err := splitFrontmatter(data)
	if err != nil {
		return Prompt{}, err
	}

	var fm frontmatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return Prompt{}, fmt.Errorf("invalid frontmatter: %w", err)
	}
	if !namePattern.MatchString(fm.Name) {
		return Prompt{}, fmt.Errorf("invalid prompt name %q", fm.Name)
	}
	return Prompt{
		Name:        fm.Name,
		Description: fm.Description,
		Body:        strings.TrimSpace(string(body)),
	}, nil
}

func splitFrontmatter(data []byte) (meta, body []byte, err error) {
	trimmed := bytes.TrimLeft(data, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte(frontmatterDelimiter+"\n")) {
		return nil, nil, fmt.Errorf("missing frontmatter")
	}
	rest := trimmed[len(frontmatterDelimiter)+1:]
	end := bytes.Index(rest, []byte("\n"+frontmatterDelimiter))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter")
	}
	meta = rest[:end]
	body = rest[end+len("\n"+frontmatterDelimiter):]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	return meta, body, nil
}
