// Package policy decides whether a proposed tool invocation is allowed,
// denied, or needs a human decision. It is pure: rule sets go in, a decision
// comes out, nothing here blocks or prompts.
package policy

import (
	"regexp"
	"strings"
)

// ShellCommandTool is the only tool whose rules may carry a command pattern.
const ShellCommandTool = "run_shell_command"

// Rule is a single permission rule: a tool name and an optional command
// pattern. The persisted text form is "tool_name" or "tool_name(pattern)".
type Rule struct {
	Tool    string
	Pattern string // empty means "any invocation of Tool"
}

var rulePattern = regexp.MustCompile(`^([a-z_]+)(?:\((.+)\))?$`)

// ParseRule parses the persisted text form of a rule. Text that does not
// match the rule grammar is treated as a bare tool name, which can then only
// match a tool literally named that way.
func ParseRule(text string) Rule {
	m := rulePattern.FindStringSubmatch(text)
	if m == nil {
		return Rule{Tool: text}
	}
	return Rule{Tool: m[1], Pattern: m[2]}
}

// String returns the persisted text form of the rule.
func (r Rule) String() string {
	if r.Pattern == "" {
		return r.Tool
	}
	return r.Tool + "(" + r.Pattern + ")"
}

// Matches reports whether a proposed invocation of toolName with args falls
// under this rule. Tool names compare exactly. A rule without a pattern
// matches any invocation of its tool. Patterns are a shell-specific
// capability: a pattern attached to any other tool never matches.
func (r Rule) Matches(toolName string, args map[string]any) bool {
	if r.Tool != toolName {
		return false
	}
	if r.Pattern == "" {
		return true
	}
	if toolName != ShellCommandTool {
		return false
	}
	command, _ := args["command"].(string)
	return matchCommandPattern(command, r.Pattern)
}

// matchCommandPattern matches a shell command against a rule pattern.
// A pattern ending in ":*" matches the literal prefix before ":*", or that
// prefix followed by a space and anything. Any other pattern must equal the
// command exactly. Both sides are whitespace-trimmed.
func matchCommandPattern(command, pattern string) bool {
	command = strings.TrimSpace(command)
	pattern = strings.TrimSpace(pattern)

	if prefix, ok := strings.CutSuffix(pattern, ":*"); ok {
		return command == prefix || strings.HasPrefix(command, prefix+" ")
	}
	return command == pattern
}

// AllowRuleFor synthesizes the allow rule recorded when a human approves a
// call with "always". For the shell tool the rule is built from the first
// whitespace-delimited token of the command plus a ":*" wildcard, so
// approving "git status" also allows "git log". Other tools get a bare tool
// name rule.
func AllowRuleFor(toolName string, args map[string]any) Rule {
	if toolName != ShellCommandTool {
		return Rule{Tool: toolName}
	}
	command, _ := args["command"].(string)
	fields := strings.Fields(command)
	prefix := command
	if len(fields) > 0 {
		prefix = fields[0]
	}
	return Rule{Tool: ShellCommandTool, Pattern: prefix + ":*"}
}
