package config

import (
	"slices"
	"sync"

	"github.com/Cyclone1070/loom/internal/policy"
)

// Service is the process-wide owner of the mutable settings. Reads and the
// single allowed runtime mutation (appending an allow rule) are serialized
// behind a mutex so concurrent conversation threads stay safe.
type Service struct {
	baseDir  string
	mu       sync.RWMutex
	settings Settings
}

// NewService loads settings from baseDir and wraps them.
func NewService(baseDir string) *Service {
	return &Service{
		baseDir:  baseDir,
		settings: Load(baseDir),
	}
}

// Settings returns a copy of the current settings.
func (s *Service) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings := s.settings
	settings.Permissions.Allow = slices.Clone(s.settings.Permissions.Allow)
	settings.Permissions.Deny = slices.Clone(s.settings.Permissions.Deny)
	return settings
}

// RuleSet returns the current permission rules parsed for the policy engine.
func (s *Service) RuleSet() policy.RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return policy.ParseRuleSet(s.settings.Permissions.Deny, s.settings.Permissions.Allow)
}

// Model returns the configured model name.
func (s *Service) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Model
}

// ContextWindowSize returns the configured token budget.
func (s *Service) ContextWindowSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.ContextWindowSize
}

// RecordApproval appends the allow rule synthesized for the given invocation
// and persists the settings. Appending is idempotent: an already-present rule
// is not duplicated and not re-saved. Deny rules are never written at
// runtime. Returns the rule in its persisted text form.
func (s *Service) RecordApproval(toolName string, args map[string]any) (string, error) {
	rule := policy.AllowRuleFor(toolName, args).String()

	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.settings.Permissions.Allow, rule) {
		return rule, nil
	}
	s.settings.Permissions.Allow = append(s.settings.Permissions.Allow, rule)
	if err := Save(s.baseDir, s.settings); err != nil {
		return rule, err
	}
	return rule, nil
}

// Reload re-reads settings from disk, discarding in-memory state.
func (s *Service) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = Load(s.baseDir)
}
