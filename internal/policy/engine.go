package policy

// Decision is the outcome of evaluating a tool invocation against a rule set.
type Decision int

const (
	// Undecided means no configured rule applies; the caller must ask a
	// human (or a responder-side policy). It is not an error.
	Undecided Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "undecided"
	}
}

// RuleSet holds the ordered deny and allow rule lists.
type RuleSet struct {
	Deny  []Rule
	Allow []Rule
}

// ParseRuleSet builds a RuleSet from the persisted text forms.
func ParseRuleSet(deny, allow []string) RuleSet {
	set := RuleSet{
		Deny:  make([]Rule, 0, len(deny)),
		Allow: make([]Rule, 0, len(allow)),
	}
	for _, text := range deny {
		set.Deny = append(set.Deny, ParseRule(text))
	}
	for _, text := range allow {
		set.Allow = append(set.Allow, ParseRule(text))
	}
	return set
}

// Decide evaluates a proposed tool invocation against the rule set.
// Deny rules are checked first, in list order: the first match wins and deny
// takes absolute precedence over allow regardless of list position. Then the
// allow rules, in order. If neither list matches, the result is Undecided.
func Decide(set RuleSet, toolName string, args map[string]any) Decision {
	for _, rule := range set.Deny {
		if rule.Matches(toolName, args) {
			return Deny
		}
	}
	for _, rule := range set.Allow {
		if rule.Matches(toolName, args) {
			return Allow
		}
	}
	return Undecided
}
