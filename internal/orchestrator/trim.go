package orchestrator

import (
	"encoding/json"
	"errors"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
)

// ErrContextBudget means the history cannot fit the token budget even after
// maximal trimming. This is a configuration error (budget too small for the
// system instructions plus one exchange), not a condition to retry past.
var ErrContextBudget = errors.New("context window budget too small for conversation")

// TokenCounter estimates the token count of a message's flattened textual
// content. The only requirement is monotonicity: longer text never yields
// fewer tokens. The same counter must be used consistently for budgeting.
type TokenCounter func(text string) int

// EstimateTokens is the default counter, a chars/4 heuristic.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Trim returns a suffix of msgs whose counted token total fits budget.
//
// System messages are always retained: they are pulled out and prepended
// unconditionally, and only the remaining history is eligible for dropping.
// Messages are dropped from the front of that remainder until the oldest
// retained message is a Human message, so the cut never splits a
// Human/Assistant/Tool exchange. If not even the system messages plus an
// empty remainder fit, Trim fails with ErrContextBudget.
func Trim(msgs []models.Message, budget int, counter TokenCounter) ([]models.Message, error) {
	if counter == nil {
		counter = EstimateTokens
	}

	var system, rest []models.Message
	for _, msg := range msgs {
		if msg.Role == models.RoleSystem {
			system = append(system, msg)
		} else {
			rest = append(rest, msg)
		}
	}

	used := 0
	for _, msg := range system {
		used += counter(messageText(msg))
	}

	// Token total of rest[i:], computed once from the back.
	suffix := make([]int, len(rest)+1)
	for i := len(rest) - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + counter(messageText(rest[i]))
	}

	for drop := 0; drop <= len(rest); drop++ {
		if drop < len(rest) && rest[drop].Role != models.RoleHuman {
			continue
		}
		if used+suffix[drop] <= budget {
			return append(system, rest[drop:]...), nil
		}
	}
	return nil, ErrContextBudget
}

// messageText flattens a message into the text the counter sees: the content
// plus, for assistant messages, each tool call's name and arguments.
func messageText(msg models.Message) string {
	text := msg.Content
	for _, call := range msg.ToolCalls {
		text += call.Name
		if args, err := json.Marshal(call.Args); err == nil {
			text += string(args)
		}
	}
	return text
}
