package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Cyclone1070/loom/internal/checkpoint"
	"github.com/Cyclone1070/loom/internal/orchestrator/models"
	"github.com/Cyclone1070/loom/internal/policy"
)

// Responder answers tool-approval interrupts, typically by prompting a human.
// It may block for an arbitrarily long time; the engine stays suspended until
// it returns or ctx is cancelled.
type Responder interface {
	RespondApproval(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error)

func (f ResponderFunc) RespondApproval(ctx context.Context, req models.ApprovalRequest) (models.ApprovalDecision, error) {
	return f(ctx, req)
}

// approveBatch resolves every call on the assistant message in emission
// order: the policy engine decides first, undecided calls suspend on the
// responder. Each decision is persisted to the pending cursor before the
// next call is considered, so a restart never re-asks an answered question.
// It returns the synthetic decline messages; an empty result means the whole
// batch may execute. The cursor stays in the store until toolRound has
// appended the batch's outcome, so a crash during execution resumes the
// batch instead of losing it.
func (e *Engine) approveBatch(ctx context.Context, assistant models.Message) ([]models.Message, error) {
	pending, err := e.loadCursor(assistant)
	if err != nil {
		return nil, err
	}

	var declines []models.Message
	for _, call := range assistant.ToolCalls {
		decision, resolved := pending.Decision(call.ID)
		if !resolved {
			decision, err = e.decideCall(ctx, call)
			if err != nil {
				// Responder gave no answer; the cursor keeps the
				// decisions made so far and the turn stays suspended.
				return nil, err
			}
			if !pending.Resolve(call.ID, decision) {
				e.log.Warn("duplicate approval decision ignored",
					zap.String("call", call.ID), zap.String("tool", call.Name))
			} else if err := e.store.SavePending(pending); err != nil {
				return nil, fmt.Errorf("checkpoint: %w", err)
			}
		}
		if !decision.Approved {
			reason := decision.Reason
			if reason == "" {
				reason = "declined by user"
			}
			text := fmt.Sprintf("Tool '%s' %s.", call.Name, reason)
			declines = append(declines, models.NewToolMessage(call.ID, call.Name, text))
		}
	}

	return declines, nil
}

// decideCall produces one decision: auto allow/deny from settings, otherwise
// a blocking round-trip through the responder.
func (e *Engine) decideCall(ctx context.Context, call models.ToolCall) (models.ApprovalDecision, error) {
	switch policy.Decide(e.settings.RuleSet(), call.Name, call.Args) {
	case policy.Allow:
		return models.ApprovalDecision{Approved: true}, nil
	case policy.Deny:
		return models.ApprovalDecision{Reason: "denied by settings"}, nil
	}

	decision, err := e.responder.RespondApproval(ctx, models.NewApprovalRequest(call))
	if err != nil {
		return models.ApprovalDecision{}, err
	}
	if decision.Approved && decision.RememberApproval {
		rule, err := e.settings.RecordApproval(call.Name, call.Args)
		if err != nil {
			return models.ApprovalDecision{}, fmt.Errorf("record approval: %w", err)
		}
		e.log.Info("recorded allow rule", zap.String("rule", rule))
	}
	return decision, nil
}

// loadCursor returns the pending cursor for this batch, starting a fresh one
// when none exists. A cursor left over from a different batch is stale and
// is replaced.
func (e *Engine) loadCursor(assistant models.Message) (*models.PendingApproval, error) {
	pending, err := e.store.LoadPending(e.state.ThreadID)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		pending = models.NewPendingApproval(e.state.ThreadID, assistant.ID)
	case err != nil:
		return nil, err
	case pending.AssistantMessageID != assistant.ID:
		e.log.Warn("discarding stale approval cursor",
			zap.String("thread", e.state.ThreadID),
			zap.String("stale_batch", pending.AssistantMessageID))
		pending = models.NewPendingApproval(e.state.ThreadID, assistant.ID)
	}
	if err := e.store.SavePending(pending); err != nil {
		return nil, fmt.Errorf("checkpoint: %w", err)
	}
	return pending, nil
}
