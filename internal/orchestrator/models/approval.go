package models

// ApprovalDecision is the answer to one tool-approval interrupt, produced
// either by the policy engine or by a human responder.
type ApprovalDecision struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty"`

	// RememberApproval asks the engine to record a persistent allow rule
	// for this invocation ("always allow").
	RememberApproval bool `json:"remember_approval,omitempty"`
}

// ApprovalRequest is the structured interrupt payload surfaced to the
// external responder while the turn engine is suspended.
type ApprovalRequest struct {
	Type      string         `json:"type"` // always "tool_approval"
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	CallID    string         `json:"call_id"`
}

// NewApprovalRequest builds the interrupt payload for one tool call.
func NewApprovalRequest(call ToolCall) ApprovalRequest {
	return ApprovalRequest{
		Type:      "tool_approval",
		ToolName:  call.Name,
		Arguments: call.Args,
		CallID:    call.ID,
	}
}

// PendingApproval is the durable cursor of a suspended approval step: which
// assistant message's batch is being resolved and the decisions already
// collected. Persisting it lets a process restart resume mid-batch without
// re-asking for calls that were already answered.
type PendingApproval struct {
	ThreadID           string                      `json:"thread_id"`
	AssistantMessageID string                      `json:"assistant_message_id"`
	Resolved           map[string]ApprovalDecision `json:"resolved"`
}

// NewPendingApproval starts an empty cursor for the given batch.
func NewPendingApproval(threadID, assistantMessageID string) *PendingApproval {
	return &PendingApproval{
		ThreadID:           threadID,
		AssistantMessageID: assistantMessageID,
		Resolved:           make(map[string]ApprovalDecision),
	}
}

// Decision returns the recorded decision for callID, if any.
func (p *PendingApproval) Decision(callID string) (ApprovalDecision, bool) {
	d, ok := p.Resolved[callID]
	return d, ok
}

// Resolve records a decision for callID. It reports false if the call was
// already resolved; the stored decision is never overwritten.
func (p *PendingApproval) Resolve(callID string, decision ApprovalDecision) bool {
	if _, done := p.Resolved[callID]; done {
		return false
	}
	if p.Resolved == nil {
		p.Resolved = make(map[string]ApprovalDecision)
	}
	p.Resolved[callID] = decision
	return true
}
