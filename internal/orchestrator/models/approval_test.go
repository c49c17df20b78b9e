package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingApproval_ResolveRejectsDuplicate(t *testing.T) {
	pending := NewPendingApproval("t-1", "m-1")

	first := ApprovalDecision{Approved: true}
	require.True(t, pending.Resolve("c1", first))

	// A conflicting second decision is rejected and never overwrites.
	assert.False(t, pending.Resolve("c1", ApprovalDecision{Approved: false, Reason: "declined by user"}))

	got, ok := pending.Decision("c1")
	require.True(t, ok)
	assert.Equal(t, first, got)
}

func TestPendingApproval_DecisionUnknownCall(t *testing.T) {
	pending := NewPendingApproval("t-1", "m-1")

	_, ok := pending.Decision("missing")
	assert.False(t, ok)
}

func TestPendingApproval_ResolveDistinctCalls(t *testing.T) {
	pending := NewPendingApproval("t-1", "m-1")

	require.True(t, pending.Resolve("c1", ApprovalDecision{Approved: true}))
	require.True(t, pending.Resolve("c2", ApprovalDecision{Approved: false, Reason: "declined by user"}))

	approved, _ := pending.Decision("c1")
	declined, _ := pending.Decision("c2")
	assert.True(t, approved.Approved)
	assert.False(t, declined.Approved)
}
