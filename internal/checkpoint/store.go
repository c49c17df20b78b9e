// Package checkpoint persists conversation state and suspended approval
// cursors keyed by thread id, so a process restart during a pending tool
// approval resumes exactly where it left off.
package checkpoint

import (
	"errors"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
)

// ErrNotFound is returned when a thread or pending record does not exist.
var ErrNotFound = errors.New("checkpoint: not found")

// Store is the persistence interface for conversation checkpoints.
type Store interface {
	// MergeMessages applies messages to the stored history of threadID
	// with update-by-message-id semantics: an id already present replaces
	// the stored message, anything else is appended.
	MergeMessages(threadID string, msgs []models.Message) error

	// LoadMessages returns the stored history for threadID in order.
	// A thread with no history returns an empty slice, not ErrNotFound.
	LoadMessages(threadID string) ([]models.Message, error)

	// SavePending durably records the suspended approval cursor.
	SavePending(pending *models.PendingApproval) error

	// LoadPending returns the suspended approval cursor for threadID,
	// or ErrNotFound if the thread is not suspended.
	LoadPending(threadID string) (*models.PendingApproval, error)

	// ClearPending removes the suspended approval cursor, if any.
	ClearPending(threadID string) error

	// DeleteThread removes the history and any pending cursor.
	DeleteThread(threadID string) error

	// Close releases resources held by the store.
	Close() error
}
