package checkpoint

import (
	"sync"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
)

// MemoryStore is an in-memory Store used by tests and by one-shot runs that
// do not need durability.
type MemoryStore struct {
	mu       sync.RWMutex
	messages map[string][]models.Message
	pending  map[string]*models.PendingApproval
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		messages: make(map[string][]models.Message),
		pending:  make(map[string]*models.PendingApproval),
	}
}

func (s *MemoryStore) MergeMessages(threadID string, msgs []models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[threadID] = mergeByID(s.messages[threadID], msgs)
	return nil
}

func (s *MemoryStore) LoadMessages(threadID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Message, len(s.messages[threadID]))
	copy(out, s.messages[threadID])
	return out, nil
}

func (s *MemoryStore) SavePending(pending *models.PendingApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a deep copy so callers cannot mutate the checkpoint in place.
	saved := *pending
	saved.Resolved = make(map[string]models.ApprovalDecision, len(pending.Resolved))
	for id, d := range pending.Resolved {
		saved.Resolved[id] = d
	}
	s.pending[pending.ThreadID] = &saved
	return nil
}

func (s *MemoryStore) LoadPending(threadID string) (*models.PendingApproval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending, ok := s.pending[threadID]
	if !ok {
		return nil, ErrNotFound
	}
	loaded := *pending
	loaded.Resolved = make(map[string]models.ApprovalDecision, len(pending.Resolved))
	for id, d := range pending.Resolved {
		loaded.Resolved[id] = d
	}
	return &loaded, nil
}

func (s *MemoryStore) ClearPending(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, threadID)
	return nil
}

func (s *MemoryStore) DeleteThread(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.messages, threadID)
	delete(s.pending, threadID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
