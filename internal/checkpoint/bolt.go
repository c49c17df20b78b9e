package checkpoint

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/Cyclone1070/loom/internal/orchestrator/models"
)

var (
	messagesBucket = []byte("messages")
	pendingBucket  = []byte("pending")
)

// BoltStore persists checkpoints to a BoltDB file on disk. Each thread's
// history is stored as one JSON document; the pending approval cursor lives
// in its own bucket under the same thread key.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the checkpoint database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{messagesBucket, pendingBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init checkpoint buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) MergeMessages(threadID string, msgs []models.Message) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(messagesBucket)

		var stored []models.Message
		if raw := bkt.Get([]byte(threadID)); raw != nil {
			if err := json.Unmarshal(raw, &stored); err != nil {
				return fmt.Errorf("decode thread %s: %w", threadID, err)
			}
		}

		stored = mergeByID(stored, msgs)

		raw, err := json.Marshal(stored)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(threadID), raw)
	})
}

func (s *BoltStore) LoadMessages(threadID string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(messagesBucket).Get([]byte(threadID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &msgs)
	})
	if err != nil {
		return nil, fmt.Errorf("load thread %s: %w", threadID, err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return msgs, nil
}

func (s *BoltStore) SavePending(pending *models.PendingApproval) error {
	raw, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(pendingBucket).Put([]byte(pending.ThreadID), raw)
	})
}

func (s *BoltStore) LoadPending(threadID string) (*models.PendingApproval, error) {
	var pending *models.PendingApproval
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(pendingBucket).Get([]byte(threadID))
		if raw == nil {
			return ErrNotFound
		}
		pending = &models.PendingApproval{}
		return json.Unmarshal(raw, pending)
	})
	if err != nil {
		return nil, err
	}
	return pending, nil
}

func (s *BoltStore) ClearPending(threadID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(pendingBucket).Delete([]byte(threadID))
	})
}

func (s *BoltStore) DeleteThread(threadID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(messagesBucket).Delete([]byte(threadID)); err != nil {
			return err
		}
		return tx.Bucket(pendingBucket).Delete([]byte(threadID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

// mergeByID applies update-by-message-id semantics over stored history.
func mergeByID(stored, updates []models.Message) []models.Message {
	index := make(map[string]int, len(stored))
	for i, msg := range stored {
		index[msg.ID] = i
	}
	for _, msg := range updates {
		if i, ok := index[msg.ID]; ok && msg.ID != "" {
			stored[i] = msg
			continue
		}
		index[msg.ID] = len(stored)
		stored = append(stored, msg)
	}
	return stored
}
