package models

// ConversationState is the ordered message history of one conversation
// thread. It is owned exclusively by the turn engine; external callers only
// append Human messages or request a full reset.
type ConversationState struct {
	ThreadID string
	messages []Message
}

// NewConversationState creates an empty conversation bound to threadID.
func NewConversationState(threadID string) *ConversationState {
	return &ConversationState{ThreadID: threadID}
}

// Messages returns a copy of the history in insertion order.
func (c *ConversationState) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages in the history.
func (c *ConversationState) Len() int {
	return len(c.messages)
}

// Last returns the most recent message and true, or a zero Message and false
// when the history is empty.
func (c *ConversationState) Last() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Merge applies messages to the history: a message whose id already exists
// replaces the stored one in place, anything else is appended. Replace-by-id
// is what makes checkpoint resumption idempotent.
func (c *ConversationState) Merge(msgs ...Message) {
	for _, msg := range msgs {
		if i := c.indexOf(msg.ID); i >= 0 {
			c.messages[i] = msg
			continue
		}
		c.messages = append(c.messages, msg)
	}
}

// Reset clears the history to empty.
func (c *ConversationState) Reset() {
	c.messages = nil
}

func (c *ConversationState) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range c.messages {
		if c.messages[i].ID == id {
			return i
		}
	}
	return -1
}
