package agent

import (
	"github.com/Jeff-67/TonyStock/internal/agent/models"
)

// Conversation is the append-only ordered turn history of one exchange.
// It is owned exclusively by a single loop instance and is not safe for
// concurrent use; run one loop per conversation.
type Conversation struct {
	turns []models.Turn
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Rehydrate builds a conversation from previously stored turns, preserving
// their order. The caller hands over ownership of the slice.
func Rehydrate(turns []models.Turn) *Conversation {
	return &Conversation{turns: turns}
}

// Append adds a turn to the end of the history. Turns are never removed or
// reordered for the lifetime of the conversation.
func (c *Conversation) Append(turns ...models.Turn) {
	c.turns = append(c.turns, turns...)
}

// History returns the turns in insertion order. The returned slice is a copy;
// the insertion order is the context the model sees.
func (c *Conversation) History() []models.Turn {
	out := make([]models.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}
