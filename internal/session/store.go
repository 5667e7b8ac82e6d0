// Package session persists conversation history between requests so a user
// can hold a multi-turn exchange. The agent core only consumes rehydrated
// turns; everything about storage lives here.
package session

import (
	"context"
	"sync"

	"github.com/Jeff-67/TonyStock/internal/agent/models"
)

// Store loads and saves per-session conversation history.
type Store interface {
	// Load returns the stored turns for id, oldest first. A session that was
	// never saved yields an empty slice and no error.
	Load(ctx context.Context, id string) ([]models.Turn, error)

	// Save replaces the stored turns for id.
	Save(ctx context.Context, id string, turns []models.Turn) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps sessions in process memory. Sessions are capped to the
// most recent maxTurns turns so one chatty user cannot grow without bound.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]models.Turn
	maxTurns int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(maxTurns int) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]models.Turn),
		maxTurns: maxTurns,
	}
}

func (s *MemoryStore) Load(ctx context.Context, id string) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.sessions[id]
	out := make([]models.Turn, len(stored))
	copy(out, stored)
	return out, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, turns []models.Turn) error {
	turns = capTurns(turns, s.maxTurns)
	stored := make([]models.Turn, len(turns))
	copy(stored, turns)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = stored
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// capTurns keeps the most recent maxTurns turns, never splitting a round:
// the cut is moved forward past any leading tool_result turns so the model
// never sees a result without its originating request.
func capTurns(turns []models.Turn, maxTurns int) []models.Turn {
	if maxTurns <= 0 || len(turns) <= maxTurns {
		return turns
	}
	cut := len(turns) - maxTurns
	for cut < len(turns) && turns[cut].Role == models.RoleToolResult {
		cut++
	}
	return turns[cut:]
}
