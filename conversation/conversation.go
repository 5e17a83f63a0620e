// Package conversation manages active conversation state and its end of
// life: the in-memory working transcript, single-writer turn locking,
// durable transcript persistence, and the searchable archive of finalized
// conversations.
package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/teambrain/core"
)

// Status is a conversation's lifecycle state.
type Status string

const (
	// StatusActive accepts new turns.
	StatusActive Status = "active"
	// StatusFinalized is terminal; the conversation has been summarized
	// and removed from the active store.
	StatusFinalized Status = "finalized"
)

// Conversation is the in-memory working state of one dialogue. The full
// message list includes system and tool messages; only conversational
// messages survive finalization.
type Conversation struct {
	ID            string         `json:"id"`
	TeamID        string         `json:"team_id"`
	ParticipantID string         `json:"participant_id"`
	Messages      []core.Message `json:"messages"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// ConversationalCount returns the number of durable (user/assistant)
// messages, which drives auto-finalization thresholds.
func (c *Conversation) ConversationalCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.IsConversational() {
			n++
		}
	}
	return n
}

// Store keeps active conversations and serializes turns per conversation.
// Safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*Conversation
	inFlight map[string]bool
	clock    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		byID:     make(map[string]*Conversation),
		inFlight: make(map[string]bool),
		clock:    time.Now,
	}
}

// Create starts a new active conversation for the given participant,
// generating an id when none is supplied.
func (s *Store) Create(_ context.Context, id, teamID, participantID string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.create(id, teamID, participantID))
}

func (s *Store) create(id, teamID, participantID string) *Conversation {
	if id == "" {
		id = core.NewID()
	}
	now := s.clock()
	conv := &Conversation{
		ID:            id,
		TeamID:        teamID,
		ParticipantID: participantID,
		Status:        StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.byID[id] = conv
	return conv
}

// Get returns a snapshot of an active conversation.
func (s *Store) Get(_ context.Context, id string) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.byID[id]
	if !ok {
		return Conversation{}, core.ErrConversationNotFound
	}
	return snapshot(conv), nil
}

// GetOrCreate returns the active conversation with the given id, creating
// it when absent.
func (s *Store) GetOrCreate(_ context.Context, id, teamID, participantID string) Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if conv, ok := s.byID[id]; ok {
			return snapshot(conv)
		}
	}
	return snapshot(s.create(id, teamID, participantID))
}

// Append adds messages to a conversation's working transcript.
func (s *Store) Append(_ context.Context, id string, msgs ...core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return core.ErrConversationNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	conv.UpdatedAt = s.clock()
	return nil
}

// Remove deletes a conversation from the active store, returning its final
// snapshot marked finalized.
func (s *Store) Remove(_ context.Context, id string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return Conversation{}, core.ErrConversationNotFound
	}
	delete(s.byID, id)
	out := snapshot(conv)
	out.Status = StatusFinalized
	return out, nil
}

// TryAcquire claims the single-writer turn lock for a conversation id.
// It returns core.ErrTurnInFlight when another turn holds the lock.
func (s *Store) TryAcquire(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight[id] {
		return core.ErrTurnInFlight
	}
	s.inFlight[id] = true
	return nil
}

// Release frees the turn lock claimed by TryAcquire.
func (s *Store) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
}

func snapshot(c *Conversation) Conversation {
	out := *c
	out.Messages = append([]core.Message(nil), c.Messages...)
	return out
}
