package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hupe1980/teambrain/core"
)

// Transcript is the durable record written when a conversation finalizes.
// Only conversational (user/assistant) messages are retained.
type Transcript struct {
	ConversationID string         `json:"conversation_id"`
	TeamID         string         `json:"team_id"`
	ParticipantID  string         `json:"participant_id"`
	Summary        string         `json:"summary"`
	Tags           []string       `json:"tags,omitempty"`
	Messages       []core.Message `json:"messages"`
	FinalizedAt    time.Time      `json:"finalized_at"`
}

// TranscriptSink persists finalized transcripts.
type TranscriptSink interface {
	// Write durably stores a transcript. An error leaves the
	// conversation active so finalization can be retried.
	Write(ctx context.Context, t Transcript) error

	// Read loads a stored transcript by conversation id.
	Read(ctx context.Context, conversationID string) (Transcript, error)
}

// InMemorySink keeps transcripts in process memory. Used in tests and as
// the default sink.
type InMemorySink struct {
	mu   sync.RWMutex
	byID map[string]Transcript
}

var _ TranscriptSink = (*InMemorySink)(nil)

// NewInMemorySink creates an empty sink.
func NewInMemorySink() *InMemorySink {
	return &InMemorySink{byID: make(map[string]Transcript)}
}

// Write implements TranscriptSink.
func (s *InMemorySink) Write(_ context.Context, t Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[t.ConversationID] = t
	return nil
}

// Read implements TranscriptSink.
func (s *InMemorySink) Read(_ context.Context, conversationID string) (Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[conversationID]
	if !ok {
		return Transcript{}, core.ErrConversationNotFound
	}
	return t, nil
}

// FileSink writes each transcript as a JSON file under a base directory,
// bucketed per team.
type FileSink struct {
	dir string
}

var _ TranscriptSink = (*FileSink)(nil)

// NewFileSink creates a sink rooted at dir, creating it if needed.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("conversation: create transcript dir: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Write implements TranscriptSink.
func (s *FileSink) Write(_ context.Context, t Transcript) error {
	teamDir := filepath.Join(s.dir, t.TeamID)
	if err := os.MkdirAll(teamDir, 0o755); err != nil {
		return fmt.Errorf("conversation: create team dir: %w", err)
	}
	raw, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("conversation: encode transcript: %w", err)
	}
	path := filepath.Join(teamDir, t.ConversationID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("conversation: write transcript: %w", err)
	}
	return os.Rename(tmp, path)
}

// Read implements TranscriptSink.
func (s *FileSink) Read(_ context.Context, conversationID string) (Transcript, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*", conversationID+".json"))
	if err != nil || len(matches) == 0 {
		return Transcript{}, core.ErrConversationNotFound
	}
	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return Transcript{}, fmt.Errorf("conversation: read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return Transcript{}, fmt.Errorf("conversation: decode transcript: %w", err)
	}
	return t, nil
}
