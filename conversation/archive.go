package conversation

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/teambrain/internal/util"
)

// Entry is the searchable index record for a finalized conversation.
type Entry struct {
	ConversationID string    `json:"conversation_id"`
	TeamID         string    `json:"team_id"`
	ParticipantID  string    `json:"participant_id"`
	Summary        string    `json:"summary"`
	Tags           []string  `json:"tags,omitempty"`
	MessageCount   int       `json:"message_count"`
	FinalizedAt    time.Time `json:"finalized_at"`
}

// ScoredEntry pairs an archive entry with its query relevance.
type ScoredEntry struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// Archive indexes finalized conversation summaries for retrieval.
type Archive interface {
	// Index adds or replaces a finalized conversation's entry.
	Index(ctx context.Context, e Entry) error

	// Search returns a team's entries ranked against the query text.
	Search(ctx context.Context, teamID, text string, limit int) ([]ScoredEntry, error)
}

// InMemoryArchive holds entries per team and scores them by token overlap
// between the query and the entry's summary plus tags.
type InMemoryArchive struct {
	mu     sync.RWMutex
	byTeam map[string][]Entry
}

var _ Archive = (*InMemoryArchive)(nil)

// NewInMemoryArchive creates an empty archive.
func NewInMemoryArchive() *InMemoryArchive {
	return &InMemoryArchive{byTeam: make(map[string][]Entry)}
}

// Index implements Archive.
func (a *InMemoryArchive) Index(_ context.Context, e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := a.byTeam[e.TeamID]
	for i, existing := range entries {
		if existing.ConversationID == e.ConversationID {
			entries[i] = e
			return nil
		}
	}
	a.byTeam[e.TeamID] = append(entries, e)
	return nil
}

// Search implements Archive.
func (a *InMemoryArchive) Search(_ context.Context, teamID, text string, limit int) ([]ScoredEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if limit <= 0 {
		limit = 3
	}

	var scored []ScoredEntry
	for _, e := range a.byTeam[teamID] {
		haystack := e.Summary
		if len(e.Tags) > 0 {
			haystack += " " + strings.Join(e.Tags, " ")
		}
		sim := util.JaccardSimilarity(text, haystack)
		if sim == 0 {
			continue
		}
		scored = append(scored, ScoredEntry{Entry: e, Score: sim})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
