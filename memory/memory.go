// Package memory provides the shared knowledge store: team-scoped records
// with visibility control, confidence tracking, verification, and
// similarity-ranked search.
package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hupe1980/teambrain/core"
)

// ErrRecordNotFound is returned when a record id does not exist or is not
// visible to the caller.
var ErrRecordNotFound = errors.New("memory: record not found")

// Visibility controls who can read a record.
type Visibility string

const (
	// VisibilityPrivate restricts a record to its author.
	VisibilityPrivate Visibility = "private"
	// VisibilityTeam shares a record with the author's team.
	VisibilityTeam Visibility = "team"
	// VisibilityPublic allows read access across teams. Writes and
	// verification still require team membership.
	VisibilityPublic Visibility = "public"
)

// importanceKeywords raise the initial confidence of a record whose content
// mentions them.
var importanceKeywords = []string{
	"decision", "important", "critical", "urgent", "bug", "fix", "solution",
}

const (
	baseConfidence      = 0.5
	importantConfidence = 0.8
	verifyBoost         = 0.1
	maxConfidence       = 1.0
)

// Record is a single stored memory.
type Record struct {
	ID           string     `json:"id"`
	Content      string     `json:"content"`
	Author       string     `json:"author"`
	TeamID       string     `json:"team_id"`
	Category     string     `json:"category,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Visibility   Visibility `json:"visibility"`
	Confidence   float64    `json:"confidence"`
	Timestamp    time.Time  `json:"timestamp"`
	VerifiedBy   []string   `json:"verified_by,omitempty"`
	Interactions int        `json:"interactions"`
}

// ScoredRecord pairs a record with its relevance score for a query.
type ScoredRecord struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}

// Query describes a search over the store. TeamID and UserID scope
// visibility; Category and Tags filter before scoring; Limit caps results.
type Query struct {
	Text     string
	TeamID   string
	UserID   string
	Category string
	Tags     []string
	Limit    int
}

// Insights aggregates a team's knowledge base.
type Insights struct {
	TeamID         string         `json:"team_id"`
	TotalRecords   int            `json:"total_records"`
	Last24h        int            `json:"last_24h"`
	ByCategory     map[string]int `json:"by_category"`
	TopTags        map[string]int `json:"top_tags"`
	TopContrib     map[string]int `json:"top_contributors"`
	AvgConfidence  float64        `json:"avg_confidence"`
	Verified       int            `json:"verified_records"`
	MostInteracted string         `json:"most_interacted_id,omitempty"`
}

// Store is the memory persistence interface. Implementations must be safe
// for concurrent use.
type Store interface {
	// Store persists a new record and returns it with id, confidence and
	// timestamp populated.
	Store(ctx context.Context, rec Record) (Record, error)

	// Search returns records visible to the query's user/team, ranked by
	// similarity x confidence. Matching records have their interaction
	// count incremented.
	Search(ctx context.Context, q Query) ([]ScoredRecord, error)

	// Verify records a confirmation by userID, bumping confidence. A user
	// can verify a record at most once; confidence never decreases.
	Verify(ctx context.Context, id, userID, teamID string) (Record, error)

	// Related returns up to limit records similar to the given one,
	// within the same visibility scope.
	Related(ctx context.Context, id, userID, teamID string, limit int) ([]ScoredRecord, error)

	// Insights aggregates statistics over a team's records.
	Insights(ctx context.Context, teamID string) (Insights, error)
}

// initialConfidence derives a new record's starting confidence from its
// content: mentions of importance keywords mark it as high-signal.
func initialConfidence(content string) float64 {
	lower := strings.ToLower(content)
	for _, kw := range importanceKeywords {
		if strings.Contains(lower, kw) {
			return importantConfidence
		}
	}
	return baseConfidence
}

// visibleTo reports whether rec may be read by the given user and team.
func visibleTo(rec Record, userID, teamID string) bool {
	switch rec.Visibility {
	case VisibilityPrivate:
		return rec.Author == userID
	case VisibilityTeam:
		return rec.TeamID == teamID
	case VisibilityPublic:
		return true
	default:
		return false
	}
}

// NewRecord builds a record from the caller's identity, applying defaults.
func NewRecord(id core.Identity, content, category string, tags []string, vis Visibility) Record {
	if vis == "" {
		vis = VisibilityTeam
	}
	return Record{
		Content:    content,
		Author:     id.UserID,
		TeamID:     id.TeamID,
		Category:   category,
		Tags:       tags,
		Visibility: vis,
	}
}
