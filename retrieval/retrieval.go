// Package retrieval assembles the relevant-context block injected into the
// model prompt at the start of each turn: team memories and archived
// conversation summaries scored against the utterance, deduplicated and
// capped.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/teambrain/conversation"
	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/logging"
	"github.com/hupe1980/teambrain/memory"
)

const (
	maxMemories  = 5
	maxSummaries = 3

	// workBoost rewards memories filed under a work-related category.
	workBoost = 0.2
	// techSummaryBoost rewards archived summaries naming a technology;
	// summaries that name none are slightly demoted.
	techSummaryBoost   = 0.3
	genericSummaryDrop = 0.1
)

var workCategories = map[string]bool{"work": true, "project": true, "code": true}

var technologyKeywords = []string{
	"postgres", "mysql", "redis", "kafka", "docker", "kubernetes",
	"grpc", "http", "api", "database", "migration", "pipeline", "deploy",
}

// Item is one retrieved piece of context.
type Item struct {
	Kind    string  `json:"kind"` // "memory" or "summary"
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// RankedContext is the assembled, capped context for one turn.
type RankedContext struct {
	Memories  []Item `json:"memories"`
	Summaries []Item `json:"summaries"`
}

// Empty reports whether nothing relevant was found.
func (rc RankedContext) Empty() bool {
	return len(rc.Memories) == 0 && len(rc.Summaries) == 0
}

// Render produces the labeled context block injected into the system
// prompt. Items appear with their scores so the model can weigh them.
func (rc RankedContext) Render() string {
	if rc.Empty() {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Relevant team context. You must use this context when answering:\n")
	for _, it := range rc.Memories {
		fmt.Fprintf(&sb, "- [memory %.2f] %s\n", it.Score, it.Content)
	}
	for _, it := range rc.Summaries {
		fmt.Fprintf(&sb, "- [past conversation %.2f] %s\n", it.Score, it.Content)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// MemorySearcher is the slice of the memory store the retriever needs.
type MemorySearcher interface {
	Search(ctx context.Context, q memory.Query) ([]memory.ScoredRecord, error)
}

// ArchiveSearcher is the slice of the conversation archive the retriever
// needs.
type ArchiveSearcher interface {
	Search(ctx context.Context, teamID, text string, limit int) ([]conversation.ScoredEntry, error)
}

// Retriever builds RankedContext for a turn. Retrieval is best effort: a
// failing source is logged and skipped rather than failing the turn.
type Retriever struct {
	memories  MemorySearcher
	summaries ArchiveSearcher
	logger    logging.Logger
}

// NewRetriever wires a retriever; either source may be nil.
func NewRetriever(memories MemorySearcher, summaries ArchiveSearcher, logger logging.Logger) *Retriever {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Retriever{memories: memories, summaries: summaries, logger: logger}
}

// Retrieve gathers, boosts, dedupes and caps context for the utterance.
func (r *Retriever) Retrieve(ctx context.Context, id core.Identity, utterance string) RankedContext {
	var memItems []Item
	if r.memories != nil {
		records, err := r.memories.Search(ctx, memory.Query{
			Text:   utterance,
			TeamID: id.TeamID,
			UserID: id.UserID,
			Limit:  maxMemories * 2, // over-fetch, boosts may reorder
		})
		if err != nil {
			r.logger.Warn("memory retrieval failed", "error", err)
		}
		for _, rec := range records {
			score := rec.Score
			if workCategories[rec.Record.Category] {
				score += workBoost
			}
			memItems = append(memItems, Item{
				Kind:    "memory",
				ID:      rec.Record.ID,
				Content: rec.Record.Content,
				Score:   score,
			})
		}
	}

	var sumItems []Item
	if r.summaries != nil {
		entries, err := r.summaries.Search(ctx, id.TeamID, utterance, maxSummaries*2)
		if err != nil {
			r.logger.Warn("archive retrieval failed", "error", err)
		}
		for _, e := range entries {
			score := e.Score
			if containsAny(strings.ToLower(e.Entry.Summary), technologyKeywords) {
				score += techSummaryBoost
			} else {
				score -= genericSummaryDrop
			}
			sumItems = append(sumItems, Item{
				Kind:    "summary",
				ID:      e.Entry.ConversationID,
				Content: e.Entry.Summary,
				Score:   score,
			})
		}
	}

	return RankedContext{
		Memories:  capItems(dedupeItems(memItems), maxMemories),
		Summaries: capItems(dedupeItems(sumItems), maxSummaries),
	}
}

// dedupeItems drops duplicate ids, keeping the higher-scored occurrence,
// and sorts by score descending.
func dedupeItems(items []Item) []Item {
	best := make(map[string]Item, len(items))
	for _, it := range items {
		if prev, ok := best[it.ID]; !ok || it.Score > prev.Score {
			best[it.ID] = it
		}
	}
	out := make([]Item, 0, len(best))
	for _, it := range best {
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func capItems(items []Item, n int) []Item {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
