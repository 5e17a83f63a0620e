package conversation

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/logging"
	"github.com/hupe1980/teambrain/model"
)

// summaryPrompt asks the model for a compact transcript summary.
const summaryPrompt = "Summarize the following conversation in at most three sentences. " +
	"Mention concrete decisions, action items and technical topics. Reply with the summary only."

// tagVocabulary maps transcript keywords to archive tags.
var tagVocabulary = map[string][]string{
	"deployment": {"deploy", "release", "rollout", "pipeline"},
	"database":   {"postgres", "mysql", "database", "migration", "sql"},
	"incident":   {"outage", "incident", "pagerduty", "alert", "down"},
	"planning":   {"roadmap", "sprint", "planning", "milestone", "deadline"},
	"code":       {"bug", "fix", "refactor", "review", "merge", "test"},
	"reminder":   {"remind", "reminder", "due"},
}

// Finalizer turns an active conversation into a durable transcript and a
// searchable archive entry, then removes it from the active store.
type Finalizer struct {
	store   *Store
	sink    TranscriptSink
	archive Archive
	model   model.Model // may be nil; extractive fallback is used then
	logger  logging.Logger
}

// NewFinalizer wires a finalizer. model may be nil to always use the
// extractive summary.
func NewFinalizer(store *Store, sink TranscriptSink, archive Archive, m model.Model, logger logging.Logger) *Finalizer {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Finalizer{store: store, sink: sink, archive: archive, model: m, logger: logger}
}

// Finalize summarizes, persists and archives the conversation, removing it
// from the active store on success. When the sink or archive fails the
// conversation stays active and the error is returned wrapped in
// *core.FinalizationError so the caller can retry.
func (f *Finalizer) Finalize(ctx context.Context, conversationID string) (Transcript, error) {
	conv, err := f.store.Get(ctx, conversationID)
	if err != nil {
		return Transcript{}, err
	}

	durable := core.FilterConversational(conv.Messages)
	summary := f.summarize(ctx, durable)
	tags := autoTags(durable)

	t := Transcript{
		ConversationID: conv.ID,
		TeamID:         conv.TeamID,
		ParticipantID:  conv.ParticipantID,
		Summary:        summary,
		Tags:           tags,
		Messages:       durable,
		FinalizedAt:    conv.UpdatedAt,
	}

	if err := f.sink.Write(ctx, t); err != nil {
		f.logger.Error("transcript write failed", "conversation_id", conv.ID, "error", err)
		return Transcript{}, &core.FinalizationError{ConversationID: conv.ID, Err: err}
	}
	if err := f.archive.Index(ctx, Entry{
		ConversationID: conv.ID,
		TeamID:         conv.TeamID,
		ParticipantID:  conv.ParticipantID,
		Summary:        summary,
		Tags:           tags,
		MessageCount:   len(durable),
		FinalizedAt:    t.FinalizedAt,
	}); err != nil {
		f.logger.Error("archive index failed", "conversation_id", conv.ID, "error", err)
		return Transcript{}, &core.FinalizationError{ConversationID: conv.ID, Err: err}
	}

	if _, err := f.store.Remove(ctx, conversationID); err != nil {
		return Transcript{}, err
	}
	f.logger.Info("conversation finalized",
		"conversation_id", conv.ID, "messages", len(durable), "tags", strings.Join(tags, ","))
	return t, nil
}

// summarize asks the model for a summary and falls back to an extractive
// one when the model is absent or fails. A summarization failure never
// blocks finalization.
func (f *Finalizer) summarize(ctx context.Context, durable []core.Message) string {
	if len(durable) == 0 {
		return "Empty conversation."
	}
	if f.model != nil {
		var sb strings.Builder
		for _, m := range durable {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
		resp, err := f.model.Complete(ctx, model.Request{
			System:   summaryPrompt,
			Messages: []core.Message{core.NewUserMessage(sb.String())},
		})
		if err == nil && strings.TrimSpace(resp.Content) != "" {
			return strings.TrimSpace(resp.Content)
		}
		if err != nil {
			f.logger.Warn("summary model call failed, using extractive summary", "error", err)
		}
	}
	return extractiveSummary(durable)
}

// extractiveSummary builds a deterministic summary from the first user
// message and the final assistant reply.
func extractiveSummary(durable []core.Message) string {
	var firstUser, lastAssistant string
	for _, m := range durable {
		if m.Role == core.RoleUser && firstUser == "" {
			firstUser = m.Content
		}
		if m.Role == core.RoleAssistant {
			lastAssistant = m.Content
		}
	}
	switch {
	case firstUser != "" && lastAssistant != "":
		return fmt.Sprintf("Discussion started with %q and concluded: %s",
			truncate(firstUser, 120), truncate(lastAssistant, 200))
	case firstUser != "":
		return "Discussion started with " + truncate(firstUser, 200)
	default:
		return fmt.Sprintf("Conversation with %d messages.", len(durable))
	}
}

// autoTags derives archive tags from keyword hits in the transcript.
func autoTags(durable []core.Message) []string {
	var sb strings.Builder
	for _, m := range durable {
		sb.WriteString(strings.ToLower(m.Content))
		sb.WriteByte(' ')
	}
	text := sb.String()

	var tags []string
	for tag, keywords := range tagVocabulary {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)
	return tags
}

// truncate cuts s to at most n runes, never splitting a multi-byte rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// IsFarewell reports whether an utterance contains one of the farewell
// keywords as a whole word, case-insensitively.
func IsFarewell(utterance string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(utterance) {
			return true
		}
	}
	return false
}
