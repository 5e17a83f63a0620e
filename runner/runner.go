// Package runner implements the turn state machine: identity resolution,
// rule short-circuiting, context and reminder injection, the bounded
// tool-calling model loop, transcript persistence and auto-finalization.
package runner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hupe1980/teambrain/conversation"
	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/logging"
	"github.com/hupe1980/teambrain/model"
	"github.com/hupe1980/teambrain/reminder"
	"github.com/hupe1980/teambrain/retrieval"
	"github.com/hupe1980/teambrain/rules"
	"github.com/hupe1980/teambrain/tool"
)

// Options tune the runner's loop bounds and finalization thresholds.
type Options struct {
	// MaxIterations caps model round trips per turn.
	MaxIterations int
	// FarewellKeywords finalize the conversation when present in the raw
	// utterance as whole words.
	FarewellKeywords []string
	// MediumThreshold auto-finalizes once this many durable messages have
	// accumulated.
	MediumThreshold int
	// HardThreshold is a second, higher finalization bound kept as a
	// backstop when the medium threshold is raised by configuration.
	HardThreshold int
	// ReminderLookahead is the upcoming-reminder window.
	ReminderLookahead time.Duration
	// Logger receives structured turn diagnostics.
	Logger logging.Logger
	// Clock is the time source; defaults to time.Now.
	Clock func() time.Time
}

func defaultOptions() Options {
	return Options{
		MaxIterations:     20,
		FarewellKeywords:  []string{"bye", "goodbye", "quit", "exit"},
		MediumThreshold:   20,
		HardThreshold:     40,
		ReminderLookahead: 24 * time.Hour,
		Logger:            logging.NoOpLogger{},
		Clock:             time.Now,
	}
}

// TurnRequest is one user turn. ConversationID may be empty to start a new
// conversation.
type TurnRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Utterance      string `json:"utterance"`
	Token          string `json:"token,omitempty"`
}

// TurnResponse is the outcome of a turn.
type TurnResponse struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversation_id"`
	Finalized      bool   `json:"finalized"`
}

// IdentityResolver resolves an opaque token into a caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (core.Identity, error)
}

// Runner orchestrates turns. All fields must be set except Retriever,
// Reminders and Tracker, which may be nil to disable the corresponding
// prompt augmentation.
type Runner struct {
	resolver  IdentityResolver
	rules     *rules.Engine
	retriever *retrieval.Retriever
	reminders *reminder.Service
	tracker   *reminder.Tracker
	store     *conversation.Store
	sink      conversation.TranscriptSink
	finalizer *conversation.Finalizer
	registry  *tool.Registry
	model     model.Model
	opts      Options
}

// New wires a runner.
func New(
	resolver IdentityResolver,
	ruleEngine *rules.Engine,
	retriever *retrieval.Retriever,
	reminders *reminder.Service,
	tracker *reminder.Tracker,
	store *conversation.Store,
	sink conversation.TranscriptSink,
	finalizer *conversation.Finalizer,
	registry *tool.Registry,
	m model.Model,
	optFns ...func(o *Options),
) *Runner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Runner{
		resolver:  resolver,
		rules:     ruleEngine,
		retriever: retriever,
		reminders: reminders,
		tracker:   tracker,
		store:     store,
		sink:      sink,
		finalizer: finalizer,
		registry:  registry,
		model:     m,
		opts:      opts,
	}
}

// Turn processes one user utterance end to end. Concurrent turns on the
// same conversation id are rejected with core.ErrTurnInFlight.
func (r *Runner) Turn(ctx context.Context, req TurnRequest) (*TurnResponse, error) {
	identity, err := r.resolver.Resolve(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	conv := r.store.GetOrCreate(ctx, req.ConversationID, identity.TeamID, identity.UserID)
	if err := r.store.TryAcquire(conv.ID); err != nil {
		return nil, err
	}
	defer r.store.Release(conv.ID)

	log := r.opts.Logger
	log.Debug("turn started", "conversation_id", conv.ID, "user_id", identity.UserID)

	// First turn: seed the working transcript with the system prompt.
	if len(conv.Messages) == 0 {
		if err := r.store.Append(ctx, conv.ID, core.NewSystemMessage(r.systemPrompt(identity))); err != nil {
			return nil, err
		}
	}

	// The raw utterance is what gets persisted; augmentation happens only
	// on the copy sent to the model.
	if err := r.store.Append(ctx, conv.ID, core.NewUserMessage(req.Utterance)); err != nil {
		return nil, err
	}

	var response string
	if canned, ok := r.matchRule(req.Utterance, identity.UserID); ok {
		log.Info("rule short-circuit", "conversation_id", conv.ID)
		response = canned
		if err := r.store.Append(ctx, conv.ID, core.NewAssistantMessage(response)); err != nil {
			return nil, err
		}
		r.persistDurable(ctx, conv.ID, identity)
	} else {
		response, err = r.runLoop(ctx, conv.ID, identity, req.Utterance)
		if err != nil {
			return nil, err
		}
	}

	finalized := r.maybeFinalize(ctx, conv.ID, req.Utterance)
	return &TurnResponse{
		Response:       response,
		ConversationID: conv.ID,
		Finalized:      finalized,
	}, nil
}

// Finalize explicitly finalizes a conversation outside the turn flow.
func (r *Runner) Finalize(ctx context.Context, conversationID string) (conversation.Transcript, error) {
	if err := r.store.TryAcquire(conversationID); err != nil {
		return conversation.Transcript{}, err
	}
	defer r.store.Release(conversationID)

	t, err := r.finalizer.Finalize(ctx, conversationID)
	if err == nil && r.tracker != nil {
		r.tracker.Forget(conversationID)
	}
	return t, err
}

func (r *Runner) matchRule(utterance, userID string) (string, bool) {
	if r.rules == nil {
		return "", false
	}
	return r.rules.Match(utterance, userID)
}

// runLoop performs the bounded model/tool loop and returns the final
// assistant answer.
func (r *Runner) runLoop(ctx context.Context, conversationID string, identity core.Identity, utterance string) (string, error) {
	augmented := r.augment(ctx, conversationID, identity, utterance)
	log := r.opts.Logger

	for i := 0; i < r.opts.MaxIterations; i++ {
		conv, err := r.store.Get(ctx, conversationID)
		if err != nil {
			return "", err
		}

		resp, err := r.model.Complete(ctx, model.Request{
			Messages: promptMessages(conv.Messages, augmented),
			Tools:    r.registry.Definitions(),
		})
		if err != nil {
			return "", err
		}

		if !resp.HasToolCalls() {
			if err := r.store.Append(ctx, conversationID, core.NewAssistantMessage(resp.Content)); err != nil {
				return "", err
			}
			r.persistDurable(ctx, conversationID, identity)
			log.Debug("turn answered", "conversation_id", conversationID, "iterations", i+1)
			return resp.Content, nil
		}

		assistantMsg := core.Message{
			Role:      core.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: r.opts.Clock(),
		}
		results := r.executeTools(ctx, conversationID, identity, resp.ToolCalls)
		if err := r.store.Append(ctx, conversationID, append([]core.Message{assistantMsg}, results...)...); err != nil {
			return "", err
		}
		r.persistDurable(ctx, conversationID, identity)
	}

	return "", &core.LoopExhaustionError{Iterations: r.opts.MaxIterations}
}

// executeTools runs the requested calls and returns their result messages,
// sorted by call id for deterministic transcript ordering. Tool failures
// become error envelopes, never turn failures.
func (r *Runner) executeTools(ctx context.Context, conversationID string, identity core.Identity, calls []core.ToolCall) []core.Message {
	sorted := append([]core.ToolCall(nil), calls...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	results := make([]core.Message, 0, len(sorted))
	for _, call := range sorted {
		tctx := tool.Context{
			Context:        ctx,
			CallID:         call.ID,
			ConversationID: conversationID,
			Identity:       identity,
			Logger:         r.opts.Logger,
		}
		result, err := r.registry.Execute(tctx, call.Name, call.Arguments)
		if err != nil {
			r.opts.Logger.Warn("tool call failed",
				"conversation_id", conversationID, "tool", call.Name, "error", err)
		}
		results = append(results, core.NewToolResultMessage(call.ID, tool.MarshalResult(result, err)))
	}
	return results
}

// augment builds the context/reminder preamble prepended to the utterance
// sent to the model. Retrieval and reminder failures degrade to an empty
// preamble.
func (r *Runner) augment(ctx context.Context, conversationID string, identity core.Identity, utterance string) string {
	var sections []string

	if r.retriever != nil {
		if block := r.retriever.Retrieve(ctx, identity, utterance).Render(); block != "" {
			sections = append(sections, block)
		}
	}

	if r.reminders != nil && r.tracker != nil {
		upcoming := r.reminders.Upcoming(ctx, identity.TeamID, r.opts.ReminderLookahead)
		if r.tracker.ShouldShow(conversationID, upcoming) {
			lines := make([]string, 0, len(upcoming))
			for _, rem := range upcoming {
				lines = append(lines, fmt.Sprintf("- %s (due %s, %s priority)",
					rem.Content, rem.DueAt.Format(time.RFC3339), rem.Priority))
			}
			sections = append(sections, "Upcoming reminders:\n"+strings.Join(lines, "\n"))
		}
	}

	if len(sections) == 0 {
		return utterance
	}
	return strings.Join(sections, "\n\n") + "\n\n" + utterance
}

// promptMessages returns the working transcript with the latest user
// message swapped for its augmented version.
func promptMessages(messages []core.Message, augmented string) []core.Message {
	out := append([]core.Message(nil), messages...)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == core.RoleUser {
			out[i].Content = augmented
			break
		}
	}
	return out
}

// persistDurable writes the filtered transcript to the durable sink after a
// round trip. Sink failures are logged; the turn proceeds.
func (r *Runner) persistDurable(ctx context.Context, conversationID string, identity core.Identity) {
	if r.sink == nil {
		return
	}
	conv, err := r.store.Get(ctx, conversationID)
	if err != nil {
		return
	}
	t := conversation.Transcript{
		ConversationID: conv.ID,
		TeamID:         conv.TeamID,
		ParticipantID:  conv.ParticipantID,
		Messages:       core.FilterConversational(conv.Messages),
	}
	if err := r.sink.Write(ctx, t); err != nil {
		r.opts.Logger.Warn("transcript persist failed", "conversation_id", conv.ID, "error", err)
	}
}

// maybeFinalize applies the post-response auto-finalization checks. A
// finalize failure is logged and does not alter the computed response.
func (r *Runner) maybeFinalize(ctx context.Context, conversationID, utterance string) bool {
	conv, err := r.store.Get(ctx, conversationID)
	if err != nil {
		return false
	}

	count := conv.ConversationalCount()
	trigger := ""
	switch {
	case conversation.IsFarewell(utterance, r.opts.FarewellKeywords):
		trigger = "farewell"
	case count >= r.opts.HardThreshold:
		trigger = "hard_threshold"
	case count >= r.opts.MediumThreshold:
		trigger = "medium_threshold"
	default:
		return false
	}

	if _, err := r.finalizer.Finalize(ctx, conversationID); err != nil {
		r.opts.Logger.Error("auto-finalize failed",
			"conversation_id", conversationID, "trigger", trigger, "error", err)
		return false
	}
	if r.tracker != nil {
		r.tracker.Forget(conversationID)
	}
	r.opts.Logger.Info("conversation auto-finalized",
		"conversation_id", conversationID, "trigger", trigger, "messages", count)
	return true
}

// systemPrompt is the first-turn instruction message.
func (r *Runner) systemPrompt(identity core.Identity) string {
	name := identity.DisplayName
	if name == "" {
		name = identity.UserID
	}
	var sb strings.Builder
	sb.WriteString("You are the team's collective-brain assistant. ")
	fmt.Fprintf(&sb, "You are talking to %s on team %s. ", name, identity.TeamID)
	sb.WriteString("Use the available tools to store and recall team knowledge, manage reminders and look up past conversations. ")
	sb.WriteString("Prefer provided context over saying you don't know.")
	if defs := r.registry.Definitions(); len(defs) > 0 {
		sb.WriteString("\n\nAvailable tools:")
		for _, d := range defs {
			fmt.Fprintf(&sb, "\n- %s: %s", d.Name, d.Description)
		}
	}
	return sb.String()
}
