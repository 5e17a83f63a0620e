// Package teambrain assembles the collective-brain assistant: a team-scoped
// knowledge base, reminders, per-user rules and a bounded tool-calling model
// loop, exposed through a single Brain facade.
//
// Defaults are fully in-process (mock model, static identity, in-memory
// stores) so a Brain works out of the box; swap parts via functional
// options.
package teambrain

import (
	"context"
	"time"

	"github.com/hupe1980/teambrain/conversation"
	"github.com/hupe1980/teambrain/identity"
	"github.com/hupe1980/teambrain/logging"
	"github.com/hupe1980/teambrain/memory"
	"github.com/hupe1980/teambrain/model"
	"github.com/hupe1980/teambrain/reminder"
	"github.com/hupe1980/teambrain/retrieval"
	"github.com/hupe1980/teambrain/rules"
	"github.com/hupe1980/teambrain/runner"
	"github.com/hupe1980/teambrain/tool"
)

// Options configure a Brain.
type Options struct {
	// Model is the completion provider; defaults to model.NewMockModel().
	Model model.Model
	// Resolver maps tokens to identities; defaults to an empty
	// StaticResolver (add tokens via Brain.Resolver()).
	Resolver runner.IdentityResolver
	// Sink persists durable transcripts; defaults to in-memory.
	Sink conversation.TranscriptSink
	// Memory is the knowledge store; defaults to in-memory.
	Memory memory.Store
	// Logger receives structured diagnostics; defaults to no-op.
	Logger logging.Logger
	// ExtraTools are registered alongside the builtin catalogue.
	ExtraTools []tool.Tool
	// Runner options (loop caps, thresholds, farewell keywords).
	RunnerOptions []func(o *runner.Options)
}

// Brain owns all subsystems of one assistant instance.
type Brain struct {
	runner    *runner.Runner
	memory    memory.Store
	reminders *reminder.Service
	rules     *rules.Engine
	registry  *tool.Registry
	archive   conversation.Archive
	sink      conversation.TranscriptSink
	resolver  runner.IdentityResolver
}

// New creates a Brain with in-process defaults.
func New(optFns ...func(o *Options)) *Brain {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Model == nil {
		opts.Model = model.NewMockModel()
	}
	if opts.Resolver == nil {
		opts.Resolver = identity.NewStaticResolver()
	}
	if opts.Sink == nil {
		opts.Sink = conversation.NewInMemorySink()
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	reminders := reminder.NewService()
	ruleEngine := rules.NewEngine()
	store := conversation.NewStore()
	archive := conversation.NewInMemoryArchive()
	tracker := reminder.NewTracker()

	registry := tool.NewRegistry()
	tool.Builtins{
		Memory:    opts.Memory,
		Reminders: reminders,
		Archive:   archive,
		Sink:      opts.Sink,
	}.RegisterAll(registry)
	for _, t := range opts.ExtraTools {
		registry.Register(t)
	}

	finalizer := conversation.NewFinalizer(store, opts.Sink, archive, opts.Model, opts.Logger)
	retriever := retrieval.NewRetriever(opts.Memory, archive, opts.Logger)

	runnerOpts := append([]func(o *runner.Options){
		func(o *runner.Options) { o.Logger = opts.Logger },
	}, opts.RunnerOptions...)

	run := runner.New(opts.Resolver, ruleEngine, retriever, reminders, tracker,
		store, opts.Sink, finalizer, registry, opts.Model, runnerOpts...)

	return &Brain{
		runner:    run,
		memory:    opts.Memory,
		reminders: reminders,
		rules:     ruleEngine,
		registry:  registry,
		archive:   archive,
		sink:      opts.Sink,
		resolver:  opts.Resolver,
	}
}

// Turn processes one user utterance.
func (b *Brain) Turn(ctx context.Context, req runner.TurnRequest) (*runner.TurnResponse, error) {
	return b.runner.Turn(ctx, req)
}

// Finalize explicitly finalizes a conversation.
func (b *Brain) Finalize(ctx context.Context, conversationID string) (conversation.Transcript, error) {
	return b.runner.Finalize(ctx, conversationID)
}

// Runner exposes the turn state machine, e.g. for mounting an HTTP server.
func (b *Brain) Runner() *runner.Runner { return b.runner }

// Memory exposes the knowledge store.
func (b *Brain) Memory() memory.Store { return b.memory }

// Reminders exposes the reminder service.
func (b *Brain) Reminders() *reminder.Service { return b.reminders }

// Rules exposes the rule engine.
func (b *Brain) Rules() *rules.Engine { return b.rules }

// Tools exposes the tool registry.
func (b *Brain) Tools() *tool.Registry { return b.registry }

// Resolver exposes the identity resolver.
func (b *Brain) Resolver() runner.IdentityResolver { return b.resolver }

// UpcomingReminders lists a team's reminders due within the window.
func (b *Brain) UpcomingReminders(ctx context.Context, teamID string, lookahead time.Duration) []reminder.Reminder {
	return b.reminders.Upcoming(ctx, teamID, lookahead)
}
