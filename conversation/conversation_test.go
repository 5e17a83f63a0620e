package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teambrain/core"
)

func TestStoreLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	conv := s.Create(ctx, "", "team-a", "alice")
	require.NotEmpty(t, conv.ID)
	assert.Equal(t, StatusActive, conv.Status)

	require.NoError(t, s.Append(ctx, conv.ID,
		core.NewUserMessage("hello"),
		core.NewAssistantMessage("hi there"),
	))

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 2)
	assert.Equal(t, 2, got.ConversationalCount())

	removed, err := s.Remove(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, removed.Messages, 2)
	assert.Equal(t, StatusFinalized, removed.Status)

	_, err = s.Get(ctx, conv.ID)
	assert.ErrorIs(t, err, core.ErrConversationNotFound)
}

func TestConversationalCountIgnoresToolTraffic(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	conv := s.Create(ctx, "", "team-a", "alice")
	require.NoError(t, s.Append(ctx, conv.ID,
		core.NewSystemMessage("instructions"),
		core.NewUserMessage("look this up"),
		core.Message{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "c1", Name: "search"}}},
		core.NewToolResultMessage("c1", `{"hits":0}`),
		core.NewAssistantMessage("nothing found"),
	))

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 5)
	assert.Equal(t, 2, got.ConversationalCount())
}

func TestGetOrCreate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := s.GetOrCreate(ctx, "conv-1", "team-a", "alice")
	require.NoError(t, s.Append(ctx, first.ID, core.NewUserMessage("hi")))

	again := s.GetOrCreate(ctx, "conv-1", "team-a", "alice")
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, again.Messages, 1)
}

func TestTurnLock(t *testing.T) {
	s := NewStore()

	require.NoError(t, s.TryAcquire("conv-1"))
	assert.ErrorIs(t, s.TryAcquire("conv-1"), core.ErrTurnInFlight)

	// Other conversations are unaffected.
	require.NoError(t, s.TryAcquire("conv-2"))

	s.Release("conv-1")
	assert.NoError(t, s.TryAcquire("conv-1"))
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	conv := s.Create(ctx, "", "team-a", "alice")
	require.NoError(t, s.Append(ctx, conv.ID, core.NewUserMessage("original")))

	got, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	fresh, err := s.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", fresh.Messages[0].Content)
}

func TestArchiveSearchRanksBySummary(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	require.NoError(t, a.Index(ctx, Entry{
		ConversationID: "c1", TeamID: "team-a",
		Summary: "discussed postgres migration rollback plan",
	}))
	require.NoError(t, a.Index(ctx, Entry{
		ConversationID: "c2", TeamID: "team-a",
		Summary: "sprint planning for q3", Tags: []string{"planning"},
	}))
	require.NoError(t, a.Index(ctx, Entry{
		ConversationID: "c3", TeamID: "team-b",
		Summary: "postgres migration for team b",
	}))

	results, err := a.Search(ctx, "team-a", "postgres migration", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Entry.ConversationID)
}

func TestArchiveIndexReplacesEntry(t *testing.T) {
	a := NewInMemoryArchive()
	ctx := context.Background()

	require.NoError(t, a.Index(ctx, Entry{ConversationID: "c1", TeamID: "team-a", Summary: "old"}))
	require.NoError(t, a.Index(ctx, Entry{ConversationID: "c1", TeamID: "team-a", Summary: "new summary text"}))

	results, err := a.Search(ctx, "team-a", "new summary text", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new summary text", results[0].Entry.Summary)
}

func TestFileSinkRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewFileSink(dir)
	require.NoError(t, err)
	ctx := context.Background()

	in := Transcript{
		ConversationID: "c1",
		TeamID:         "team-a",
		ParticipantID:  "alice",
		Summary:        "short chat",
		Messages: []core.Message{
			core.NewUserMessage("hello"),
			core.NewAssistantMessage("hi"),
		},
	}
	require.NoError(t, sink.Write(ctx, in))

	out, err := sink.Read(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, in.Summary, out.Summary)
	require.Len(t, out.Messages, 2)
	assert.Equal(t, core.RoleUser, out.Messages[0].Role)

	_, err = sink.Read(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrConversationNotFound)
}

func TestIsFarewell(t *testing.T) {
	keywords := []string{"bye", "goodbye", "quit", "exit"}

	assert.True(t, IsFarewell("ok bye!", keywords))
	assert.True(t, IsFarewell("Goodbye everyone", keywords))
	assert.True(t, IsFarewell("I will quit now", keywords))

	// Substrings inside larger words do not count.
	assert.False(t, IsFarewell("the exits are blocked", keywords))
	assert.False(t, IsFarewell("goodbyes are hard", keywords))
	assert.False(t, IsFarewell("see you later", keywords))
}
