package tool

import (
	"time"

	"github.com/hupe1980/teambrain/conversation"
	"github.com/hupe1980/teambrain/internal/util"
	"github.com/hupe1980/teambrain/memory"
	"github.com/hupe1980/teambrain/reminder"
)

// Builtins bundles the stores the builtin tools operate on.
type Builtins struct {
	Memory    memory.Store
	Reminders *reminder.Service
	Archive   conversation.Archive
	Sink      conversation.TranscriptSink
}

// RegisterAll adds the full builtin tool catalogue to the registry. Tools
// whose backing store is nil are skipped.
func (b Builtins) RegisterAll(r *Registry) {
	if b.Memory != nil {
		r.Register(b.storeMemory())
		r.Register(b.searchMemories())
		r.Register(b.verifyMemory())
		r.Register(b.teamInsights())
	}
	if b.Reminders != nil {
		r.Register(b.createReminder())
		r.Register(b.listReminders())
		r.Register(b.completeReminder())
	}
	if b.Archive != nil {
		r.Register(b.searchPastConversations())
	}
	if b.Sink != nil {
		r.Register(b.fullTranscript())
	}
	r.Register(Echo())
}

func (b Builtins) storeMemory() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"content":    {Type: "string", Description: "The knowledge to store"},
		"category":   {Type: "string", Description: "Optional category, e.g. architecture or process"},
		"tags":       {Type: "array", Description: "Optional list of tags"},
		"visibility": {Type: "string", Description: "Who can read it", Enum: []string{"private", "team", "public"}},
		"user_id":    {Type: "string", Description: "Set automatically"},
		"team_id":    {Type: "string", Description: "Set automatically"},
	}, "content")

	return NewFunctionTool("store_memory",
		"Store a piece of team knowledge so it can be recalled in later conversations.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			rec := memory.NewRecord(
				tctx.Identity,
				stringArg(args, "content"),
				stringArg(args, "category"),
				stringSliceArg(args, "tags"),
				memory.Visibility(stringArg(args, "visibility")),
			)
			stored, err := b.Memory.Store(tctx, rec)
			if err != nil {
				return nil, err
			}
			out := map[string]any{"memory": stored}
			// Surface similar existing records so the model can point the
			// user at prior knowledge.
			if related, err := b.Memory.Related(tctx, stored.ID, tctx.Identity.UserID, tctx.Identity.TeamID, 3); err == nil && len(related) > 0 {
				out["related"] = related
			}
			return out, nil
		})
}

func (b Builtins) searchMemories() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"query":    {Type: "string", Description: "What to look for"},
		"category": {Type: "string", Description: "Optional category filter"},
		"limit":    {Type: "integer", Description: "Maximum results, default 5"},
		"user_id":  {Type: "string", Description: "Set automatically"},
		"team_id":  {Type: "string", Description: "Set automatically"},
	}, "query")

	return NewFunctionTool("search_memories",
		"Search the team knowledge base for relevant memories.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			results, err := b.Memory.Search(tctx, memory.Query{
				Text:     stringArg(args, "query"),
				TeamID:   tctx.Identity.TeamID,
				UserID:   tctx.Identity.UserID,
				Category: stringArg(args, "category"),
				Limit:    intArg(args, "limit"),
			})
			if err != nil {
				return nil, err
			}
			return map[string]any{"results": results, "count": len(results)}, nil
		})
}

func (b Builtins) verifyMemory() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"memory_id": {Type: "string", Description: "The memory to confirm"},
		"user_id":   {Type: "string", Description: "Set automatically"},
		"team_id":   {Type: "string", Description: "Set automatically"},
	}, "memory_id")

	return NewFunctionTool("verify_memory",
		"Confirm a stored memory is still accurate, raising its confidence.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			rec, err := b.Memory.Verify(tctx, stringArg(args, "memory_id"),
				tctx.Identity.UserID, tctx.Identity.TeamID)
			if err == memory.ErrRecordNotFound {
				return nil, NewError("verify_memory", CodeNotFound, "no such memory in your team")
			}
			if err != nil {
				return nil, err
			}
			return rec, nil
		})
}

func (b Builtins) teamInsights() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"team_id": {Type: "string", Description: "Set automatically"},
	})

	return NewFunctionTool("get_team_insights",
		"Aggregate statistics about the team's knowledge base.",
		schema,
		func(tctx Context, _ map[string]any) (any, error) {
			return b.Memory.Insights(tctx, tctx.Identity.TeamID)
		})
}

func (b Builtins) createReminder() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"content":  {Type: "string", Description: "What to be reminded about; may contain a time expression"},
		"due_at":   {Type: "string", Description: "Optional RFC3339 due time; overrides parsed time"},
		"priority": {Type: "string", Enum: []string{"low", "medium", "high"}},
		"user_id":  {Type: "string", Description: "Set automatically"},
		"team_id":  {Type: "string", Description: "Set automatically"},
	}, "content")

	return NewFunctionTool("create_reminder",
		"Create a personal reminder. Time expressions like 'in 30 minutes' or 'tomorrow' are parsed from the content.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			rem := reminder.Reminder{
				UserID:   tctx.Identity.UserID,
				TeamID:   tctx.Identity.TeamID,
				Content:  stringArg(args, "content"),
				Priority: reminder.Priority(stringArg(args, "priority")),
			}
			if raw := stringArg(args, "due_at"); raw != "" {
				due, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return nil, NewError("create_reminder", CodeInvalidArguments, "due_at is not RFC3339: %s", err)
				}
				rem.DueAt = due
			}
			return b.Reminders.Create(tctx, rem)
		})
}

func (b Builtins) listReminders() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"user_id": {Type: "string", Description: "Set automatically"},
	})

	return NewFunctionTool("list_reminders",
		"List your reminders, newest first.",
		schema,
		func(tctx Context, _ map[string]any) (any, error) {
			return map[string]any{"reminders": b.Reminders.List(tctx, tctx.Identity.UserID)}, nil
		})
}

func (b Builtins) completeReminder() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"reminder_id": {Type: "string", Description: "The reminder to mark done"},
		"user_id":     {Type: "string", Description: "Set automatically"},
	}, "reminder_id")

	return NewFunctionTool("complete_reminder",
		"Mark one of your reminders as completed.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			rem, err := b.Reminders.Complete(tctx, tctx.Identity.UserID, stringArg(args, "reminder_id"))
			if err == reminder.ErrReminderNotFound {
				return nil, NewError("complete_reminder", CodeNotFound, "no such reminder")
			}
			if err != nil {
				return nil, err
			}
			return rem, nil
		})
}

func (b Builtins) searchPastConversations() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"query":   {Type: "string", Description: "What to look for in past conversation summaries"},
		"limit":   {Type: "integer", Description: "Maximum results, default 3"},
		"team_id": {Type: "string", Description: "Set automatically"},
	}, "query")

	return NewFunctionTool("search_past_conversations",
		"Search summaries of finalized team conversations.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			results, err := b.Archive.Search(tctx, tctx.Identity.TeamID,
				stringArg(args, "query"), intArg(args, "limit"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"results": results, "count": len(results)}, nil
		})
}

func (b Builtins) fullTranscript() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"conversation_id": {Type: "string", Description: "Finalized conversation id"},
		"team_id":         {Type: "string", Description: "Set automatically"},
	}, "conversation_id")

	return NewFunctionTool("get_full_transcript",
		"Fetch the full durable transcript of a finalized conversation.",
		schema,
		func(tctx Context, args map[string]any) (any, error) {
			t, err := b.Sink.Read(tctx, stringArg(args, "conversation_id"))
			if err != nil {
				return nil, NewError("get_full_transcript", CodeNotFound, "no transcript for that conversation")
			}
			if t.TeamID != tctx.Identity.TeamID {
				return nil, NewError("get_full_transcript", CodeNotFound, "no transcript for that conversation")
			}
			return t, nil
		})
}

// Echo returns its input; useful for wiring checks and demos.
func Echo() Tool {
	schema := util.ObjectSchema(map[string]util.Property{
		"text": {Type: "string", Description: "Text to echo back"},
	}, "text")

	return NewFunctionTool("echo", "Echo the given text back unchanged.", schema,
		func(_ Context, args map[string]any) (any, error) {
			return map[string]any{"text": stringArg(args, "text")}, nil
		})
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
