package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	now := baseTime
	s := NewService()
	s.nowFunc = func() time.Time { return now }
	return s, &now
}

func TestCreateParsesDueTime(t *testing.T) {
	s, _ := newTestService(t)

	r, err := s.Create(context.Background(), Reminder{
		UserID: "u1", Content: "ping ops in 45 minutes",
	})
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(45*time.Minute), r.DueAt)
	assert.Equal(t, StatusActive, r.Status)
	assert.Equal(t, PriorityMedium, r.Priority)
}

func TestCreateDefaultsToOneHour(t *testing.T) {
	s, _ := newTestService(t)

	r, err := s.Create(context.Background(), Reminder{UserID: "u1", Content: "review the PR"})
	require.NoError(t, err)
	assert.Equal(t, baseTime.Add(time.Hour), r.DueAt)
}

func TestUpcomingWindowAndOrder(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "far future", DueAt: baseTime.Add(48 * time.Hour)})
	require.NoError(t, err)
	_, err = s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "soon low", DueAt: baseTime.Add(2 * time.Hour), Priority: PriorityLow})
	require.NoError(t, err)
	_, err = s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "soon high", DueAt: baseTime.Add(2 * time.Hour), Priority: PriorityHigh})
	require.NoError(t, err)
	_, err = s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "overdue", DueAt: baseTime.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.Create(ctx, Reminder{UserID: "u2", TeamID: "t2", Content: "other team", DueAt: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	up := s.Upcoming(ctx, "t1", 24*time.Hour)
	require.Len(t, up, 2) // overdue and far-future fall outside the window
	assert.Equal(t, "soon high", up[0].Content) // same due time, higher priority first
	assert.Equal(t, "soon low", up[1].Content)
}

func TestUpcomingIsTeamScoped(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "standup", DueAt: baseTime.Add(time.Hour)})
	require.NoError(t, err)
	_, err = s.Create(ctx, Reminder{UserID: "u2", TeamID: "t1", Content: "retro", DueAt: baseTime.Add(2 * time.Hour)})
	require.NoError(t, err)

	// Reminders created by any team member surface for the whole team.
	up := s.Upcoming(ctx, "t1", 24*time.Hour)
	require.Len(t, up, 2)

	assert.Empty(t, s.Upcoming(ctx, "t2", 24*time.Hour))
}

func TestUpcomingDeduplicates(t *testing.T) {
	s, now := newTestService(t)
	ctx := context.Background()

	_, err := s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "Standup ", DueAt: baseTime.Add(2 * time.Hour)})
	require.NoError(t, err)
	*now = now.Add(time.Minute)
	soonest, err := s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "standup", DueAt: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	up := s.Upcoming(ctx, "t1", 24*time.Hour)
	require.Len(t, up, 1)
	assert.Equal(t, soonest.ID, up[0].ID) // duplicate due soonest survives
}

func TestCompleteIsTerminal(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	r, err := s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "rotate keys", DueAt: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	done, err := s.Complete(ctx, "u1", r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)

	_, err = s.Snooze(ctx, "u1", r.ID, time.Hour)
	assert.ErrorIs(t, err, ErrTerminalState)

	assert.Empty(t, s.Upcoming(ctx, "t1", 24*time.Hour))
}

func TestSnooze(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	r, err := s.Create(ctx, Reminder{UserID: "u1", TeamID: "t1", Content: "check backups", DueAt: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	snoozed, err := s.Snooze(ctx, "u1", r.ID, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, r.DueAt.Add(30*time.Minute), snoozed.DueAt)
	assert.Equal(t, StatusSnoozed, snoozed.Status)

	// Snoozed is terminal: the reminder no longer surfaces as upcoming.
	assert.Empty(t, s.Upcoming(ctx, "t1", 24*time.Hour))
}

func TestOwnershipEnforced(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	r, err := s.Create(ctx, Reminder{UserID: "u1", Content: "mine", DueAt: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	_, err = s.Complete(ctx, "u2", r.ID)
	assert.ErrorIs(t, err, ErrReminderNotFound)
}

func TestDetectTimeExpression(t *testing.T) {
	now := baseTime // 2025-03-10 10:00 UTC

	tests := []struct {
		text string
		want time.Time
	}{
		{"call bob in 30 minutes", now.Add(30 * time.Minute)},
		{"in 2 hours check the oven", now.Add(2 * time.Hour)},
		{"follow up in 3 days", now.AddDate(0, 0, 3)},
		{"submit report tomorrow", time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)},
		{"team dinner tonight", time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC)},
		{"sync this afternoon", time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)},
		{"demo tomorrow afternoon", time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)},
		{"meeting at 15:30", time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)},
		{"standup at 9:00", time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)}, // past, rolls to next day
		{"lunch at 1:00 pm", time.Date(2025, 3, 10, 13, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, ok := DetectTimeExpression(tc.text, now)
		require.True(t, ok, "text %q should parse", tc.text)
		assert.Equal(t, tc.want, got, "text %q", tc.text)
	}

	_, ok := DetectTimeExpression("no time here", now)
	assert.False(t, ok)
}

func TestTrackerThrottle(t *testing.T) {
	now := baseTime
	tr := NewTracker()
	tr.nowFunc = func() time.Time { return now }

	far := []Reminder{{ID: "r1", Content: "quarterly review", DueAt: baseTime.Add(5 * time.Hour)}}

	// Never shown in this conversation: allowed.
	assert.True(t, tr.ShouldShow("c1", far))
	// Shown moments ago: suppressed.
	assert.False(t, tr.ShouldShow("c1", far))

	// After the repeat interval it may be shown again, up to the cap.
	now = now.Add(11 * time.Minute)
	assert.True(t, tr.ShouldShow("c1", far))
	now = now.Add(11 * time.Minute)
	assert.True(t, tr.ShouldShow("c1", far))

	// Budget exhausted: suppressed even after a long wait.
	now = now.Add(time.Hour)
	assert.False(t, tr.ShouldShow("c1", far))

	// Other conversations keep their own budget.
	assert.True(t, tr.ShouldShow("c2", far))
}

func TestTrackerStateIsPerConversationNotPerReminder(t *testing.T) {
	now := baseTime
	tr := NewTracker()
	tr.nowFunc = func() time.Time { return now }

	a := []Reminder{{ID: "ra", Content: "review deck", DueAt: baseTime.Add(5 * time.Hour)}}
	b := []Reminder{{ID: "rb", Content: "file expenses", DueAt: baseTime.Add(6 * time.Hour)}}

	assert.True(t, tr.ShouldShow("c1", a))

	// A different reminder checked shortly after is still suppressed: the
	// conversation, not the reminder, carries the show state.
	now = now.Add(5 * time.Minute)
	assert.False(t, tr.ShouldShow("c1", b))

	now = now.Add(6 * time.Minute) // 11 minutes after the first show
	assert.True(t, tr.ShouldShow("c1", b))

	// The 3-show budget is shared across all reminders.
	now = now.Add(11 * time.Minute)
	assert.True(t, tr.ShouldShow("c1", a))
	now = now.Add(11 * time.Minute)
	assert.False(t, tr.ShouldShow("c1", b))
}

func TestTrackerDueSoonAlwaysShows(t *testing.T) {
	now := baseTime
	tr := NewTracker()
	tr.nowFunc = func() time.Time { return now }

	soon := []Reminder{
		{ID: "r1", Content: "quarterly review", DueAt: baseTime.Add(5 * time.Hour)},
		{ID: "r2", Content: "leave now", DueAt: baseTime.Add(10 * time.Minute)},
	}

	// One due-soon candidate lets the whole batch through, repeatedly.
	for i := 0; i < 5; i++ {
		assert.True(t, tr.ShouldShow("c1", soon))
	}

	// Due-soon showings do not consume the budget: once nothing is due
	// soon anymore, the normal rules start fresh.
	far := soon[:1]
	assert.True(t, tr.ShouldShow("c1", far))  // first tracked show
	assert.False(t, tr.ShouldShow("c1", far)) // within repeat interval
}

func TestTrackerEmptyCandidates(t *testing.T) {
	tr := NewTracker()
	assert.False(t, tr.ShouldShow("c1", nil))
}

func TestTrackerForget(t *testing.T) {
	now := baseTime
	tr := NewTracker()
	tr.nowFunc = func() time.Time { return now }

	far := []Reminder{{ID: "r1", Content: "x", DueAt: baseTime.Add(5 * time.Hour)}}
	assert.True(t, tr.ShouldShow("c1", far))
	assert.False(t, tr.ShouldShow("c1", far))

	tr.Forget("c1")
	assert.True(t, tr.ShouldShow("c1", far))
}
