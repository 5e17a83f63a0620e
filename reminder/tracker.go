package reminder

import (
	"sync"
	"time"
)

const (
	// dueSoonWindow always allows the candidates through the throttle when
	// any of them is due within this window (or overdue).
	dueSoonWindow = 30 * time.Minute
	// repeatInterval suppresses notifications when the conversation saw one
	// less than this long ago.
	repeatInterval = 10 * time.Minute
	// maxShows suppresses further notifications in a conversation after
	// this many have been surfaced.
	maxShows = 3
)

type showState struct {
	lastShown time.Time
	count     int
}

// Tracker throttles how often reminder notifications may be surfaced within
// a single conversation. State is one {last_shown_time, shown_count} pair
// per conversation, shared by all of its reminders. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	shown   map[string]*showState // conversationID -> state
	nowFunc func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		shown:   make(map[string]*showState),
		nowFunc: time.Now,
	}
}

// ShouldShow decides whether the candidate reminders may be surfaced now in
// the given conversation, and records the showing when they are. Rules, in
// priority order: any candidate due within 30 minutes (or overdue) is always
// shown and does not consume the show budget; a conversation that has never
// shown a reminder shows now; one that showed less than 10 minutes ago is
// suppressed; one that already showed 3 times is suppressed for the rest of
// the conversation; otherwise the candidates are shown again.
func (t *Tracker) ShouldShow(conversationID string, candidates []Reminder) bool {
	if len(candidates) == 0 {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc()
	for _, r := range candidates {
		if !r.DueAt.After(now.Add(dueSoonWindow)) {
			return true
		}
	}

	st, seen := t.shown[conversationID]
	if !seen {
		t.shown[conversationID] = &showState{lastShown: now, count: 1}
		return true
	}
	if now.Sub(st.lastShown) < repeatInterval {
		return false
	}
	if st.count >= maxShows {
		return false
	}
	st.lastShown = now
	st.count++
	return true
}

// Forget discards the throttle state for a conversation. Call it when the
// conversation is finalized.
func (t *Tracker) Forget(conversationID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.shown, conversationID)
}
