// Package reminder implements personal reminders: creation with natural
// language time parsing, an upcoming window, completion and snoozing, and a
// per-conversation throttle that decides when an upcoming reminder may be
// surfaced in a reply.
package reminder

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/teambrain/core"
)

// ErrReminderNotFound is returned for unknown or foreign reminder ids.
var ErrReminderNotFound = errors.New("reminder: not found")

// ErrTerminalState is returned when mutating a completed reminder.
var ErrTerminalState = errors.New("reminder: already completed")

// Priority orders reminders of equal due time.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Status is a reminder's lifecycle state. Completed is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusSnoozed   Status = "snoozed"
)

// Reminder is one scheduled item belonging to a user.
type Reminder struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TeamID    string    `json:"team_id"`
	Content   string    `json:"content"`
	DueAt     time.Time `json:"due_at"`
	Priority  Priority  `json:"priority"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Service stores reminders in process memory. Safe for concurrent use.
type Service struct {
	mu      sync.RWMutex
	byUser  map[string][]*Reminder
	byTeam  map[string][]*Reminder
	byID    map[string]*Reminder
	nowFunc func() time.Time
}

// NewService creates an empty reminder service.
func NewService() *Service {
	return &Service{
		byUser:  make(map[string][]*Reminder),
		byTeam:  make(map[string][]*Reminder),
		byID:    make(map[string]*Reminder),
		nowFunc: time.Now,
	}
}

// Create stores a new active reminder. A zero DueAt is resolved by parsing
// time expressions out of the content; if none are found the reminder is due
// in one hour. Priority defaults to medium.
func (s *Service) Create(_ context.Context, r Reminder) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if r.DueAt.IsZero() {
		if due, ok := DetectTimeExpression(r.Content, now); ok {
			r.DueAt = due
		} else {
			r.DueAt = now.Add(time.Hour)
		}
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	r.ID = core.NewID()
	r.Status = StatusActive
	r.CreatedAt = now

	stored := r
	s.byUser[r.UserID] = append(s.byUser[r.UserID], &stored)
	s.byTeam[r.TeamID] = append(s.byTeam[r.TeamID], &stored)
	s.byID[stored.ID] = &stored
	return stored, nil
}

// Upcoming returns the team's active reminders whose due time falls within
// [now, now+lookahead], deduplicated and sorted by due time, then priority,
// then creation time. Overdue, completed and snoozed reminders are excluded.
func (s *Service) Upcoming(_ context.Context, teamID string, lookahead time.Duration) []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.nowFunc()
	horizon := now.Add(lookahead)

	var out []Reminder
	for _, r := range s.byTeam[teamID] {
		if r.Status != StatusActive {
			continue
		}
		if r.DueAt.Before(now) || r.DueAt.After(horizon) {
			continue
		}
		out = append(out, *r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi > pj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return dedupe(out)
}

// Complete marks a reminder done. Completion is terminal.
func (s *Service) Complete(_ context.Context, userID, id string) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok || r.UserID != userID {
		return Reminder{}, ErrReminderNotFound
	}
	r.Status = StatusCompleted
	return *r, nil
}

// Snooze pushes an active reminder's due time forward by d.
func (s *Service) Snooze(_ context.Context, userID, id string, d time.Duration) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.byID[id]
	if !ok || r.UserID != userID {
		return Reminder{}, ErrReminderNotFound
	}
	if r.Status == StatusCompleted {
		return Reminder{}, ErrTerminalState
	}
	r.DueAt = r.DueAt.Add(d)
	r.Status = StatusSnoozed
	return *r, nil
}

// List returns all of a user's reminders, newest first.
func (s *Service) List(_ context.Context, userID string) []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reminder, 0, len(s.byUser[userID]))
	for _, r := range s.byUser[userID] {
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// dedupe collapses reminders whose normalized content is identical. The
// input is sorted ascending by due time, so keeping the first occurrence
// keeps the one due soonest. Idempotent: re-running on the output is a no-op.
func dedupe(in []Reminder) []Reminder {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, r := range in {
		k := strings.ToLower(strings.TrimSpace(r.Content))
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

func priorityRank(p Priority) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}
