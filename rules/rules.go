// Package rules implements per-user canned responses that short-circuit the
// model loop. Rules are evaluated in registration order; the first match
// wins and its response is returned verbatim.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/hupe1980/teambrain/core"
)

// MatchType selects how a rule's trigger is compared against an utterance.
type MatchType string

const (
	// ExactMatch compares the full utterance, case-insensitively, after
	// trimming surrounding whitespace and trailing punctuation. A trigger
	// that forms the tail of the utterance on a word boundary also matches.
	ExactMatch MatchType = "exact_match"
	// KeywordMatch triggers when the utterance contains the trigger as a
	// case-insensitive substring.
	KeywordMatch MatchType = "keyword_match"
	// PatternMatch treats the trigger as a regular expression.
	PatternMatch MatchType = "pattern_match"
)

// Rule maps a trigger to a fixed response for one user.
type Rule struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Type     MatchType `json:"type"`
	Trigger  string    `json:"trigger"`
	Response string    `json:"response"`

	pattern *regexp.Regexp
}

// Engine holds per-user ordered rule lists. Safe for concurrent use.
type Engine struct {
	mu     sync.RWMutex
	byUser map[string][]*Rule
}

// NewEngine creates an empty rule engine.
func NewEngine() *Engine {
	return &Engine{byUser: make(map[string][]*Rule)}
}

// Add registers a rule for its user, appending it after any existing rules.
// Pattern rules are compiled eagerly so a bad pattern fails at registration.
func (e *Engine) Add(r Rule) (Rule, error) {
	switch r.Type {
	case ExactMatch, KeywordMatch:
	case PatternMatch:
		p, err := regexp.Compile(r.Trigger)
		if err != nil {
			return Rule{}, fmt.Errorf("rules: invalid pattern %q: %w", r.Trigger, err)
		}
		r.pattern = p
	default:
		return Rule{}, fmt.Errorf("rules: unknown match type %q", r.Type)
	}
	if r.Trigger == "" {
		return Rule{}, fmt.Errorf("rules: empty trigger")
	}
	if r.ID == "" {
		r.ID = core.NewID()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	stored := r
	e.byUser[r.UserID] = append(e.byUser[r.UserID], &stored)
	return stored, nil
}

// Remove deletes a rule by id for the given user, reporting whether one was
// found.
func (e *Engine) Remove(userID, ruleID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	rules := e.byUser[userID]
	for i, r := range rules {
		if r.ID == ruleID {
			e.byUser[userID] = append(rules[:i], rules[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the user's rules in evaluation order.
func (e *Engine) List(userID string) []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Rule, 0, len(e.byUser[userID]))
	for _, r := range e.byUser[userID] {
		out = append(out, *r)
	}
	return out
}

// Match evaluates the user's rules against an utterance, returning the first
// matching rule's response.
func (e *Engine) Match(utterance, userID string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, r := range e.byUser[userID] {
		if r.matches(utterance) {
			return r.Response, true
		}
	}
	return "", false
}

func (r *Rule) matches(utterance string) bool {
	switch r.Type {
	case ExactMatch:
		got := strings.ToLower(normalize(utterance))
		want := strings.ToLower(normalize(r.Trigger))
		return got == want || strings.HasSuffix(got, " "+want)
	case KeywordMatch:
		return strings.Contains(strings.ToLower(utterance), strings.ToLower(r.Trigger))
	case PatternMatch:
		return r.pattern != nil && r.pattern.MatchString(utterance)
	default:
		return false
	}
}

// normalize trims whitespace and trailing punctuation so "status?" matches
// an exact trigger of "status".
func normalize(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimRight(s, ".!?,;: ")
}
