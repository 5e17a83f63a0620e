package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAdd(t *testing.T, e *Engine, r Rule) Rule {
	t.Helper()
	stored, err := e.Add(r)
	require.NoError(t, err)
	return stored
}

func TestExactMatch(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, Rule{UserID: "u1", Type: ExactMatch, Trigger: "status", Response: "all green"})

	for _, utterance := range []string{"status", "Status", "  status  ", "status?", "STATUS!"} {
		resp, ok := e.Match(utterance, "u1")
		assert.True(t, ok, "utterance %q should match", utterance)
		assert.Equal(t, "all green", resp)
	}

	resp, ok := e.Match("what is the status?", "u1")
	assert.True(t, ok, "trigger as utterance suffix should match")
	assert.Equal(t, "all green", resp)

	_, ok = e.Match("status report", "u1")
	assert.False(t, ok)
}

func TestKeywordMatch(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, Rule{UserID: "u1", Type: KeywordMatch, Trigger: "deploy", Response: "use the pipeline"})

	resp, ok := e.Match("how do I DEPLOY to staging", "u1")
	require.True(t, ok)
	assert.Equal(t, "use the pipeline", resp)

	_, ok = e.Match("how do I release", "u1")
	assert.False(t, ok)
}

func TestPatternMatch(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, Rule{UserID: "u1", Type: PatternMatch, Trigger: `(?i)^ticket-\d+`, Response: "check jira"})

	resp, ok := e.Match("TICKET-4211 is blocked", "u1")
	require.True(t, ok)
	assert.Equal(t, "check jira", resp)

	_, ok = e.Match("see ticket-4211", "u1")
	assert.False(t, ok)
}

func TestInvalidPatternRejected(t *testing.T) {
	e := NewEngine()
	_, err := e.Add(Rule{UserID: "u1", Type: PatternMatch, Trigger: "([", Response: "x"})
	assert.Error(t, err)
}

func TestFirstMatchWins(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, Rule{UserID: "u1", Type: KeywordMatch, Trigger: "build", Response: "first"})
	mustAdd(t, e, Rule{UserID: "u1", Type: KeywordMatch, Trigger: "build", Response: "second"})

	resp, ok := e.Match("the build failed", "u1")
	require.True(t, ok)
	assert.Equal(t, "first", resp)
}

func TestRulesArePerUser(t *testing.T) {
	e := NewEngine()
	mustAdd(t, e, Rule{UserID: "u1", Type: KeywordMatch, Trigger: "vpn", Response: "ask IT"})

	_, ok := e.Match("vpn is down", "u2")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	e := NewEngine()
	r := mustAdd(t, e, Rule{UserID: "u1", Type: KeywordMatch, Trigger: "wifi", Response: "reboot the router"})

	assert.True(t, e.Remove("u1", r.ID))
	assert.False(t, e.Remove("u1", r.ID))

	_, ok := e.Match("wifi broken", "u1")
	assert.False(t, ok)
}
