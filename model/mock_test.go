package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teambrain/core"
)

func TestMockQueueOrder(t *testing.T) {
	m := NewMockModel()
	m.EnqueueResponse(&Response{Content: "first"})
	m.EnqueueResponse(&Response{Content: "second"})

	req := Request{Messages: []core.Message{core.NewUserMessage("hi")}}

	resp, err := m.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = m.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	// Queue drained: canned echo.
	resp, err = m.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, resp.Content, "hi")
}

func TestMockKeyedResponses(t *testing.T) {
	m := NewMockModel()
	m.AddResponse("weather", &Response{Content: "sunny"})

	resp, err := m.Complete(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage("what's the WEATHER like")},
	})
	require.NoError(t, err)
	assert.Equal(t, "sunny", resp.Content)
}

func TestMockFailure(t *testing.T) {
	m := NewMockModel()
	m.FailWith(errors.New("boom"))

	_, err := m.Complete(context.Background(), Request{})
	var unavailable *core.ModelUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "mock", unavailable.Provider)
}

func TestMockRecordsRequests(t *testing.T) {
	m := NewMockModel()
	_, err := m.Complete(context.Background(), Request{
		Tools: []ToolDefinition{{Name: "echo"}},
	})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "echo", reqs[0].Tools[0].Name)
}
