package model

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/teambrain/core"
)

// MockModel is a scripted Model for tests and local development. Responses
// enqueued with EnqueueResponse are returned in order; prompt-keyed
// responses registered with AddResponse match on the latest user message.
// When nothing matches, a canned echo reply is produced.
type MockModel struct {
	mu       sync.Mutex
	queue    []*Response
	keyed    map[string]*Response
	requests []Request
	err      error
}

var _ Model = (*MockModel)(nil)

// NewMockModel creates an empty mock.
func NewMockModel() *MockModel {
	return &MockModel{keyed: make(map[string]*Response)}
}

// EnqueueResponse appends a scripted response returned by the next
// un-keyed Complete call.
func (m *MockModel) EnqueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// AddResponse registers a response returned whenever the latest user message
// contains the given substring (case-insensitive).
func (m *MockModel) AddResponse(substr string, resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keyed[strings.ToLower(substr)] = resp
}

// FailWith makes every subsequent Complete call return err wrapped as a
// model availability failure.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Requests returns a copy of all requests seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &core.ModelUnavailableError{Provider: "mock", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, &core.ModelUnavailableError{Provider: "mock", Err: m.err}
	}

	if lastUser := latestUserContent(req.Messages); lastUser != "" {
		lower := strings.ToLower(lastUser)
		for substr, resp := range m.keyed {
			if strings.Contains(lower, substr) {
				return cloneResponse(resp), nil
			}
		}
	}

	if len(m.queue) > 0 {
		resp := m.queue[0]
		m.queue = m.queue[1:]
		return cloneResponse(resp), nil
	}

	return &Response{
		Content:      "I heard: " + latestUserContent(req.Messages),
		FinishReason: "stop",
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info {
	return Info{Provider: "mock", Name: "mock"}
}

func latestUserContent(msgs []core.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			return msgs[i].Content
		}
	}
	return ""
}

func cloneResponse(r *Response) *Response {
	out := *r
	out.ToolCalls = append([]core.ToolCall(nil), r.ToolCalls...)
	return &out
}
