package llm

import (
	"context"
	"sync"
)

// MockClient is a test double for the LLM Client interface.
// Handler, when set, picks the reply per prompt; otherwise every call gets
// Response and Err. Safe for concurrent use.
type MockClient struct {
	Response *Response
	Err      error
	Handler  func(prompt string) (string, error)

	mu    sync.Mutex
	calls []string
}

// Complete records the call and returns the mock response.
func (m *MockClient) Complete(ctx context.Context, prompt string) (*Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()

	if m.Handler != nil {
		content, err := m.Handler(prompt)
		if err != nil {
			return nil, err
		}
		return &Response{Content: content, Provider: "mock"}, nil
	}
	return m.Response, m.Err
}

// Calls returns a copy of the prompts received so far.
func (m *MockClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallsMatching counts recorded prompts for which match returns true.
func (m *MockClient) CallsMatching(match func(prompt string) bool) int {
	n := 0
	for _, p := range m.Calls() {
		if match(p) {
			n++
		}
	}
	return n
}
