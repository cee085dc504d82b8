package providers

import (
	"context"
	"sync"

	"github.com/gridpilot-ai/gridpilot/internal/llm"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// MockProvider is a scripted llm.Provider for tests and dry runs. It returns
// the configured responses in order and records every request it receives.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	index     int

	// Requests holds every request received, in order.
	Requests []llm.CompletionRequest
}

// NewMockProvider creates a mock provider that replies with the given
// responses in sequence. After the last response it keeps repeating it.
func NewMockProvider(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// FailWith appends an error reply to the script. Errors and responses are
// consumed from a shared cursor: position i yields errs[i] if non-nil,
// otherwise responses[i].
func (m *MockProvider) FailWith(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, "")
	for len(m.errs) < len(m.responses)-1 {
		m.errs = append(m.errs, nil)
	}
	m.errs = append(m.errs, err)
	return m
}

// Name returns the provider name.
func (m *MockProvider) Name() string {
	return "mock"
}

// Complete returns the next scripted response or error.
func (m *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.TranslateError("mock", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)

	if len(m.responses) == 0 {
		return nil, types.NewError(llm.ErrCompletionFailed, "mock provider has no scripted responses")
	}

	i := m.index
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	m.index++

	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}

	return &llm.CompletionResponse{
		Model:   "mock",
		Message: llm.NewAssistantMessage(m.responses[i]),
	}, nil
}

// CallCount returns how many completion calls the mock has served.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

var _ llm.Provider = (*MockProvider)(nil)
