package finch

import (
	"context"
	"strings"
	"sync"
)

// MockResponse is a canned finch invocation result.
type MockResponse struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error
}

// MockRunner is a test double for Runner. Responses are keyed by the
// space-joined argument list; queued responses are consumed in order and the
// last one repeats. Unmatched invocations get Default.
type MockRunner struct {
	mu        sync.Mutex
	responses map[string][]MockResponse
	calls     [][]string
	Default   MockResponse
}

// NewMockRunner creates an empty MockRunner.
func NewMockRunner() *MockRunner {
	return &MockRunner{responses: make(map[string][]MockResponse)}
}

// On queues responses for the exact argument string, e.g. "container ls".
func (m *MockRunner) On(args string, resp ...MockResponse) *MockRunner {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[args] = append(m.responses[args], resp...)
	return m
}

// Run records the call and returns the matching response.
func (m *MockRunner) Run(_ context.Context, args ...string) (*Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, append([]string(nil), args...))

	key := strings.Join(args, " ")
	resp := m.Default
	if queue := m.responses[key]; len(queue) > 0 {
		resp = queue[0]
		if len(queue) > 1 {
			m.responses[key] = queue[1:]
		}
	}

	out := &Output{Args: args, Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}
	if resp.Err != nil {
		out.ExitCode = -1
		return out, resp.Err
	}
	return out, nil
}

// Calls returns the argument lists seen so far, space-joined.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = strings.Join(c, " ")
	}
	return out
}
