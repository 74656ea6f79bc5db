package oracle

import (
	"context"
	"sync"
)

// MockOracle is a scripted Oracle for testing. Results are returned by
// exact query match, falling back to Default.
type MockOracle struct {
	mu      sync.Mutex
	Results map[string]string
	Default string
	Err     error
	Queries []string
}

// NewMockOracle creates a MockOracle with the given query→result script.
func NewMockOracle(results map[string]string) *MockOracle {
	return &MockOracle{Results: results}
}

func (m *MockOracle) ResultText(_ context.Context, query string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return "", m.Err
	}
	if r, ok := m.Results[query]; ok {
		return r, nil
	}
	return m.Default, nil
}

// QueryCount returns the number of queries executed.
func (m *MockOracle) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}
