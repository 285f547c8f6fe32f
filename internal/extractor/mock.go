package extractor

import (
	"context"
	"sync"
)

// MockExtractor is a mock implementation of the Extractor interface for testing.
// It is safe for concurrent use.
type MockExtractor struct {
	mu sync.Mutex

	// Spies for method calls
	ExtractMatchDataFunc func(ctx context.Context, imageURL string) (*Result, error)

	// Call records
	ExtractMatchDataCalls []string
}

// NewMockExtractor creates a new mock instance.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// Reset clears all call records.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractMatchDataCalls = nil
}

func (m *MockExtractor) ExtractMatchData(ctx context.Context, imageURL string) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtractMatchDataCalls = append(m.ExtractMatchDataCalls, imageURL)
	if m.ExtractMatchDataFunc != nil {
		return m.ExtractMatchDataFunc(ctx, imageURL)
	}
	return &Result{}, nil
}

// Ensure MockExtractor implements the Extractor interface.
var _ Extractor = (*MockExtractor)(nil)
