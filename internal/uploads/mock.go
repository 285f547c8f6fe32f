package uploads

import "sync"

// MockStore is a mock implementation of the BatchStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateBatchFunc       func(teamID string, screenshotURLs []string) (*Batch, error)
	GetBatchFunc          func(batchID string) (*Batch, error)
	ListTeamBatchesFunc   func(teamID string) ([]Batch, error)
	RecordItemOutcomeFunc func(batchID string, index int, recordID, failure string) error
	CompleteBatchFunc     func(batchID string) (*Batch, error)

	// Call records
	CreateBatchCalls       []CreateBatchCall
	RecordItemOutcomeCalls []RecordItemOutcomeCall
	CompleteBatchCalls     []string
}

// CreateBatchCall holds the arguments for a call to CreateBatch.
type CreateBatchCall struct {
	TeamID         string
	ScreenshotURLs []string
}

// RecordItemOutcomeCall holds the arguments for a call to RecordItemOutcome.
type RecordItemOutcomeCall struct {
	BatchID  string
	Index    int
	RecordID string
	Failure  string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateBatchCalls = nil
	m.RecordItemOutcomeCalls = nil
	m.CompleteBatchCalls = nil
}

func (m *MockStore) CreateBatch(teamID string, screenshotURLs []string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateBatchCalls = append(m.CreateBatchCalls, CreateBatchCall{TeamID: teamID, ScreenshotURLs: screenshotURLs})
	if m.CreateBatchFunc != nil {
		return m.CreateBatchFunc(teamID, screenshotURLs)
	}
	batch := &Batch{ID: "mock-batch", TeamID: teamID, Status: StatusRunning, Total: len(screenshotURLs)}
	for _, url := range screenshotURLs {
		batch.Items = append(batch.Items, Item{ScreenshotURL: url})
	}
	return batch, nil
}

func (m *MockStore) GetBatch(batchID string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetBatchFunc != nil {
		return m.GetBatchFunc(batchID)
	}
	return &Batch{ID: batchID, Status: StatusRunning}, nil
}

func (m *MockStore) ListTeamBatches(teamID string) ([]Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTeamBatchesFunc != nil {
		return m.ListTeamBatchesFunc(teamID)
	}
	return []Batch{}, nil
}

func (m *MockStore) RecordItemOutcome(batchID string, index int, recordID, failure string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordItemOutcomeCalls = append(m.RecordItemOutcomeCalls, RecordItemOutcomeCall{
		BatchID:  batchID,
		Index:    index,
		RecordID: recordID,
		Failure:  failure,
	})
	if m.RecordItemOutcomeFunc != nil {
		return m.RecordItemOutcomeFunc(batchID, index, recordID, failure)
	}
	return nil
}

func (m *MockStore) CompleteBatch(batchID string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteBatchCalls = append(m.CompleteBatchCalls, batchID)
	if m.CompleteBatchFunc != nil {
		return m.CompleteBatchFunc(batchID)
	}
	return &Batch{ID: batchID, Status: StatusCompleted}, nil
}

// Ensure MockStore implements the BatchStore interface.
var _ BatchStore = (*MockStore)(nil)
