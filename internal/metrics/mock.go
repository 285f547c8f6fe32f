package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                 sync.Mutex
	uploadsReceived    int
	extractionAttempts int
	extractionRetries  int
	extractionFailures int
	recordsScored      int
	recordsFlagged     int
	recomputeDurations []float64
	slackNotifSent     int
	slackNotifFailed   int
	startupTime        float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		recomputeDurations: make([]float64, 0),
	}
}

func (m *Mock) IncUploadsReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadsReceived++
}

func (m *Mock) IncExtractionAttempts() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractionAttempts++
}

func (m *Mock) IncExtractionRetries() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractionRetries++
}

func (m *Mock) IncExtractionFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractionFailures++
}

func (m *Mock) IncRecordsScored() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordsScored++
}

func (m *Mock) IncRecordsFlagged() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordsFlagged++
}

func (m *Mock) ObserveRecomputeDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recomputeDurations = append(m.recomputeDurations, duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// UploadsReceivedCount returns the number of times IncUploadsReceived was called.
func (m *Mock) UploadsReceivedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploadsReceived
}

// ExtractionAttemptsCount returns the number of times IncExtractionAttempts was called.
func (m *Mock) ExtractionAttemptsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extractionAttempts
}

// ExtractionRetriesCount returns the number of times IncExtractionRetries was called.
func (m *Mock) ExtractionRetriesCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extractionRetries
}

// ExtractionFailuresCount returns the number of times IncExtractionFailures was called.
func (m *Mock) ExtractionFailuresCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extractionFailures
}

// RecordsScoredCount returns the number of times IncRecordsScored was called.
func (m *Mock) RecordsScoredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordsScored
}

// RecordsFlaggedCount returns the number of times IncRecordsFlagged was called.
func (m *Mock) RecordsFlaggedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recordsFlagged
}

// SlackNotifSentCount returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailedCount returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}
