package notifier

import (
	"sync"

	"github.com/mauv0809/chicken-dinner/internal/tournament"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for method calls
	SendResultNotificationFunc func(team *tournament.Team, record *tournament.MatchRecord, dryRun bool) error
	SendReviewAlertFunc        func(record *tournament.MatchRecord, dryRun bool) error
	SendLeaderboardFunc        func(standings []tournament.Team, dryRun bool) error
	FormatLeaderboardFunc      func(standings []tournament.Team) (any, error)

	// Call records
	SendResultNotificationCalls []struct {
		Team   *tournament.Team
		Record *tournament.MatchRecord
	}
	SendReviewAlertCalls []struct{ Record *tournament.MatchRecord }
	SendLeaderboardCalls [][]tournament.Team

	// Call records for format functions
	LastLeaderboardResponse any
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = nil
	m.SendReviewAlertCalls = nil
	m.SendLeaderboardCalls = nil
	m.LastLeaderboardResponse = nil
}

func (m *Mock) SendResultNotification(team *tournament.Team, record *tournament.MatchRecord, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendResultNotificationCalls = append(m.SendResultNotificationCalls, struct {
		Team   *tournament.Team
		Record *tournament.MatchRecord
	}{team, record})
	if m.SendResultNotificationFunc != nil {
		return m.SendResultNotificationFunc(team, record, dryRun)
	}
	return nil
}

func (m *Mock) SendReviewAlert(record *tournament.MatchRecord, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendReviewAlertCalls = append(m.SendReviewAlertCalls, struct{ Record *tournament.MatchRecord }{record})
	if m.SendReviewAlertFunc != nil {
		return m.SendReviewAlertFunc(record, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(standings []tournament.Team, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, standings)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(standings, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(standings []tournament.Team) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardFunc != nil {
		resp, err := m.FormatLeaderboardFunc(standings)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_leaderboard", nil
}

// Ensure Mock implements the Notifier interface.
var _ Notifier = (*Mock)(nil)
