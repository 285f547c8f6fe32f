package tournament

import (
	"sync"

	"github.com/mauv0809/chicken-dinner/internal/scoring"
)

// MockStore is a mock implementation of the TournamentStore interface for
// testing. It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	CreateTournamentFunc     func(name string) (*Tournament, error)
	GetTournamentFunc        func(id string) (*Tournament, error)
	ListTournamentsFunc      func() ([]Tournament, error)
	DeleteTournamentFunc     func(id string) error
	CreateTeamFunc           func(tournamentID, name string) (*Team, error)
	GetTeamFunc              func(id string) (*Team, error)
	ListTeamsFunc            func(tournamentID string) ([]Team, error)
	DeleteTeamFunc           func(id string) error
	LeaderboardFunc          func(tournamentID string) ([]Team, error)
	InsertMatchRecordFunc    func(rec *MatchRecord) error
	GetMatchRecordFunc       func(id string) (*MatchRecord, error)
	ListTeamRecordsFunc      func(teamID string) ([]MatchRecord, error)
	ListRecordsForReviewFunc func() ([]MatchRecord, error)
	UpdateMatchResultFunc    func(recordID string, placement, kills int) (*MatchRecord, error)
	MarkNeedsReviewFunc      func(recordID, reason string) (*MatchRecord, error)
	DeleteMatchRecordFunc    func(recordID string) error
	RecomputeTeamTotalsFunc  func(teamID string) (*scoring.TeamTotals, error)
	ResetTeamFunc            func(teamID string) error
	ClearFunc                func()

	// Call records
	InsertMatchRecordCalls []*MatchRecord
	UpdateMatchResultCalls []struct {
		RecordID  string
		Placement int
		Kills     int
	}
	MarkNeedsReviewCalls []struct {
		RecordID string
		Reason   string
	}
	DeleteMatchRecordCalls   []string
	RecomputeTeamTotalsCalls []string
	ResetTeamCalls           []string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

var _ TournamentStore = (*MockStore)(nil)

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertMatchRecordCalls = nil
	m.UpdateMatchResultCalls = nil
	m.MarkNeedsReviewCalls = nil
	m.DeleteMatchRecordCalls = nil
	m.RecomputeTeamTotalsCalls = nil
	m.ResetTeamCalls = nil
}

func (m *MockStore) CreateTournament(name string) (*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateTournamentFunc != nil {
		return m.CreateTournamentFunc(name)
	}
	return &Tournament{ID: "mock-tournament", Name: name}, nil
}

func (m *MockStore) GetTournament(id string) (*Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTournamentFunc != nil {
		return m.GetTournamentFunc(id)
	}
	return &Tournament{ID: id}, nil
}

func (m *MockStore) ListTournaments() ([]Tournament, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTournamentsFunc != nil {
		return m.ListTournamentsFunc()
	}
	return nil, nil
}

func (m *MockStore) DeleteTournament(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteTournamentFunc != nil {
		return m.DeleteTournamentFunc(id)
	}
	return nil
}

func (m *MockStore) CreateTeam(tournamentID, name string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateTeamFunc != nil {
		return m.CreateTeamFunc(tournamentID, name)
	}
	return &Team{ID: "mock-team", TournamentID: tournamentID, Name: name}, nil
}

func (m *MockStore) GetTeam(id string) (*Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetTeamFunc != nil {
		return m.GetTeamFunc(id)
	}
	return &Team{ID: id}, nil
}

func (m *MockStore) ListTeams(tournamentID string) ([]Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTeamsFunc != nil {
		return m.ListTeamsFunc(tournamentID)
	}
	return nil, nil
}

func (m *MockStore) DeleteTeam(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteTeamFunc != nil {
		return m.DeleteTeamFunc(id)
	}
	return nil
}

func (m *MockStore) Leaderboard(tournamentID string) ([]Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LeaderboardFunc != nil {
		return m.LeaderboardFunc(tournamentID)
	}
	return nil, nil
}

func (m *MockStore) InsertMatchRecord(rec *MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertMatchRecordCalls = append(m.InsertMatchRecordCalls, rec)
	if m.InsertMatchRecordFunc != nil {
		return m.InsertMatchRecordFunc(rec)
	}
	if rec.ID == "" {
		rec.ID = "mock-record"
	}
	return nil
}

func (m *MockStore) GetMatchRecord(id string) (*MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMatchRecordFunc != nil {
		return m.GetMatchRecordFunc(id)
	}
	return &MatchRecord{ID: id, Status: StatusPending}, nil
}

func (m *MockStore) ListTeamRecords(teamID string) ([]MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListTeamRecordsFunc != nil {
		return m.ListTeamRecordsFunc(teamID)
	}
	return nil, nil
}

func (m *MockStore) ListRecordsForReview() ([]MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListRecordsForReviewFunc != nil {
		return m.ListRecordsForReviewFunc()
	}
	return nil, nil
}

func (m *MockStore) UpdateMatchResult(recordID string, placement, kills int) (*MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateMatchResultCalls = append(m.UpdateMatchResultCalls, struct {
		RecordID  string
		Placement int
		Kills     int
	}{recordID, placement, kills})
	if m.UpdateMatchResultFunc != nil {
		return m.UpdateMatchResultFunc(recordID, placement, kills)
	}
	points := scoring.RecordPoints(placement, kills)
	return &MatchRecord{ID: recordID, Placement: &placement, Kills: &kills, Points: &points, Status: StatusScored}, nil
}

func (m *MockStore) MarkNeedsReview(recordID, reason string) (*MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkNeedsReviewCalls = append(m.MarkNeedsReviewCalls, struct {
		RecordID string
		Reason   string
	}{recordID, reason})
	if m.MarkNeedsReviewFunc != nil {
		return m.MarkNeedsReviewFunc(recordID, reason)
	}
	return &MatchRecord{ID: recordID, Status: StatusNeedsReview, ReviewReason: &reason}, nil
}

func (m *MockStore) DeleteMatchRecord(recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteMatchRecordCalls = append(m.DeleteMatchRecordCalls, recordID)
	if m.DeleteMatchRecordFunc != nil {
		return m.DeleteMatchRecordFunc(recordID)
	}
	return nil
}

func (m *MockStore) RecomputeTeamTotals(teamID string) (*scoring.TeamTotals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecomputeTeamTotalsCalls = append(m.RecomputeTeamTotalsCalls, teamID)
	if m.RecomputeTeamTotalsFunc != nil {
		return m.RecomputeTeamTotalsFunc(teamID)
	}
	return &scoring.TeamTotals{}, nil
}

func (m *MockStore) ResetTeam(teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetTeamCalls = append(m.ResetTeamCalls, teamID)
	if m.ResetTeamFunc != nil {
		return m.ResetTeamFunc(teamID)
	}
	return nil
}

func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearFunc != nil {
		m.ClearFunc()
	}
}
