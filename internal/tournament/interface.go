package tournament

import "github.com/mauv0809/chicken-dinner/internal/scoring"

// TournamentStore defines persistence for tournaments, teams and match
// records. Implementations must keep each team's stored totals equal to the
// aggregate of its current record set after every settled mutation.
type TournamentStore interface {
	CreateTournament(name string) (*Tournament, error)
	GetTournament(id string) (*Tournament, error)
	ListTournaments() ([]Tournament, error)
	DeleteTournament(id string) error

	CreateTeam(tournamentID, name string) (*Team, error)
	GetTeam(id string) (*Team, error)
	ListTeams(tournamentID string) ([]Team, error)
	DeleteTeam(id string) error
	// Leaderboard returns a tournament's teams in rank order: total points
	// descending, total kills breaking ties, insertion order on full ties.
	Leaderboard(tournamentID string) ([]Team, error)

	// InsertMatchRecord persists a record and recomputes the owning team's
	// totals in the same transaction. Missing id, created-at, match number
	// and points are filled in.
	InsertMatchRecord(rec *MatchRecord) error
	GetMatchRecord(id string) (*MatchRecord, error)
	ListTeamRecords(teamID string) ([]MatchRecord, error)
	ListRecordsForReview() ([]MatchRecord, error)
	// UpdateMatchResult sets placement and kills on a record, derives its
	// points, marks it scored and recomputes the owning team in the same
	// transaction.
	UpdateMatchResult(recordID string, placement, kills int) (*MatchRecord, error)
	// MarkNeedsReview flags a record for manual correction without touching
	// its scoring fields.
	MarkNeedsReview(recordID, reason string) (*MatchRecord, error)
	DeleteMatchRecord(recordID string) error

	// RecomputeTeamTotals forces a full recompute from the current record
	// set and returns the fresh totals.
	RecomputeTeamTotals(teamID string) (*scoring.TeamTotals, error)
	// ResetTeam deletes all of a team's match records; its totals recompute
	// to zero from the now empty set.
	ResetTeam(teamID string) error
	Clear()
}
