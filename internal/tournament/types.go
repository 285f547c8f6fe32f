package tournament

import (
	"database/sql"
	"errors"

	"github.com/mauv0809/chicken-dinner/internal/scoring"
)

// store handles all database operations for tournaments, teams and match
// records.
type store struct {
	db    *sql.DB
	locks *teamLocks
}

var (
	// ErrNotFound is returned when a tournament, team or record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when an identity tries to mutate another
	// team's data.
	ErrForbidden = errors.New("forbidden")
)

// RecordStatus tracks a match record through the extraction pipeline.
type RecordStatus string

const (
	// StatusPending marks a record awaiting extraction or manual entry.
	StatusPending RecordStatus = "PENDING"
	// StatusScored marks a record whose placement, kills and points are set.
	StatusScored RecordStatus = "SCORED"
	// StatusNeedsReview marks a record whose extraction failed and needs an
	// admin to fill in the result by hand.
	StatusNeedsReview RecordStatus = "NEEDS_REVIEW"
)

// Role distinguishes player sessions from admin sessions.
type Role string

const (
	RolePlayer Role = "PLAYER"
	RoleAdmin  Role = "ADMIN"
)

// Identity is the authenticated caller, passed explicitly into mutating
// operations rather than carried in ambient state.
type Identity struct {
	TeamID string
	Role   Role
}

// CanMutate reports whether the identity may modify data owned by teamID.
func (i Identity) CanMutate(teamID string) bool {
	if i.Role == RoleAdmin {
		return true
	}
	return i.TeamID != "" && i.TeamID == teamID
}

// Tournament groups competing teams.
type Tournament struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Team is the aggregate scoring target. Totals are derived from the team's
// match records and rewritten wholesale on every record mutation; they are
// never patched incrementally.
type Team struct {
	ID           string             `json:"id"`
	TournamentID string             `json:"tournament_id"`
	Name         string             `json:"name"`
	Totals       scoring.TeamTotals `json:"totals"`
	CreatedAt    int64              `json:"created_at"`
}

// MatchRecord is one submitted match result. Placement, Kills and Points stay
// nil until extraction or manual entry fills them; CreatedAt is immutable.
type MatchRecord struct {
	ID            string       `json:"id"`
	TeamID        string       `json:"team_id"`
	MatchNumber   *int         `json:"match_number,omitempty"`
	Placement     *int         `json:"placement,omitempty"`
	Kills         *int         `json:"kills,omitempty"`
	Points        *int         `json:"points,omitempty"`
	ScreenshotURL *string      `json:"screenshot_url,omitempty"`
	Status        RecordStatus `json:"status"`
	ReviewReason  *string      `json:"review_reason,omitempty"`
	CreatedAt     int64        `json:"created_at"`
}
