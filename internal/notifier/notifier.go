package notifier

import (
	"github.com/mauv0809/chicken-dinner/internal/tournament"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For freshly scored match records
	SendResultNotification(team *tournament.Team, record *tournament.MatchRecord, dryRun bool) error
	// For records flagged during extraction
	SendReviewAlert(record *tournament.MatchRecord, dryRun bool) error
	// For slash commands and standings announcements
	SendLeaderboard(standings []tournament.Team, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(standings []tournament.Team) (any, error)
}
