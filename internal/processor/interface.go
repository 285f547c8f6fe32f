package processor

import (
	"github.com/mauv0809/chicken-dinner/internal/notifier"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
	"github.com/mauv0809/chicken-dinner/internal/uploads"
)

// Store defines the database operations required by the processor.
type Store interface {
	GetTeam(id string) (*tournament.Team, error)
	InsertMatchRecord(rec *tournament.MatchRecord) error
	GetMatchRecord(id string) (*tournament.MatchRecord, error)
	UpdateMatchResult(recordID string, placement, kills int) (*tournament.MatchRecord, error)
	MarkNeedsReview(recordID, reason string) (*tournament.MatchRecord, error)
	DeleteMatchRecord(recordID string) error
	RecomputeTeamTotals(teamID string) (*scoring.TeamTotals, error)
	ResetTeam(teamID string) error
}

// Batches defines the upload batch operations required by the processor.
type Batches interface {
	CreateBatch(teamID string, screenshotURLs []string) (*uploads.Batch, error)
	GetBatch(batchID string) (*uploads.Batch, error)
	RecordItemOutcome(batchID string, index int, recordID, failure string) error
	CompleteBatch(batchID string) (*uploads.Batch, error)
}

// Notifier defines the notification operations required by the processor.
// This is now an alias for the main notifier interface for decoupling.
type Notifier interface {
	notifier.Notifier
}
