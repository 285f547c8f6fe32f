package uploads

// BatchStore persists upload batches and their per-item outcomes.
type BatchStore interface {
	// CreateBatch opens a RUNNING batch with one pending item per screenshot.
	CreateBatch(teamID string, screenshotURLs []string) (*Batch, error)

	// GetBatch retrieves a batch by ID.
	GetBatch(batchID string) (*Batch, error)

	// ListTeamBatches returns a team's batches, newest first.
	ListTeamBatches(teamID string) ([]Batch, error)

	// RecordItemOutcome stores the result for one item and refreshes the
	// succeeded and failed counters from the item set.
	RecordItemOutcome(batchID string, index int, recordID, failure string) error

	// CompleteBatch marks a batch COMPLETED and returns its final state.
	CompleteBatch(batchID string) (*Batch, error)
}
