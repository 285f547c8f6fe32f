package uploads

import "time"

// BatchStatus represents the lifecycle state of an upload batch.
type BatchStatus string

const (
	StatusRunning   BatchStatus = "RUNNING"
	StatusCompleted BatchStatus = "COMPLETED"
)

// Item is one screenshot inside a batch together with its ingestion outcome.
// A non-empty Failure means the screenshot needed manual review or could not
// be recorded at all; the record, when one exists, is never discarded.
type Item struct {
	ScreenshotURL string `json:"screenshot_url" msgpack:"screenshot_url"`
	RecordID      string `json:"record_id,omitempty" msgpack:"record_id"`
	Failure       string `json:"failure,omitempty" msgpack:"failure"`
}

// Batch tracks a multi-screenshot upload through ingestion.
type Batch struct {
	ID        string      `json:"id"`
	TeamID    string      `json:"team_id"`
	Status    BatchStatus `json:"status"`
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []Item      `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
