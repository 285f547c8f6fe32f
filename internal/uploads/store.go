package uploads

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned when a batch does not exist.
var ErrNotFound = errors.New("upload batch not found")

// store handles database operations for upload batches.
type store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a new upload batch store.
func NewStore(db *sql.DB) BatchStore {
	return &store{
		db: db,
	}
}

func (s *store) CreateBatch(teamID string, screenshotURLs []string) (*Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	batch := &Batch{
		ID:        uuid.New().String(),
		TeamID:    teamID,
		Status:    StatusRunning,
		Total:     len(screenshotURLs),
		Items:     make([]Item, 0, len(screenshotURLs)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, url := range screenshotURLs {
		batch.Items = append(batch.Items, Item{ScreenshotURL: url})
	}

	blob, err := msgpack.Marshal(batch.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch items: %w", err)
	}

	query := `
		INSERT INTO upload_batches (
			id, team_id, status, total, succeeded, failed, items_blob, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		batch.ID,
		batch.TeamID,
		string(batch.Status),
		batch.Total,
		batch.Succeeded,
		batch.Failed,
		blob,
		batch.CreatedAt.Unix(),
		batch.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload batch: %w", err)
	}

	log.Info("Created upload batch", "id", batch.ID, "team", teamID, "total", batch.Total)
	return batch, nil
}

func (s *store) GetBatch(batchID string) (*Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(selectBatchColumns+" FROM upload_batches WHERE id = ?", batchID)
	batch, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get upload batch: %w", err)
	}
	return batch, nil
}

func (s *store) ListTeamBatches(teamID string) ([]Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(selectBatchColumns+" FROM upload_batches WHERE team_id = ? ORDER BY created_at DESC", teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list upload batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan upload batch: %w", err)
		}
		batches = append(batches, *batch)
	}
	return batches, rows.Err()
}

func (s *store) RecordItemOutcome(batchID string, index int, recordID, failure string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	err := s.db.QueryRow("SELECT items_blob FROM upload_batches WHERE id = ?", batchID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load batch items: %w", err)
	}

	var items []Item
	if err := msgpack.Unmarshal(blob, &items); err != nil {
		return fmt.Errorf("failed to unmarshal batch items: %w", err)
	}
	if index < 0 || index >= len(items) {
		return fmt.Errorf("item index %d out of range for batch of %d", index, len(items))
	}

	items[index].RecordID = recordID
	items[index].Failure = failure

	// The counters are always recounted from the item set rather than bumped.
	succeeded, failed := 0, 0
	for _, item := range items {
		switch {
		case item.Failure != "":
			failed++
		case item.RecordID != "":
			succeeded++
		}
	}

	blob, err = msgpack.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal batch items: %w", err)
	}

	_, err = s.db.Exec(
		"UPDATE upload_batches SET items_blob = ?, succeeded = ?, failed = ?, updated_at = ? WHERE id = ?",
		blob, succeeded, failed, time.Now().Unix(), batchID,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch item: %w", err)
	}
	return nil
}

func (s *store) CompleteBatch(batchID string) (*Batch, error) {
	s.mu.Lock()

	res, err := s.db.Exec(
		"UPDATE upload_batches SET status = ?, updated_at = ? WHERE id = ?",
		string(StatusCompleted), time.Now().Unix(), batchID,
	)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("failed to complete upload batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	if affected == 0 {
		return nil, ErrNotFound
	}

	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, err
	}
	log.Info("Completed upload batch", "id", batch.ID, "succeeded", batch.Succeeded, "failed", batch.Failed)
	return batch, nil
}

const selectBatchColumns = "SELECT id, team_id, status, total, succeeded, failed, items_blob, created_at, updated_at"

func scanBatch(scanner interface{ Scan(...any) error }) (*Batch, error) {
	var batch Batch
	var status string
	var blob []byte
	var createdAt, updatedAt int64

	err := scanner.Scan(
		&batch.ID, &batch.TeamID, &status, &batch.Total, &batch.Succeeded, &batch.Failed,
		&blob, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	batch.Status = BatchStatus(status)
	batch.CreatedAt = time.Unix(createdAt, 0)
	batch.UpdatedAt = time.Unix(updatedAt, 0)
	if blob != nil {
		if err := msgpack.Unmarshal(blob, &batch.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal batch items: %w", err)
		}
	}
	return &batch, nil
}
