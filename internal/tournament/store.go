package tournament

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
)

// New creates a new TournamentStore.
func New(db *sql.DB) TournamentStore {
	return &store{
		db:    db,
		locks: newTeamLocks(),
	}
}

func (s *store) CreateTournament(name string) (*Tournament, error) {
	tournament := &Tournament{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().Unix(),
	}

	_, err := s.db.Exec("INSERT INTO tournaments (id, name, created_at) VALUES (?, ?, ?)",
		tournament.ID, tournament.Name, tournament.CreatedAt)
	if err != nil {
		return nil, err
	}
	return tournament, nil
}

func (s *store) GetTournament(id string) (*Tournament, error) {
	var tournament Tournament
	err := s.db.QueryRow("SELECT id, name, created_at FROM tournaments WHERE id = ?", id).
		Scan(&tournament.ID, &tournament.Name, &tournament.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *store) ListTournaments() ([]Tournament, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM tournaments ORDER BY created_at, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tournaments []Tournament
	for rows.Next() {
		var tournament Tournament
		if err := rows.Scan(&tournament.ID, &tournament.Name, &tournament.CreatedAt); err != nil {
			return nil, err
		}
		tournaments = append(tournaments, tournament)
	}
	return tournaments, rows.Err()
}

// DeleteTournament removes a tournament together with its teams and their
// match records.
func (s *store) DeleteTournament(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM match_records WHERE team_id IN (SELECT id FROM teams WHERE tournament_id = ?)", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.Exec("DELETE FROM teams WHERE tournament_id = ?", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.Exec("DELETE FROM tournaments WHERE id = ?", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *store) CreateTeam(tournamentID, name string) (*Team, error) {
	if _, err := s.GetTournament(tournamentID); err != nil {
		return nil, err
	}

	team := &Team{
		ID:           uuid.New().String(),
		TournamentID: tournamentID,
		Name:         name,
		CreatedAt:    time.Now().Unix(),
	}

	_, err := s.db.Exec("INSERT INTO teams (id, tournament_id, name, created_at) VALUES (?, ?, ?, ?)",
		team.ID, team.TournamentID, team.Name, team.CreatedAt)
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *store) GetTeam(id string) (*Team, error) {
	team, err := s.scanTeam(s.db.QueryRow(selectTeamColumns+" FROM teams WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (s *store) ListTeams(tournamentID string) ([]Team, error) {
	rows, err := s.db.Query(selectTeamColumns+" FROM teams WHERE tournament_id = ? ORDER BY created_at, name", tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		team, err := s.scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

// DeleteTeam removes a team and its match records.
func (s *store) DeleteTeam(id string) error {
	lock := s.locks.acquire(id)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM match_records WHERE team_id = ?", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	res, err := tx.Exec("DELETE FROM teams WHERE id = ?", id)
	if err != nil {
		tx.Rollback()
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if affected == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

func (s *store) Leaderboard(tournamentID string) ([]Team, error) {
	teams, err := s.ListTeams(tournamentID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(teams, func(i, j int) bool {
		return scoring.RanksHigher(teams[i].Totals, teams[j].Totals)
	})
	return teams, nil
}

func (s *store) InsertMatchRecord(rec *MatchRecord) error {
	lock := s.locks.acquire(rec.TeamID)
	lock.Lock()
	defer lock.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().Unix()
	}
	if rec.Placement != nil && rec.Kills != nil {
		points := scoring.RecordPoints(*rec.Placement, *rec.Kills)
		rec.Points = &points
		rec.Status = StatusScored
	} else if rec.Status == "" {
		rec.Status = StatusPending
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	var teamExists int
	err = tx.QueryRow("SELECT COUNT(1) FROM teams WHERE id = ?", rec.TeamID).Scan(&teamExists)
	if err != nil {
		tx.Rollback()
		return err
	}
	if teamExists == 0 {
		tx.Rollback()
		return ErrNotFound
	}

	if rec.MatchNumber == nil {
		// The per-team lock is held, so max+1 cannot race with another
		// insert for the same team.
		var next int
		err = tx.QueryRow("SELECT COALESCE(MAX(match_number), 0) + 1 FROM match_records WHERE team_id = ?", rec.TeamID).Scan(&next)
		if err != nil {
			tx.Rollback()
			return err
		}
		rec.MatchNumber = &next
	}

	_, err = tx.Exec(`
		INSERT INTO match_records (id, team_id, match_number, placement, kills, points, screenshot_url, status, review_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.TeamID, rec.MatchNumber, rec.Placement, rec.Kills, rec.Points, rec.ScreenshotURL, rec.Status, rec.ReviewReason, rec.CreatedAt)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := recomputeTeamTx(tx, rec.TeamID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *store) GetMatchRecord(id string) (*MatchRecord, error) {
	rec, err := s.scanRecord(s.db.QueryRow(selectRecordColumns+" FROM match_records WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *store) ListTeamRecords(teamID string) ([]MatchRecord, error) {
	return s.listRecords(selectRecordColumns+" FROM match_records WHERE team_id = ? ORDER BY match_number, created_at", teamID)
}

func (s *store) ListRecordsForReview() ([]MatchRecord, error) {
	return s.listRecords(selectRecordColumns+" FROM match_records WHERE status = ? ORDER BY created_at", StatusNeedsReview)
}

func (s *store) listRecords(query string, args ...any) ([]MatchRecord, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []MatchRecord
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// UpdateMatchResult is the single write path for extraction results, manual
// corrections and admin edits. Points are always derived here, never taken
// from the caller.
func (s *store) UpdateMatchResult(recordID string, placement, kills int) (*MatchRecord, error) {
	rec, err := s.GetMatchRecord(recordID)
	if err != nil {
		return nil, err
	}

	lock := s.locks.acquire(rec.TeamID)
	lock.Lock()
	defer lock.Unlock()

	points := scoring.RecordPoints(placement, kills)

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`
		UPDATE match_records
		SET placement = ?, kills = ?, points = ?, status = ?, review_reason = NULL
		WHERE id = ?`,
		placement, kills, points, StatusScored, recordID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := recomputeTeamTx(tx, rec.TeamID); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	rec.Placement = &placement
	rec.Kills = &kills
	rec.Points = &points
	rec.Status = StatusScored
	rec.ReviewReason = nil
	return rec, nil
}

func (s *store) MarkNeedsReview(recordID, reason string) (*MatchRecord, error) {
	res, err := s.db.Exec("UPDATE match_records SET status = ?, review_reason = ? WHERE id = ?",
		StatusNeedsReview, reason, recordID)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetMatchRecord(recordID)
}

func (s *store) DeleteMatchRecord(recordID string) error {
	rec, err := s.GetMatchRecord(recordID)
	if err != nil {
		return err
	}

	lock := s.locks.acquire(rec.TeamID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM match_records WHERE id = ?", recordID)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := recomputeTeamTx(tx, rec.TeamID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *store) RecomputeTeamTotals(teamID string) (*scoring.TeamTotals, error) {
	lock := s.locks.acquire(teamID)
	lock.Lock()

	tx, err := s.db.Begin()
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	if err := recomputeTeamTx(tx, teamID); err != nil {
		tx.Rollback()
		lock.Unlock()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		lock.Unlock()
		return nil, err
	}
	lock.Unlock()

	team, err := s.GetTeam(teamID)
	if err != nil {
		return nil, err
	}
	return &team.Totals, nil
}

func (s *store) ResetTeam(teamID string) error {
	lock := s.locks.acquire(teamID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec("DELETE FROM match_records WHERE team_id = ?", teamID)
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := recomputeTeamTx(tx, teamID); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *store) Clear() {
	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}

	for _, table := range []string{"match_records", "teams", "tournaments", "upload_batches"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

// recomputeTeamTx rewrites a team's six derived columns from its full record
// set inside the caller's transaction. It always replaces every value; a
// delta is never applied to the stored aggregates.
func recomputeTeamTx(tx *sql.Tx, teamID string) error {
	rows, err := tx.Query("SELECT placement, kills FROM match_records WHERE team_id = ?", teamID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var entries []scoring.MatchEntry
	for rows.Next() {
		var placement, kills sql.NullInt64
		if err := rows.Scan(&placement, &kills); err != nil {
			return err
		}
		var entry scoring.MatchEntry
		if placement.Valid {
			v := int(placement.Int64)
			entry.Placement = &v
		}
		if kills.Valid {
			v := int(kills.Int64)
			entry.Kills = &v
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	totals := scoring.Aggregate(entries)
	res, err := tx.Exec(`
		UPDATE teams
		SET total_points = ?, placement_points = ?, kill_points = ?, total_kills = ?, matches_played = ?, first_place_wins = ?
		WHERE id = ?`,
		totals.TotalPoints, totals.PlacementPoints, totals.KillPoints, totals.TotalKills, totals.MatchesPlayed, totals.FirstPlaceWins, teamID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectTeamColumns = "SELECT id, tournament_id, name, total_points, placement_points, kill_points, total_kills, matches_played, first_place_wins, created_at"

func (s *store) scanTeam(scanner interface{ Scan(...any) error }) (*Team, error) {
	var team Team
	err := scanner.Scan(
		&team.ID, &team.TournamentID, &team.Name,
		&team.Totals.TotalPoints, &team.Totals.PlacementPoints, &team.Totals.KillPoints,
		&team.Totals.TotalKills, &team.Totals.MatchesPlayed, &team.Totals.FirstPlaceWins,
		&team.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

const selectRecordColumns = "SELECT id, team_id, match_number, placement, kills, points, screenshot_url, status, review_reason, created_at"

func (s *store) scanRecord(scanner interface{ Scan(...any) error }) (*MatchRecord, error) {
	var rec MatchRecord
	var matchNumber, placement, kills, points sql.NullInt64
	var screenshotURL, reviewReason sql.NullString

	err := scanner.Scan(
		&rec.ID, &rec.TeamID, &matchNumber, &placement, &kills, &points,
		&screenshotURL, &rec.Status, &reviewReason, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if matchNumber.Valid {
		v := int(matchNumber.Int64)
		rec.MatchNumber = &v
	}
	if placement.Valid {
		v := int(placement.Int64)
		rec.Placement = &v
	}
	if kills.Valid {
		v := int(kills.Int64)
		rec.Kills = &v
	}
	if points.Valid {
		v := int(points.Int64)
		rec.Points = &v
	}
	if screenshotURL.Valid {
		rec.ScreenshotURL = &screenshotURL.String
	}
	if reviewReason.Valid {
		rec.ReviewReason = &reviewReason.String
	}
	return &rec, nil
}
