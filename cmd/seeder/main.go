package main

import (
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Simplified config loading for the script
func loadConfig() map[string]string {
	err := godotenv.Load()
	if err != nil {
		log.Warn("No .env file found, reading from environment variables")
	}

	config := make(map[string]string)
	required := []string{"TURSO_PRIMARY_URL", "TURSO_AUTH_TOKEN"}

	for _, key := range required {
		if value, ok := os.LookupEnv(key); ok {
			config[key] = value
		} else {
			log.Fatalf("Error: Required environment variable %s is not set.", key)
		}
	}
	return config
}

func main() {
	log.Info("Starting database seeder...")
	cfg := loadConfig()

	// Connect directly to the primary database
	dbURL := fmt.Sprintf("%s?authToken=%s", cfg["TURSO_PRIMARY_URL"], cfg["TURSO_AUTH_TOKEN"])
	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		log.Fatalf("Failed to open primary database: %s", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to primary database: %s", err)
	}

	log.Info("Successfully connected to the primary database.")

	now := time.Now().Unix()
	tournamentID := uuid.NewString()
	_, err = db.Exec("INSERT INTO tournaments (id, name, created_at) VALUES (?, ?, ?)",
		tournamentID, "Seeded Scrims", now)
	if err != nil {
		log.Fatalf("Failed to insert seed tournament: %s", err)
	}

	teamNames := []string{
		"Night Owls", "Bridge Campers", "Zone Runners", "Pan Patrol",
		"Frag Magnets", "School Droppers", "Ridge Rats", "Last Circle",
	}
	teamIDs := make([]string, 0, len(teamNames))
	for _, name := range teamNames {
		id := uuid.NewString()
		_, err := db.Exec("INSERT OR IGNORE INTO teams (id, tournament_id, name, created_at) VALUES (?, ?, ?, ?)",
			id, tournamentID, name, now)
		if err != nil {
			log.Fatalf("Failed to insert seed team %s: %s", name, err)
		}
		teamIDs = append(teamIDs, id)
	}
	log.Info("Ensured seed teams exist.", "tournament", tournamentID, "teams", len(teamIDs))

	const batchSize = 100 // Insert 100 records at a time
	const numRecords = 5000

	log.Info("Preparing to insert dummy match records...", "total", numRecords, "batch_size", batchSize)
	startTime := time.Now()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}

	valueStrings := make([]string, 0, batchSize)
	valueArgs := make([]interface{}, 0, batchSize*10) // 10 columns per record
	matchNumbers := make(map[string]int, len(teamIDs))

	for i := 0; i < numRecords; i++ {
		teamID := teamIDs[rand.Intn(len(teamIDs))]
		matchNumbers[teamID]++
		placement := rand.Intn(scoring.MaxPlacement) + 1
		kills := rand.Intn(13)
		points := scoring.RecordPoints(placement, kills)
		recordTime := time.Now().Add(-time.Duration(rand.Intn(30*24)) * time.Hour)

		valueStrings = append(valueStrings, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		valueArgs = append(valueArgs,
			uuid.NewString(),
			teamID,
			matchNumbers[teamID],
			placement,
			kills,
			points,
			nil, // screenshot_url
			string(tournament.StatusScored),
			nil, // review_reason
			recordTime.Unix(),
		)

		if (i+1)%batchSize == 0 || (i+1) == numRecords {
			stmt := fmt.Sprintf(`
				INSERT INTO match_records (id, team_id, match_number, placement, kills, points,
					screenshot_url, status, review_reason, created_at)
				VALUES %s;`, strings.Join(valueStrings, ","))

			_, err := tx.Exec(stmt, valueArgs...)
			if err != nil {
				tx.Rollback()
				log.Fatalf("Failed to execute batch insert: %s", err)
			}

			// Reset for the next batch
			valueStrings = make([]string, 0, batchSize)
			valueArgs = make([]interface{}, 0, batchSize*10)
			log.Info("Inserted batch", "completed", i+1, "total", numRecords)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	// The raw inserts bypass the store, so the derived team columns are stale
	// until each team is recomputed.
	store := tournament.New(db)
	for _, teamID := range teamIDs {
		if _, err := store.RecomputeTeamTotals(teamID); err != nil {
			log.Fatalf("Failed to recompute totals for team %s: %s", teamID, err)
		}
	}

	duration := time.Since(startTime)
	log.Info("Successfully inserted all dummy match records.", "duration", duration)
}
