package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"io"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
	"github.com/mauv0809/chicken-dinner/internal/uploads"
	"github.com/slack-go/slack"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

// respondJSON writes v as a JSON response body.
func respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

// requireAdmin writes an auth error and returns false unless the caller holds
// the admin role.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	identity := identityFromContext(r)
	if identity.Role == tournament.RoleAdmin {
		return true
	}
	if identity.Role == "" {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
	} else {
		http.Error(w, "Admin role required", http.StatusForbidden)
	}
	return false
}

// statusForError maps processor and store errors onto HTTP status codes.
func statusForError(identity tournament.Identity, err error) int {
	switch {
	case errors.Is(err, tournament.ErrForbidden):
		if identity.Role == "" {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.Is(err, tournament.ErrNotFound), errors.Is(err, uploads.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) ClearStoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireAdmin(w, r) {
			return
		}
		log.Info("Received request to clear entire store")
		s.Store.Clear()
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "Store cleared!")
		log.Info("Store cleared successfully")
	}
}

// LeaderboardHandler returns a handler that serves a tournament's ranked
// standings.
func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tournamentID := r.URL.Query().Get("tournamentID")
		if tournamentID == "" {
			http.Error(w, "tournamentID is required", http.StatusBadRequest)
			return
		}

		standings, err := s.Store.Leaderboard(tournamentID)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}
		respondJSON(w, standings)
	}
}

func (s *Server) TournamentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			tournaments, err := s.Store.ListTournaments()
			if err != nil {
				http.Error(w, "Failed to get tournaments", http.StatusInternalServerError)
				log.Error("Failed to get tournaments from store", "error", err)
				return
			}
			respondJSON(w, tournaments)

		case http.MethodPost:
			if !requireAdmin(w, r) {
				return
			}
			var req struct {
				Name string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if req.Name == "" {
				http.Error(w, "name is required", http.StatusBadRequest)
				return
			}
			created, err := s.Store.CreateTournament(req.Name)
			if err != nil {
				http.Error(w, "Failed to create tournament", http.StatusInternalServerError)
				log.Error("Failed to create tournament", "error", err)
				return
			}
			respondJSON(w, created)

		case http.MethodDelete:
			if !requireAdmin(w, r) {
				return
			}
			id := r.URL.Query().Get("id")
			if id == "" {
				http.Error(w, "id is required", http.StatusBadRequest)
				return
			}
			if err := s.Store.DeleteTournament(id); err != nil {
				http.Error(w, "Failed to delete tournament", statusForError(identityFromContext(r), err))
				log.Error("Failed to delete tournament", "error", err, "tournamentID", id)
				return
			}
			fmt.Fprintf(w, "Deleted tournament %s", id)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) TeamsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			tournamentID := r.URL.Query().Get("tournamentID")
			if tournamentID == "" {
				http.Error(w, "tournamentID is required", http.StatusBadRequest)
				return
			}
			teams, err := s.Store.ListTeams(tournamentID)
			if err != nil {
				http.Error(w, "Failed to get teams", http.StatusInternalServerError)
				log.Error("Failed to get teams from store", "error", err)
				return
			}
			respondJSON(w, teams)

		case http.MethodPost:
			if !requireAdmin(w, r) {
				return
			}
			var req struct {
				TournamentID string `json:"tournamentID"`
				Name         string `json:"name"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if req.TournamentID == "" || req.Name == "" {
				http.Error(w, "tournamentID and name are required", http.StatusBadRequest)
				return
			}
			created, err := s.Store.CreateTeam(req.TournamentID, req.Name)
			if err != nil {
				http.Error(w, "Failed to create team", statusForError(identityFromContext(r), err))
				log.Error("Failed to create team", "error", err, "tournamentID", req.TournamentID)
				return
			}
			respondJSON(w, created)

		case http.MethodDelete:
			if !requireAdmin(w, r) {
				return
			}
			id := r.URL.Query().Get("id")
			if id == "" {
				http.Error(w, "id is required", http.StatusBadRequest)
				return
			}
			if err := s.Store.DeleteTeam(id); err != nil {
				http.Error(w, "Failed to delete team", statusForError(identityFromContext(r), err))
				log.Error("Failed to delete team", "error", err, "teamID", id)
				return
			}
			fmt.Fprintf(w, "Deleted team %s", id)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) RecordsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			teamID := r.URL.Query().Get("teamID")
			if teamID == "" {
				http.Error(w, "teamID is required", http.StatusBadRequest)
				return
			}
			records, err := s.Store.ListTeamRecords(teamID)
			if err != nil {
				http.Error(w, "Failed to get records", http.StatusInternalServerError)
				log.Error("Failed to get records from store", "error", err)
				return
			}
			respondJSON(w, records)

		case http.MethodPost:
			identity := identityFromContext(r)
			var req struct {
				TeamID      string `json:"teamID"`
				MatchNumber *int   `json:"matchNumber"`
				Placement   *int   `json:"placement"`
				Kills       *int   `json:"kills"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if req.TeamID == "" || req.Placement == nil || req.Kills == nil {
				http.Error(w, "teamID, placement and kills are required", http.StatusBadRequest)
				return
			}
			if err := scoring.ValidatePlacement(*req.Placement); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := scoring.ValidateKills(*req.Kills); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			rec, err := s.Processor.RecordManualResult(identity, req.TeamID, req.MatchNumber, *req.Placement, *req.Kills, isDryRunFromContext(r))
			if err != nil {
				http.Error(w, "Failed to record result", statusForError(identity, err))
				log.Error("Failed to record manual result", "error", err, "teamID", req.TeamID)
				return
			}
			respondJSON(w, rec)

		case http.MethodDelete:
			identity := identityFromContext(r)
			id := r.URL.Query().Get("id")
			if id == "" {
				http.Error(w, "id is required", http.StatusBadRequest)
				return
			}
			if err := s.Processor.RemoveRecord(identity, id); err != nil {
				http.Error(w, "Failed to delete record", statusForError(identity, err))
				log.Error("Failed to delete record", "error", err, "recordID", id)
				return
			}
			fmt.Fprintf(w, "Deleted record %s", id)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) CorrectRecordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		identity := identityFromContext(r)
		var req struct {
			RecordID  string `json:"recordID"`
			Placement *int   `json:"placement"`
			Kills     *int   `json:"kills"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.RecordID == "" || req.Placement == nil || req.Kills == nil {
			http.Error(w, "recordID, placement and kills are required", http.StatusBadRequest)
			return
		}
		if err := scoring.ValidatePlacement(*req.Placement); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := scoring.ValidateKills(*req.Kills); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		rec, err := s.Processor.CorrectRecord(identity, req.RecordID, *req.Placement, *req.Kills, isDryRunFromContext(r))
		if err != nil {
			http.Error(w, "Failed to correct record", statusForError(identity, err))
			log.Error("Failed to correct record", "error", err, "recordID", req.RecordID)
			return
		}
		respondJSON(w, rec)
	}
}

// ReviewQueueHandler returns a handler that lists records flagged for manual
// review.
func (s *Server) ReviewQueueHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.Store.ListRecordsForReview()
		if err != nil {
			http.Error(w, "Failed to get review queue", http.StatusInternalServerError)
			log.Error("Failed to get review queue from store", "error", err)
			return
		}
		respondJSON(w, records)
	}
}

// AnalyzeHandler returns a handler that ingests a single screenshot: it stores
// a pending record, runs extraction and responds with the scored or flagged
// record.
func (s *Server) AnalyzeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		identity := identityFromContext(r)
		var req struct {
			TeamID        string `json:"teamID"`
			ScreenshotURL string `json:"screenshotURL"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.TeamID == "" || req.ScreenshotURL == "" {
			http.Error(w, "teamID and screenshotURL are required", http.StatusBadRequest)
			return
		}

		rec, err := s.Processor.IngestScreenshot(r.Context(), identity, req.TeamID, req.ScreenshotURL, isDryRunFromContext(r))
		if err != nil {
			http.Error(w, "Failed to analyze screenshot", statusForError(identity, err))
			log.Error("Failed to analyze screenshot", "error", err, "teamID", req.TeamID)
			return
		}
		respondJSON(w, rec)
	}
}

func (s *Server) UploadsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if id := r.URL.Query().Get("id"); id != "" {
				batch, err := s.Batches.GetBatch(id)
				if err != nil {
					http.Error(w, "Failed to get batch", statusForError(identityFromContext(r), err))
					log.Error("Failed to get batch", "error", err, "batchID", id)
					return
				}
				respondJSON(w, batch)
				return
			}
			teamID := r.URL.Query().Get("teamID")
			if teamID == "" {
				http.Error(w, "id or teamID is required", http.StatusBadRequest)
				return
			}
			batches, err := s.Batches.ListTeamBatches(teamID)
			if err != nil {
				http.Error(w, "Failed to list batches", http.StatusInternalServerError)
				log.Error("Failed to list batches", "error", err, "teamID", teamID)
				return
			}
			respondJSON(w, batches)

		case http.MethodPost:
			identity := identityFromContext(r)
			var req struct {
				TeamID         string   `json:"teamID"`
				ScreenshotURLs []string `json:"screenshotURLs"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
			if req.TeamID == "" || len(req.ScreenshotURLs) == 0 {
				http.Error(w, "teamID and screenshotURLs are required", http.StatusBadRequest)
				return
			}

			batch, err := s.Processor.IngestBatch(r.Context(), identity, req.TeamID, req.ScreenshotURLs, isDryRunFromContext(r))
			if err != nil {
				http.Error(w, "Failed to ingest batch", statusForError(identity, err))
				log.Error("Failed to ingest batch", "error", err, "teamID", req.TeamID)
				return
			}
			respondJSON(w, batch)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) ResetTeamHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r)
		teamID := r.URL.Query().Get("teamID")
		if teamID == "" {
			http.Error(w, "teamID is required", http.StatusBadRequest)
			return
		}
		if err := s.Processor.ResetTeam(identity, teamID); err != nil {
			http.Error(w, "Failed to reset team", statusForError(identity, err))
			log.Error("Failed to reset team", "error", err, "teamID", teamID)
			return
		}
		fmt.Fprintf(w, "Reset team %s", teamID)
	}
}

func (s *Server) RecomputeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := identityFromContext(r)
		teamID := r.URL.Query().Get("teamID")
		if teamID == "" {
			http.Error(w, "teamID is required", http.StatusBadRequest)
			return
		}
		totals, err := s.Processor.RecomputeTeam(identity, teamID)
		if err != nil {
			http.Error(w, "Failed to recompute team", statusForError(identity, err))
			log.Error("Failed to recompute team", "error", err, "teamID", teamID)
			return
		}
		respondJSON(w, totals)
	}
}

func (s *Server) NotifyResultHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received notify result message", "body", string(bodyBytes))
		// Define a small struct to decode the incoming JSON's `data` field
		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"` // base64-encoded message payload
			} `json:"message"`
		}

		// Parse the outer JSON to get `data`
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)
		record := tournament.MatchRecord{}
		s.pubsub.ProcessMessage(rawData, &record)
		s.Processor.NotifyResult(&record, isDryRun)
		w.Write([]byte("OK"))
	}
}

func (s *Server) NotifyReviewHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Failed to read request body", "error", err)
			http.Error(w, "Failed to read request body", http.StatusInternalServerError)
			return
		}
		log.Debug("Received notify review message", "body", string(bodyBytes))
		// Define a small struct to decode the incoming JSON's `data` field
		var pubsubMsg struct {
			Subscription string `json:"subscription"`
			Message      struct {
				Data string `json:"data"` // base64-encoded message payload
			} `json:"message"`
		}

		// Parse the outer JSON to get `data`
		if err := json.Unmarshal(bodyBytes, &pubsubMsg); err != nil {
			log.Error("Failed to unmarshal wrapper JSON", "error", err)
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		// Decode base64 to raw MessagePack bytes
		rawData, err := base64.StdEncoding.DecodeString(pubsubMsg.Message.Data)
		if err != nil {
			log.Error("Failed to decode base64 data", "error", err)
			http.Error(w, "Invalid base64 data", http.StatusBadRequest)
			return
		}
		isDryRun := isDryRunFromContext(r)
		record := tournament.MatchRecord{}
		s.pubsub.ProcessMessage(rawData, &record)
		s.Processor.NotifyReview(&record, isDryRun)
		w.Write([]byte("OK"))
	}
}

// respondWithSlackMsg is a helper to format and write a Slack message as an HTTP response.
func respondWithSlackMsg(w http.ResponseWriter, msg slack.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(msg); err != nil {
		log.Error("Failed to encode slack message to JSON", "error", err)
	}
}

// LeaderboardCommandHandler returns a handler for the /leaderboard Slack
// command. The command text may name a tournament id; without one the latest
// tournament is used.
func (s *Server) LeaderboardCommandHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Error parsing form", http.StatusBadRequest)
			return
		}

		tournamentID := r.FormValue("text")
		if tournamentID == "" {
			tournaments, err := s.Store.ListTournaments()
			if err != nil || len(tournaments) == 0 {
				http.Error(w, "No tournament found", http.StatusNotFound)
				log.Error("Failed to resolve tournament for slack command", "error", err)
				return
			}
			tournamentID = tournaments[len(tournaments)-1].ID
		}

		standings, err := s.Store.Leaderboard(tournamentID)
		if err != nil {
			http.Error(w, "Failed to get leaderboard", http.StatusInternalServerError)
			log.Error("Failed to get leaderboard from store", "error", err)
			return
		}

		msg, err := s.Notifier.FormatLeaderboardResponse(standings)
		if err != nil {
			http.Error(w, "Failed to format leaderboard", http.StatusInternalServerError)
			log.Error("Failed to format leaderboard", "error", err)
			return
		}

		slackMsg, ok := msg.(slack.Message)
		if !ok {
			http.Error(w, "Invalid message format for Slack", http.StatusInternalServerError)
			log.Error("Failed to cast message to slack.Message")
			return
		}

		respondWithSlackMsg(w, slackMsg)
	}
}
