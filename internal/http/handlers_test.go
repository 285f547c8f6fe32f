package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/chicken-dinner/internal/config"
	"github.com/mauv0809/chicken-dinner/internal/database"
	"github.com/mauv0809/chicken-dinner/internal/extractor"
	"github.com/mauv0809/chicken-dinner/internal/metrics"
	"github.com/mauv0809/chicken-dinner/internal/notifier"
	"github.com/mauv0809/chicken-dinner/internal/processor"
	"github.com/mauv0809/chicken-dinner/internal/pubsub"
	"github.com/mauv0809/chicken-dinner/internal/scoring"
	"github.com/mauv0809/chicken-dinner/internal/tournament"
	"github.com/mauv0809/chicken-dinner/internal/uploads"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

const (
	testSlackSigningSecret = "test-signing-secret"
	testAdminToken         = "test-admin-token"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T, extr extractor.Extractor, notifier notifier.Notifier, slackSigningSecret string) (*Server, func()) {
	t.Helper()

	// For handlers that use the store, we need a real db connection for now.
	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := tournament.New(db)
	batches := uploads.NewStore(db)
	cfg := config.Config{
		AdminToken: testAdminToken,
		Slack:      config.SlackConfig{SigningSecret: slackSigningSecret},
	}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	pubsub := pubsub.NewMock("TEST")
	proc := processor.New(store, batches, extr, notifier, metricsSvc, pubsub)
	server := NewServer(store, batches, metricsSvc, metricsHandler, cfg, notifier, proc, pubsub)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
		db.Close()
	}
	return server, teardown
}

// seedTeam creates a tournament with a single team and returns both ids.
func seedTeam(t *testing.T, server *Server) (string, string) {
	t.Helper()
	tourn, err := server.Store.CreateTournament("Spring Invitational")
	require.NoError(t, err)
	team, err := server.Store.CreateTeam(tourn.ID, "Night Owls")
	require.NoError(t, err)
	return tourn.ID, team.ID
}

// jsonRequest builds a request with a JSON body and optional auth headers.
func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asAdmin(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	return req
}

func asTeam(req *http.Request, teamID string) *http.Request {
	req.Header.Set("X-Team-ID", teamID)
	return req
}

// createSlackCommandRequest creates an http.Request suitable for testing Slack slash commands,
// including the necessary signature and timestamp headers for verification.
func createSlackCommandRequest(t *testing.T, targetURL string, form url.Values, signingSecret string) *http.Request {
	t.Helper()

	body := strings.NewReader(form.Encode())
	req, err := http.NewRequest("POST", targetURL, body)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// Generate a timestamp within a reasonable range (e.g., +/- 5 minutes)
	timestamp := time.Now().Unix()
	req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(timestamp, 10))

	// Read the request body to generate the signature.
	// The body needs to be re-set as a new `io.ReadCloser` for the actual handler after this.
	bodyBytes, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	// Reset the request body for the actual handler after reading for signature calculation.
	req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	baseString := fmt.Sprintf("v0:%d:%s", timestamp, string(bodyBytes))
	log.Debug("Signing slack request", "baseString", baseString)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	signature := hex.EncodeToString(h.Sum(nil))

	req.Header.Set("X-Slack-Signature", "v0="+signature)

	return req
}

func TestHealthCheckHandler(t *testing.T) {
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
	defer teardown()

	req, err := http.NewRequest("GET", "/health", nil)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	// Use the server's router to serve the request, which is more robust.
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestLeaderboardHandler(t *testing.T) {
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
	defer teardown()

	tourn, err := server.Store.CreateTournament("Spring Invitational")
	require.NoError(t, err)
	alpha, err := server.Store.CreateTeam(tourn.ID, "Alpha")
	require.NoError(t, err)
	bravo, err := server.Store.CreateTeam(tourn.ID, "Bravo")
	require.NoError(t, err)

	// Alpha: 20 points with 10 kills. Bravo: 20 points with 15 kills, so the
	// kill tiebreak puts Bravo first.
	p1, k1 := 1, 10
	require.NoError(t, server.Store.InsertMatchRecord(&tournament.MatchRecord{TeamID: alpha.ID, Placement: &p1, Kills: &k1}))
	p2, k2 := 3, 15
	require.NoError(t, server.Store.InsertMatchRecord(&tournament.MatchRecord{TeamID: bravo.ID, Placement: &p2, Kills: &k2}))

	req, err := http.NewRequest("GET", "/leaderboard?tournamentID="+tourn.ID, nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var standings []tournament.Team
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&standings))
	require.Len(t, standings, 2)
	assert.Equal(t, "Bravo", standings[0].Name)
	assert.Equal(t, "Alpha", standings[1].Name)

	t.Run("rejects missing tournament id", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/leaderboard", nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestTournamentsAndTeamsHandlers(t *testing.T) {
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
	defer teardown()

	t.Run("admin creates a tournament and a team", func(t *testing.T) {
		req := asAdmin(jsonRequest(t, "POST", "/tournaments", map[string]string{"name": "Summer Split"}))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var tourn tournament.Tournament
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&tourn))
		assert.Equal(t, "Summer Split", tourn.Name)

		req = asAdmin(jsonRequest(t, "POST", "/teams", map[string]string{"tournamentID": tourn.ID, "name": "Sky Campers"}))
		rr = httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var team tournament.Team
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&team))
		assert.Equal(t, tourn.ID, team.TournamentID)

		// Both lists are public.
		req, err := http.NewRequest("GET", "/tournaments", nil)
		require.NoError(t, err)
		rr = httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Summer Split")

		req, err = http.NewRequest("GET", "/teams?tournamentID="+tourn.ID, nil)
		require.NoError(t, err)
		rr = httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Sky Campers")
	})

	t.Run("anonymous caller cannot create", func(t *testing.T) {
		req := jsonRequest(t, "POST", "/tournaments", map[string]string{"name": "Rogue Cup"})
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("player cannot create", func(t *testing.T) {
		req := asTeam(jsonRequest(t, "POST", "/teams", map[string]string{"tournamentID": "x", "name": "y"}), "team-1")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("invalid admin token is rejected", func(t *testing.T) {
		req := jsonRequest(t, "POST", "/tournaments", map[string]string{"name": "Rogue Cup"})
		req.Header.Set("Authorization", "Bearer wrong-token")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("team creation under unknown tournament fails", func(t *testing.T) {
		req := asAdmin(jsonRequest(t, "POST", "/teams", map[string]string{"tournamentID": "missing", "name": "Ghosts"}))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("admin deletes a team", func(t *testing.T) {
		_, teamID := seedTeam(t, server)
		req, err := http.NewRequest("DELETE", "/teams?id="+teamID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asAdmin(req))
		require.Equal(t, http.StatusOK, rr.Code)

		_, err = server.Store.GetTeam(teamID)
		assert.ErrorIs(t, err, tournament.ErrNotFound)
	})
}

func TestAnalyzeHandler(t *testing.T) {
	t.Run("scores a clean screenshot", func(t *testing.T) {
		extr := extractor.NewMockExtractor()
		extr.ExtractMatchDataFunc = func(ctx context.Context, imageURL string) (*extractor.Result, error) {
			return &extractor.Result{Placement: 2, Kills: 7}, nil
		}
		server, teardown := setupTestServer(t, extr, notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asTeam(jsonRequest(t, "POST", "/analyze", map[string]string{
			"teamID":        teamID,
			"screenshotURL": "https://cdn.example.com/shot.png",
		}), teamID)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var rec tournament.MatchRecord
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
		assert.Equal(t, tournament.StatusScored, rec.Status)
		require.NotNil(t, rec.Points)
		assert.Equal(t, 13, *rec.Points)

		team, err := server.Store.GetTeam(teamID)
		require.NoError(t, err)
		assert.Equal(t, 13, team.Totals.TotalPoints)
		assert.Equal(t, 7, team.Totals.TotalKills)
		assert.Equal(t, 1, team.Totals.MatchesPlayed)
	})

	t.Run("flags a screenshot the model cannot read", func(t *testing.T) {
		extr := extractor.NewMockExtractor()
		extr.ExtractMatchDataFunc = func(ctx context.Context, imageURL string) (*extractor.Result, error) {
			return nil, fmt.Errorf("model response contained no tool call")
		}
		server, teardown := setupTestServer(t, extr, notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asTeam(jsonRequest(t, "POST", "/analyze", map[string]string{
			"teamID":        teamID,
			"screenshotURL": "https://cdn.example.com/blurry.png",
		}), teamID)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "A flagged record is still a successful ingest")
		var rec tournament.MatchRecord
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
		assert.Equal(t, tournament.StatusNeedsReview, rec.Status)
		require.NotNil(t, rec.ReviewReason)

		team, err := server.Store.GetTeam(teamID)
		require.NoError(t, err)
		assert.Equal(t, 0, team.Totals.TotalPoints)
		assert.Equal(t, 1, team.Totals.MatchesPlayed, "The flagged record still counts as a played match")
	})

	t.Run("rejects anonymous callers", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := jsonRequest(t, "POST", "/analyze", map[string]string{
			"teamID":        teamID,
			"screenshotURL": "https://cdn.example.com/shot.png",
		})
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects players submitting for another team", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asTeam(jsonRequest(t, "POST", "/analyze", map[string]string{
			"teamID":        teamID,
			"screenshotURL": "https://cdn.example.com/shot.png",
		}), "someone-else")
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asTeam(jsonRequest(t, "POST", "/analyze", map[string]string{"teamID": teamID}), teamID)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRecordsHandler(t *testing.T) {
	t.Run("manual entry scores immediately", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asAdmin(jsonRequest(t, "POST", "/records", map[string]any{
			"teamID":    teamID,
			"placement": 1,
			"kills":     4,
		}))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var rec tournament.MatchRecord
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
		assert.Equal(t, tournament.StatusScored, rec.Status)
		require.NotNil(t, rec.Points)
		assert.Equal(t, 14, *rec.Points, "A win with 4 kills is worth 10 + 4 points")

		team, err := server.Store.GetTeam(teamID)
		require.NoError(t, err)
		assert.Equal(t, 14, team.Totals.TotalPoints)
		assert.Equal(t, 1, team.Totals.FirstPlaceWins)
	})

	t.Run("lists a team's records", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)
		p, k := 5, 2
		require.NoError(t, server.Store.InsertMatchRecord(&tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}))

		req, err := http.NewRequest("GET", "/records?teamID="+teamID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asTeam(req, teamID))

		require.Equal(t, http.StatusOK, rr.Code)
		var records []tournament.MatchRecord
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
		require.Len(t, records, 1)
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asAdmin(jsonRequest(t, "POST", "/records", map[string]any{
			"teamID":    teamID,
			"placement": 19,
			"kills":     4,
		}))
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("admin deletes a record and totals follow", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)
		p, k := 1, 3
		rec := &tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}
		require.NoError(t, server.Store.InsertMatchRecord(rec))

		req, err := http.NewRequest("DELETE", "/records?id="+rec.ID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asAdmin(req))
		require.Equal(t, http.StatusOK, rr.Code)

		team, err := server.Store.GetTeam(teamID)
		require.NoError(t, err)
		assert.Equal(t, 0, team.Totals.TotalPoints)
		assert.Equal(t, 0, team.Totals.MatchesPlayed)
	})

	t.Run("player cannot delete records", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)
		p, k := 1, 3
		rec := &tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}
		require.NoError(t, server.Store.InsertMatchRecord(rec))

		req, err := http.NewRequest("DELETE", "/records?id="+rec.ID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asTeam(req, teamID))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestCorrectRecordHandler(t *testing.T) {
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
	defer teardown()
	_, teamID := seedTeam(t, server)

	rec := &tournament.MatchRecord{TeamID: teamID}
	require.NoError(t, server.Store.InsertMatchRecord(rec))
	_, err := server.Store.MarkNeedsReview(rec.ID, "model response contained no tool call")
	require.NoError(t, err)

	req := asAdmin(jsonRequest(t, "POST", "/records/correct", map[string]any{
		"recordID":  rec.ID,
		"placement": 4,
		"kills":     2,
	}))
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var corrected tournament.MatchRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&corrected))
	assert.Equal(t, tournament.StatusScored, corrected.Status)
	require.NotNil(t, corrected.Points)
	assert.Equal(t, 6, *corrected.Points)
	assert.Nil(t, corrected.ReviewReason)

	review, err := server.Store.ListRecordsForReview()
	require.NoError(t, err)
	assert.Empty(t, review, "The corrected record should leave the review queue")
}

func TestReviewQueueHandler(t *testing.T) {
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
	defer teardown()
	_, teamID := seedTeam(t, server)

	rec := &tournament.MatchRecord{TeamID: teamID}
	require.NoError(t, server.Store.InsertMatchRecord(rec))
	_, err := server.Store.MarkNeedsReview(rec.ID, "image unreadable")
	require.NoError(t, err)

	req, err := http.NewRequest("GET", "/review", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var records []tournament.MatchRecord
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, rec.ID, records[0].ID)
}

func TestUploadsHandler(t *testing.T) {
	t.Run("runs a batch and reports per item outcomes", func(t *testing.T) {
		extr := extractor.NewMockExtractor()
		extr.ExtractMatchDataFunc = func(ctx context.Context, imageURL string) (*extractor.Result, error) {
			if imageURL == "https://img/2.png" {
				return nil, fmt.Errorf("model response contained no tool call")
			}
			return &extractor.Result{Placement: 1, Kills: 5}, nil
		}
		server, teardown := setupTestServer(t, extr, notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asTeam(jsonRequest(t, "POST", "/uploads", map[string]any{
			"teamID":         teamID,
			"screenshotURLs": []string{"https://img/1.png", "https://img/2.png"},
		}), teamID)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var batch uploads.Batch
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&batch))
		assert.Equal(t, uploads.StatusCompleted, batch.Status)
		assert.Equal(t, 2, batch.Total)
		assert.Equal(t, 1, batch.Succeeded)
		assert.Equal(t, 1, batch.Failed)
		require.Len(t, batch.Items, 2)
		assert.Empty(t, batch.Items[0].Failure)
		assert.NotEmpty(t, batch.Items[1].Failure)
		assert.NotEmpty(t, batch.Items[1].RecordID, "Flagged records stay on the board for review")

		t.Run("stored batch report is retrievable", func(t *testing.T) {
			req, err := http.NewRequest("GET", "/uploads?id="+batch.ID, nil)
			require.NoError(t, err)
			rr := httptest.NewRecorder()
			server.Router.ServeHTTP(rr, asTeam(req, teamID))

			require.Equal(t, http.StatusOK, rr.Code)
			var stored uploads.Batch
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&stored))
			assert.Equal(t, batch.ID, stored.ID)
			assert.Equal(t, 1, stored.Succeeded)
		})
	})

	t.Run("rejects a batch without screenshots", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req := asTeam(jsonRequest(t, "POST", "/uploads", map[string]any{"teamID": teamID}), teamID)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("requires an id or team id on reads", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()

		req, err := http.NewRequest("GET", "/uploads", nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestResetAndRecomputeHandlers(t *testing.T) {
	t.Run("admin resets a team", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)
		p, k := 1, 4
		require.NoError(t, server.Store.InsertMatchRecord(&tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}))

		req, err := http.NewRequest("POST", "/teams/reset?teamID="+teamID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asAdmin(req))
		require.Equal(t, http.StatusOK, rr.Code)

		team, err := server.Store.GetTeam(teamID)
		require.NoError(t, err)
		assert.Equal(t, scoring.TeamTotals{}, team.Totals)

		records, err := server.Store.ListTeamRecords(teamID)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("admin recomputes totals", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)
		p, k := 2, 3
		require.NoError(t, server.Store.InsertMatchRecord(&tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}))

		req, err := http.NewRequest("POST", "/recompute?teamID="+teamID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asAdmin(req))

		require.Equal(t, http.StatusOK, rr.Code)
		var totals scoring.TeamTotals
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&totals))
		assert.Equal(t, 9, totals.TotalPoints)
		assert.Equal(t, 3, totals.TotalKills)
	})

	t.Run("players cannot reset or recompute", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		req, err := http.NewRequest("POST", "/teams/reset?teamID="+teamID, nil)
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, asTeam(req, teamID))
		assert.Equal(t, http.StatusForbidden, rr.Code)

		req, err = http.NewRequest("POST", "/recompute?teamID="+teamID, nil)
		require.NoError(t, err)
		rr = httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "Anonymous callers get 401 rather than 403")
	})
}

func TestNotifyHandlers(t *testing.T) {
	t.Run("notify result delivers a slack message", func(t *testing.T) {
		notif := notifier.NewMock()
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notif, "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		p, k := 1, 4
		rec := &tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}
		require.NoError(t, server.Store.InsertMatchRecord(rec))
		stored, err := server.Store.GetMatchRecord(rec.ID)
		require.NoError(t, err)

		// The push payload carries the msgpack-encoded record.
		mockPS := server.pubsub.(*pubsub.MockPubSubClient)
		mockPS.ProcessMessageFunc = func(data []byte, returnValue any) error {
			return msgpack.Unmarshal(data, returnValue)
		}
		raw, err := msgpack.Marshal(stored)
		require.NoError(t, err)
		body, err := json.Marshal(map[string]any{
			"subscription": "projects/test/subscriptions/notify-result",
			"message":      map[string]string{"data": base64.StdEncoding.EncodeToString(raw)},
		})
		require.NoError(t, err)

		req, err := http.NewRequest("POST", "/pubsub/notify-result", bytes.NewReader(body))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
		require.Len(t, notif.SendResultNotificationCalls, 1, "A result notification should be sent")
		assert.Equal(t, "Night Owls", notif.SendResultNotificationCalls[0].Team.Name)
		assert.Equal(t, rec.ID, notif.SendResultNotificationCalls[0].Record.ID)
	})

	t.Run("notify review delivers a review alert", func(t *testing.T) {
		notif := notifier.NewMock()
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notif, "")
		defer teardown()
		_, teamID := seedTeam(t, server)

		rec := &tournament.MatchRecord{TeamID: teamID}
		require.NoError(t, server.Store.InsertMatchRecord(rec))
		flagged, err := server.Store.MarkNeedsReview(rec.ID, "image unreadable")
		require.NoError(t, err)

		mockPS := server.pubsub.(*pubsub.MockPubSubClient)
		mockPS.ProcessMessageFunc = func(data []byte, returnValue any) error {
			return msgpack.Unmarshal(data, returnValue)
		}
		raw, err := msgpack.Marshal(flagged)
		require.NoError(t, err)
		body, err := json.Marshal(map[string]any{
			"subscription": "projects/test/subscriptions/notify-review",
			"message":      map[string]string{"data": base64.StdEncoding.EncodeToString(raw)},
		})
		require.NoError(t, err)

		req, err := http.NewRequest("POST", "/pubsub/notify-review", bytes.NewReader(body))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, notif.SendReviewAlertCalls, 1, "A review alert should be sent")
		assert.Equal(t, rec.ID, notif.SendReviewAlertCalls[0].Record.ID)
	})

	t.Run("rejects an invalid wrapper", func(t *testing.T) {
		server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
		defer teardown()

		req, err := http.NewRequest("POST", "/pubsub/notify-result", strings.NewReader("not json"))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestLeaderboardCommandHandler(t *testing.T) {
	mockNotifier := notifier.NewMock()
	mockNotifier.FormatLeaderboardFunc = func(standings []tournament.Team) (any, error) {
		return slack.Message{}, nil
	}
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), mockNotifier, testSlackSigningSecret)
	defer teardown()
	seedTeam(t, server)

	t.Run("serves the latest tournament by default", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{}, testSlackSigningSecret)

		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects request with invalid signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{}, testSlackSigningSecret)

		// Tamper with the signature to make it invalid
		req.Header.Set("X-Slack-Signature", "v0=invalid-signature")

		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects request with missing signature", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{}, testSlackSigningSecret)

		// Remove the signature header
		req.Header.Del("X-Slack-Signature")

		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects request with outdated timestamp", func(t *testing.T) {
		req := createSlackCommandRequest(t, "/slack/command/leaderboard", url.Values{}, testSlackSigningSecret)

		// Set an outdated timestamp (e.g., 6 minutes ago)
		req.Header.Set("X-Slack-Request-Timestamp", strconv.FormatInt(time.Now().Add(-6*time.Minute).Unix(), 10))

		rr := httptest.NewRecorder()
		server.Router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestClearStoreHandler(t *testing.T) {
	server, teardown := setupTestServer(t, extractor.NewMockExtractor(), notifier.NewMock(), "")
	defer teardown()
	_, teamID := seedTeam(t, server)
	p, k := 1, 2
	require.NoError(t, server.Store.InsertMatchRecord(&tournament.MatchRecord{TeamID: teamID, Placement: &p, Kills: &k}))

	req, err := http.NewRequest("POST", "/clear", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, asAdmin(req))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Store cleared!", rr.Body.String())

	tournaments, err := server.Store.ListTournaments()
	require.NoError(t, err)
	assert.Empty(t, tournaments)
}
