package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/mauv0809/crispy-shuttle/internal/checkin"
	"github.com/mauv0809/crispy-shuttle/internal/club"
	"github.com/mauv0809/crispy-shuttle/internal/config"
	"github.com/mauv0809/crispy-shuttle/internal/database"
	"github.com/mauv0809/crispy-shuttle/internal/matchmaking"
	"github.com/mauv0809/crispy-shuttle/internal/metrics"
	"github.com/mauv0809/crispy-shuttle/internal/notifier"
	"github.com/mauv0809/crispy-shuttle/internal/pubsub"
	"github.com/mauv0809/crispy-shuttle/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T) (*Server, *notifier.Mock, *pubsub.MockPubSubClient, func()) {
	t.Helper()

	// For handlers that use the store, we need a real db connection for now.
	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	const tenantID = "test-tenant"
	clubStore := club.New(db, tenantID)
	ledger := checkin.NewLedger(db, clubStore, tenantID)
	sessions := session.New(db, tenantID)
	matchMaking := matchmaking.NewStore(db, clubStore, ledger, tenantID)
	cfg := config.Config{TenantID: tenantID}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	notifierMock := notifier.NewMock()
	pubsubMock := pubsub.NewMock("TEST")

	server := NewServer(clubStore, ledger, sessions, matchMaking, metricsSvc, metricsHandler, cfg, notifierMock, pubsubMock)

	teardown := func() {
		if dbTeardown != nil {
			dbTeardown()
		}
	}
	return server, notifierMock, pubsubMock, teardown
}

func seedPlayer(t *testing.T, server *Server, name string, level float64) club.PlayerInfo {
	t.Helper()
	p, err := server.Club.CreatePlayer(context.Background(), club.PlayerInfo{
		Name:        name,
		LevelDouble: &level,
		Active:      true,
	})
	require.NoError(t, err)
	return p
}

func seedCourt(t *testing.T, server *Server, idx int) club.Court {
	t.Helper()
	c, err := server.Club.CreateCourt(context.Background(), idx)
	require.NoError(t, err)
	return c
}

func doRequest(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, reqBody)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func TestHealthCheckHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestCreatePlayerHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	level := 450.0
	rr := doRequest(t, server, "POST", "/players/create", club.PlayerInfo{
		Name:        "Anna",
		LevelDouble: &level,
		Active:      true,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var created club.PlayerInfo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Anna", created.Name)

	rr = doRequest(t, server, "GET", "/players?active=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var players []club.PlayerInfo
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&players))
	require.Len(t, players, 1)
	assert.Equal(t, created.ID, players[0].ID)
}

func TestCreatePlayerHandler_MissingName(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, "POST", "/players/create", club.PlayerInfo{Active: true})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCheckInHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	player := seedPlayer(t, server, "Anna", 450)

	// Without an active session the check-in is rejected.
	rr := doRequest(t, server, "POST", "/checkins/add?playerID="+player.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, server, "POST", "/session/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, "POST", "/checkins/add?playerID="+player.ID, checkin.AdmitOptions{})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var ci checkin.CheckIn
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&ci))
	assert.Equal(t, player.ID, ci.PlayerID)

	// Checking in again is benign and returns the same row.
	rr = doRequest(t, server, "POST", "/checkins/add?playerID="+player.ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var again checkin.CheckIn
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&again))
	assert.Equal(t, ci.ID, again.ID)

	// Unknown players are rejected.
	rr = doRequest(t, server, "POST", "/checkins/add?playerID=nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, server, "GET", "/checkins", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var checkIns []checkin.CheckIn
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&checkIns))
	assert.Len(t, checkIns, 1)
}

func TestArrangeRoundHandler(t *testing.T) {
	server, notifierMock, pubsubMock, teardown := setupTestServer(t)
	defer teardown()

	seedCourt(t, server, 1)
	players := []club.PlayerInfo{
		seedPlayer(t, server, "Anna", 480),
		seedPlayer(t, server, "Bo", 460),
		seedPlayer(t, server, "Carla", 440),
		seedPlayer(t, server, "Dan", 420),
	}

	rr := doRequest(t, server, "POST", "/session/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	for _, p := range players {
		rr = doRequest(t, server, "POST", "/checkins/add?playerID="+p.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr = doRequest(t, server, "POST", "/matches/arrange?round=1", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result matchmaking.ArrangeResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	assert.Equal(t, 1, result.Round)
	require.Len(t, result.Matches, 1)
	assert.Len(t, result.Matches[0].Slots, 4)
	assert.Empty(t, result.Benched)

	// The round-arranged event and the line-up notification both fire.
	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventRoundArranged), pubsubMock.SendMessageCalls[0].Topic)
	require.Len(t, notifierMock.SendRoundLineupCalls, 1)
	assert.Equal(t, 1, notifierMock.SendRoundLineupCalls[0].Result.Round)
}

func TestArrangeRoundHandler_InvalidRound(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, "POST", "/matches/arrange?round=0", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, server, "POST", "/matches/arrange", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEndSessionHandler(t *testing.T) {
	server, notifierMock, pubsubMock, teardown := setupTestServer(t)
	defer teardown()

	rr := doRequest(t, server, "POST", "/session/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, server, "POST", "/session/end", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var snap session.Snapshot
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&snap))
	assert.NotEmpty(t, snap.ID)
	assert.NotEmpty(t, snap.Season)

	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventSessionEnded), pubsubMock.SendMessageCalls[0].Topic)
	assert.Len(t, notifierMock.SendSessionSummaryCalls, 1)

	// Ending again fails: there is no active session anymore.
	rr = doRequest(t, server, "POST", "/session/end", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// But the frozen snapshot stays readable.
	rr = doRequest(t, server, "GET", "/snapshots/session?sessionID="+snap.SessionID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestMatchResultHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	seedCourt(t, server, 1)
	players := []club.PlayerInfo{
		seedPlayer(t, server, "Anna", 480),
		seedPlayer(t, server, "Bo", 460),
		seedPlayer(t, server, "Carla", 440),
		seedPlayer(t, server, "Dan", 420),
	}

	rr := doRequest(t, server, "POST", "/session/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, p := range players {
		rr = doRequest(t, server, "POST", "/checkins/add?playerID="+p.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr = doRequest(t, server, "POST", "/matches/arrange?round=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var result matchmaking.ArrangeResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&result))
	matchID := result.Matches[0].ID

	score := matchmaking.Score{
		Sets: []matchmaking.SetScore{
			{Team1: 21, Team2: 15},
			{Team1: 23, Team2: 21},
		},
		Winner: "team1",
	}
	rr = doRequest(t, server, "POST", "/matches/result?matchID="+matchID, score)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, server, "GET", "/matches/result?matchID="+matchID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var stored matchmaking.Score
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&stored))
	assert.Equal(t, score, stored)

	// A 21-20 set is not a valid badminton score.
	bad := matchmaking.Score{
		Sets: []matchmaking.SetScore{
			{Team1: 21, Team2: 20},
			{Team1: 21, Team2: 15},
		},
		Winner: "team1",
	}
	rr = doRequest(t, server, "POST", "/matches/result?matchID="+matchID, bad)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLineupCommandHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	seedCourt(t, server, 1)
	players := []club.PlayerInfo{
		seedPlayer(t, server, "Anna", 480),
		seedPlayer(t, server, "Bo", 460),
		seedPlayer(t, server, "Carla", 440),
		seedPlayer(t, server, "Dan", 420),
	}

	rr := doRequest(t, server, "POST", "/session/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, p := range players {
		rr = doRequest(t, server, "POST", "/checkins/add?playerID="+p.ID, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr = doRequest(t, server, "POST", "/matches/arrange?round=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	form := url.Values{}
	req := httptest.NewRequest("POST", "/slack/command/lineup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	server.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "response must be a JSON Slack message")

	require.NotNil(t, notifierMock.LastLineupResult)
	assert.Equal(t, 1, notifierMock.LastLineupResult.Round)
	assert.Len(t, notifierMock.LastLineupResult.Matches, 1)
}

func TestPlaceAndBenchHandlers(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	seedCourt(t, server, 1)
	anna := seedPlayer(t, server, "Anna", 480)
	bo := seedPlayer(t, server, "Bo", 460)

	rr := doRequest(t, server, "POST", "/session/start", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	for _, id := range []string{anna.ID, bo.ID} {
		rr = doRequest(t, server, "POST", "/checkins/add?playerID="+id, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	target := fmt.Sprintf("/matches/place?round=1&playerID=%s&court=1&slot=0", anna.ID)
	rr = doRequest(t, server, "POST", target, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// Placing someone else on the same slot is a conflict.
	target = fmt.Sprintf("/matches/place?round=1&playerID=%s&court=1&slot=0", bo.ID)
	rr = doRequest(t, server, "POST", target, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)

	// An out-of-range slot is a bad request.
	target = fmt.Sprintf("/matches/place?round=1&playerID=%s&court=1&slot=4", bo.ID)
	rr = doRequest(t, server, "POST", target, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	target = fmt.Sprintf("/matches/bench?round=1&playerID=%s", anna.ID)
	rr = doRequest(t, server, "POST", target, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
