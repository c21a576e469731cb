package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ChristianIvicevic/sorcery/internal/config"
	"github.com/ChristianIvicevic/sorcery/internal/game"
	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
)

func testEngine(t *testing.T) *game.Engine {
	t.Helper()
	lib := descriptor.NewLibrary()
	require.NoError(t, lib.Add(&descriptor.CardDefinition{
		Name:        "Forest",
		Types:       []string{"Land"},
		Subtypes:    []string{"Forest"},
		ManaAbility: "{G}",
	}))
	return game.NewEngine(zaptest.NewLogger(t), lib)
}

func testServer(t *testing.T, cfg config.ServerConfig) *httptest.Server {
	t.Helper()
	if cfg.MaxGames == 0 {
		cfg.MaxGames = 4
	}
	s := New(cfg, testEngine(t), nil, zaptest.NewLogger(t))
	ts := httptest.NewServer(s.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func createGame(t *testing.T, ts *httptest.Server, gameID string) CreateGameResponse {
	t.Helper()
	deck := make([]string, 20)
	for i := range deck {
		deck[i] = "Forest"
	}
	body, err := json.Marshal(CreateGameRequest{
		GameID: gameID,
		Seed:   7,
		Players: []game.PlayerSetup{
			{PlayerID: "alice", Name: "Alice", Deck: deck},
			{PlayerID: "bob", Name: "Bob", Deck: deck},
		},
	})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/games", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created CreateGameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	require.Len(t, created.Secrets, 2)
	return created
}

func dialGame(t *testing.T, ts *httptest.Server, gameID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/games/" + gameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func joinPlayer(t *testing.T, ts *httptest.Server, gameID, playerID, secret string) *websocket.Conn {
	t.Helper()
	conn := dialGame(t, ts, gameID)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "join", PlayerID: playerID, Secret: secret}))
	msg := readMessage(t, conn)
	require.Equal(t, "joined", msg.Type)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// awaitDecision reads until the connection receives its pending decision.
func awaitDecision(t *testing.T, conn *websocket.Conn) *game.DecisionRequest {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg.Type == "decision" && msg.Decision != nil {
			return msg.Decision
		}
	}
	t.Fatal("no decision arrived")
	return nil
}

func TestWebsocket_JoinAndDecisionFlow(t *testing.T) {
	ts := testServer(t, config.ServerConfig{})
	created := createGame(t, ts, "ws-flow")

	alice := joinPlayer(t, ts, created.GameID, "alice", created.Secrets["alice"])
	req := awaitDecision(t, alice)
	assert.Equal(t, game.DecisionMakeChoice, req.Kind)
	require.NoError(t, alice.WriteJSON(clientMessage{Type: "decision", Decision: &game.Decision{
		RequestID: req.ID, Choice: "keep",
	}}))

	bob := joinPlayer(t, ts, created.GameID, "bob", created.Secrets["bob"])
	bobReq := awaitDecision(t, bob)
	assert.Equal(t, game.DecisionMakeChoice, bobReq.Kind)
	require.NoError(t, bob.WriteJSON(clientMessage{Type: "decision", Decision: &game.Decision{
		RequestID: bobReq.ID, Choice: "keep",
	}}))

	// Bob's keep finishes the mulligans; the broadcast hands alice her
	// priority decision.
	next := awaitDecision(t, alice)
	assert.Equal(t, game.DecisionChooseAction, next.Kind)
	assert.NotEmpty(t, next.Actions)
}

func TestWebsocket_RejectsBadSecret(t *testing.T) {
	ts := testServer(t, config.ServerConfig{})
	created := createGame(t, ts, "ws-auth")

	conn := dialGame(t, ts, created.GameID)
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "join", PlayerID: "alice", Secret: "wrong"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, "auth_failed", msg.Code)
}

func TestWebsocket_DecisionTimeoutDisconnects(t *testing.T) {
	ts := testServer(t, config.ServerConfig{DecisionTimeout: 100 * time.Millisecond})
	created := createGame(t, ts, "ws-timeout")

	alice := joinPlayer(t, ts, created.GameID, "alice", created.Secrets["alice"])
	_ = awaitDecision(t, alice)

	// Alice sits on her own decision; the server hangs up.
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg serverMessage
	err := alice.ReadJSON(&msg)
	require.Error(t, err)
}

func TestHTTP_GetGameReturnsSnapshot(t *testing.T) {
	ts := testServer(t, config.ServerConfig{})
	created := createGame(t, ts, "ws-snap")

	resp, err := http.Get(ts.URL + "/games/" + created.GameID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap game.GameSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, created.GameID, snap.GameID)
	require.Len(t, snap.Players, 2)
}
