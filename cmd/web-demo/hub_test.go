package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc/codes"

	"github.com/imperiumfree/imperium-server-go/internal/config"
	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

// state is the part of TableState the client reads back. Pending decision
// payloads are left undecoded.
type state struct {
	Actor int           `json:"actor"`
	Legal []game.Action `json:"legal"`
	View  struct {
		GameID string          `json:"game_id"`
		Result *scoring.Result `json:"result"`
	} `json:"view"`
}

func startHub(t *testing.T) string {
	t.Helper()
	logger := zaptest.NewLogger(t)
	engine, err := newEngine(&config.Config{}, logger)
	require.NoError(t, err)
	hub := newHub(engine, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serveWS(ctx, hub, w, r)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func request(t *testing.T, conn *websocket.Conn, msg WSMessage, data any) WSMessage {
	t.Helper()
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var reply WSMessage
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func decodeState(t *testing.T, msg WSMessage) state {
	t.Helper()
	require.Equal(t, MsgGameState, msg.Type, string(msg.Data))
	var s state
	require.NoError(t, json.Unmarshal(msg.Data, &s))
	return s
}

func decodeError(t *testing.T, msg WSMessage) ErrorData {
	t.Helper()
	require.Equal(t, MsgError, msg.Type)
	var e ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &e))
	return e
}

func TestHubPlaysAgainstBots(t *testing.T) {
	url := startHub(t)
	conn := dial(t, url)

	reply := request(t, conn, WSMessage{Type: MsgCreateGame}, CreateGame{Seed: 7, Bot: "greedy"})
	gameID := reply.GameID
	require.NotEmpty(t, gameID)
	s := decodeState(t, reply)
	assert.Equal(t, gameID, s.View.GameID)
	assert.Equal(t, 0, s.Actor, "the creator opens the first round")
	require.NotEmpty(t, s.Legal)

	e := decodeError(t, request(t, conn, WSMessage{Type: MsgAction}, game.Action{Type: "DANCE"}))
	assert.Equal(t, game.CodeUnknownAction, e.Code)
	assert.Equal(t, codes.InvalidArgument.String(), e.Status)

	for i := 0; i < 2000 && s.Actor >= 0; i++ {
		require.Equal(t, 0, s.Actor, "bots never leave a turn to the human")
		s = decodeState(t, request(t, conn, WSMessage{Type: MsgAction}, s.Legal[0]))
	}
	assert.Equal(t, -1, s.Actor)
	require.NotNil(t, s.View.Result, "the game finished")
	assert.NotEmpty(t, s.View.Result.Winners)
}

func TestHubJoin(t *testing.T) {
	url := startHub(t)
	owner := dial(t, url)
	reply := request(t, owner, WSMessage{Type: MsgCreateGame}, nil)
	gameID := reply.GameID

	spectator := dial(t, url)
	s := decodeState(t, request(t, spectator, WSMessage{Type: MsgJoinGame, GameID: gameID, PlayerID: 1}, nil))
	assert.Equal(t, 0, s.Actor)
	assert.Empty(t, s.Legal, "legal actions go to the acting seat only")

	e := decodeError(t, request(t, spectator, WSMessage{Type: MsgAction}, game.Action{Type: game.ActionEndTurn}))
	assert.Equal(t, game.CodeIllegalTurn, e.Code)
	assert.Equal(t, codes.FailedPrecondition.String(), e.Status)

	lost := dial(t, url)
	e = decodeError(t, request(t, lost, WSMessage{Type: MsgJoinGame, GameID: "missing"}, nil))
	assert.Equal(t, game.CodeGameNotFound, e.Code)
	e = decodeError(t, request(t, lost, WSMessage{Type: MsgAction}, game.Action{Type: game.ActionEndTurn}))
	assert.Equal(t, game.CodeGameNotFound, e.Code)
	e = decodeError(t, request(t, lost, WSMessage{Type: "shuffle"}, nil))
	assert.Equal(t, game.CodeUnknownAction, e.Code)
}

func TestHubRejectsUnknownBot(t *testing.T) {
	conn := dial(t, startHub(t))
	e := decodeError(t, request(t, conn, WSMessage{Type: MsgCreateGame}, CreateGame{Bot: "oracle"}))
	assert.Equal(t, game.CodeInternal, e.Code)
	assert.Empty(t, e.Status, "only rejected actions carry a status")
	assert.Contains(t, e.Message, "unknown policy")
}

func TestErrorDataFromActionStatus(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &game.ActionError{
		Code:     game.CodeLocationFull,
		Action:   game.ActionPlaceAgent,
		PlayerID: 1,
		Err:      game.ErrLocationFull,
	})
	data := errorData(game.CodeInternal, err)
	assert.Equal(t, game.CodeLocationFull, data.Code)
	assert.Equal(t, codes.FailedPrecondition.String(), data.Status)
	assert.Equal(t, err.Error(), data.Message, "wrapped statuses keep the full text")

	data = errorData(game.CodeGameNotFound, game.ErrGameNotFound)
	assert.Equal(t, ErrorData{Code: game.CodeGameNotFound, Message: "game not found"}, data)
}
