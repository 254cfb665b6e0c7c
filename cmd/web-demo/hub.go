package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/policy"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for demo
	},
}

// Message types.
const (
	MsgCreateGame = "create_game"
	MsgJoinGame   = "join_game"
	MsgAction     = "action"
	MsgGameState  = "game_state"
	MsgError      = "error"
)

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type     string          `json:"type"`
	GameID   string          `json:"game_id,omitempty"`
	PlayerID int             `json:"player_id"`
	Data     json.RawMessage `json:"data,omitempty"`
}

// CreateGame asks for a new table. The creator takes seat 0 and bots fill
// the others.
type CreateGame struct {
	Players []game.PlayerSetup `json:"players"`
	Seed    uint64             `json:"seed"`
	Bot     string             `json:"bot"`
}

// TableState is sent after every change to a table.
type TableState struct {
	View  game.GameView `json:"view"`
	Actor int           `json:"actor"`
	Legal []game.Action `json:"legal,omitempty"`
}

// ErrorData describes a rejected request. Status is the gRPC status code
// name of rejected game actions.
type ErrorData struct {
	Code    game.Code `json:"code"`
	Status  string    `json:"status,omitempty"`
	Message string    `json:"message"`
}

type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	playerID int
	gameID   string
}

// table serialises the human actions and bot turns of one game.
type table struct {
	mu     sync.Mutex
	driver *policy.Driver
}

type Hub struct {
	engine *game.Engine
	logger *zap.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	tables  map[string]*table
}

func newHub(engine *game.Engine, logger *zap.Logger) *Hub {
	return &Hub{
		engine:  engine,
		logger:  logger,
		clients: make(map[*Client]bool),
		tables:  make(map[string]*table),
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	h.logger.Debug("client registered")
}

// unregister drops a client and closes its send channel. Sends check
// membership under the same lock.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.logger.Debug("client unregistered", zap.String("game_id", client.gameID), zap.Int("player_id", client.playerID))
	}
}

func (h *Hub) handleMessage(ctx context.Context, client *Client, msg WSMessage) {
	h.logger.Debug("received message", zap.String("type", msg.Type), zap.String("game_id", msg.GameID))

	switch msg.Type {
	case MsgCreateGame:
		var req CreateGame
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &req); err != nil {
				h.sendError(client, game.CodeUnknownAction, fmt.Errorf("decode create_game: %w", err))
				return
			}
		}
		gameID, err := h.createTable(ctx, req)
		if err != nil {
			h.sendError(client, game.ReasonCode(err), err)
			return
		}
		h.setSeat(client, gameID, 0)
		h.sendState(client, gameID)

	case MsgJoinGame:
		if _, err := h.engine.View(msg.GameID); err != nil {
			h.sendError(client, game.ReasonCode(err), err)
			return
		}
		h.setSeat(client, msg.GameID, msg.PlayerID)
		h.sendState(client, msg.GameID)

	case MsgAction:
		gameID, pid := h.seat(client)
		if gameID == "" {
			h.sendError(client, game.CodeGameNotFound, errors.New("join a game first"))
			return
		}
		var a game.Action
		if err := json.Unmarshal(msg.Data, &a); err != nil {
			h.sendError(client, game.CodeUnknownAction, fmt.Errorf("decode action: %w", err))
			return
		}
		if err := h.play(ctx, gameID, pid, a); err != nil {
			h.sendError(client, game.ReasonCode(err), err)
			return
		}
		h.broadcastGameState(gameID)

	default:
		h.sendError(client, game.CodeUnknownAction, fmt.Errorf("unknown message type %q", msg.Type))
	}
}

func (h *Hub) createTable(ctx context.Context, req CreateGame) (string, error) {
	if len(req.Players) == 0 {
		req.Players = []game.PlayerSetup{{Name: "You"}, {Name: "Bot"}}
	}
	gameID, err := h.engine.NewGame(game.Options{Players: req.Players, Seed: req.Seed})
	if err != nil {
		return "", err
	}
	driver := policy.NewDriver(h.engine, h.logger)
	for pid := 1; pid < len(req.Players); pid++ {
		p, err := policy.ByName(req.Bot, req.Seed+uint64(pid))
		if err != nil {
			h.engine.Remove(gameID)
			return "", err
		}
		driver.Seat(pid, p)
	}

	t := &table{driver: driver}
	h.mu.Lock()
	h.tables[gameID] = t
	h.mu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	return gameID, t.advance(ctx, gameID)
}

// play applies a human action and lets the bots answer.
func (h *Hub) play(ctx context.Context, gameID string, pid int, a game.Action) error {
	h.mu.RLock()
	t := h.tables[gameID]
	h.mu.RUnlock()
	if t == nil {
		return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := h.engine.Apply(ctx, gameID, pid, a); err != nil {
		return err
	}
	if err := t.advance(ctx, gameID); err != nil {
		h.logger.Warn("bots failed", zap.String("game_id", gameID), zap.Error(err))
	}
	return nil
}

// advance lets the bots play until a human seat must act.
func (t *table) advance(ctx context.Context, gameID string) error {
	_, err := t.driver.Run(ctx, gameID)
	return err
}

func (h *Hub) setSeat(client *Client, gameID string, pid int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client.gameID = gameID
	client.playerID = pid
}

func (h *Hub) seat(client *Client) (string, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return client.gameID, client.playerID
}

func (h *Hub) state(gameID string, pid int) (TableState, error) {
	view, err := h.engine.View(gameID)
	if err != nil {
		return TableState{}, err
	}
	ts := TableState{View: view, Actor: -1}
	actor, ok, err := h.engine.Actor(gameID)
	if err != nil || !ok {
		return ts, err
	}
	ts.Actor = actor
	if actor == pid {
		ts.Legal, err = h.engine.LegalActions(gameID, pid)
	}
	return ts, err
}

func (h *Hub) sendState(client *Client, gameID string) {
	_, pid := h.seat(client)
	ts, err := h.state(gameID, pid)
	if err != nil {
		h.sendError(client, game.ReasonCode(err), err)
		return
	}
	h.send(client, MsgGameState, gameID, ts)
}

func (h *Hub) sendError(client *Client, code game.Code, err error) {
	gameID, _ := h.seat(client)
	h.send(client, MsgError, gameID, errorData(code, err))
}

// errorData prefers the status carried by a rejected action, whose
// ErrorInfo reason is the game's reason code.
func errorData(code game.Code, err error) ErrorData {
	data := ErrorData{Code: code, Message: err.Error()}
	st, ok := status.FromError(err)
	if !ok {
		return data
	}
	data.Status = st.Code().String()
	data.Message = st.Message()
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Reason != "" {
			data.Code = game.Code(info.Reason)
		}
	}
	return data
}

func (h *Hub) send(client *Client, msgType, gameID string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to encode message", zap.String("type", msgType), zap.Error(err))
		return
	}
	_, pid := h.seat(client)
	response, _ := json.Marshal(WSMessage{Type: msgType, GameID: gameID, PlayerID: pid, Data: raw})

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- response:
	default:
		h.logger.Warn("client send buffer full", zap.String("game_id", gameID))
	}
}

// broadcastGameState sends every client seated at a table its own state.
func (h *Hub) broadcastGameState(gameID string) {
	h.mu.RLock()
	var seated []*Client
	for client := range h.clients {
		if client.gameID == gameID {
			seated = append(seated, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range seated {
		h.sendState(client, gameID)
	}
}

func (c *Client) readPump(ctx context.Context, hub *Hub) {
	defer func() {
		hub.unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			hub.sendError(c, game.CodeUnknownAction, fmt.Errorf("decode message: %w", err))
			continue
		}

		hub.handleMessage(ctx, c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func serveWS(ctx context.Context, hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:     conn,
		send:     make(chan []byte, 256),
		playerID: -1,
	}

	hub.register(client)

	go client.writePump()
	go client.readPump(ctx, hub)
}
