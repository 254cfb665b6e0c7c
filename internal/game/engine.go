package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// SnapshotStore persists snapshots. Implementations live in
// internal/storage.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Load(ctx context.Context, gameID string) (*Snapshot, error)
	Delete(ctx context.Context, gameID string) error
	List(ctx context.Context) ([]string, error)
}

// Notification is sent to the handler for every event of an accepted
// action. Events of rejected actions are dropped with the rolled back state.
type Notification struct {
	GameID    string
	PlayerID  int
	Timestamp time.Time
	Event     rules.Event
}

// NotificationHandler receives notifications off the caller's goroutine,
// one at a time and in the order the events happened.
type NotificationHandler func(Notification)

type session struct {
	mu       sync.Mutex
	game     *Game
	pending  []rules.Event
	handle   int
	watchers *rules.WatcherRegistry
}

// Engine runs many games. Different games may be driven from different
// goroutines; actions on one game are serialised.
type Engine struct {
	logger   *zap.Logger
	deps     Deps
	store    SnapshotStore
	recorder *ReplayRecorder

	mu       sync.RWMutex
	games    map[string]*session
	notifier NotificationHandler

	outboxMu sync.Mutex
	outbox   []Notification
	draining bool
}

// NewEngine creates an engine. deps are shared by every game it creates or
// loads.
func NewEngine(logger *zap.Logger, deps Deps) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	if deps.Leaders == nil {
		deps.Leaders = NewLeaderRegistry()
	}
	return &Engine{
		logger: logger,
		deps:   deps,
		games:  make(map[string]*session),
	}
}

// SetStore sets the snapshot store used by Save and Load.
func (e *Engine) SetStore(store SnapshotStore) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
}

// SetReplayRecorder records every game created after the call.
func (e *Engine) SetReplayRecorder(rr *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = rr
}

// SetNotificationHandler sets the handler for game notifications.
func (e *Engine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = handler
}

func (e *Engine) emit(gameID string, events []rules.Event) {
	e.mu.RLock()
	handler := e.notifier
	e.mu.RUnlock()
	if handler == nil || len(events) == 0 {
		return
	}
	now := time.Now()

	e.outboxMu.Lock()
	defer e.outboxMu.Unlock()
	for _, ev := range events {
		e.outbox = append(e.outbox, Notification{GameID: gameID, PlayerID: ev.PlayerID, Timestamp: now, Event: ev})
	}
	if !e.draining {
		e.draining = true
		go e.drain(handler)
	}
}

// drain delivers queued notifications until the outbox is empty. At most
// one drain runs at a time.
func (e *Engine) drain(handler NotificationHandler) {
	for {
		e.outboxMu.Lock()
		batch := e.outbox
		e.outbox = nil
		if len(batch) == 0 {
			e.draining = false
			e.outboxMu.Unlock()
			return
		}
		e.outboxMu.Unlock()

		for _, n := range batch {
			handler(n)
		}
	}
}

// NewGame creates a game and returns its id. opts.Deps is ignored in favour
// of the engine's.
func (e *Engine) NewGame(opts Options) (string, error) {
	opts.Deps = e.deps
	g, err := New(opts)
	if err != nil {
		return "", err
	}
	if err := e.add(g); err != nil {
		return "", err
	}

	e.mu.RLock()
	rr := e.recorder
	e.mu.RUnlock()
	if rr != nil {
		if err := rr.StartRecording(g); err != nil {
			e.logger.Warn("failed to start replay recording", zap.String("game_id", g.ID()), zap.Error(err))
		}
	}

	e.logger.Info("game created",
		zap.String("game_id", g.ID()),
		zap.Int("players", g.Players()),
		zap.Uint64("seed", opts.Seed),
	)
	// Setup ran before the engine subscribed; announce the game instead.
	e.emit(g.ID(), []rules.Event{rules.NewEvent(rules.EventGameStarted, g.Round(), -1)})
	return g.ID(), nil
}

func (e *Engine) add(g *Game) error {
	s := &session{game: g}
	s.handle = g.Events().Subscribe(func(ev rules.Event) {
		s.pending = append(s.pending, ev)
	})

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.games[g.ID()]; ok {
		g.Events().Unsubscribe(s.handle)
		return fmt.Errorf("game %s already exists", g.ID())
	}
	e.games[g.ID()] = s
	return nil
}

// Watch feeds the events of every accepted action of a game to wr, on the
// goroutine that applied the action. A nil registry stops watching.
func (e *Engine) Watch(gameID string, wr *rules.WatcherRegistry) error {
	s, err := e.session(gameID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = wr
	return nil
}

func (e *Engine) session(gameID string) (*session, error) {
	e.mu.RLock()
	s, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return s, nil
}

// Apply applies an action to a game. Finished games are saved to the store
// when one is configured.
func (e *Engine) Apply(ctx context.Context, gameID string, pid int, a Action) error {
	s, err := e.session(gameID)
	if err != nil {
		return newActionError(pid, a.Type, err)
	}

	s.mu.Lock()
	s.pending = s.pending[:0]
	err = s.game.Apply(pid, a)
	events := append([]rules.Event(nil), s.pending...)
	s.pending = s.pending[:0]
	over := s.game.Over()
	if err == nil {
		e.record(s.game, pid, a)
		if s.watchers != nil {
			for _, ev := range events {
				s.watchers.NotifyWatchers(ev)
			}
		}
	}
	s.mu.Unlock()

	if err != nil {
		e.logger.Debug("action rejected",
			zap.String("game_id", gameID),
			zap.Int("player_id", pid),
			zap.Stringer("action", a),
			zap.Error(err),
		)
		return err
	}
	e.emit(gameID, events)
	if over {
		e.finished(ctx, gameID)
	}
	return nil
}

func (e *Engine) record(g *Game, pid int, a Action) {
	e.mu.RLock()
	rr := e.recorder
	e.mu.RUnlock()
	if rr == nil {
		return
	}
	if err := rr.Record(g, pid, a); err != nil {
		e.logger.Warn("failed to record replay frame", zap.String("game_id", g.ID()), zap.Error(err))
	}
}

func (e *Engine) finished(ctx context.Context, gameID string) {
	e.mu.RLock()
	store, rr := e.store, e.recorder
	e.mu.RUnlock()
	if store != nil {
		if err := e.Save(ctx, gameID); err != nil {
			e.logger.Warn("failed to save finished game", zap.String("game_id", gameID), zap.Error(err))
		}
	}
	if rr != nil && rr.IsRecording(gameID) {
		if err := rr.SaveReplay(gameID); err != nil {
			e.logger.Warn("failed to save replay", zap.String("game_id", gameID), zap.Error(err))
		}
	}
}

// View returns a read-only view of a game.
func (e *Engine) View(gameID string) (GameView, error) {
	s, err := e.session(gameID)
	if err != nil {
		return GameView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.View(), nil
}

// LegalActions lists the actions pid may take in a game.
func (e *Engine) LegalActions(gameID string, pid int) ([]Action, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.LegalActions(pid), nil
}

// Actor returns who must act next in a game.
func (e *Engine) Actor(gameID string) (int, bool, error) {
	s, err := e.session(gameID)
	if err != nil {
		return -1, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, ok := s.game.Actor()
	return pid, ok, nil
}

// Snapshot captures a game without storing it.
func (e *Engine) Snapshot(gameID string) (*Snapshot, error) {
	s, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// Save writes a snapshot of a game to the store.
func (e *Engine) Save(ctx context.Context, gameID string) error {
	e.mu.RLock()
	store := e.store
	e.mu.RUnlock()
	if store == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	snap, err := e.Snapshot(gameID)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save game %s: %w", gameID, err)
	}
	e.logger.Info("game saved",
		zap.String("game_id", gameID),
		zap.Int("round", snap.Round),
		zap.String("checksum", snap.Checksum),
	)
	return nil
}

// Load restores a game from the store and adds it to the engine. A game
// with the same id already running is replaced.
func (e *Engine) Load(ctx context.Context, gameID string) error {
	e.mu.RLock()
	store := e.store
	e.mu.RUnlock()
	if store == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	snap, err := store.Load(ctx, gameID)
	if err != nil {
		return fmt.Errorf("load game %s: %w", gameID, err)
	}
	g, err := Restore(snap, e.deps)
	if err != nil {
		return err
	}
	e.Remove(gameID)
	if err := e.add(g); err != nil {
		return err
	}
	e.logger.Info("game loaded", zap.String("game_id", gameID), zap.Int("round", g.Round()))
	return nil
}

// Remove drops a game from the engine. Removing an unknown game is a no-op.
func (e *Engine) Remove(gameID string) {
	e.mu.Lock()
	s, ok := e.games[gameID]
	delete(e.games, gameID)
	e.mu.Unlock()
	if !ok {
		return
	}
	s.mu.Lock()
	s.game.Events().Unsubscribe(s.handle)
	s.mu.Unlock()
	e.logger.Debug("game removed", zap.String("game_id", gameID))
}

// Table lists the ids of running games in sorted order.
func (e *Engine) Table() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
