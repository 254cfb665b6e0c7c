package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

type memStore struct {
	mu    sync.Mutex
	snaps map[string]*Snapshot
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string]*Snapshot)}
}

func (m *memStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.GameID] = snap
	return nil
}

func (m *memStore) Load(_ context.Context, gameID string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameID)
	}
	return snap, nil
}

func (m *memStore) Delete(_ context.Context, gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, gameID)
	return nil
}

func (m *memStore) List(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.snaps))
	for id := range m.snaps {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStore) saved(gameID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snaps[gameID]
	return ok
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(zaptest.NewLogger(t), testDeps(t))
}

func twoPlayers(id string) Options {
	return Options{
		GameID:  id,
		Seed:    42,
		Players: []PlayerSetup{{Name: "Alice"}, {Name: "Bob"}},
	}
}

// firstLegal drives a game with the first legal action until it ends.
func firstLegal(e *Engine, gameID string) error {
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		pid, ok, err := e.Actor(gameID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		legal, err := e.LegalActions(gameID, pid)
		if err != nil {
			return err
		}
		if len(legal) == 0 {
			return fmt.Errorf("player %d has nothing to do", pid)
		}
		if err := e.Apply(ctx, gameID, pid, legal[0]); err != nil {
			return err
		}
	}
	return fmt.Errorf("game %s did not finish", gameID)
}

func playOut(t *testing.T, e *Engine, gameID string) {
	t.Helper()
	require.NoError(t, firstLegal(e, gameID))
}

func TestEngineNewGame(t *testing.T) {
	e := newTestEngine(t)

	id, err := e.NewGame(twoPlayers("g1"))
	require.NoError(t, err)
	assert.Equal(t, "g1", id)

	_, err = e.NewGame(twoPlayers("g1"))
	assert.Error(t, err, "duplicate ids are rejected")

	generated, err := e.NewGame(Options{Players: []PlayerSetup{{Name: "Solo"}}})
	require.NoError(t, err)
	assert.NotEmpty(t, generated)

	_, err = e.NewGame(Options{})
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{"g1", generated}, e.Table())
}

func TestEngineUnknownGame(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	err := e.Apply(ctx, "missing", 0, Action{Type: ActionEndTurn})
	assert.ErrorIs(t, err, ErrGameNotFound)
	assert.Equal(t, CodeGameNotFound, ReasonCode(err))

	_, err = e.View("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = e.LegalActions("missing", 0)
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, _, err = e.Actor("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)
	_, err = e.Snapshot("missing")
	assert.ErrorIs(t, err, ErrGameNotFound)

	e.Remove("missing")
}

func TestEngineApplyAndView(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	id, err := e.NewGame(twoPlayers("g1"))
	require.NoError(t, err)

	pid, ok, err := e.Actor(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, pid)

	err = e.Apply(ctx, id, 1, Action{Type: ActionRevealHand})
	assert.ErrorIs(t, err, ErrIllegalTurn)

	legal, err := e.LegalActions(id, 0)
	require.NoError(t, err)
	require.NotEmpty(t, legal)
	require.NoError(t, e.Apply(ctx, id, 0, legal[0]))

	view, err := e.View(id)
	require.NoError(t, err)
	assert.Equal(t, id, view.GameID)
	assert.Len(t, view.Players, 2)

	e.Remove(id)
	assert.Empty(t, e.Table())
}

func TestEngineSaveAndLoad(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	id, err := e.NewGame(twoPlayers("g1"))
	require.NoError(t, err)

	assert.Error(t, e.Save(ctx, id), "no store configured")
	assert.Error(t, e.Load(ctx, id), "no store configured")

	store := newMemStore()
	e.SetStore(store)
	require.NoError(t, e.Save(ctx, id))
	before, err := e.Snapshot(id)
	require.NoError(t, err)

	legal, err := e.LegalActions(id, 0)
	require.NoError(t, err)
	require.NoError(t, e.Apply(ctx, id, 0, legal[0]))

	require.NoError(t, e.Load(ctx, id))
	after, err := e.Snapshot(id)
	require.NoError(t, err)
	assert.Equal(t, before.Checksum, after.Checksum, "load replaces the running game")
	assert.Equal(t, []string{id}, e.Table())

	assert.ErrorIs(t, e.Load(ctx, "missing"), ErrGameNotFound)
}

func TestEnginePlaysToCompletion(t *testing.T) {
	e := newTestEngine(t)
	store := newMemStore()
	e.SetStore(store)

	over := make(chan Notification, 1)
	var mu sync.Mutex
	var seen []rules.EventType
	e.SetNotificationHandler(func(n Notification) {
		mu.Lock()
		seen = append(seen, n.Event.Type)
		mu.Unlock()
		if n.Event.Type == rules.EventGameOver {
			over <- n
		}
	})

	id, err := e.NewGame(twoPlayers("g1"))
	require.NoError(t, err)
	playOut(t, e, id)

	view, err := e.View(id)
	require.NoError(t, err)
	assert.Equal(t, rules.PhaseGameOver.String(), view.Phase)
	require.NotNil(t, view.Result)
	assert.NotEmpty(t, view.Result.Winners)

	select {
	case n := <-over:
		assert.Equal(t, id, n.GameID)
	case <-time.After(5 * time.Second):
		t.Fatal("no game over notification")
	}
	require.Eventually(t, func() bool { return store.saved(id) }, time.Second, 10*time.Millisecond)

	mu.Lock()
	require.NotEmpty(t, seen)
	assert.Equal(t, rules.EventGameStarted, seen[0], "notifications arrive in order")
	assert.Contains(t, seen, rules.EventAgentPlaced)
	assert.Equal(t, 1, countEvents(seen, rules.EventGameOver))
	mu.Unlock()

	_, ok, err := e.Actor(id)
	require.NoError(t, err)
	assert.False(t, ok)
	err = e.Apply(context.Background(), id, 0, Action{Type: ActionEndTurn})
	assert.ErrorIs(t, err, ErrGameOver)
}

func TestEngineRecordsReplays(t *testing.T) {
	e := newTestEngine(t)
	dir := t.TempDir()
	rr := NewReplayRecorder(zaptest.NewLogger(t), dir)
	e.SetReplayRecorder(rr)

	id, err := e.NewGame(twoPlayers("g1"))
	require.NoError(t, err)
	assert.True(t, rr.IsRecording(id))
	playOut(t, e, id)

	// Finished games write their replay and release it.
	assert.False(t, rr.IsRecording(id))
	replay, err := rr.LoadReplay(id)
	require.NoError(t, err)
	assert.Greater(t, replay.Size(), 1)
	require.NoError(t, replay.Verify(testDeps(t)))
}

func TestEngineConcurrentGames(t *testing.T) {
	e := newTestEngine(t)
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		id, err := e.NewGame(twoPlayers(fmt.Sprintf("g%d", i)))
		require.NoError(t, err)
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = firstLegal(e, id)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		assert.NoError(t, err)
	}

	for _, id := range e.Table() {
		view, err := e.View(id)
		require.NoError(t, err)
		assert.NotNil(t, view.Result, id)
	}
}

func countEvents(seen []rules.EventType, typ rules.EventType) int {
	n := 0
	for _, s := range seen {
		if s == typ {
			n++
		}
	}
	return n
}

func TestEngineNotificationsKeepOrder(t *testing.T) {
	e := newTestEngine(t)

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	const total = 200
	e.SetNotificationHandler(func(n Notification) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, n.Event.Amount)
		if len(got) == total {
			close(done)
		}
	})

	for i := 0; i < total; i += 4 {
		batch := make([]rules.Event, 0, 4)
		for j := i; j < i+4; j++ {
			batch = append(batch, rules.NewEventWithAmount(rules.EventVictoryPoints, 1, 0, j))
		}
		e.emit("g", batch)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("notifications not delivered")
	}
	mu.Lock()
	defer mu.Unlock()
	for i, amount := range got {
		require.Equal(t, i, amount)
	}
}
