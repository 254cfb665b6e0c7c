package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

func snapshot(t *testing.T, gameID string, seed uint64) *game.Snapshot {
	t.Helper()
	g, err := game.New(game.Options{
		GameID:  gameID,
		Seed:    seed,
		Players: []game.PlayerSetup{{Name: "Alice"}, {Name: "Bob"}},
	})
	require.NoError(t, err)
	snap, err := g.Snapshot()
	require.NoError(t, err)
	return snap
}

// testStore runs the behaviour every store shares.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = store.Load(ctx, "missing")
	assert.ErrorIs(t, err, game.ErrGameNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "missing"), game.ErrGameNotFound)

	first := snapshot(t, "game-b", 1)
	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, snapshot(t, "game-a", 2)))

	loaded, err := store.Load(ctx, "game-b")
	require.NoError(t, err)
	assert.Equal(t, first.Checksum, loaded.Checksum)
	assert.Equal(t, first.State, loaded.State)
	require.NoError(t, loaded.Verify())

	restored, err := game.Restore(loaded, game.Deps{})
	require.NoError(t, err)
	assert.Equal(t, "game-b", restored.ID())

	// Saving again replaces the snapshot.
	second := snapshot(t, "game-b", 3)
	require.NoError(t, store.Save(ctx, second))
	loaded, err = store.Load(ctx, "game-b")
	require.NoError(t, err)
	assert.Equal(t, second.Checksum, loaded.Checksum)

	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"game-a", "game-b"}, ids)

	require.NoError(t, store.Delete(ctx, "game-a"))
	ids, err = store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"game-b"}, ids)

	bad := snapshot(t, "game-c", 4)
	bad.GameID = "../escape"
	assert.Error(t, store.Save(ctx, bad))
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testStore(t, store)

	t.Run("loads are copies", func(t *testing.T) {
		ctx := context.Background()
		a, err := store.Load(ctx, "game-b")
		require.NoError(t, err)
		a.State[0] ^= 0xff
		b, err := store.Load(ctx, "game-b")
		require.NoError(t, err)
		assert.NoError(t, b.Verify())
	})
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")
	store, err := NewFileStore(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()
	testStore(t, store)

	_, err = os.Stat(filepath.Join(dir, "game-b.snapshot"))
	require.NoError(t, err)

	t.Run("ignores other files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
		require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.snapshot"), 0o755))
		ids, err := store.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"game-b"}, ids)
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.snapshot"), []byte("garbage"), 0o644))
		_, err := store.Load(context.Background(), "broken")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, game.ErrGameNotFound)
	})

	_, err = NewFileStore("", nil)
	assert.Error(t, err)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("IMPERIUM_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("IMPERIUM_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := NewPostgresStore(ctx, url, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	_, err = store.pool.Exec(ctx, "TRUNCATE game_snapshots")
	require.NoError(t, err)
	testStore(t, store)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	store, err := Open(ctx, Options{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(ctx, Options{Backend: BackendFile, Directory: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = Open(ctx, Options{Backend: BackendPostgres}, logger)
	assert.Error(t, err, "postgres needs a url")

	_, err = Open(ctx, Options{Backend: "tape"}, logger)
	assert.Error(t, err)
}
