package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imperiumfree/imperium-server-go/internal/config"
	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/storage"
)

func TestRunSavesFinishedGames(t *testing.T) {
	t.Setenv("IMPERIUM_STORAGE_BACKEND", "file")
	t.Setenv("IMPERIUM_STORAGE_DIRECTORY", t.TempDir())
	t.Setenv("IMPERIUM_SIMULATION_REPLAY_DIR", t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Simulation.Games = 2
	cfg.Simulation.Players = 3
	cfg.Simulation.Leaders = []string{"paulAtreides", "baronHarkonnen"}
	cfg.Simulation.Policies = []string{"greedy", "random"}

	require.NoError(t, run(context.Background(), cfg, zaptest.NewLogger(t)))

	store, err := storage.NewFileStore(cfg.Storage.Directory, nil)
	require.NoError(t, err)
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, ids, 2)
	for _, id := range ids {
		snap, err := store.Load(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, snap.Over, id)
		_, err = game.Restore(snap, game.Deps{})
		assert.NoError(t, err)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, run(ctx, cfg, zaptest.NewLogger(t)), context.Canceled)
}

func TestInitLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := initLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.True(t, logger.Core().Enabled(-1), format)
	}
	logger, err := initLogger(config.LoggingConfig{Level: "bogus"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1))
}
