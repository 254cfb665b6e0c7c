package game

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := newTestGame(t, 2)
	hand := giveHand(g, 0, "broker", "scout")
	require.NoError(t, g.PlaceAgent(0, hand[0].ID, "barracks", Preset{}))

	snap, err := g.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "test-game", snap.GameID)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, 1, snap.Round)
	assert.Equal(t, "PLAYER_TURN", snap.Phase)
	assert.False(t, snap.Over)
	require.NoError(t, snap.Verify())

	restored, err := Restore(snap, testDeps(t))
	require.NoError(t, err)
	assert.Equal(t, snap.Checksum, checksum(t, restored))

	pd := restored.Pending(0)
	require.NotNil(t, pd, "pending decisions survive a restore")
	assert.Equal(t, g.Pending(0).ID, pd.ID)
	assert.Len(t, pd.Rest, 1)
}

func TestRestoredGameContinuesIdentically(t *testing.T) {
	g := newTestGame(t, 2)
	restored, err := Restore(mustSnapshot(t, g), testDeps(t))
	require.NoError(t, err)

	// Two rounds reshuffle decks and the discard, which draws on the RNG.
	for _, game := range []*Game{g, restored} {
		passRound(t, game)
		passRound(t, game)
	}
	assert.True(t, restored.Over())
	assert.Equal(t, checksum(t, g), checksum(t, restored))
}

func TestSameSeedSameGame(t *testing.T) {
	a := newTestGame(t, 3, withSeed(7))
	b := newTestGame(t, 3, withSeed(7))
	c := newTestGame(t, 3, withSeed(8))

	assert.Equal(t, checksum(t, a), checksum(t, b))
	assert.NotEqual(t, checksum(t, a), checksum(t, c))
}

func TestRestoreRejectsBadSnapshots(t *testing.T) {
	g := newTestGame(t, 2)

	t.Run("checksum", func(t *testing.T) {
		snap := mustSnapshot(t, g)
		snap.Checksum = "deadbeef"
		_, err := Restore(snap, testDeps(t))
		assert.ErrorIs(t, err, ErrChecksumMismatch)
		assert.ErrorIs(t, snap.Verify(), ErrChecksumMismatch)
	})

	t.Run("version", func(t *testing.T) {
		snap := mustSnapshot(t, g)
		snap.Version = SnapshotVersion + 1
		_, err := Restore(snap, testDeps(t))
		assert.Error(t, err)
	})

	t.Run("corrupt state", func(t *testing.T) {
		snap := mustSnapshot(t, g)
		snap.State = []byte("not gob")
		_, err := Restore(snap, testDeps(t))
		assert.Error(t, err)
	})

	t.Run("catalog without the cards", func(t *testing.T) {
		snap := mustSnapshot(t, g)
		_, err := Restore(snap, Deps{})
		assert.ErrorIs(t, err, ErrCardNotFound)
	})

	t.Run("nil", func(t *testing.T) {
		_, err := Restore(nil, testDeps(t))
		assert.Error(t, err)
	})
}

func TestSnapshotEncoding(t *testing.T) {
	g := newTestGame(t, 2)
	snap := mustSnapshot(t, g)

	data, err := snap.Bytes()
	require.NoError(t, err)
	decoded, err := ParseSnapshot(data)
	require.NoError(t, err)

	assert.Equal(t, snap.GameID, decoded.GameID)
	assert.Equal(t, snap.Checksum, decoded.Checksum)
	assert.Equal(t, snap.State, decoded.State)
	assert.True(t, snap.SavedAt.Equal(decoded.SavedAt))
	require.NoError(t, decoded.Verify())

	_, err = DecodeSnapshot(bytes.NewReader([]byte("garbage")))
	assert.Error(t, err)
}
