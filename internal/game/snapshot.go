package game

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
)

// SnapshotVersion is bumped whenever State changes incompatibly.
const SnapshotVersion = 1

// ErrChecksumMismatch is returned when a snapshot's state does not hash to
// its recorded checksum.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// Snapshot is a saved game. State holds the gob-encoded State, RNG
// included, so a restored game continues exactly where it stopped.
type Snapshot struct {
	GameID   string
	Version  int
	SavedAt  time.Time
	Round    int
	Phase    string
	Over     bool
	Checksum string
	State    []byte
}

// Snapshot captures the current state.
func (g *Game) Snapshot() (*Snapshot, error) {
	raw, err := g.encodeState()
	if err != nil {
		return nil, err
	}
	// Checksum the decoded copy: gob drops empty slices, and the checksum
	// must match what Restore will see.
	copied, err := decodeState(raw)
	if err != nil {
		return nil, err
	}
	sum, err := Checksum(copied)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		GameID:   g.state.GameID,
		Version:  SnapshotVersion,
		SavedAt:  time.Now().UTC(),
		Round:    g.state.Turn.Round,
		Phase:    g.state.Turn.Phase.String(),
		Over:     g.Over(),
		Checksum: sum,
		State:    raw,
	}, nil
}

func (g *Game) encodeState() ([]byte, error) {
	rngState, err := g.rng.marshal()
	if err != nil {
		return nil, err
	}
	g.state.RNG = rngState

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(g.state); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeState(raw []byte) (*State, error) {
	var s State
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	s.normalize()
	return &s, nil
}

// Checksum hashes a canonical encoding of s. encoding/json writes map keys
// in sorted order and follows pointers, so equal states hash equally.
func Checksum(s *State) (string, error) {
	canonical, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("canonical state: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the checksum of the encoded state.
func (snap *Snapshot) Verify() error {
	s, err := decodeState(snap.State)
	if err != nil {
		return err
	}
	sum, err := Checksum(s)
	if err != nil {
		return err
	}
	if sum != snap.Checksum {
		return fmt.Errorf("%w: game %s: have %s, want %s", ErrChecksumMismatch, snap.GameID, sum, snap.Checksum)
	}
	return nil
}

// Restore rebuilds a game from a snapshot. deps must provide the catalog
// the game was created with (nil means the embedded default) and the same
// leader registrations.
func Restore(snap *Snapshot, deps Deps) (*Game, error) {
	if snap == nil {
		return nil, errors.New("nil snapshot")
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	s, err := decodeState(snap.State)
	if err != nil {
		return nil, err
	}
	sum, err := Checksum(s)
	if err != nil {
		return nil, err
	}
	if sum != snap.Checksum {
		return nil, fmt.Errorf("%w: game %s", ErrChecksumMismatch, snap.GameID)
	}

	cat := deps.Catalog
	if cat == nil {
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	if err := checkCatalog(s, cat); err != nil {
		return nil, err
	}

	g := newGame(deps, cat)
	g.state = s
	g.rng = newRNG(0)
	if err := g.rng.restore(s.RNG); err != nil {
		return nil, err
	}
	g.logger = g.logger.With(zap.String("game_id", s.GameID))
	g.logger.Info("game restored",
		zap.Int("round", s.Turn.Round),
		zap.Stringer("phase", s.Turn.Phase),
	)
	return g, nil
}

// checkCatalog makes sure every card and location the state refers to is
// defined, so a restored game cannot panic on a missing definition.
func checkCatalog(s *State, cat *catalog.Catalog) error {
	check := func(cards []Card) error {
		for _, c := range cards {
			if _, ok := cat.Card(c.DefID); !ok {
				return fmt.Errorf("%w: card %s (%s) is not in the catalog", ErrCardNotFound, c.ID, c.DefID)
			}
		}
		return nil
	}
	zones := [][]Card{s.ImperiumDeck, s.ImperiumRow, s.IntrigueDeck, s.IntrigueDiscard}
	for _, p := range s.Players {
		zones = append(zones, p.Hand, p.Deck, p.Discard, p.Intrigue, p.Played, p.Revealed, p.Endgame)
	}
	for _, z := range zones {
		if err := check(z); err != nil {
			return err
		}
	}
	for _, loc := range s.Board {
		if _, ok := cat.Location(loc.ID); !ok {
			return fmt.Errorf("%w: location %s is not in the catalog", ErrInvalidTarget, loc.ID)
		}
	}
	return nil
}

// Encode writes the snapshot as gzip-compressed gob.
func (snap *Snapshot) Encode(w io.Writer) error {
	zw := gzip.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	return nil
}

// Bytes returns the encoded snapshot.
func (snap *Snapshot) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeSnapshot reads a snapshot written by Encode.
func DecodeSnapshot(r io.Reader) (*Snapshot, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer zr.Close()

	var snap Snapshot
	if err := gob.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// ParseSnapshot decodes a snapshot from bytes.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	return DecodeSnapshot(bytes.NewReader(data))
}
