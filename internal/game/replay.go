package game

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Frame is one recorded step of a game: the action that was applied (nil
// for the initial frame) and the state right after it.
type Frame struct {
	PlayerID int
	Action   *Action
	Snapshot *Snapshot
}

// Replay is a recorded game with sequential snapshots.
type Replay struct {
	GameID       string
	Frames       []*Frame
	CurrentIndex int
	mu           sync.RWMutex
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{
		GameID: gameID,
		Frames: make([]*Frame, 0),
	}
}

// Record appends a frame.
func (r *Replay) Record(f *Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Frames = append(r.Frames, f)
}

// Start rewinds to the first frame.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.CurrentIndex = 0
}

// Next returns the frame at the cursor and moves forward.
func (r *Replay) Next() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex < len(r.Frames) {
		f := r.Frames[r.CurrentIndex]
		r.CurrentIndex++
		return f
	}
	return nil
}

// Previous moves back and returns that frame.
func (r *Replay) Previous() *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.CurrentIndex > 0 {
		r.CurrentIndex--
		return r.Frames[r.CurrentIndex]
	}
	return nil
}

// Skip moves the cursor by count frames, clamped to the recording.
func (r *Replay) Skip(count int) *Frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.CurrentIndex + count
	if idx >= len(r.Frames) {
		idx = len(r.Frames) - 1
	}
	if idx < 0 {
		idx = 0
	}
	r.CurrentIndex = idx
	if idx < len(r.Frames) {
		return r.Frames[idx]
	}
	return nil
}

// Size returns the number of frames.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.Frames)
}

// FrameAt returns the frame at index, or nil.
func (r *Replay) FrameAt(index int) *Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index >= 0 && index < len(r.Frames) {
		return r.Frames[index]
	}
	return nil
}

// Verify re-applies every recorded action to a game restored from the first
// frame and checks that each resulting state matches the recording.
func (r *Replay) Verify(deps Deps) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.Frames) == 0 {
		return nil
	}
	g, err := Restore(r.Frames[0].Snapshot, deps)
	if err != nil {
		return fmt.Errorf("restore first frame: %w", err)
	}
	for i, f := range r.Frames[1:] {
		if f.Action == nil {
			return fmt.Errorf("frame %d has no action", i+1)
		}
		if err := g.Apply(f.PlayerID, *f.Action); err != nil {
			return fmt.Errorf("frame %d: %w", i+1, err)
		}
		snap, err := g.Snapshot()
		if err != nil {
			return err
		}
		if snap.Checksum != f.Snapshot.Checksum {
			return fmt.Errorf("%w: frame %d diverged", ErrChecksumMismatch, i+1)
		}
	}
	return nil
}

type replayMetadata struct {
	GameID     string
	Timestamp  time.Time
	Version    int
	FrameCount int
}

func replayPath(directory, gameID string) string {
	return filepath.Join(directory, fmt.Sprintf("%s.replay", gameID))
}

// SaveToFile writes the replay as gzip-compressed gob to
// <directory>/<game id>.replay.
func (r *Replay) SaveToFile(directory string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(replayPath(directory, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	meta := replayMetadata{
		GameID:     r.GameID,
		Timestamp:  time.Now(),
		Version:    SnapshotVersion,
		FrameCount: len(r.Frames),
	}
	if err := enc.Encode(&meta); err != nil {
		zw.Close()
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	for i, f := range r.Frames {
		if err := enc.Encode(f); err != nil {
			zw.Close()
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	return zw.Close()
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(directory, gameID string) (*Replay, error) {
	file, err := os.Open(replayPath(directory, gameID))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var meta replayMetadata
	if err := dec.Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if meta.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", meta.Version)
	}

	replay := NewReplay(meta.GameID)
	for i := 0; i < meta.FrameCount; i++ {
		var f Frame
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to decode frame %d: %w", i, err)
		}
		replay.Frames = append(replay.Frames, &f)
	}
	return replay, nil
}

// ReplayRecorder keeps replays for the games an Engine runs.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.RWMutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder that saves to saveDir.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// StartRecording begins a replay with the game's current state.
func (rr *ReplayRecorder) StartRecording(g *Game) error {
	snap, err := g.Snapshot()
	if err != nil {
		return err
	}
	replay := NewReplay(g.ID())
	replay.Record(&Frame{PlayerID: -1, Snapshot: snap})

	rr.mu.Lock()
	rr.replays[g.ID()] = replay
	rr.mu.Unlock()

	rr.logger.Info("started replay recording", zap.String("game_id", g.ID()))
	return nil
}

// StopRecording drops the replay of a game without saving it.
func (rr *ReplayRecorder) StopRecording(gameID string) {
	rr.mu.Lock()
	delete(rr.replays, gameID)
	rr.mu.Unlock()

	rr.logger.Info("stopped replay recording", zap.String("game_id", gameID))
}

// Record appends the state after an applied action. Games that are not
// being recorded are ignored.
func (rr *ReplayRecorder) Record(g *Game, pid int, a Action) error {
	rr.mu.RLock()
	replay := rr.replays[g.ID()]
	rr.mu.RUnlock()
	if replay == nil {
		return nil
	}

	snap, err := g.Snapshot()
	if err != nil {
		return err
	}
	replay.Record(&Frame{PlayerID: pid, Action: &a, Snapshot: snap})
	rr.logger.Debug("recorded replay frame",
		zap.String("game_id", g.ID()),
		zap.Int("frame_count", replay.Size()),
	)
	return nil
}

// Replay returns the replay being recorded for a game.
func (rr *ReplayRecorder) Replay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	replay, ok := rr.replays[gameID]
	return replay, ok
}

// IsRecording reports whether a game is being recorded.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	_, ok := rr.Replay(gameID)
	return ok
}

// SaveReplay writes a replay to disk and forgets it.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	if !ok {
		rr.mu.Unlock()
		return fmt.Errorf("%w: no replay for game %s", ErrGameNotFound, gameID)
	}
	delete(rr.replays, gameID)
	rr.mu.Unlock()

	if err := replay.SaveToFile(rr.saveDir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("frame_count", replay.Size()),
		zap.String("directory", rr.saveDir),
	)
	return nil
}

// LoadReplay reads a saved replay.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFromFile(rr.saveDir, gameID)
	if err != nil {
		return nil, err
	}
	rr.logger.Info("loaded replay from disk",
		zap.String("game_id", gameID),
		zap.Int("frame_count", replay.Size()),
	)
	return replay, nil
}
