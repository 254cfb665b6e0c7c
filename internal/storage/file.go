package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

const snapshotExt = ".snapshot"

// FileStore writes one gzip-compressed gob file per game to a directory.
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("file store needs a directory")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(gameID string) string {
	return filepath.Join(s.dir, gameID+snapshotExt)
}

// Save writes to a temporary file and renames it so a crash never leaves a
// half-written snapshot behind.
func (s *FileStore) Save(_ context.Context, snap *game.Snapshot) error {
	if err := checkID(snap.GameID); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, snap.GameID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := snap.Encode(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(snap.GameID)); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	s.logger.Debug("snapshot written",
		zap.String("game_id", snap.GameID),
		zap.String("path", s.path(snap.GameID)),
	)
	return nil
}

func (s *FileStore) Load(_ context.Context, gameID string) (*game.Snapshot, error) {
	if err := checkID(gameID); err != nil {
		return nil, err
	}
	file, err := os.Open(s.path(gameID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return game.DecodeSnapshot(file)
}

func (s *FileStore) Delete(_ context.Context, gameID string) error {
	if err := checkID(gameID); err != nil {
		return err
	}
	err := os.Remove(s.path(gameID))
	if errors.Is(err, fs.ErrNotExist) {
		return notFound(gameID)
	}
	return err
}

func (s *FileStore) List(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), snapshotExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() {}
