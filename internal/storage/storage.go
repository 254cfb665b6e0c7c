// Package storage persists game snapshots. Every store satisfies
// game.SnapshotStore.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
)

// Options select and configure a store.
type Options struct {
	Backend     Backend
	Directory   string
	DatabaseURL string
}

// Store is a game.SnapshotStore that holds resources until closed.
type Store interface {
	game.SnapshotStore
	Close()
}

// Open creates the store named by opts.Backend.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(opts.Directory, logger)
	case BackendPostgres:
		return NewPostgresStore(ctx, opts.DatabaseURL, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}

// checkID rejects ids that cannot be used as a file name or key.
func checkID(gameID string) error {
	if gameID == "" || strings.ContainsAny(gameID, `/\`) || gameID != filepath.Base(gameID) {
		return fmt.Errorf("invalid game id %q", gameID)
	}
	return nil
}

func notFound(gameID string) error {
	return fmt.Errorf("%w: %s", game.ErrGameNotFound, gameID)
}
