package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS game_snapshots (
	game_id    TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	round      INTEGER NOT NULL,
	phase      TEXT NOT NULL,
	over       BOOLEAN NOT NULL,
	checksum   TEXT NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL,
	data       BYTEA NOT NULL
)`

const upsertSnapshot = `
INSERT INTO game_snapshots (game_id, version, round, phase, over, checksum, saved_at, data)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (game_id) DO UPDATE SET
	version = EXCLUDED.version,
	round = EXCLUDED.round,
	phase = EXCLUDED.phase,
	over = EXCLUDED.over,
	checksum = EXCLUDED.checksum,
	saved_at = EXCLUDED.saved_at,
	data = EXCLUDED.data`

// PostgresStore keeps snapshots in the game_snapshots table. The encoded
// snapshot is stored whole; the other columns are for querying.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresStore connects to databaseURL and creates the table if it is
// missing.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("postgres store needs a database url")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, createSnapshotsTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create snapshot table: %w", err)
	}
	logger.Info("postgres snapshot store ready")
	return &PostgresStore{pool: pool, logger: logger}, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap *game.Snapshot) error {
	if err := checkID(snap.GameID); err != nil {
		return err
	}
	data, err := snap.Bytes()
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, upsertSnapshot,
		snap.GameID,
		snap.Version,
		snap.Round,
		snap.Phase,
		snap.Over,
		snap.Checksum,
		snap.SavedAt,
		data,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %s: %w", snap.GameID, err)
	}
	s.logger.Debug("snapshot stored", zap.String("game_id", snap.GameID), zap.Int("bytes", len(data)))
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, gameID string) (*game.Snapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, "SELECT data FROM game_snapshots WHERE game_id = $1", gameID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot %s: %w", gameID, err)
	}
	return game.ParseSnapshot(data)
}

func (s *PostgresStore) Delete(ctx context.Context, gameID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM game_snapshots WHERE game_id = $1", gameID)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", gameID, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(gameID)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT game_id FROM game_snapshots ORDER BY game_id")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}
