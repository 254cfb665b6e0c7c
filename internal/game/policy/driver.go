package policy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

// ErrActionLimit is returned when a game does not finish within the
// driver's action budget.
var ErrActionLimit = errors.New("action limit reached")

// Table is the part of game.Engine the driver needs.
type Table interface {
	Actor(gameID string) (int, bool, error)
	View(gameID string) (game.GameView, error)
	LegalActions(gameID string, pid int) ([]game.Action, error)
	Apply(ctx context.Context, gameID string, pid int, a game.Action) error
}

var _ Table = (*game.Engine)(nil)

// Progress reports how far a Run got.
type Progress struct {
	Actions int
	Over    bool
	// Waiting is the seat without a policy that must act next, or -1.
	Waiting int
}

// Driver plays the seats that have a policy. Seats without one are left to
// their human players: Run stops as soon as one of them must act.
type Driver struct {
	table      Table
	seats      map[int]Policy
	logger     *zap.Logger
	maxActions int
}

// DefaultMaxActions bounds a single Run.
const DefaultMaxActions = 10000

// NewDriver creates a driver over table.
func NewDriver(table Table, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{
		table:      table,
		seats:      make(map[int]Policy),
		logger:     logger,
		maxActions: DefaultMaxActions,
	}
}

// Seat puts a seat under the control of p. A nil policy hands the seat back.
func (d *Driver) Seat(pid int, p Policy) *Driver {
	if p == nil {
		delete(d.seats, pid)
	} else {
		d.seats[pid] = p
	}
	return d
}

// SetMaxActions changes the action budget of each Run.
func (d *Driver) SetMaxActions(n int) {
	if n > 0 {
		d.maxActions = n
	}
}

// Run plays the game until it ends, a seat without a policy must act, or
// the action budget runs out.
func (d *Driver) Run(ctx context.Context, gameID string) (Progress, error) {
	progress := Progress{Waiting: -1}
	for progress.Actions < d.maxActions {
		if err := ctx.Err(); err != nil {
			return progress, err
		}
		pid, ok, err := d.table.Actor(gameID)
		if err != nil {
			return progress, err
		}
		if !ok {
			progress.Over = true
			return progress, nil
		}
		p, controlled := d.seats[pid]
		if !controlled {
			progress.Waiting = pid
			return progress, nil
		}

		legal, err := d.table.LegalActions(gameID, pid)
		if err != nil {
			return progress, err
		}
		if len(legal) == 0 {
			return progress, fmt.Errorf("player %d must act but has no legal action", pid)
		}
		view, err := d.table.View(gameID)
		if err != nil {
			return progress, err
		}
		a := p.Choose(view, pid, legal)
		if err := d.table.Apply(ctx, gameID, pid, a); err != nil {
			return progress, fmt.Errorf("policy for player %d chose %s: %w", pid, a, err)
		}
		progress.Actions++
		d.logger.Debug("policy action",
			zap.String("game_id", gameID),
			zap.Int("player_id", pid),
			zap.Stringer("action", a),
		)
	}
	return progress, fmt.Errorf("%w: %d actions in game %s", ErrActionLimit, d.maxActions, gameID)
}
