package rules

import (
	"fmt"
	"strings"
)

// Phase represents the broad phases of a round.
type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlayerTurn
	PhaseCombat
	PhaseMaker
	PhaseRecall
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseSetup:      "SETUP",
	PhasePlayerTurn: "PLAYER_TURN",
	PhaseCombat:     "COMBAT",
	PhaseMaker:      "MAKER",
	PhaseRecall:     "RECALL",
	PhaseGameOver:   "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// MarshalText renders the phase by name so views and logs stay readable.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name produced by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	name := strings.ToUpper(strings.TrimSpace(string(text)))
	for phase, n := range phaseNames {
		if n == name {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(text))
}

// Next returns the phase that follows p at the end of a round segment.
// ended reports whether the game end has been latched.
func (p Phase) Next(ended bool) Phase {
	switch p {
	case PhaseSetup:
		return PhasePlayerTurn
	case PhasePlayerTurn:
		return PhaseCombat
	case PhaseCombat:
		return PhaseMaker
	case PhaseMaker:
		return PhaseRecall
	case PhaseRecall:
		if ended {
			return PhaseGameOver
		}
		return PhasePlayerTurn
	default:
		return PhaseGameOver
	}
}

// FirstPlayer returns the seat that opens the given round (1-based).
func FirstPlayer(round, players int) int {
	if players <= 0 || round <= 0 {
		return 0
	}
	return (round - 1) % players
}

// Order returns every seat in turn order starting from first.
func Order(first, players int) []int {
	order := make([]int, 0, players)
	for i := 0; i < players; i++ {
		order = append(order, (first+i)%players)
	}
	return order
}

// Turn tracks the round counter and who holds the turn.
// Fields are exported so the struct survives snapshots unchanged.
type Turn struct {
	Phase   Phase
	Round   int
	First   int
	Current int
	Players int
}

// NewTurn creates a turn tracker in the setup phase, before round 1.
func NewTurn(players int) Turn {
	return Turn{Phase: PhaseSetup, Players: players}
}

// StartRound moves to the given round, resets the current seat to the
// round's first player and enters the player-turn phase.
func (t *Turn) StartRound(round int) {
	t.Round = round
	t.First = FirstPlayer(round, t.Players)
	t.Current = t.First
	t.Phase = PhasePlayerTurn
}

// Advance hands the turn to the next seat after Current, in rotation, for
// which done returns false. It reports false when every seat is done.
func (t *Turn) Advance(done func(seat int) bool) bool {
	for i := 1; i <= t.Players; i++ {
		seat := (t.Current + i) % t.Players
		if !done(seat) {
			t.Current = seat
			return true
		}
	}
	return false
}

// Order returns this round's seats in turn order.
func (t *Turn) Order() []int {
	return Order(t.First, t.Players)
}
