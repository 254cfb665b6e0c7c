// Package scoring evaluates end conditions, endgame card bonuses and final
// standings.
package scoring

import (
	"sort"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
)

// DefaultVictoryThreshold is the VP total that latches the game end.
const DefaultVictoryThreshold = 10

// Board exposes the per-player figures scoring needs.
type Board interface {
	Players() int
	VP(playerID int) int
	Spice(playerID int) int
	Alliances(playerID int) int
	EndgameCards(playerID int) []catalog.EndgameBonus
}

// ThresholdReached reports whether vp ends the game.
func ThresholdReached(vp, threshold int) bool {
	return threshold > 0 && vp >= threshold
}

// Holds reports whether an endgame condition is met for playerID.
func Holds(b Board, playerID int, cond catalog.EndgameCondition) bool {
	switch cond {
	case catalog.ConditionMostSpice:
		mine := b.Spice(playerID)
		if mine <= 0 {
			return false
		}
		for pid := 0; pid < b.Players(); pid++ {
			if pid != playerID && b.Spice(pid) > mine {
				return false
			}
		}
		return true
	case catalog.ConditionTwoAlliances:
		return b.Alliances(playerID) >= 2
	default:
		return false
	}
}

// Bonus is VP earned from one endgame card.
type Bonus struct {
	PlayerID  int
	Condition catalog.EndgameCondition
	VP        int
}

// EndgameBonuses evaluates every held endgame card against the final board.
// All conditions are checked before any VP is applied, so the order of
// evaluation never matters.
func EndgameBonuses(b Board) []Bonus {
	var out []Bonus
	for pid := 0; pid < b.Players(); pid++ {
		for _, card := range b.EndgameCards(pid) {
			if Holds(b, pid, card.Condition) {
				out = append(out, Bonus{PlayerID: pid, Condition: card.Condition, VP: card.VP})
			}
		}
	}
	return out
}

// Standing is one line of the final table.
type Standing struct {
	PlayerID int `json:"player_id"`
	VP       int `json:"vp"`
	Rank     int `json:"rank"`
}

// Result is the outcome of a finished game.
type Result struct {
	Standings []Standing `json:"standings"`
	Winners   []int      `json:"winners"`
	Tied      bool       `json:"tied"`
}

// Standings ranks players by VP using competition ranking: equal VP share a
// rank and the next rank skips (1, 1, 3). Equal players keep seat order.
func Standings(b Board) []Standing {
	out := make([]Standing, 0, b.Players())
	for pid := 0; pid < b.Players(); pid++ {
		out = append(out, Standing{PlayerID: pid, VP: b.VP(pid)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VP > out[j].VP })
	for i := range out {
		if i > 0 && out[i].VP == out[i-1].VP {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// Final builds the result: every player at rank 1 wins, and Tied is set when
// more than one does.
func Final(b Board) Result {
	res := Result{Standings: Standings(b)}
	for _, s := range res.Standings {
		if s.Rank == 1 {
			res.Winners = append(res.Winners, s.PlayerID)
		}
	}
	res.Tied = len(res.Winners) > 1
	return res
}
