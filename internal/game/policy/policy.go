// Package policy chooses actions for automated seats. Policies only see the
// public view and the legal actions the engine enumerates.
package policy

import (
	"fmt"
	"sync"

	"golang.org/x/exp/rand"

	"github.com/imperiumfree/imperium-server-go/internal/game"
)

// Policy picks one of the legal actions. legal is never empty.
type Policy interface {
	Choose(view game.GameView, pid int, legal []game.Action) game.Action
}

// Func adapts a function to Policy.
type Func func(view game.GameView, pid int, legal []game.Action) game.Action

func (f Func) Choose(view game.GameView, pid int, legal []game.Action) game.Action {
	return f(view, pid, legal)
}

// First always takes the first legal action.
var First = Func(func(_ game.GameView, _ int, legal []game.Action) game.Action {
	return legal[0]
})

// Random picks uniformly among the legal actions. It is seeded so that a
// game played by random policies can be reproduced.
type Random struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRandom returns a random policy seeded with seed.
func NewRandom(seed uint64) *Random {
	return &Random{r: rand.New(rand.NewSource(seed))}
}

func (p *Random) Choose(_ game.GameView, _ int, legal []game.Action) game.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	return legal[p.r.Intn(len(legal))]
}

// Greedy prefers whatever gains the most right now: expensive cards,
// big troop commitments and accepted optional costs. Ties go to the
// earlier action.
type Greedy struct{}

func (Greedy) Choose(view game.GameView, pid int, legal []game.Action) game.Action {
	best, bestScore := legal[0], score(view, pid, legal[0])
	for _, a := range legal[1:] {
		if s := score(view, pid, a); s > bestScore {
			best, bestScore = a, s
		}
	}
	return best
}

func score(view game.GameView, pid int, a game.Action) int {
	switch a.Type {
	case game.ActionPurchaseCard:
		for _, c := range view.ImperiumRow {
			if c.ID == a.CardID {
				return 100 + c.Cost
			}
		}
		return 100
	case game.ActionPlaceAgent:
		s := 50
		if a.Preset.OptionalCost == game.ChoiceAccept {
			s += 5
		}
		for _, loc := range view.Board {
			if loc.ID != a.LocationID {
				continue
			}
			s += loc.BonusSpice
			if loc.Combat {
				s += 2
			}
		}
		return s
	case game.ActionCommitTroops:
		return 40 + a.Count
	case game.ActionPlayIntrigue:
		return 30
	case game.ActionResolveDecision:
		s := 20 + a.Answer.Count + len(a.Answer.Factions)
		if a.Answer.Accept {
			s += 5
		}
		// Never target ourselves with a penalty or a steal.
		if a.Answer.Target == pid && len(view.Players) > 1 {
			s -= 10
		}
		return s
	case game.ActionRevealHand:
		return 10
	}
	return 0
}

// ByName returns the named policy: "random", "greedy" or "first". seed
// only applies to random.
func ByName(name string, seed uint64) (Policy, error) {
	switch name {
	case "random":
		return NewRandom(seed), nil
	case "greedy", "":
		return Greedy{}, nil
	case "first":
		return First, nil
	}
	return nil, fmt.Errorf("unknown policy %q", name)
}
