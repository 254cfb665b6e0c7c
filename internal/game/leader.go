package game

import (
	"sync"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
)

// LeaderAbility is a leader's behaviour. The optional capability interfaces
// below are detected with type assertions; a leader implements only the
// hooks it needs.
type LeaderAbility interface {
	LeaderID() string
}

// SignetAbility runs when a Signet Ring card is played. It returns the
// decision it suspended on, if any.
type SignetAbility interface {
	Signet(g *Game, ctx EffectContext) *PendingDecision
}

// SetupHook runs once per player after the cards are dealt.
type SetupHook interface {
	OnSetup(g *Game, pid int)
}

// TurnStartHook runs the first time a player becomes current in a round.
type TurnStartHook interface {
	OnTurnStart(g *Game, pid int)
}

// RecruitObserver is told when an opponent gains troops, except from
// conflict rewards.
type RecruitObserver interface {
	OnOpponentRecruit(g *Game, pid, recruiter, count int)
}

// CommitHook runs when the player moves troops into the conflict.
type CommitHook interface {
	OnCommit(g *Game, pid, count int)
}

// AcquireHook runs after the player buys a card.
type AcquireHook interface {
	OnAcquire(g *Game, pid int, card *catalog.CardDef)
}

// ConflictWinHook runs for the conflict winner before units are cleared.
type ConflictWinHook interface {
	OnConflictWon(g *Game, pid, units int)
}

// OccupancyOverride lets a leader enter a location that is already full.
type OccupancyOverride interface {
	IgnoresOccupancy(loc *catalog.LocationDef) bool
}

// LeaderRegistry maps leader ids to abilities. It is safe for concurrent
// use and normally shared by every game of an engine.
type LeaderRegistry struct {
	mu        sync.RWMutex
	abilities map[string]LeaderAbility
}

// NewLeaderRegistry returns an empty registry.
func NewLeaderRegistry() *LeaderRegistry {
	return &LeaderRegistry{abilities: make(map[string]LeaderAbility)}
}

// Register adds or replaces an ability under its leader id.
func (r *LeaderRegistry) Register(a LeaderAbility) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.abilities[a.LeaderID()] = a
}

// Get returns the ability registered for id.
func (r *LeaderRegistry) Get(id string) (LeaderAbility, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.abilities[id]
	return a, ok
}

// leader returns the ability of a player's leader, or nil.
func (g *Game) leader(pid int) LeaderAbility {
	if pid < 0 || pid >= len(g.state.Players) {
		return nil
	}
	id := g.state.Players[pid].Leader
	if id == "" {
		return nil
	}
	a, ok := g.leaders.Get(id)
	if !ok {
		return nil
	}
	return a
}
