// Package watchers collects per-game statistics from the event stream.
package watchers

import (
	"sort"

	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// LocationWatcher counts agent visits per board location.
type LocationWatcher struct {
	*rules.BaseWatcher
	visits map[string]int
}

// NewLocationWatcher creates a location watcher.
func NewLocationWatcher() *LocationWatcher {
	w := &LocationWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		visits:      make(map[string]int),
	}
	w.SetKey("LocationWatcher")
	return w
}

// Watch implements rules.Watcher.
func (w *LocationWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventAgentPlaced || event.Location == "" {
		return
	}
	w.visits[event.Location]++
	w.MarkSeen()
}

// Reset clears the watcher's state.
func (w *LocationWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.visits = make(map[string]int)
}

// Visits returns how many agents were sent to a location.
func (w *LocationWatcher) Visits(locationID string) int {
	return w.visits[locationID]
}

// Busiest returns the most visited locations, most visits first. Equal
// counts are ordered by id.
func (w *LocationWatcher) Busiest(n int) []string {
	ids := make([]string, 0, len(w.visits))
	for id := range w.visits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if w.visits[ids[i]] != w.visits[ids[j]] {
			return w.visits[ids[i]] > w.visits[ids[j]]
		}
		return ids[i] < ids[j]
	})
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// AcquisitionWatcher tracks the cards each player acquires and the
// persuasion they spend on them.
type AcquisitionWatcher struct {
	*rules.BaseWatcher
	cards map[int][]string
	spent map[int]int
}

// NewAcquisitionWatcher creates an acquisition watcher.
func NewAcquisitionWatcher() *AcquisitionWatcher {
	w := &AcquisitionWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		cards:       make(map[int][]string),
		spent:       make(map[int]int),
	}
	w.SetKey("AcquisitionWatcher")
	return w
}

// Watch implements rules.Watcher.
func (w *AcquisitionWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardAcquired || event.PlayerID < 0 {
		return
	}
	w.cards[event.PlayerID] = append(w.cards[event.PlayerID], event.CardID)
	w.spent[event.PlayerID] += event.Amount
	w.MarkSeen()
}

// Reset clears the watcher's state.
func (w *AcquisitionWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.cards = make(map[int][]string)
	w.spent = make(map[int]int)
}

// Cards returns the ids of the cards a player acquired, in order.
func (w *AcquisitionWatcher) Cards(pid int) []string {
	return append([]string(nil), w.cards[pid]...)
}

// Count returns how many cards a player acquired.
func (w *AcquisitionWatcher) Count(pid int) int {
	return len(w.cards[pid])
}

// Spent returns the persuasion a player spent on cards.
func (w *AcquisitionWatcher) Spent(pid int) int {
	return w.spent[pid]
}

// CombatWatcher tracks troops committed and conflicts won.
type CombatWatcher struct {
	*rules.BaseWatcher
	committed map[int]int
	won       map[int]int
	conflicts int
	unclaimed int
}

// NewCombatWatcher creates a combat watcher.
func NewCombatWatcher() *CombatWatcher {
	w := &CombatWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		committed:   make(map[int]int),
		won:         make(map[int]int),
	}
	w.SetKey("CombatWatcher")
	return w
}

// Watch implements rules.Watcher.
func (w *CombatWatcher) Watch(event rules.Event) {
	switch event.Type {
	case rules.EventTroopsCommitted:
		if event.PlayerID < 0 {
			return
		}
		w.committed[event.PlayerID] += event.Amount
	case rules.EventConflictResolved:
		w.conflicts++
		if event.PlayerID < 0 {
			w.unclaimed++
		} else {
			w.won[event.PlayerID]++
		}
	default:
		return
	}
	w.MarkSeen()
}

// Reset clears the watcher's state.
func (w *CombatWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.committed = make(map[int]int)
	w.won = make(map[int]int)
	w.conflicts = 0
	w.unclaimed = 0
}

// Committed returns the troops a player sent to conflicts.
func (w *CombatWatcher) Committed(pid int) int {
	return w.committed[pid]
}

// Won returns how many conflicts a player won.
func (w *CombatWatcher) Won(pid int) int {
	return w.won[pid]
}

// Conflicts returns how many conflicts were resolved and how many of them
// nobody won.
func (w *CombatWatcher) Conflicts() (resolved, unclaimed int) {
	return w.conflicts, w.unclaimed
}

// RoundWatcher counts the agents each player places in the current round.
type RoundWatcher struct {
	*rules.BaseWatcher
	agents map[int]int
}

// NewRoundWatcher creates a round watcher.
func NewRoundWatcher() *RoundWatcher {
	w := &RoundWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeRound),
		agents:      make(map[int]int),
	}
	w.SetKey("RoundWatcher")
	return w
}

// Watch implements rules.Watcher.
func (w *RoundWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventAgentPlaced || event.PlayerID < 0 {
		return
	}
	w.agents[event.PlayerID]++
	w.MarkSeen()
}

// Reset clears the watcher's state.
func (w *RoundWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.agents = make(map[int]int)
}

// Agents returns the agents a player placed this round.
func (w *RoundWatcher) Agents(pid int) int {
	return w.agents[pid]
}
