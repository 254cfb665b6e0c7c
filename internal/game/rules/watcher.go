package rules

import (
	"fmt"
	"sort"
	"sync"
)

// WatcherScope controls how long a watcher's observations live.
type WatcherScope int

const (
	// WatcherScopeGame watchers keep their state for the whole game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopeRound watchers are reset when a new round starts.
	WatcherScopeRound
	// WatcherScopePlayer watchers only see the events of one seat.
	WatcherScopePlayer
)

func (s WatcherScope) String() string {
	switch s {
	case WatcherScopeGame:
		return "GAME"
	case WatcherScopeRound:
		return "ROUND"
	case WatcherScopePlayer:
		return "PLAYER"
	}
	return fmt.Sprintf("SCOPE_%d", int(s))
}

// Watcher observes game events and accumulates whatever it tracks.
type Watcher interface {
	Watch(event Event)
	Reset()
	Scope() WatcherScope
	Key() string
}

// BaseWatcher carries the bookkeeping shared by all watchers. Embed it and
// implement Watch.
type BaseWatcher struct {
	scope    WatcherScope
	key      string
	playerID int
	seen     bool
}

// NewBaseWatcher creates a base watcher with the given scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope, playerID: -1}
}

// Scope returns the watcher scope.
func (bw *BaseWatcher) Scope() WatcherScope {
	return bw.scope
}

// Key returns the registry key.
func (bw *BaseWatcher) Key() string {
	return bw.key
}

// SetKey sets the registry key.
func (bw *BaseWatcher) SetKey(key string) {
	bw.key = key
}

// PlayerID is the watched seat of a player scoped watcher, or -1.
func (bw *BaseWatcher) PlayerID() int {
	return bw.playerID
}

// SetPlayerID sets the watched seat.
func (bw *BaseWatcher) SetPlayerID(pid int) {
	bw.playerID = pid
}

// Seen reports whether the watcher has observed anything since the last
// reset.
func (bw *BaseWatcher) Seen() bool {
	return bw.seen
}

// MarkSeen records that the watcher observed a relevant event.
func (bw *BaseWatcher) MarkSeen() {
	bw.seen = true
}

// Reset clears the seen flag.
func (bw *BaseWatcher) Reset() {
	bw.seen = false
}

// WatcherRegistry fans events out to the watchers of one game.
type WatcherRegistry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	byScope  map[WatcherScope][]Watcher
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{
		watchers: make(map[string]Watcher),
		byScope:  make(map[WatcherScope][]Watcher),
	}
}

// AddWatcher registers a watcher, replacing any watcher with the same key.
// Watchers without a key get one derived from their type, scope and seat.
func (wr *WatcherRegistry) AddWatcher(watcher Watcher) {
	if watcher == nil {
		return
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	key := watcher.Key()
	if key == "" {
		key = generateKey(watcher)
		if setter, ok := watcher.(interface{ SetKey(string) }); ok {
			setter.SetKey(key)
		}
	}
	if old, ok := wr.watchers[key]; ok {
		wr.removeFromScope(old.Scope(), key)
	}
	wr.watchers[key] = watcher
	scope := watcher.Scope()
	wr.byScope[scope] = append(wr.byScope[scope], watcher)
}

// RemoveWatcher removes the watcher registered under key.
func (wr *WatcherRegistry) RemoveWatcher(key string) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	watcher, ok := wr.watchers[key]
	if !ok {
		return
	}
	delete(wr.watchers, key)
	wr.removeFromScope(watcher.Scope(), key)
}

func (wr *WatcherRegistry) removeFromScope(scope WatcherScope, key string) {
	watchers := wr.byScope[scope]
	for i, w := range watchers {
		if w.Key() == key {
			wr.byScope[scope] = append(watchers[:i:i], watchers[i+1:]...)
			return
		}
	}
}

// Watcher returns the watcher registered under key, or nil.
func (wr *WatcherRegistry) Watcher(key string) Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return wr.watchers[key]
}

// WatchersByScope returns the watchers of one scope in registration order.
func (wr *WatcherRegistry) WatchersByScope(scope WatcherScope) []Watcher {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	return append([]Watcher(nil), wr.byScope[scope]...)
}

// Keys returns the registered keys in sorted order.
func (wr *WatcherRegistry) Keys() []string {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	keys := make([]string, 0, len(wr.watchers))
	for k := range wr.watchers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ResetWatchers resets every watcher.
func (wr *WatcherRegistry) ResetWatchers() {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		watcher.Reset()
	}
}

// ResetWatchersByScope resets the watchers of one scope.
func (wr *WatcherRegistry) ResetWatchersByScope(scope WatcherScope) {
	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.byScope[scope] {
		watcher.Reset()
	}
}

// NotifyWatchers delivers an event. A new round resets round scoped
// watchers before they see it, and player scoped watchers only receive
// events of their own seat.
func (wr *WatcherRegistry) NotifyWatchers(event Event) {
	if event.Type == EventRoundStarted {
		wr.ResetWatchersByScope(WatcherScopeRound)
	}

	wr.mu.RLock()
	defer wr.mu.RUnlock()
	for _, watcher := range wr.watchers {
		if watcher.Scope() == WatcherScopePlayer {
			if seat, ok := watcher.(interface{ PlayerID() int }); ok && seat.PlayerID() != event.PlayerID {
				continue
			}
		}
		watcher.Watch(event)
	}
}

// generateKey derives a key from the watcher's type and scope, plus the seat
// for player scoped watchers, so same-typed watchers of different scopes
// coexist.
func generateKey(watcher Watcher) string {
	key := fmt.Sprintf("%T_%s", watcher, watcher.Scope())
	if watcher.Scope() == WatcherScopePlayer {
		if seat, ok := watcher.(interface{ PlayerID() int }); ok && seat.PlayerID() >= 0 {
			return fmt.Sprintf("%s_%d", key, seat.PlayerID())
		}
	}
	return key
}
