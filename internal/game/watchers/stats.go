package watchers

import (
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// Stats bundles the standard watchers of one game.
type Stats struct {
	Registry     *rules.WatcherRegistry
	Locations    *LocationWatcher
	Acquisitions *AcquisitionWatcher
	Combat       *CombatWatcher
	Round        *RoundWatcher
}

// NewStats registers the standard watchers on a fresh registry.
func NewStats() *Stats {
	s := &Stats{
		Registry:     rules.NewWatcherRegistry(),
		Locations:    NewLocationWatcher(),
		Acquisitions: NewAcquisitionWatcher(),
		Combat:       NewCombatWatcher(),
		Round:        NewRoundWatcher(),
	}
	s.Registry.AddWatcher(s.Locations)
	s.Registry.AddWatcher(s.Acquisitions)
	s.Registry.AddWatcher(s.Combat)
	s.Registry.AddWatcher(s.Round)
	return s
}

// PlayerStats summarises one seat.
type PlayerStats struct {
	PlayerID       int
	CardsAcquired  int
	PersuasionUsed int
	TroopsSent     int
	ConflictsWon   int
}

// Players summarises seats 0..n-1.
func (s *Stats) Players(n int) []PlayerStats {
	out := make([]PlayerStats, n)
	for pid := range out {
		out[pid] = PlayerStats{
			PlayerID:       pid,
			CardsAcquired:  s.Acquisitions.Count(pid),
			PersuasionUsed: s.Acquisitions.Spent(pid),
			TroopsSent:     s.Combat.Committed(pid),
			ConflictsWon:   s.Combat.Won(pid),
		}
	}
	return out
}
