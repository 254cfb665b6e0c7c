// Package influence tracks faction influence, the VP thresholds on each
// track, and contention for the single alliance token per faction.
package influence

import (
	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
)

// NoHolder marks an alliance token nobody holds.
const NoHolder = -1

// Board gives the tracker access to the influence, alliance and VP state it
// updates. The game implements it.
type Board interface {
	Players() int
	Influence(playerID int, f catalog.Faction) int
	SetInfluence(playerID int, f catalog.Faction, value int)
	AllianceHolder(f catalog.Faction) int
	SetAllianceHolder(f catalog.Faction, playerID int)
	AddVP(playerID, delta int)
}

// Threshold awards VP the first time a track reaches Level from below.
type Threshold struct {
	Level int `mapstructure:"level" yaml:"level"`
	VP    int `mapstructure:"vp" yaml:"vp"`
}

// Tracker applies influence changes.
type Tracker struct {
	Max        int
	Minimum    int // influence needed to hold an alliance
	Thresholds []Threshold
	AllianceVP int
}

// DefaultThresholds are the VP steps on every faction track.
var DefaultThresholds = []Threshold{{Level: 2, VP: 1}, {Level: 4, VP: 1}}

// NewTracker returns a tracker with the standard limits.
func NewTracker() Tracker {
	return Tracker{Max: 6, Minimum: 2, Thresholds: DefaultThresholds, AllianceVP: 1}
}

// Change describes what a Gain did.
type Change struct {
	PlayerID       int
	Faction        catalog.Faction
	Before         int
	After          int
	ThresholdVP    int
	PreviousHolder int
	Holder         int
}

// AllianceChanged reports whether the alliance token moved.
func (c Change) AllianceChanged() bool {
	return c.PreviousHolder != c.Holder
}

// Gain changes playerID's influence with f by amount (negative to lose),
// clamped to [0, Max]. Thresholds crossed upward award VP; decreases never
// remove it. The alliance is then re-evaluated.
func (t Tracker) Gain(b Board, playerID int, f catalog.Faction, amount int) Change {
	before := b.Influence(playerID, f)
	after := clamp(before+amount, 0, t.Max)
	b.SetInfluence(playerID, f, after)

	ch := Change{PlayerID: playerID, Faction: f, Before: before, After: after}
	for _, th := range t.Thresholds {
		if before < th.Level && after >= th.Level {
			ch.ThresholdVP += th.VP
		}
	}
	if ch.ThresholdVP > 0 {
		b.AddVP(playerID, ch.ThresholdVP)
	}

	ch.PreviousHolder, ch.Holder = t.Contend(b, f)
	return ch
}

// Contend settles the alliance token for f and returns the holder before
// and after. The unique leader at or above Minimum takes it. A tie at the
// top leaves it with nobody, even when the holder is among the tied
// leaders. A change moves AllianceVP from the old holder to the new one.
func (t Tracker) Contend(b Board, f catalog.Faction) (previous, holder int) {
	previous = b.AllianceHolder(f)

	best := -1
	var leaders []int
	for pid := 0; pid < b.Players(); pid++ {
		v := b.Influence(pid, f)
		switch {
		case v > best:
			best = v
			leaders = []int{pid}
		case v == best:
			leaders = append(leaders, pid)
		}
	}

	holder = NoHolder
	if best >= t.Minimum && len(leaders) == 1 {
		holder = leaders[0]
	}

	if holder != previous {
		if previous != NoHolder {
			b.AddVP(previous, -t.AllianceVP)
		}
		if holder != NoHolder {
			b.AddVP(holder, t.AllianceVP)
		}
		b.SetAllianceHolder(f, holder)
	}
	return previous, holder
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
