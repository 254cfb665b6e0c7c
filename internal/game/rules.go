package game

import (
	"github.com/imperiumfree/imperium-server-go/internal/game/conflict"
	"github.com/imperiumfree/imperium-server-go/internal/game/influence"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

// Rules holds the tunable numbers of a game. Zero fields take the defaults,
// except StartingGarrison where zero is a legal setting.
type Rules struct {
	AgentsPerRound      int
	HandSize            int
	StartingGarrison    int
	ImperiumRowSize     int
	VictoryThreshold    int
	MaxInfluence        int
	AllianceMinimum     int
	UnitStrength        int
	InfluenceThresholds []influence.Threshold
	StartingResources   resources.Amounts
	LogSize             int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		AgentsPerRound:      2,
		HandSize:            5,
		StartingGarrison:    3,
		ImperiumRowSize:     5,
		VictoryThreshold:    scoring.DefaultVictoryThreshold,
		MaxInfluence:        6,
		AllianceMinimum:     2,
		UnitStrength:        conflict.UnitStrength,
		InfluenceThresholds: append([]influence.Threshold(nil), influence.DefaultThresholds...),
		StartingResources:   resources.Amounts{resources.Spice: 1, resources.Water: 1},
		LogSize:             50,
	}
}

func (r Rules) withDefaults() Rules {
	d := DefaultRules()
	if r.AgentsPerRound <= 0 {
		r.AgentsPerRound = d.AgentsPerRound
	}
	if r.HandSize <= 0 {
		r.HandSize = d.HandSize
	}
	if r.StartingGarrison < 0 {
		r.StartingGarrison = 0
	}
	if r.ImperiumRowSize <= 0 {
		r.ImperiumRowSize = d.ImperiumRowSize
	}
	if r.VictoryThreshold <= 0 {
		r.VictoryThreshold = d.VictoryThreshold
	}
	if r.MaxInfluence <= 0 {
		r.MaxInfluence = d.MaxInfluence
	}
	if r.AllianceMinimum <= 0 {
		r.AllianceMinimum = d.AllianceMinimum
	}
	if r.UnitStrength <= 0 {
		r.UnitStrength = d.UnitStrength
	}
	if r.InfluenceThresholds == nil {
		r.InfluenceThresholds = d.InfluenceThresholds
	}
	if r.StartingResources == nil {
		r.StartingResources = d.StartingResources
	}
	if r.LogSize <= 0 {
		r.LogSize = d.LogSize
	}
	return r
}

func (r Rules) tracker() influence.Tracker {
	t := influence.NewTracker()
	t.Max = r.MaxInfluence
	t.Minimum = r.AllianceMinimum
	t.Thresholds = r.InfluenceThresholds
	return t
}
