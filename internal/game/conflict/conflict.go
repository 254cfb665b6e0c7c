// Package conflict ranks combat participants and maps reward tiers onto ranks.
package conflict

import (
	"sort"
)

// UnitStrength is the strength of one deployed troop.
const UnitStrength = 2

// Participant is one player's standing in the current conflict.
type Participant struct {
	PlayerID int
	Units    int
	Swords   int
}

// Strength returns the combat strength of a participant.
func (p Participant) Strength(unitStrength int) int {
	return p.Units*unitStrength + p.Swords
}

// Ranked is a participant with its computed strength and 1-based rank.
type Ranked struct {
	Participant
	Strength int
	Rank     int
}

// Rank orders participants with positive strength by strength, descending.
// Ties are broken by position in order (seat order starting from the round's
// first player); each participant gets a distinct rank.
func Rank(participants []Participant, order []int, unitStrength int) []Ranked {
	seatPos := make(map[int]int, len(order))
	for i, seat := range order {
		seatPos[seat] = i
	}

	ranked := make([]Ranked, 0, len(participants))
	for _, p := range participants {
		s := p.Strength(unitStrength)
		if s <= 0 {
			continue
		}
		ranked = append(ranked, Ranked{Participant: p, Strength: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Strength != ranked[j].Strength {
			return ranked[i].Strength > ranked[j].Strength
		}
		return position(seatPos, ranked[i].PlayerID) < position(seatPos, ranked[j].PlayerID)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

func position(seatPos map[int]int, seat int) int {
	if pos, ok := seatPos[seat]; ok {
		return pos
	}
	return len(seatPos) + seat
}

// Award pairs a ranked player with the reward tier they earned.
type Award[T any] struct {
	PlayerID int
	Rank     int
	Reward   T
}

// Distribute maps rank i to tier i. Tiers beyond the number of ranked
// players are not awarded, and ranked players beyond the number of tiers
// get nothing.
func Distribute[T any](ranking []Ranked, tiers []T) []Award[T] {
	n := len(ranking)
	if len(tiers) < n {
		n = len(tiers)
	}
	awards := make([]Award[T], 0, n)
	for i := 0; i < n; i++ {
		awards = append(awards, Award[T]{
			PlayerID: ranking[i].PlayerID,
			Rank:     ranking[i].Rank,
			Reward:   tiers[i],
		})
	}
	return awards
}
