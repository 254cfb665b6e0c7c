package game

import (
	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/conflict"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

func (g *Game) setPhase(phase rules.Phase) {
	s := g.state
	if s.Turn.Phase == phase {
		return
	}
	s.Turn.Phase = phase
	ev := rules.NewEvent(rules.EventPhaseChanged, s.Turn.Round, -1)
	ev.Data = phase.String()
	g.publish(ev)
}

// startRound hands out agents and gives the turn to the round's first
// player. Agents still on the board (protected from the last recall) are
// not available.
func (g *Game) startRound(round int) {
	s := g.state
	s.Turn.StartRound(round)
	for _, p := range s.Players {
		onBoard := 0
		for _, loc := range s.Board {
			for _, o := range loc.Occupants {
				if o == p.ID {
					onBoard++
				}
			}
		}
		p.Agents = max(0, s.Rules.AgentsPerRound-onBoard)
		p.HasPassedReveal = false
		p.TurnStarted = false
	}
	g.logf("round %d begins; %s goes first", round, s.Players[s.Turn.First].Name)
	g.logger.Info("round started", zap.Int("round", round), zap.Int("first_player", s.Turn.First))
	g.publish(rules.NewEvent(rules.EventRoundStarted, round, s.Turn.First))
	ev := rules.NewEvent(rules.EventPhaseChanged, round, -1)
	ev.Data = rules.PhasePlayerTurn.String()
	g.publish(ev)
	g.beginTurn(s.Turn.Current)
}

// endRound runs combat, the maker phase and the recall, then starts the
// next round or ends the game.
func (g *Game) endRound() {
	g.setPhase(rules.PhaseCombat)
	g.combat()
	g.setPhase(rules.PhaseMaker)
	g.maker()
	g.setPhase(rules.PhaseRecall)
	g.recall()

	if g.state.EndTriggered {
		g.finish()
		return
	}
	g.startRound(g.state.Turn.Round + 1)
}

func (g *Game) combat() {
	s := g.state
	def, ok := g.catalog.Conflict(s.Conflict)

	participants := make([]conflict.Participant, 0, len(s.Participants))
	for _, pid := range s.Participants {
		p := s.Players[pid]
		participants = append(participants, conflict.Participant{PlayerID: pid, Units: p.Units, Swords: p.Resources.Swords})
	}
	ranking := conflict.Rank(participants, s.Turn.Order(), s.Rules.UnitStrength)

	if ok {
		g.logf("conflict %s is resolved", def.Name)
		for _, award := range conflict.Distribute(ranking, def.Rewards) {
			p := s.Players[award.PlayerID]
			g.logf("%s takes rank %d", p.Name, award.Rank)
			g.direct(award.Reward, EffectContext{PlayerID: award.PlayerID, CardID: def.ID, Source: decision.SourceConflict})
		}
	}
	if len(ranking) > 0 {
		winner := ranking[0]
		if hook, ok := g.leader(winner.PlayerID).(ConflictWinHook); ok {
			hook.OnConflictWon(g, winner.PlayerID, s.Players[winner.PlayerID].Units)
		}
		ev := rules.NewEventWithAmount(rules.EventConflictResolved, s.Turn.Round, winner.PlayerID, winner.Strength)
		ev.CardID = s.Conflict
		g.publish(ev)
	} else {
		g.logf("nobody fought in the conflict")
		ev := rules.NewEvent(rules.EventConflictResolved, s.Turn.Round, -1)
		ev.CardID = s.Conflict
		g.publish(ev)
	}

	for _, p := range s.Players {
		p.Units = 0
		p.Resources.ResetTurn()
	}
	s.Participants = nil

	if len(s.ConflictDeck) == 0 {
		s.Conflict = ""
		g.latchEnd("the conflict deck is exhausted")
		return
	}
	s.Conflict, s.ConflictDeck = s.ConflictDeck[0], s.ConflictDeck[1:]
}

// maker adds bonus spice to unoccupied maker locations.
func (g *Game) maker() {
	for _, loc := range g.state.Board {
		def := g.locationDef(loc.ID)
		if def == nil || def.MakerSpice <= 0 || len(loc.Occupants) > 0 {
			continue
		}
		loc.BonusSpice += def.MakerSpice
	}
}

// recall returns agents and played cards and draws new hands. Protected
// agents stay on the board for one more round.
func (g *Game) recall() {
	s := g.state
	for _, p := range s.Players {
		p.Discard = append(p.Discard, p.Played...)
		p.Discard = append(p.Discard, p.Revealed...)
		p.Played, p.Revealed = nil, nil
		if missing := s.Rules.HandSize - len(p.Hand); missing > 0 {
			g.draw(p, missing)
		}
	}
	for _, loc := range s.Board {
		kept := loc.Occupants[:0:0]
		for _, o := range loc.Occupants {
			if containsSeat(loc.Protected, o) {
				kept = append(kept, o)
			}
		}
		loc.Occupants = kept
		loc.Protected = nil
	}
	g.refillRow()
}

// finish scores endgame cards and records the result.
func (g *Game) finish() {
	s := g.state
	board := tracks{g}
	for _, b := range scoring.EndgameBonuses(board) {
		g.logf("%s scores %d VP for %s", s.Players[b.PlayerID].Name, b.VP, b.Condition)
		g.addVP(b.PlayerID, b.VP)
	}
	res := scoring.Final(board)
	s.Result = &res
	g.setPhase(rules.PhaseGameOver)

	names := make([]string, 0, len(res.Winners))
	for _, pid := range res.Winners {
		names = append(names, s.Players[pid].Name)
	}
	g.logf("game over: %s (%s)", s.EndReason, joinNames(names))
	g.logger.Info("game over",
		zap.String("reason", s.EndReason),
		zap.Ints("winners", res.Winners),
		zap.Bool("tied", res.Tied),
	)
	g.publish(rules.NewEvent(rules.EventGameOver, s.Turn.Round, -1))
}

func joinNames(names []string) string {
	switch len(names) {
	case 0:
		return "no winner"
	case 1:
		return names[0] + " wins"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += " and " + n
	}
	return out + " tie"
}
