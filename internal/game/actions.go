package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// checkTurn verifies that pid may take a turn action now.
func (g *Game) checkTurn(pid int) (*Player, error) {
	p, err := g.state.player(pid)
	if err != nil {
		return nil, err
	}
	switch {
	case g.Over():
		return nil, ErrGameOver
	case g.state.Turn.Phase != rules.PhasePlayerTurn:
		return nil, fmt.Errorf("%w: phase is %s", ErrIllegalTurn, g.state.Turn.Phase)
	case g.state.pendingAnywhere():
		return nil, ErrDecisionPending
	case g.state.Turn.Current != pid:
		return nil, fmt.Errorf("%w: it is player %d's turn", ErrIllegalTurn, g.state.Turn.Current)
	}
	return p, nil
}

// placement is a validated agent placement.
type placement struct {
	card Card
	def  *catalog.CardDef
	loc  *LocationState
	ldef *catalog.LocationDef
	cost resources.Amounts
}

// checkPlacement validates an agent placement without changing anything.
func (g *Game) checkPlacement(p *Player, cardID, locationID string) (placement, error) {
	if p.HasPassedReveal {
		return placement{}, fmt.Errorf("%w: hand already revealed", ErrIllegalTurn)
	}
	if p.Agents <= 0 {
		return placement{}, fmt.Errorf("%w: no agents left", ErrIllegalTurn)
	}
	i := indexOf(p.Hand, cardID)
	if i < 0 {
		return placement{}, fmt.Errorf("%w: %s not in hand", ErrCardNotFound, cardID)
	}
	card := p.Hand[i]
	def := g.def(card)
	loc := g.state.location(locationID)
	ldef := g.locationDef(locationID)
	if loc == nil || ldef == nil {
		return placement{}, fmt.Errorf("%w: unknown location %q", ErrInvalidTarget, locationID)
	}
	if !def.HasIcon(ldef.Icon) {
		return placement{}, fmt.Errorf("%w: %s cannot be sent to %s", ErrInvalidTarget, def.Name, ldef.Name)
	}
	if len(loc.Occupants) >= ldef.Capacity {
		override, ok := g.leader(p.ID).(OccupancyOverride)
		if !ok || !override.IgnoresOccupancy(ldef) {
			return placement{}, fmt.Errorf("%w: %s", ErrLocationFull, ldef.Name)
		}
	}
	cost := ldef.Cost
	if def.GuildSeal && ldef.SealWaivesCost {
		cost = nil
	}
	if !p.Resources.CanAfford(cost) {
		return placement{}, fmt.Errorf("%w: %s needs %s, missing %s",
			ErrInsufficientResources, ldef.Name, cost, p.Resources.Shortfall(cost))
	}
	return placement{card: card, def: def, loc: loc, ldef: ldef, cost: cost}, nil
}

// canPlaceAnywhere reports whether any card in hand can go to any location.
func (g *Game) canPlaceAnywhere(p *Player) bool {
	if p.Agents <= 0 || p.HasPassedReveal {
		return false
	}
	for _, c := range p.Hand {
		for _, l := range g.state.Board {
			if _, err := g.checkPlacement(p, c.ID, l.ID); err == nil {
				return true
			}
		}
	}
	return false
}

// PlaceAgent sends an agent to a location using a card from hand. The
// location effect runs first, then the card's agent effect, then troop
// deployment on combat locations.
func (g *Game) PlaceAgent(pid int, cardID, locationID string, preset Preset) error {
	return g.transact(func() error {
		p, err := g.checkTurn(pid)
		if err != nil {
			return err
		}
		pl, err := g.checkPlacement(p, cardID, locationID)
		if err != nil {
			return err
		}

		if err := p.Resources.Spend(pl.cost); err != nil {
			return fmt.Errorf("%w: %w", ErrInsufficientResources, err)
		}
		p.Hand, _, _ = takeCard(p.Hand, cardID)
		p.Played = append(p.Played, pl.card)
		p.Agents--
		pl.loc.Occupants = append(pl.loc.Occupants, pid)
		if pl.loc.BonusSpice > 0 {
			p.Resources.Gain(resources.Amounts{resources.Spice: pl.loc.BonusSpice})
			g.logf("%s collects %d bonus spice", p.Name, pl.loc.BonusSpice)
			pl.loc.BonusSpice = 0
		}
		g.logf("%s sends an agent to %s with %s", p.Name, pl.ldef.Name, pl.def.Name)
		ev := rules.NewEvent(rules.EventAgentPlaced, g.state.Turn.Round, pid)
		ev.CardID = cardID
		ev.Location = locationID
		g.publish(ev)

		locCtx := EffectContext{PlayerID: pid, CardID: cardID, LocationID: locationID, Source: decision.SourceLocation, Preset: preset}
		cardCtx := locCtx
		cardCtx.Source = decision.SourceAgent

		steps := expand(pl.ldef.Effect, locCtx)
		steps = append(steps, expand(pl.def.Agent, cardCtx)...)
		if pl.ldef.Combat {
			steps = append(steps, Step{Kind: StepTroopDeployment, Context: locCtx})
		}
		g.run(steps)
		return nil
	})
}

// RevealHand reveals the named hand cards, or the whole hand when cardIDs
// is empty, and applies their reveal effects. Revealing before every agent
// is placed is allowed only when no placement is possible; the remaining
// agents sit out the round.
func (g *Game) RevealHand(pid int, cardIDs []string) error {
	return g.transact(func() error {
		p, err := g.checkTurn(pid)
		if err != nil {
			return err
		}
		if p.HasPassedReveal {
			return fmt.Errorf("%w: hand already revealed", ErrIllegalTurn)
		}
		if p.Agents > 0 {
			if g.canPlaceAnywhere(p) {
				return fmt.Errorf("%w: %d agents left to place", ErrIllegalTurn, p.Agents)
			}
			g.logf("%s cannot place and leaves %d agents unused", p.Name, p.Agents)
		}

		var cards []Card
		if len(cardIDs) == 0 {
			cards, p.Hand = p.Hand, nil
		} else {
			for _, id := range cardIDs {
				var c Card
				var ok bool
				p.Hand, c, ok = takeCard(p.Hand, id)
				if !ok {
					return fmt.Errorf("%w: %s not in hand", ErrCardNotFound, id)
				}
				cards = append(cards, c)
			}
		}
		p.Revealed = append(p.Revealed, cards...)
		p.HasPassedReveal = true

		var steps []Step
		for _, c := range cards {
			ctx := EffectContext{PlayerID: pid, CardID: c.ID, Source: decision.SourceReveal}
			steps = append(steps, expand(g.def(c).Reveal, ctx)...)
		}
		g.run(steps)
		if p.Resources.Swords > 0 {
			g.state.addParticipant(pid)
		}

		g.logf("%s reveals %d cards: %d persuasion, %d swords", p.Name, len(cards), p.Resources.Persuasion, p.Resources.Swords)
		g.publish(rules.NewEventWithAmount(rules.EventHandRevealed, g.state.Turn.Round, pid, len(cards)))
		return nil
	})
}

// PurchaseCard buys a card from the imperium row with persuasion.
func (g *Game) PurchaseCard(pid int, cardID string) error {
	return g.transact(func() error {
		p, err := g.checkTurn(pid)
		if err != nil {
			return err
		}
		if !p.HasPassedReveal {
			return fmt.Errorf("%w: reveal before buying", ErrIllegalTurn)
		}
		i := indexOf(g.state.ImperiumRow, cardID)
		if i < 0 {
			return fmt.Errorf("%w: %s not in the imperium row", ErrCardNotFound, cardID)
		}
		card := g.state.ImperiumRow[i]
		def := g.def(card)
		if err := p.Resources.Spend(resources.Amounts{resources.Persuasion: def.Cost}); err != nil {
			return fmt.Errorf("%w: %s costs %d persuasion: %w", ErrInsufficientResources, def.Name, def.Cost, err)
		}
		g.state.ImperiumRow, _ = removeAt(g.state.ImperiumRow, i)
		p.Discard = append(p.Discard, card)
		g.refillRow()

		g.logf("%s acquires %s", p.Name, def.Name)
		ev := rules.NewEventWithAmount(rules.EventCardAcquired, g.state.Turn.Round, pid, def.Cost)
		ev.CardID = cardID
		g.publish(ev)
		if hook, ok := g.leader(pid).(AcquireHook); ok {
			hook.OnAcquire(g, pid, def)
		}
		return nil
	})
}

// CommitTroops moves n garrison troops into the conflict.
func (g *Game) CommitTroops(pid, n int) error {
	return g.transact(func() error {
		p, err := g.checkTurn(pid)
		if err != nil {
			return err
		}
		if !p.HasPassedReveal {
			return fmt.Errorf("%w: reveal before committing troops", ErrIllegalTurn)
		}
		if n < 1 || n > p.Garrison {
			return fmt.Errorf("%w: commit between 1 and %d troops", ErrInvalidTarget, p.Garrison)
		}
		g.deploy(p, n)
		return nil
	})
}

// PlayIntrigue plays an intrigue card. Endgame intrigues are kept until
// final scoring.
func (g *Game) PlayIntrigue(pid int, cardID string, preset Preset) error {
	return g.transact(func() error {
		p, err := g.checkTurn(pid)
		if err != nil {
			return err
		}
		var card Card
		var ok bool
		p.Intrigue, card, ok = takeCard(p.Intrigue, cardID)
		if !ok {
			return fmt.Errorf("%w: %s not in intrigue hand", ErrCardNotFound, cardID)
		}
		def := g.def(card)
		ev := rules.NewEvent(rules.EventIntriguePlayed, g.state.Turn.Round, pid)
		ev.CardID = cardID
		g.publish(ev)

		if def.IsEndgame() {
			p.Endgame = append(p.Endgame, card)
			g.logf("%s keeps %s for the end of the game", p.Name, def.Name)
			return nil
		}
		g.state.IntrigueDiscard = append(g.state.IntrigueDiscard, card)
		g.logf("%s plays %s", p.Name, def.Name)
		g.apply(def.Play, EffectContext{PlayerID: pid, CardID: cardID, Source: decision.SourceIntrigue, Preset: preset})
		return nil
	})
}

// EndTurn passes the turn. When every player has revealed, the round ends: combat, maker and recall run, then the next
// round starts or the game ends.
func (g *Game) EndTurn(pid int) error {
	return g.transact(func() error {
		p, err := g.checkTurn(pid)
		if err != nil {
			return err
		}
		if !p.HasPassedReveal {
			return fmt.Errorf("%w: reveal before ending the turn", ErrIllegalTurn)
		}
		g.logger.Debug("turn ended", zap.Int("player_id", pid), zap.Int("round", g.state.Turn.Round))
		g.advance()
		return nil
	})
}

// advance moves the turn to the next player with something left to do, or
// ends the round.
func (g *Game) advance() {
	s := g.state
	if s.Turn.Advance(func(seat int) bool { return s.Players[seat].Done() }) {
		g.beginTurn(s.Turn.Current)
		return
	}
	g.endRound()
}

func (g *Game) beginTurn(pid int) {
	p := g.state.Players[pid]
	g.publish(rules.NewEvent(rules.EventTurnStarted, g.state.Turn.Round, pid))
	if p.TurnStarted {
		return
	}
	p.TurnStarted = true
	if hook, ok := g.leader(pid).(TurnStartHook); ok {
		hook.OnTurnStart(g, pid)
	}
}
