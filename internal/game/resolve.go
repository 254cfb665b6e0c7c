package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// Resolve answers the pending decision of pid. The answer must address the
// decision (same card, and location for troop deployment) and fit its
// choices; otherwise nothing changes. After the resolution the suspended
// steps continue and may raise the next decision.
func (g *Game) Resolve(pid int, kind decision.Kind, a decision.Answer) error {
	return g.transact(func() error {
		if g.Over() {
			return ErrGameOver
		}
		p, err := g.state.player(pid)
		if err != nil {
			return err
		}
		pd := p.Pending
		if pd == nil {
			return fmt.Errorf("%w: player %d has no pending decision", ErrInvalidDecision, pid)
		}
		if kind != "" && pd.Kind() != kind {
			return fmt.Errorf("%w: pending decision is %s, not %s", ErrInvalidDecision, pd.Kind(), kind)
		}
		if err := decision.Validate(pd.Payload, a); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDecision, err)
		}

		p.Pending = nil
		next, err := g.dispatch(pd, a)
		if err != nil {
			return err
		}

		ev := rules.NewEvent(rules.EventDecisionResolved, g.state.Turn.Round, pid)
		ev.CardID = pd.Payload.From().CardID
		ev.Data = string(pd.Kind())
		g.publish(ev)
		g.logger.Debug("decision resolved",
			zap.Int("player_id", pid),
			zap.String("kind", string(pd.Kind())),
			zap.String("decision_id", pd.ID),
		)

		if next != nil {
			next.Rest = append(next.Rest, pd.Rest...)
		} else {
			g.run(pd.Rest)
		}

		if g.state.Turn.Phase == rules.PhaseSetup && !g.state.pendingAnywhere() {
			g.startRound(1)
		}
		return nil
	})
}

// dispatch applies a validated answer and returns the follow-up decision,
// if the resolution raised one.
func (g *Game) dispatch(pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	p := g.state.Players[pd.Owner]
	ctx := pd.Context

	switch d := pd.Payload.(type) {
	case *decision.OptionalCost:
		if !a.Accept {
			g.logf("%s declines to pay %s", p.Name, d.Cost)
			return nil, nil
		}
		if err := g.Spend(p.ID, d.Cost); err != nil {
			return nil, err
		}
		g.logf("%s pays %s", p.Name, d.Cost)
		return g.apply(d.Benefit, ctx).Decision, nil

	case *decision.TroopDeployment:
		g.deploy(p, a.Count)
		return nil, nil

	case *decision.TopCard:
		if len(p.Deck) == 0 || p.Deck[0].ID != d.CardID {
			return nil, fmt.Errorf("%w: %s is no longer on top of the deck", ErrInvalidDecision, d.CardID)
		}
		if !a.Accept {
			var c Card
			p.Deck, c = removeAt(p.Deck, 0)
			p.Deck = append(p.Deck, c)
			g.logf("%s puts the top card of their deck on the bottom", p.Name)
		}
		return nil, nil

	case *decision.InitialInfluence:
		for _, f := range a.Factions {
			g.gainInfluence(p.ID, f, 1)
		}
		return nil, nil

	case *decision.Signet:
		if !a.Accept {
			return nil, nil
		}
		if err := g.Spend(p.ID, d.Cost); err != nil {
			return nil, err
		}
		if len(a.Factions) == 1 && d.InfluenceAmount != 0 {
			g.gainInfluence(p.ID, a.Factions[0], d.InfluenceAmount)
		}
		return g.apply(d.Benefit, ctx).Decision, nil

	case *decision.PlayerTarget, *decision.CardFromZone, *decision.TrashCard, *decision.TrashCards,
		*decision.AgentLocation, *decision.SardaukarDeploy, *decision.FactionChoice,
		*decision.ResourceChoice, *decision.TheVoice, *decision.Penalty:
		name := d.From().Effect
		ce, ok := g.customs[name]
		if !ok || ce.Resume == nil {
			return nil, fmt.Errorf("%w: no handler resumes effect %q", ErrInvalidDecision, name)
		}
		return ce.Resume(g, pd, a)

	default:
		return nil, fmt.Errorf("%w: unsupported decision %T", ErrInvalidDecision, pd.Payload)
	}
}

// ResolveOptionalCost accepts or declines an optional cost. Accepting needs
// the cost to be affordable.
func (g *Game) ResolveOptionalCost(pid int, cardID string, source decision.Source, accept bool) error {
	return g.Resolve(pid, decision.KindOptionalCost, decision.Answer{CardID: cardID, Source: source, Accept: accept})
}

// SelectPlayerTarget picks the opponent an effect targets.
func (g *Game) SelectPlayerTarget(pid int, cardID string, target int) error {
	return g.Resolve(pid, decision.KindSelectPlayerTarget, decision.Answer{CardID: cardID, Target: target})
}

// SelectCardFromZone picks a card from another player's zone.
func (g *Game) SelectCardFromZone(pid int, cardID string, ref decision.CardRef) error {
	return g.Resolve(pid, decision.KindSelectCardFromZone, decision.Answer{CardID: cardID, Selected: []decision.CardRef{ref}})
}

// ResolveTrashCard trashes one card; a nil ref skips an optional trash.
func (g *Game) ResolveTrashCard(pid int, cardID string, ref *decision.CardRef) error {
	a := decision.Answer{CardID: cardID}
	if ref != nil {
		a.Selected = []decision.CardRef{*ref}
	}
	return g.Resolve(pid, decision.KindSelectCardToTrash, a)
}

// ResolveTrashCards trashes up to the allowed number of cards.
func (g *Game) ResolveTrashCards(pid int, cardID string, refs []decision.CardRef) error {
	return g.Resolve(pid, decision.KindSelectCardsToTrash, decision.Answer{CardID: cardID, Selected: refs})
}

// SelectAgentLocation picks one of the player's occupied locations.
func (g *Game) SelectAgentLocation(pid int, cardID, locationID string) error {
	return g.Resolve(pid, decision.KindSelectAgentLocation, decision.Answer{CardID: cardID, LocationID: locationID})
}

// DeployTroops sends n garrison troops into the conflict after placing an
// agent on a combat location.
func (g *Game) DeployTroops(pid int, locationID string, n int) error {
	return g.Resolve(pid, decision.KindTroopDeployment, decision.Answer{LocationID: locationID, Count: n})
}

// DecideCardDeployment answers a card's optional deployment.
func (g *Game) DecideCardDeployment(pid int, cardID string, n int) error {
	return g.Resolve(pid, decision.KindSardaukarDeployChoice, decision.Answer{CardID: cardID, Count: n})
}

// ChooseFaction picks the faction to gain influence with.
func (g *Game) ChooseFaction(pid int, cardID string, f catalog.Faction) error {
	return g.Resolve(pid, decision.KindFactionChoice, decision.Answer{CardID: cardID, Factions: []catalog.Faction{f}})
}

// ChooseResource picks one option of a resource choice.
func (g *Game) ChooseResource(pid int, cardID, option string) error {
	return g.Resolve(pid, decision.KindResourceChoice, decision.Answer{CardID: cardID, Option: option})
}

// ResolveTheVoice takes the solari or removes a troop from target.
func (g *Game) ResolveTheVoice(pid int, cardID, option string, target int) error {
	return g.Resolve(pid, decision.KindTheVoiceChoice, decision.Answer{CardID: cardID, Option: option, Target: target})
}

// ChoosePenalty is answered by the target of a penalty effect.
func (g *Game) ChoosePenalty(pid int, cardID, option string) error {
	return g.Resolve(pid, decision.KindPenaltyChoice, decision.Answer{CardID: cardID, Option: option})
}

// ChooseInitialInfluence picks the factions of a setup influence ability.
func (g *Game) ChooseInitialInfluence(pid int, factions []catalog.Faction) error {
	return g.Resolve(pid, decision.KindInitialInfluence, decision.Answer{Factions: factions})
}

// ResolveSignet accepts or declines a signet with a cost. faction is only
// read when the signet grants influence.
func (g *Game) ResolveSignet(pid int, cardID string, accept bool, faction catalog.Faction) error {
	a := decision.Answer{CardID: cardID, Accept: accept}
	if accept && faction != "" {
		a.Factions = []catalog.Faction{faction}
	}
	return g.Resolve(pid, decision.KindSignetChoice, a)
}

// ResolveTopCard keeps the top card of the deck or moves it to the bottom.
func (g *Game) ResolveTopCard(pid int, cardID string, keep bool) error {
	a := decision.Answer{CardID: cardID, Accept: keep, Option: decision.OptionBottom}
	if keep {
		a.Option = decision.OptionKeep
	}
	return g.Resolve(pid, decision.KindTopCard, a)
}
