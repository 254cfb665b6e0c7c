package game

import (
	"fmt"

	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// ActionType names a player command.
type ActionType string

const (
	ActionPlaceAgent      ActionType = "PLACE_AGENT"
	ActionRevealHand      ActionType = "REVEAL_HAND"
	ActionPurchaseCard    ActionType = "PURCHASE_CARD"
	ActionCommitTroops    ActionType = "COMMIT_TROOPS"
	ActionPlayIntrigue    ActionType = "PLAY_INTRIGUE"
	ActionEndTurn         ActionType = "END_TURN"
	ActionResolveDecision ActionType = "RESOLVE_DECISION"
)

// Action is a serialisable player command. Only the fields its Type reads
// are inspected.
type Action struct {
	Type       ActionType      `json:"type"`
	CardID     string          `json:"card_id,omitempty"`
	LocationID string          `json:"location_id,omitempty"`
	CardIDs    []string        `json:"card_ids,omitempty"`
	Count      int             `json:"count,omitempty"`
	Preset     Preset          `json:"preset,omitempty"`
	Kind       decision.Kind   `json:"kind,omitempty"`
	Answer     decision.Answer `json:"answer,omitempty"`
}

func (a Action) String() string {
	switch a.Type {
	case ActionPlaceAgent:
		return fmt.Sprintf("%s %s@%s", a.Type, a.CardID, a.LocationID)
	case ActionPurchaseCard, ActionPlayIntrigue:
		return fmt.Sprintf("%s %s", a.Type, a.CardID)
	case ActionCommitTroops:
		return fmt.Sprintf("%s %d", a.Type, a.Count)
	case ActionResolveDecision:
		return fmt.Sprintf("%s %s", a.Type, a.Kind)
	default:
		return string(a.Type)
	}
}

// Apply routes an action to its entry point. Failures are returned as
// *ActionError and leave the game unchanged.
func (g *Game) Apply(pid int, a Action) error {
	var err error
	switch a.Type {
	case ActionPlaceAgent:
		err = g.PlaceAgent(pid, a.CardID, a.LocationID, a.Preset)
	case ActionRevealHand:
		err = g.RevealHand(pid, a.CardIDs)
	case ActionPurchaseCard:
		err = g.PurchaseCard(pid, a.CardID)
	case ActionCommitTroops:
		err = g.CommitTroops(pid, a.Count)
	case ActionPlayIntrigue:
		err = g.PlayIntrigue(pid, a.CardID, a.Preset)
	case ActionEndTurn:
		err = g.EndTurn(pid)
	case ActionResolveDecision:
		err = g.Resolve(pid, a.Kind, a.Answer)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
	if err != nil {
		return newActionError(pid, a.Type, err)
	}
	return nil
}

// Actor returns the player who must act next: the owner of a pending
// decision first, otherwise the current player. It reports false once the
// game is over.
func (g *Game) Actor() (int, bool) {
	if g.Over() {
		return -1, false
	}
	s := g.state
	for _, p := range s.Players {
		if p.Pending != nil {
			return p.ID, true
		}
	}
	if s.Turn.Phase != rules.PhasePlayerTurn {
		return -1, false
	}
	return s.Turn.Current, true
}

// LegalActions enumerates every action pid may take right now. It never
// changes the game. Optional costs are listed as explicit accept and decline
// presets, and accepting is only offered when the cost is affordable.
func (g *Game) LegalActions(pid int) []Action {
	s := g.state
	if g.Over() || pid < 0 || pid >= len(s.Players) {
		return nil
	}
	p := s.Players[pid]
	if p.Pending != nil {
		return g.decisionActions(p)
	}
	if _, err := g.checkTurn(pid); err != nil {
		return nil
	}

	var out []Action
	if !p.HasPassedReveal {
		for _, c := range p.Hand {
			for _, loc := range s.Board {
				pl, err := g.checkPlacement(p, c.ID, loc.ID)
				if err != nil {
					continue
				}
				out = append(out, withPresets(p, Action{Type: ActionPlaceAgent, CardID: c.ID, LocationID: loc.ID}, pl)...)
			}
		}
		if p.Agents == 0 || !g.canPlaceAnywhere(p) {
			out = append(out, Action{Type: ActionRevealHand})
		}
	} else {
		for _, c := range s.ImperiumRow {
			if g.def(c).Cost <= p.Resources.Persuasion {
				out = append(out, Action{Type: ActionPurchaseCard, CardID: c.ID})
			}
		}
		for n := 1; n <= p.Garrison; n++ {
			out = append(out, Action{Type: ActionCommitTroops, Count: n})
		}
		out = append(out, Action{Type: ActionEndTurn})
	}
	for _, c := range p.Intrigue {
		def := g.def(c)
		a := Action{Type: ActionPlayIntrigue, CardID: c.ID}
		if def.Play.OptionalCost == nil {
			out = append(out, a)
			continue
		}
		a.Preset.OptionalCost = ChoiceDecline
		out = append(out, a)
		if p.Resources.CanAfford(def.Play.OptionalCost.Cost) {
			a.Preset.OptionalCost = ChoiceAccept
			out = append(out, a)
		}
	}
	return out
}

// withPresets expands a placement into decline/accept variants when the
// location or the card's agent effect carries an optional cost.
func withPresets(p *Player, a Action, pl placement) []Action {
	oc := pl.ldef.Effect.OptionalCost
	if oc == nil {
		oc = pl.def.Agent.OptionalCost
	}
	if oc == nil {
		return []Action{a}
	}
	decline := a
	decline.Preset.OptionalCost = ChoiceDecline
	out := []Action{decline}
	if p.Resources.CanAfford(pl.cost.Plus(oc.Cost)) {
		accept := a
		accept.Preset.OptionalCost = ChoiceAccept
		out = append(out, accept)
	}
	return out
}

func (g *Game) decisionActions(p *Player) []Action {
	pd := p.Pending
	var out []Action
	for _, ans := range decision.Answers(pd.Payload) {
		if !g.answerAffordable(p, pd.Payload, ans) {
			continue
		}
		out = append(out, Action{Type: ActionResolveDecision, Kind: pd.Kind(), Answer: ans})
	}
	return out
}

func (g *Game) answerAffordable(p *Player, payload decision.Payload, a decision.Answer) bool {
	if !a.Accept {
		return true
	}
	switch d := payload.(type) {
	case *decision.OptionalCost:
		return p.Resources.CanAfford(d.Cost)
	case *decision.Signet:
		return p.Resources.CanAfford(d.Cost)
	}
	return true
}
