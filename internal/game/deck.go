package game

import (
	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// draw moves up to n cards from the deck to the hand, shuffling the discard
// into a new deck when the deck runs out. It returns how many were drawn;
// with deck and discard both empty the draw comes up short.
func (g *Game) draw(p *Player, n int) int {
	drawn := 0
	for ; drawn < n; drawn++ {
		if len(p.Deck) == 0 {
			if len(p.Discard) == 0 {
				g.logger.Debug(ErrDeckExhausted.Error(), zap.Int("player_id", p.ID), zap.Int("short", n-drawn))
				break
			}
			p.Deck, p.Discard = p.Discard, nil
			shuffle(g.rng, p.Deck)
			g.logf("%s shuffles their discard pile into a new deck", p.Name)
		}
		var c Card
		p.Deck, c = removeAt(p.Deck, 0)
		p.Hand = append(p.Hand, c)
	}
	return drawn
}

func (g *Game) drawIntrigue(p *Player, n int) int {
	s := g.state
	drawn := 0
	for ; drawn < n; drawn++ {
		if len(s.IntrigueDeck) == 0 {
			if len(s.IntrigueDiscard) == 0 {
				break
			}
			s.IntrigueDeck, s.IntrigueDiscard = s.IntrigueDiscard, nil
			shuffle(g.rng, s.IntrigueDeck)
		}
		var c Card
		s.IntrigueDeck, c = removeAt(s.IntrigueDeck, 0)
		p.Intrigue = append(p.Intrigue, c)
	}
	return drawn
}

// refillRow tops the imperium row up from the imperium deck.
func (g *Game) refillRow() {
	s := g.state
	for len(s.ImperiumRow) < s.Rules.ImperiumRowSize && len(s.ImperiumDeck) > 0 {
		var c Card
		s.ImperiumDeck, c = removeAt(s.ImperiumDeck, 0)
		s.ImperiumRow = append(s.ImperiumRow, c)
	}
}

// TopOfDeck returns the top card of a player's deck.
func (g *Game) TopOfDeck(pid int) (Card, bool) {
	p, err := g.state.player(pid)
	if err != nil || len(p.Deck) == 0 {
		return Card{}, false
	}
	return p.Deck[0], true
}

// zone returns a pointer to one of a player's card zones.
func zone(p *Player, z decision.Zone) *[]Card {
	switch z {
	case decision.ZoneHand:
		return &p.Hand
	case decision.ZoneDiscard:
		return &p.Discard
	case decision.ZoneDeck:
		return &p.Deck
	default:
		return nil
	}
}

// trashable lists the cards in hand and discard, hand first.
func trashable(p *Player) []decision.CardRef {
	refs := make([]decision.CardRef, 0, len(p.Hand)+len(p.Discard))
	for _, c := range p.Hand {
		refs = append(refs, decision.CardRef{Zone: decision.ZoneHand, CardID: c.ID})
	}
	for _, c := range p.Discard {
		refs = append(refs, decision.CardRef{Zone: decision.ZoneDiscard, CardID: c.ID})
	}
	return refs
}

// trash removes a card from the game.
func (g *Game) trash(p *Player, ref decision.CardRef) bool {
	cards := zone(p, ref.Zone)
	if cards == nil {
		return false
	}
	rest, c, ok := takeCard(*cards, ref.CardID)
	if !ok {
		return false
	}
	*cards = rest
	p.Trashed++
	g.logf("%s trashes %s", p.Name, g.def(c).Name)
	ev := rules.NewEvent(rules.EventCardTrashed, g.state.Turn.Round, p.ID)
	ev.CardID = c.ID
	g.publish(ev)
	return true
}
