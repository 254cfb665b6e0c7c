package game

import (
	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

// GameView is a read-only snapshot of a game for clients and policies.
// Slices and maps are copied; pending payloads are shared and must not be
// modified.
type GameView struct {
	GameID        string                  `json:"game_id"`
	Phase         string                  `json:"phase"`
	Round         int                     `json:"round"`
	FirstPlayer   int                     `json:"first_player"`
	Current       int                     `json:"current_player"`
	Players       []PlayerView            `json:"players"`
	Board         []LocationView          `json:"board"`
	ImperiumRow   []CardView              `json:"imperium_row"`
	Conflict      *catalog.ConflictDef    `json:"conflict,omitempty"`
	ConflictsLeft int                     `json:"conflicts_left"`
	Participants  []int                   `json:"participants,omitempty"`
	Alliances     map[catalog.Faction]int `json:"alliances"`
	EndTriggered  bool                    `json:"end_triggered"`
	EndReason     string                  `json:"end_reason,omitempty"`
	Log           []string                `json:"log"`
	Result        *scoring.Result         `json:"result,omitempty"`
}

// PlayerView is one seat in a GameView. Deck order is hidden; only its size
// is shown.
type PlayerView struct {
	ID              int                     `json:"id"`
	Name            string                  `json:"name"`
	Leader          string                  `json:"leader"`
	Resources       resources.Amounts       `json:"resources"`
	Hand            []CardView              `json:"hand"`
	Intrigue        []CardView              `json:"intrigue"`
	Played          []CardView              `json:"played"`
	Revealed        []CardView              `json:"revealed"`
	Endgame         []CardView              `json:"endgame,omitempty"`
	DeckSize        int                     `json:"deck_size"`
	DiscardSize     int                     `json:"discard_size"`
	Trashed         int                     `json:"trashed"`
	Influence       map[catalog.Faction]int `json:"influence"`
	Garrison        int                     `json:"garrison"`
	Units           int                     `json:"units"`
	VP              int                     `json:"vp"`
	Agents          int                     `json:"agents"`
	HasPassedReveal bool                    `json:"has_passed_reveal"`
	Pending         *DecisionView           `json:"pending,omitempty"`
}

// CardView pairs a card instance with its printed data.
type CardView struct {
	ID    string           `json:"id"`
	DefID string           `json:"def_id"`
	Name  string           `json:"name"`
	Type  catalog.CardType `json:"type"`
	Cost  int              `json:"cost,omitempty"`
	Icons []catalog.Icon   `json:"icons,omitempty"`
	Text  string           `json:"text,omitempty"`
}

// DecisionView describes a pending decision.
type DecisionView struct {
	ID      string           `json:"id"`
	Kind    decision.Kind    `json:"kind"`
	Payload decision.Payload `json:"payload"`
}

// LocationView is one board location.
type LocationView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Faction    catalog.Faction   `json:"faction,omitempty"`
	Icon       catalog.Icon      `json:"icon"`
	Capacity   int               `json:"capacity"`
	Cost       resources.Amounts `json:"cost,omitempty"`
	Occupants  []int             `json:"occupants"`
	BonusSpice int               `json:"bonus_spice,omitempty"`
	Combat     bool              `json:"combat,omitempty"`
	Desert     bool              `json:"desert,omitempty"`
}

// View builds a GameView of the current state.
func (g *Game) View() GameView {
	s := g.state
	v := GameView{
		GameID:        s.GameID,
		Phase:         s.Turn.Phase.String(),
		Round:         s.Turn.Round,
		FirstPlayer:   s.Turn.First,
		Current:       s.Turn.Current,
		ConflictsLeft: len(s.ConflictDeck),
		Participants:  append([]int(nil), s.Participants...),
		Alliances:     make(map[catalog.Faction]int, len(s.Alliances)),
		EndTriggered:  s.EndTriggered,
		EndReason:     s.EndReason,
		Log:           append([]string(nil), s.Log...),
		ImperiumRow:   g.cardViews(s.ImperiumRow),
	}
	for f, h := range s.Alliances {
		v.Alliances[f] = h
	}
	if def, ok := g.catalog.Conflict(s.Conflict); ok {
		c := *def
		v.Conflict = &c
	}
	if s.Result != nil {
		res := *s.Result
		v.Result = &res
	}
	for _, p := range s.Players {
		v.Players = append(v.Players, g.playerView(p))
	}
	for _, loc := range s.Board {
		def := g.locationDef(loc.ID)
		if def == nil {
			continue
		}
		v.Board = append(v.Board, LocationView{
			ID:         loc.ID,
			Name:       def.Name,
			Faction:    def.Faction,
			Icon:       def.Icon,
			Capacity:   def.Capacity,
			Cost:       def.Cost.Clone(),
			Occupants:  append([]int(nil), loc.Occupants...),
			BonusSpice: loc.BonusSpice,
			Combat:     def.Combat,
			Desert:     def.Desert,
		})
	}
	return v
}

func (g *Game) playerView(p *Player) PlayerView {
	pv := PlayerView{
		ID:              p.ID,
		Name:            p.Name,
		Leader:          p.Leader,
		Resources:       p.Resources.Amounts(),
		Hand:            g.cardViews(p.Hand),
		Intrigue:        g.cardViews(p.Intrigue),
		Played:          g.cardViews(p.Played),
		Revealed:        g.cardViews(p.Revealed),
		Endgame:         g.cardViews(p.Endgame),
		DeckSize:        len(p.Deck),
		DiscardSize:     len(p.Discard),
		Trashed:         p.Trashed,
		Influence:       make(map[catalog.Faction]int, len(p.Influence)),
		Garrison:        p.Garrison,
		Units:           p.Units,
		VP:              p.VP,
		Agents:          p.Agents,
		HasPassedReveal: p.HasPassedReveal,
	}
	for f, v := range p.Influence {
		pv.Influence[f] = v
	}
	if p.Pending != nil {
		pv.Pending = &DecisionView{ID: p.Pending.ID, Kind: p.Pending.Kind(), Payload: p.Pending.Payload}
	}
	return pv
}

func (g *Game) cardViews(cards []Card) []CardView {
	out := make([]CardView, 0, len(cards))
	for _, c := range cards {
		def := g.def(c)
		out = append(out, CardView{
			ID:    c.ID,
			DefID: c.DefID,
			Name:  def.Name,
			Type:  def.Type,
			Cost:  def.Cost,
			Icons: append([]catalog.Icon(nil), def.Icons...),
			Text:  def.Text,
		})
	}
	return out
}
