package game

import (
	"fmt"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/influence"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

// Card is one card instance. Instance ids are unique within a game.
type Card struct {
	ID    string `json:"id"`
	DefID string `json:"def_id"`
}

// Player is the per-seat state.
type Player struct {
	ID        int
	Name      string
	Leader    string
	Resources resources.Ledger

	Hand     []Card
	Deck     []Card
	Discard  []Card
	Intrigue []Card
	Played   []Card
	Revealed []Card
	Endgame  []Card
	Trashed  int

	Influence map[catalog.Faction]int
	Garrison  int
	Units     int
	VP        int

	Agents          int
	HasPassedReveal bool
	TurnStarted     bool

	Pending *PendingDecision
}

// Done reports whether the player has nothing left to do this round. Agents
// cannot be placed after the reveal, so any still in the supply sit out.
func (p *Player) Done() bool {
	return p.HasPassedReveal
}

// LocationState is the runtime state of a board location.
type LocationState struct {
	ID         string
	Occupants  []int
	BonusSpice int
	Protected  []int
}

func (l *LocationState) occupiedBy(pid int) bool {
	for _, o := range l.Occupants {
		if o == pid {
			return true
		}
	}
	return false
}

// Choice is a pre-resolved answer to an optional cost.
type Choice string

const (
	ChoiceAsk     Choice = ""
	ChoiceAccept  Choice = "accept"
	ChoiceDecline Choice = "decline"
)

// Preset carries answers given up front with an action, so automated
// players need not go through the decision protocol.
type Preset struct {
	OptionalCost Choice `json:"optional_cost,omitempty"`
}

// EffectContext says who is resolving an effect and where it came from.
type EffectContext struct {
	PlayerID   int
	CardID     string
	LocationID string
	Source     decision.Source
	Preset     Preset
}

func (c EffectContext) origin(effect string) decision.Origin {
	return decision.Origin{CardID: c.CardID, Source: c.Source, Effect: effect}
}

// StepKind tags an interpreter step.
type StepKind int

const (
	StepDirect StepKind = iota
	StepOptionalCost
	StepCustom
	StepTroopDeployment
)

func (k StepKind) String() string {
	switch k {
	case StepDirect:
		return "direct"
	case StepOptionalCost:
		return "optional_cost"
	case StepCustom:
		return "custom"
	case StepTroopDeployment:
		return "troop_deployment"
	default:
		return fmt.Sprintf("step(%d)", int(k))
	}
}

// Step is one unit of pending interpreter work. Steps are plain data so a
// suspended effect can be stored and resumed later.
type Step struct {
	Kind    StepKind
	Effect  catalog.Effect
	Context EffectContext
}

// PendingDecision is a suspended effect waiting for its owner's answer.
// Rest holds the steps that run once it is resolved.
type PendingDecision struct {
	ID      string
	Owner   int
	Context EffectContext
	Payload decision.Payload
	Rest    []Step
}

// Kind returns the payload kind.
func (pd *PendingDecision) Kind() decision.Kind {
	return pd.Payload.Kind()
}

// State is the complete, serialisable game state.
type State struct {
	GameID  string
	Rules   Rules
	Players []*Player
	Board   []*LocationState

	ImperiumDeck    []Card
	ImperiumRow     []Card
	IntrigueDeck    []Card
	IntrigueDiscard []Card

	ConflictDeck []string
	Conflict     string
	Participants []int

	Alliances map[catalog.Faction]int
	Turn      rules.Turn

	EndTriggered bool
	EndReason    string

	RNG         []byte
	DecisionSeq int
	CardSeq     int

	Log    []string
	Result *scoring.Result
}

// normalize restores the empty maps gob leaves nil.
func (s *State) normalize() {
	if s.Alliances == nil {
		s.Alliances = make(map[catalog.Faction]int, len(catalog.Factions))
	}
	for _, f := range catalog.Factions {
		if _, ok := s.Alliances[f]; !ok {
			s.Alliances[f] = influence.NoHolder
		}
	}
	for _, p := range s.Players {
		if p.Influence == nil {
			p.Influence = make(map[catalog.Faction]int, len(catalog.Factions))
		}
	}
}

func (s *State) player(pid int) (*Player, error) {
	if pid < 0 || pid >= len(s.Players) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPlayer, pid)
	}
	return s.Players[pid], nil
}

func (s *State) location(id string) *LocationState {
	for _, l := range s.Board {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *State) pendingAnywhere() bool {
	for _, p := range s.Players {
		if p.Pending != nil {
			return true
		}
	}
	return false
}

func (s *State) isParticipant(pid int) bool {
	for _, p := range s.Participants {
		if p == pid {
			return true
		}
	}
	return false
}

func (s *State) addParticipant(pid int) {
	if !s.isParticipant(pid) {
		s.Participants = append(s.Participants, pid)
	}
}

func indexOf(cards []Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func removeAt(cards []Card, i int) ([]Card, Card) {
	c := cards[i]
	return append(cards[:i:i], cards[i+1:]...), c
}

// takeCard removes the card with id from cards.
func takeCard(cards []Card, id string) ([]Card, Card, bool) {
	i := indexOf(cards, id)
	if i < 0 {
		return cards, Card{}, false
	}
	rest, c := removeAt(cards, i)
	return rest, c, true
}
