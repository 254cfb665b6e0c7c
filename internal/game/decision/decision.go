// Package decision defines the typed payloads the engine attaches to a player
// when it needs input before an effect can continue.
package decision

import (
	"encoding/gob"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
)

// Kind names a decision type. Each kind has exactly one payload shape.
type Kind string

const (
	KindOptionalCost          Kind = "optionalCost"
	KindSelectPlayerTarget    Kind = "selectPlayerTarget"
	KindSelectCardFromZone    Kind = "selectCardFromPlayerZone"
	KindSelectCardToTrash     Kind = "selectCardToTrash"
	KindSelectCardsToTrash    Kind = "selectCardsToTrash"
	KindSelectAgentLocation   Kind = "selectAgentLocation"
	KindTroopDeployment       Kind = "troopDeployment"
	KindSardaukarDeployChoice Kind = "sardaukarDeployChoice"
	KindFactionChoice         Kind = "factionChoice"
	KindResourceChoice        Kind = "resourceChoice"
	KindTheVoiceChoice        Kind = "theVoiceChoice"
	KindPenaltyChoice         Kind = "penaltyChoice"
	KindInitialInfluence      Kind = "baronInitialInfluence"
	KindSignetChoice          Kind = "signetChoice"
	KindTopCard               Kind = "paulTopCard"
)

// Kinds lists every decision kind.
var Kinds = []Kind{
	KindOptionalCost, KindSelectPlayerTarget, KindSelectCardFromZone,
	KindSelectCardToTrash, KindSelectCardsToTrash, KindSelectAgentLocation,
	KindTroopDeployment, KindSardaukarDeployChoice, KindFactionChoice,
	KindResourceChoice, KindTheVoiceChoice, KindPenaltyChoice,
	KindInitialInfluence, KindSignetChoice, KindTopCard,
}

// Source says which part of a card or the board produced the decision.
type Source string

const (
	SourceAgent    Source = "agent"
	SourceReveal   Source = "reveal"
	SourceIntrigue Source = "intrigue"
	SourceLocation Source = "location"
	SourceSignet   Source = "signet"
	SourceLeader   Source = "leader"
	SourceConflict Source = "conflict"
)

// Zone is a player-owned card zone.
type Zone string

const (
	ZoneHand    Zone = "hand"
	ZoneDiscard Zone = "discard"
	ZoneDeck    Zone = "deck"
)

// CardRef identifies a card instance in one of a player's zones.
type CardRef struct {
	Zone   Zone   `json:"zone"`
	CardID string `json:"card_id"`
}

// Origin ties a decision to the card (or location) and effect that raised it.
type Origin struct {
	CardID string `json:"card_id,omitempty"`
	Source Source `json:"source,omitempty"`
	Effect string `json:"effect,omitempty"`
}

// Payload is implemented only by the structs in this package.
type Payload interface {
	Kind() Kind
	From() Origin
	sealed()
}

func (o Origin) From() Origin { return o }
func (Origin) sealed() {}

// Option names used by choice payloads.
const (
	OptionSolari      = "solari"
	OptionRemoveTroop = "removeTroop"
	OptionPay         = "pay"
	OptionLoseTroop   = "loseTroop"
	OptionDiscard     = "discard"
	OptionLoseSpice   = "loseSpice"
)

// OptionalCost asks whether to pay Cost for Benefit.
type OptionalCost struct {
	Origin
	Cost    resources.Amounts `json:"cost"`
	Benefit catalog.Effect    `json:"benefit"`
}

// PlayerTarget asks the owner to pick an opponent.
type PlayerTarget struct {
	Origin
	ValidTargets []int `json:"valid_targets"`
}

// CardFromZone asks the owner to pick a card from another player's zone.
type CardFromZone struct {
	Origin
	TargetPlayer int      `json:"target_player"`
	Zone         Zone     `json:"zone"`
	ValidCards   []string `json:"valid_cards"`
}

// TrashCard asks for a single card to trash, then draws DrawAfter cards.
type TrashCard struct {
	Origin
	Optional  bool      `json:"optional"`
	DrawAfter int       `json:"draw_after"`
	Valid     []CardRef `json:"valid"`
}

// TrashCards asks for up to MaxCards distinct cards to trash.
type TrashCards struct {
	Origin
	MaxCards int       `json:"max_cards"`
	Valid    []CardRef `json:"valid"`
}

// AgentLocation asks for one of the owner's occupied locations.
type AgentLocation struct {
	Origin
	ValidLocations []string `json:"valid_locations"`
}

// TroopDeployment asks how many garrison troops join the conflict after
// placing on a combat location.
type TroopDeployment struct {
	Origin
	LocationID string `json:"location_id"`
	Max        int    `json:"max"`
}

// SardaukarDeploy asks how many garrison troops a card moves to the conflict.
type SardaukarDeploy struct {
	Origin
	Max int `json:"max"`
}

// FactionChoice asks for a faction to gain Amount influence with.
type FactionChoice struct {
	Origin
	ValidFactions []catalog.Faction `json:"valid_factions"`
	Amount        int               `json:"amount"`
}

// ResourceOption is one named alternative of a ResourceChoice.
type ResourceOption struct {
	Name string            `json:"name"`
	Gain resources.Amounts `json:"gain"`
}

// ResourceChoice asks for one of several resource gains.
type ResourceChoice struct {
	Origin
	Options []ResourceOption `json:"options"`
}

// TheVoice asks for either Solari or a garrison troop removal from a target.
type TheVoice struct {
	Origin
	Solari       int   `json:"solari"`
	ValidTargets []int `json:"valid_targets"`
}

// Penalty is owned by the target of an effect, who picks which penalty to take.
type Penalty struct {
	Origin
	Caster  int      `json:"caster"`
	Options []string `json:"options"`
}

// InitialInfluence asks for Count distinct factions at setup.
type InitialInfluence struct {
	Origin
	Count         int               `json:"count"`
	ValidFactions []catalog.Faction `json:"valid_factions"`
}

// Signet asks whether to use a leader signet that has a cost. When
// ValidFactions is set an accepted signet also needs a faction.
type Signet struct {
	Origin
	LeaderID        string            `json:"leader_id"`
	Cost            resources.Amounts `json:"cost"`
	Benefit         catalog.Effect    `json:"benefit"`
	ValidFactions   []catalog.Faction `json:"valid_factions,omitempty"`
	InfluenceAmount int               `json:"influence_amount,omitempty"`
}

// TopCard asks whether to keep the top card of the deck (Origin.CardID) or
// move it to the bottom.
type TopCard struct {
	Origin
}

func (*OptionalCost) Kind() Kind { return KindOptionalCost }
func (*PlayerTarget) Kind() Kind { return KindSelectPlayerTarget }
func (*CardFromZone) Kind() Kind { return KindSelectCardFromZone }
func (*TrashCard) Kind() Kind { return KindSelectCardToTrash }
func (*TrashCards) Kind() Kind { return KindSelectCardsToTrash }
func (*AgentLocation) Kind() Kind { return KindSelectAgentLocation }
func (*TroopDeployment) Kind() Kind { return KindTroopDeployment }
func (*SardaukarDeploy) Kind() Kind { return KindSardaukarDeployChoice }
func (*FactionChoice) Kind() Kind { return KindFactionChoice }
func (*ResourceChoice) Kind() Kind { return KindResourceChoice }
func (*TheVoice) Kind() Kind { return KindTheVoiceChoice }
func (*Penalty) Kind() Kind { return KindPenaltyChoice }
func (*InitialInfluence) Kind() Kind { return KindInitialInfluence }
func (*Signet) Kind() Kind { return KindSignetChoice }
func (*TopCard) Kind() Kind { return KindTopCard }

// Answer carries a player's response. Only the fields the pending kind reads
// are inspected.
type Answer struct {
	CardID     string            `json:"card_id,omitempty"`
	LocationID string            `json:"location_id,omitempty"`
	Source     Source            `json:"source,omitempty"`
	Accept     bool              `json:"accept,omitempty"`
	Target     int               `json:"target,omitempty"`
	Selected   []CardRef         `json:"selected,omitempty"`
	Factions   []catalog.Faction `json:"factions,omitempty"`
	Count      int               `json:"count,omitempty"`
	Option     string            `json:"option,omitempty"`
}

func init() {
	gob.Register(&OptionalCost{})
	gob.Register(&PlayerTarget{})
	gob.Register(&CardFromZone{})
	gob.Register(&TrashCard{})
	gob.Register(&TrashCards{})
	gob.Register(&AgentLocation{})
	gob.Register(&TroopDeployment{})
	gob.Register(&SardaukarDeploy{})
	gob.Register(&FactionChoice{})
	gob.Register(&ResourceChoice{})
	gob.Register(&TheVoice{})
	gob.Register(&Penalty{})
	gob.Register(&InitialInfluence{})
	gob.Register(&Signet{})
	gob.Register(&TopCard{})
}
