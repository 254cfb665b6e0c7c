package catalog

import (
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
)

// Faction identifies one of the four influence tracks.
type Faction string

const (
	Emperor      Faction = "emperor"
	SpacingGuild Faction = "spacingGuild"
	BeneGesserit Faction = "beneGesserit"
	Fremen       Faction = "fremen"
)

// Factions lists every faction in board order.
var Factions = []Faction{Emperor, SpacingGuild, BeneGesserit, Fremen}

// Valid reports whether f is a known faction.
func (f Faction) Valid() bool {
	switch f {
	case Emperor, SpacingGuild, BeneGesserit, Fremen:
		return true
	default:
		return false
	}
}

// Icon is the agent icon printed on cards and board locations. A card may
// only send an agent to a location whose icon it carries.
type Icon string

const (
	IconEmperor      Icon = "emperor"
	IconSpacingGuild Icon = "spacingGuild"
	IconBeneGesserit Icon = "beneGesserit"
	IconFremen       Icon = "fremen"
	IconLandsraad    Icon = "landsraad"
	IconCHOAM        Icon = "choam"
	IconCity         Icon = "city"
	IconSpice        Icon = "spice"
	IconAny          Icon = "any"
)

// CardType tags where a card definition belongs.
type CardType string

const (
	TypeStarter  CardType = "starter"
	TypeImperium CardType = "imperium"
	TypeIntrigue CardType = "intrigue"
)

// TagTech marks cards that trigger acquire bonuses for some leaders.
const TagTech = "tech"

// Recruit moves fresh troops to the garrison or straight into the conflict.
type Recruit struct {
	Count      int  `yaml:"count" json:"count"`
	ToConflict bool `yaml:"toConflict" json:"to_conflict,omitempty"`
}

// InfluenceGain is a signed influence change with one faction.
type InfluenceGain struct {
	Faction Faction `yaml:"faction" json:"faction"`
	Amount  int     `yaml:"amount" json:"amount"`
}

// OptionalCost is a cost/benefit pair the player may accept or decline.
type OptionalCost struct {
	Cost    resources.Amounts `yaml:"cost" json:"cost"`
	Benefit Effect            `yaml:"benefit" json:"benefit"`
}

// Effect is a declarative effect descriptor. Primitive fields apply first,
// then OptionalCost, then the Custom handler.
type Effect struct {
	Resources          resources.Amounts `yaml:"resources,omitempty" json:"resources,omitempty"`
	Persuasion         int               `yaml:"persuasion,omitempty" json:"persuasion,omitempty"`
	Swords             int               `yaml:"swords,omitempty" json:"swords,omitempty"`
	Draw               int               `yaml:"draw,omitempty" json:"draw,omitempty"`
	DrawIntrigue       int               `yaml:"drawIntrigue,omitempty" json:"draw_intrigue,omitempty"`
	Recruit            *Recruit          `yaml:"recruit,omitempty" json:"recruit,omitempty"`
	DeployFromGarrison int               `yaml:"deployFromGarrison,omitempty" json:"deploy_from_garrison,omitempty"`
	Influence          []InfluenceGain   `yaml:"influence,omitempty" json:"influence,omitempty"`
	VP                 int               `yaml:"vp,omitempty" json:"vp,omitempty"`
	OptionalCost       *OptionalCost     `yaml:"optionalCost,omitempty" json:"optional_cost,omitempty"`
	Custom             string            `yaml:"custom,omitempty" json:"custom,omitempty"`
}

// HasPrimitives reports whether any flat delta is present.
func (e Effect) HasPrimitives() bool {
	return !e.Resources.IsZero() ||
		e.Persuasion != 0 ||
		e.Swords != 0 ||
		e.Draw > 0 ||
		e.DrawIntrigue > 0 ||
		(e.Recruit != nil && e.Recruit.Count > 0) ||
		e.DeployFromGarrison > 0 ||
		len(e.Influence) > 0 ||
		e.VP != 0
}

// PrimitiveOnly reports whether the effect can be applied without any
// player input.
func (e Effect) PrimitiveOnly() bool {
	return e.OptionalCost == nil && e.Custom == ""
}

// IsZero reports whether the effect does nothing.
func (e Effect) IsZero() bool {
	return !e.HasPrimitives() && e.PrimitiveOnly()
}

// EndgameCondition names a final-scoring test.
type EndgameCondition string

const (
	ConditionMostSpice    EndgameCondition = "most_spice"
	ConditionTwoAlliances EndgameCondition = "two_alliances"
)

// EndgameBonus awards VP at game end when Condition holds.
type EndgameBonus struct {
	Condition EndgameCondition `yaml:"condition" json:"condition"`
	VP        int              `yaml:"vp" json:"vp"`
}

// CardDef is the immutable definition of a card.
type CardDef struct {
	ID        string        `yaml:"id" json:"id"`
	Name      string        `yaml:"name" json:"name"`
	Type      CardType      `yaml:"type" json:"type"`
	Cost      int           `yaml:"cost,omitempty" json:"cost,omitempty"`
	Copies    int           `yaml:"copies,omitempty" json:"-"`
	Icons     []Icon        `yaml:"icons,omitempty" json:"icons,omitempty"`
	Tags      []string      `yaml:"tags,omitempty" json:"tags,omitempty"`
	GuildSeal bool          `yaml:"guildSeal,omitempty" json:"guild_seal,omitempty"`
	Text      string        `yaml:"text,omitempty" json:"text,omitempty"`
	Agent     Effect        `yaml:"agent,omitempty" json:"agent"`
	Reveal    Effect        `yaml:"reveal,omitempty" json:"reveal"`
	Play      Effect        `yaml:"play,omitempty" json:"play"`
	Endgame   *EndgameBonus `yaml:"endgame,omitempty" json:"endgame,omitempty"`
}

// HasIcon reports whether the card can be sent to a location with icon i.
func (c *CardDef) HasIcon(i Icon) bool {
	for _, own := range c.Icons {
		if own == i || own == IconAny {
			return true
		}
	}
	return false
}

// HasTag reports whether the card carries tag.
func (c *CardDef) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsEndgame reports whether the card is held until final scoring.
func (c *CardDef) IsEndgame() bool {
	return c.Endgame != nil
}

// LocationDef is a board space.
type LocationDef struct {
	ID             string            `yaml:"id" json:"id"`
	Name           string            `yaml:"name" json:"name"`
	Faction        Faction           `yaml:"faction,omitempty" json:"faction,omitempty"`
	Icon           Icon              `yaml:"icon" json:"icon"`
	Capacity       int               `yaml:"capacity" json:"capacity"`
	Cost           resources.Amounts `yaml:"cost,omitempty" json:"cost,omitempty"`
	SealWaivesCost bool              `yaml:"sealWaivesCost,omitempty" json:"seal_waives_cost,omitempty"`
	Desert         bool              `yaml:"desert,omitempty" json:"desert,omitempty"`
	Combat         bool              `yaml:"combat,omitempty" json:"combat,omitempty"`
	MakerSpice     int               `yaml:"makerSpice,omitempty" json:"maker_spice,omitempty"`
	Effect         Effect            `yaml:"effect" json:"effect"`
}

// ConflictDef is a conflict card with rank-indexed reward tiers.
type ConflictDef struct {
	ID      string   `yaml:"id" json:"id"`
	Name    string   `yaml:"name" json:"name"`
	Level   int      `yaml:"level" json:"level"`
	Rewards []Effect `yaml:"rewards" json:"rewards"`
}

// LeaderDef describes a leader; its behaviour is registered separately by id.
type LeaderDef struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	House   string `yaml:"house,omitempty" json:"house,omitempty"`
	Ability string `yaml:"ability,omitempty" json:"ability,omitempty"`
	Signet  string `yaml:"signet,omitempty" json:"signet,omitempty"`
}
