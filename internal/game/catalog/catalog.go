package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Catalog holds every static definition the engine needs at setup.
// A loaded catalog is read-only and may be shared between games.
type Catalog struct {
	StartingDeck []string      `yaml:"startingDeck"`
	Cards        []CardDef     `yaml:"cards"`
	Locations    []LocationDef `yaml:"locations"`
	Conflicts    []ConflictDef `yaml:"conflicts"`
	Leaders      []LeaderDef   `yaml:"leaders"`

	cards     map[string]*CardDef
	locations map[string]*LocationDef
	conflicts map[string]*ConflictDef
	leaders   map[string]*LeaderDef
}

// Default returns the embedded catalog. It is parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(defaultCatalog)
	})
	return defaultCat, defaultErr
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a catalog.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Parse decodes a catalog held in memory.
func Parse(data []byte) (*Catalog, error) {
	return Load(bytes.NewReader(data))
}

func (c *Catalog) index() error {
	c.cards = make(map[string]*CardDef, len(c.Cards))
	for i := range c.Cards {
		def := &c.Cards[i]
		if _, dup := c.cards[def.ID]; dup {
			return fmt.Errorf("duplicate card id %q", def.ID)
		}
		c.cards[def.ID] = def
	}
	c.locations = make(map[string]*LocationDef, len(c.Locations))
	for i := range c.Locations {
		def := &c.Locations[i]
		if _, dup := c.locations[def.ID]; dup {
			return fmt.Errorf("duplicate location id %q", def.ID)
		}
		c.locations[def.ID] = def
	}
	c.conflicts = make(map[string]*ConflictDef, len(c.Conflicts))
	for i := range c.Conflicts {
		def := &c.Conflicts[i]
		if _, dup := c.conflicts[def.ID]; dup {
			return fmt.Errorf("duplicate conflict id %q", def.ID)
		}
		c.conflicts[def.ID] = def
	}
	c.leaders = make(map[string]*LeaderDef, len(c.Leaders))
	for i := range c.Leaders {
		def := &c.Leaders[i]
		if _, dup := c.leaders[def.ID]; dup {
			return fmt.Errorf("duplicate leader id %q", def.ID)
		}
		c.leaders[def.ID] = def
	}
	return nil
}

// Validate checks cross references and the restrictions the engine relies on.
func (c *Catalog) Validate() error {
	var errs []error

	if len(c.StartingDeck) == 0 {
		errs = append(errs, errors.New("starting deck is empty"))
	}
	for _, id := range c.StartingDeck {
		def, ok := c.cards[id]
		if !ok {
			errs = append(errs, fmt.Errorf("starting deck references unknown card %q", id))
			continue
		}
		if def.Type != TypeStarter {
			errs = append(errs, fmt.Errorf("starting deck card %q has type %q", id, def.Type))
		}
	}

	for i := range c.Cards {
		def := &c.Cards[i]
		if def.ID == "" || def.Name == "" {
			errs = append(errs, fmt.Errorf("card %d: id and name are required", i))
		}
		switch def.Type {
		case TypeStarter, TypeImperium:
			if len(def.Icons) == 0 {
				errs = append(errs, fmt.Errorf("card %q has no agent icons", def.ID))
			}
		case TypeIntrigue:
			if def.Endgame != nil && !def.Endgame.Condition.Known() {
				errs = append(errs, fmt.Errorf("card %q has unknown endgame condition %q", def.ID, def.Endgame.Condition))
			}
		default:
			errs = append(errs, fmt.Errorf("card %q has unknown type %q", def.ID, def.Type))
		}
		for _, e := range []Effect{def.Agent, def.Reveal, def.Play} {
			if err := checkEffect(e); err != nil {
				errs = append(errs, fmt.Errorf("card %q: %w", def.ID, err))
			}
		}
	}

	for i := range c.Locations {
		def := &c.Locations[i]
		if def.Capacity < 1 {
			errs = append(errs, fmt.Errorf("location %q: capacity must be at least 1", def.ID))
		}
		if def.Faction != "" && !def.Faction.Valid() {
			errs = append(errs, fmt.Errorf("location %q: unknown faction %q", def.ID, def.Faction))
		}
		if def.Icon == "" {
			errs = append(errs, fmt.Errorf("location %q: icon is required", def.ID))
		}
		if err := checkEffect(def.Effect); err != nil {
			errs = append(errs, fmt.Errorf("location %q: %w", def.ID, err))
		}
	}

	if len(c.Conflicts) == 0 {
		errs = append(errs, errors.New("conflict deck is empty"))
	}
	for i := range c.Conflicts {
		def := &c.Conflicts[i]
		for rank, reward := range def.Rewards {
			if !reward.PrimitiveOnly() {
				errs = append(errs, fmt.Errorf("conflict %q rank %d: rewards must not require decisions", def.ID, rank+1))
			}
			if err := checkEffect(reward); err != nil {
				errs = append(errs, fmt.Errorf("conflict %q rank %d: %w", def.ID, rank+1, err))
			}
		}
	}

	return errors.Join(errs...)
}

func checkEffect(e Effect) error {
	for r := range e.Resources {
		if !r.Valid() {
			return fmt.Errorf("unknown resource %q", r)
		}
	}
	for _, inf := range e.Influence {
		if !inf.Faction.Valid() {
			return fmt.Errorf("unknown faction %q", inf.Faction)
		}
	}
	if e.OptionalCost != nil {
		for r := range e.OptionalCost.Cost {
			if !r.Valid() {
				return fmt.Errorf("unknown resource %q in optional cost", r)
			}
		}
		return checkEffect(e.OptionalCost.Benefit)
	}
	return nil
}

// Known reports whether the engine can evaluate the condition.
func (c EndgameCondition) Known() bool {
	return c == ConditionMostSpice || c == ConditionTwoAlliances
}

// Card looks up a card definition.
func (c *Catalog) Card(id string) (*CardDef, bool) {
	def, ok := c.cards[id]
	return def, ok
}

// Location looks up a board location.
func (c *Catalog) Location(id string) (*LocationDef, bool) {
	def, ok := c.locations[id]
	return def, ok
}

// Conflict looks up a conflict card.
func (c *Catalog) Conflict(id string) (*ConflictDef, bool) {
	def, ok := c.conflicts[id]
	return def, ok
}

// Leader looks up a leader definition.
func (c *Catalog) Leader(id string) (*LeaderDef, bool) {
	def, ok := c.leaders[id]
	return def, ok
}

// CardsOfType returns the definitions of one type in declaration order.
func (c *Catalog) CardsOfType(t CardType) []*CardDef {
	var out []*CardDef
	for i := range c.Cards {
		if c.Cards[i].Type == t {
			out = append(out, &c.Cards[i])
		}
	}
	return out
}

// ConflictLevels returns the conflict cards grouped by level, lowest level first.
func (c *Catalog) ConflictLevels() [][]*ConflictDef {
	byLevel := make(map[int][]*ConflictDef)
	for i := range c.Conflicts {
		def := &c.Conflicts[i]
		byLevel[def.Level] = append(byLevel[def.Level], def)
	}
	levels := make([]int, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	out := make([][]*ConflictDef, 0, len(levels))
	for _, level := range levels {
		out = append(out, byLevel[level])
	}
	return out
}

// LeaderIDs returns leader ids in declaration order.
func (c *Catalog) LeaderIDs() []string {
	ids := make([]string, 0, len(c.Leaders))
	for _, l := range c.Leaders {
		ids = append(ids, l.ID)
	}
	return ids
}
