// Package game is the rules engine: game state, the effect interpreter, the
// pending-decision protocol and the round state machine.
package game

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/influence"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// Deps are the shared, read-only collaborators of a game.
type Deps struct {
	Catalog *catalog.Catalog
	Leaders *LeaderRegistry
	Logger  *zap.Logger
}

// PlayerSetup seats one player.
type PlayerSetup struct {
	Name   string `json:"name"`
	Leader string `json:"leader"`
}

// Options configure a new game.
type Options struct {
	GameID  string
	Players []PlayerSetup
	Seed    uint64
	// Rules defaults to DefaultRules when nil.
	Rules *Rules
	Deps
}

// MaxPlayers is the largest table the board supports.
const MaxPlayers = 4

// Game is a single match. It is not safe for concurrent use; Engine
// serialises access per game.
type Game struct {
	state   *State
	catalog *catalog.Catalog
	leaders *LeaderRegistry
	customs map[string]CustomEffect
	rng     *rng
	logger  *zap.Logger
	events  *rules.EventBus
}

// New creates a game, deals the starting cards and runs leader setup. When
// no setup decision is pending the first round starts immediately.
func New(opts Options) (*Game, error) {
	if len(opts.Players) < 1 || len(opts.Players) > MaxPlayers {
		return nil, fmt.Errorf("need 1 to %d players, got %d", MaxPlayers, len(opts.Players))
	}
	cat := opts.Catalog
	if cat == nil {
		var err error
		if cat, err = catalog.Default(); err != nil {
			return nil, err
		}
	}
	r := DefaultRules()
	if opts.Rules != nil {
		r = opts.Rules.withDefaults()
	}
	gameID := opts.GameID
	if gameID == "" {
		gameID = uuid.NewString()
	}

	g := newGame(opts.Deps, cat)
	g.rng = newRNG(opts.Seed)
	g.state = &State{
		GameID: gameID,
		Rules:  r,
		Turn:   rules.NewTurn(len(opts.Players)),
	}
	g.state.normalize()
	g.logger = g.logger.With(zap.String("game_id", gameID))

	for i, ps := range opts.Players {
		if ps.Leader != "" {
			if _, ok := cat.Leader(ps.Leader); !ok {
				return nil, fmt.Errorf("player %d: unknown leader %q", i, ps.Leader)
			}
		}
		name := ps.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		g.state.Players = append(g.state.Players, &Player{
			ID:        i,
			Name:      name,
			Leader:    ps.Leader,
			Resources: resources.NewLedger(r.StartingResources),
			Influence: make(map[catalog.Faction]int, len(catalog.Factions)),
			Garrison:  r.StartingGarrison,
		})
	}

	if err := g.setup(); err != nil {
		return nil, err
	}
	return g, nil
}

func newGame(deps Deps, cat *catalog.Catalog) *Game {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	leaders := deps.Leaders
	if leaders == nil {
		leaders = NewLeaderRegistry()
	}
	g := &Game{
		catalog: cat,
		leaders: leaders,
		customs: make(map[string]CustomEffect, len(builtinCustomEffects)),
		logger:  logger,
		events:  rules.NewEventBus(),
	}
	for name, ce := range builtinCustomEffects {
		g.customs[name] = ce
	}
	return g
}

func (g *Game) setup() error {
	s := g.state
	for _, p := range s.Players {
		for _, defID := range g.catalog.StartingDeck {
			p.Deck = append(p.Deck, g.newCard(defID))
		}
		shuffle(g.rng, p.Deck)
		g.draw(p, s.Rules.HandSize)
	}

	for _, def := range g.catalog.CardsOfType(catalog.TypeImperium) {
		for i := 0; i < copies(def); i++ {
			s.ImperiumDeck = append(s.ImperiumDeck, g.newCard(def.ID))
		}
	}
	shuffle(g.rng, s.ImperiumDeck)
	for _, def := range g.catalog.CardsOfType(catalog.TypeIntrigue) {
		for i := 0; i < copies(def); i++ {
			s.IntrigueDeck = append(s.IntrigueDeck, g.newCard(def.ID))
		}
	}
	shuffle(g.rng, s.IntrigueDeck)

	for _, level := range g.catalog.ConflictLevels() {
		ids := make([]string, 0, len(level))
		for _, def := range level {
			ids = append(ids, def.ID)
		}
		shuffle(g.rng, ids)
		s.ConflictDeck = append(s.ConflictDeck, ids...)
	}
	if len(s.ConflictDeck) == 0 {
		return errors.New("catalog has no conflict cards")
	}
	s.Conflict, s.ConflictDeck = s.ConflictDeck[0], s.ConflictDeck[1:]

	for i := range g.catalog.Locations {
		s.Board = append(s.Board, &LocationState{ID: g.catalog.Locations[i].ID})
	}
	g.refillRow()

	g.logf("game created with %d players", len(s.Players))
	g.publish(rules.NewEvent(rules.EventGameStarted, 0, -1))
	g.logger.Info("game started", zap.Int("players", len(s.Players)))

	for _, p := range s.Players {
		if hook, ok := g.leader(p.ID).(SetupHook); ok {
			hook.OnSetup(g, p.ID)
		}
	}
	if !s.pendingAnywhere() {
		g.startRound(1)
	}
	return nil
}

func copies(def *catalog.CardDef) int {
	if def.Copies <= 0 {
		return 1
	}
	return def.Copies
}

func (g *Game) newCard(defID string) Card {
	g.state.CardSeq++
	return Card{ID: fmt.Sprintf("%s#%d", defID, g.state.CardSeq), DefID: defID}
}

func (g *Game) def(c Card) *catalog.CardDef {
	def, ok := g.catalog.Card(c.DefID)
	if !ok {
		panic(fmt.Sprintf("card %s has no definition %q", c.ID, c.DefID))
	}
	return def
}

func (g *Game) locationDef(id string) *catalog.LocationDef {
	def, _ := g.catalog.Location(id)
	return def
}

// ID returns the game id.
func (g *Game) ID() string {
	return g.state.GameID
}

// Phase returns the current phase.
func (g *Game) Phase() rules.Phase {
	return g.state.Turn.Phase
}

// Round returns the current round, 0 during setup.
func (g *Game) Round() int {
	return g.state.Turn.Round
}

// CurrentPlayer returns the seat holding the turn.
func (g *Game) CurrentPlayer() int {
	return g.state.Turn.Current
}

// Over reports whether the game has finished.
func (g *Game) Over() bool {
	return g.state.Turn.Phase == rules.PhaseGameOver
}

// Players returns the number of seats.
func (g *Game) Players() int {
	return len(g.state.Players)
}

// Events returns the bus game events are published on.
func (g *Game) Events() *rules.EventBus {
	return g.events
}

// Catalog returns the catalog the game was built from.
func (g *Game) Catalog() *catalog.Catalog {
	return g.catalog
}

// RegisterCustomEffect adds or replaces a named custom effect handler.
func (g *Game) RegisterCustomEffect(name string, ce CustomEffect) {
	g.customs[name] = ce
}

// Gain credits resources to a player.
func (g *Game) Gain(pid int, a resources.Amounts) {
	p, err := g.state.player(pid)
	if err != nil {
		return
	}
	p.Resources.Gain(a)
}

// Spend debits resources atomically.
func (g *Game) Spend(pid int, cost resources.Amounts) error {
	p, err := g.state.player(pid)
	if err != nil {
		return err
	}
	if err := p.Resources.Spend(cost); err != nil {
		return fmt.Errorf("%w: %w", ErrInsufficientResources, err)
	}
	return nil
}

// CanAfford reports whether a player can pay cost.
func (g *Game) CanAfford(pid int, cost resources.Amounts) bool {
	p, err := g.state.player(pid)
	if err != nil {
		return false
	}
	return p.Resources.CanAfford(cost)
}

// transact runs fn against the state and restores the state, RNG included,
// when fn fails.
func (g *Game) transact(fn func() error) error {
	bookmark, err := g.encodeState()
	if err != nil {
		return fmt.Errorf("bookmark state: %w", err)
	}

	if err := fn(); err != nil {
		restored, derr := decodeState(bookmark)
		if derr != nil {
			g.logger.Error("failed to restore state after error", zap.Error(derr), zap.NamedError("cause", err))
			return errors.Join(err, derr)
		}
		g.state = restored
		if rerr := g.rng.restore(restored.RNG); rerr != nil {
			return errors.Join(err, rerr)
		}
		g.logger.Debug("restored state after rejected action", zap.Error(err))
		return err
	}
	return nil
}

func (g *Game) logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s := g.state
	s.Log = append(s.Log, msg)
	if limit := s.Rules.LogSize; limit > 0 && len(s.Log) > limit {
		s.Log = append([]string(nil), s.Log[len(s.Log)-limit:]...)
	}
	g.logger.Debug(msg, zap.Int("round", s.Turn.Round))
}

// Logf appends a line to the game's message log.
func (g *Game) Logf(format string, args ...any) {
	g.logf(format, args...)
}

// PlayerName returns the display name of a seat.
func (g *Game) PlayerName(pid int) string {
	return g.holderName(pid)
}

func (g *Game) publish(ev rules.Event) {
	g.events.Publish(ev)
}

// suspend records a decision for owner. A player holds at most one pending
// decision; asking for a second one is a programming error.
func (g *Game) suspend(owner int, ctx EffectContext, payload decision.Payload) *PendingDecision {
	p := g.state.Players[owner]
	if p.Pending != nil {
		panic(fmt.Sprintf("player %d already has pending decision %s (%s), cannot add %s",
			owner, p.Pending.ID, p.Pending.Kind(), payload.Kind()))
	}
	g.state.DecisionSeq++
	name := fmt.Sprintf("%s|decision|%d", g.state.GameID, g.state.DecisionSeq)
	pd := &PendingDecision{
		ID:      uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
		Owner:   owner,
		Context: ctx,
		Payload: payload,
	}
	p.Pending = pd

	ev := rules.NewEvent(rules.EventDecisionPending, g.state.Turn.Round, owner)
	ev.CardID = payload.From().CardID
	ev.Data = string(payload.Kind())
	g.publish(ev)
	return pd
}

// Suspend is the entry point for leader abilities that need a decision.
func (g *Game) Suspend(owner int, ctx EffectContext, payload decision.Payload) *PendingDecision {
	return g.suspend(owner, ctx, payload)
}

// Pending returns the decision a player must answer, if any.
func (g *Game) Pending(pid int) *PendingDecision {
	p, err := g.state.player(pid)
	if err != nil {
		return nil
	}
	return p.Pending
}

type tracks struct{ g *Game }

func (t tracks) Players() int { return len(t.g.state.Players) }
func (t tracks) Influence(pid int, f catalog.Faction) int {
	return t.g.state.Players[pid].Influence[f]
}
func (t tracks) SetInfluence(pid int, f catalog.Faction, v int) {
	t.g.state.Players[pid].Influence[f] = v
}
func (t tracks) AllianceHolder(f catalog.Faction) int {
	if h, ok := t.g.state.Alliances[f]; ok {
		return h
	}
	return influence.NoHolder
}
func (t tracks) SetAllianceHolder(f catalog.Faction, pid int) { t.g.state.Alliances[f] = pid }
func (t tracks) AddVP(pid, delta int) { t.g.addVP(pid, delta) }
func (t tracks) VP(pid int) int { return t.g.state.Players[pid].VP }
func (t tracks) Spice(pid int) int { return t.g.state.Players[pid].Resources.Spice }
func (t tracks) Alliances(pid int) int {
	n := 0
	for _, h := range t.g.state.Alliances {
		if h == pid {
			n++
		}
	}
	return n
}
func (t tracks) EndgameCards(pid int) []catalog.EndgameBonus {
	var out []catalog.EndgameBonus
	for _, c := range t.g.state.Players[pid].Endgame {
		if def := t.g.def(c); def.Endgame != nil {
			out = append(out, *def.Endgame)
		}
	}
	return out
}
