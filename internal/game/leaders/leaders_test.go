package leaders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
)

// Every starting card is a signet ring so hands do not depend on the
// shuffle.
const ringCatalog = `
startingDeck: [ring, ring, ring, ring, ring, ring, ring, ring, ring, ring]

cards:
  - id: ring
    name: Ring
    type: starter
    icons: [landsraad, city, choam, fremen]
    agent: {custom: signet_ring}
    reveal: {persuasion: 3}
  - id: gizmo
    name: Gizmo
    type: imperium
    cost: 2
    copies: 10
    tags: [tech]
    icons: [city]
  - id: bribe
    name: Bribe
    type: intrigue
    copies: 3
    play: {resources: {solari: 1}}

locations:
  - id: hall
    name: Hall
    icon: landsraad
    capacity: 1
    effect: {resources: {solari: 1}}
  - id: bazaar
    name: Bazaar
    icon: choam
    capacity: 1
    effect: {resources: {spice: 1}}
  - id: barracks
    name: Barracks
    icon: city
    capacity: 1
    combat: true
    effect: {recruit: {count: 2}}
  - id: well
    name: Well
    icon: fremen
    capacity: 2
    effect: {resources: {water: 1}}

conflicts:
  - id: skirmish
    name: Skirmish
    level: 1
    rewards:
      - {vp: 1}

leaders:
  - {id: paulAtreides, name: Paul}
  - {id: glossuRabban, name: Rabban}
  - {id: memnonThorvald, name: Memnon}
  - {id: ilbanRichese, name: Ilban}
  - {id: letoAtreides, name: Leto}
  - {id: baronHarkonnen, name: Baron}
  - {id: helenaRichese, name: Helena}
`

// newGame seats one player per leader id; "" seats a player without one.
func newGame(t *testing.T, seats ...string) *game.Game {
	t.Helper()
	cat, err := catalog.Parse([]byte(ringCatalog))
	require.NoError(t, err)
	opts := game.Options{
		GameID: "leaders",
		Seed:   1,
		Deps:   game.Deps{Catalog: cat, Leaders: Registry(), Logger: zaptest.NewLogger(t)},
	}
	for _, id := range seats {
		opts.Players = append(opts.Players, game.PlayerSetup{Name: id, Leader: id})
	}
	g, err := game.New(opts)
	require.NoError(t, err)
	return g
}

func seat(g *game.Game, pid int) game.PlayerView {
	return g.View().Players[pid]
}

func ring(t *testing.T, g *game.Game, pid int) string {
	t.Helper()
	hand := seat(g, pid).Hand
	require.NotEmpty(t, hand)
	return hand[0].ID
}

var decline = game.Preset{OptionalCost: game.ChoiceDecline}

// finishTurn places the player's agents on locs, reveals and passes. Troop
// deployments are answered with zero troops.
func finishTurn(t *testing.T, g *game.Game, pid int, locs ...string) {
	t.Helper()
	for _, loc := range locs {
		require.NoError(t, g.PlaceAgent(pid, ring(t, g, pid), loc, decline))
		if pd := g.Pending(pid); pd != nil && pd.Kind() == decision.KindTroopDeployment {
			require.NoError(t, g.DeployTroops(pid, loc, 0))
		}
	}
	require.NoError(t, g.RevealHand(pid, nil))
	require.NoError(t, g.EndTurn(pid))
}

func TestDefaultCatalogLeadersAreRegistered(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	reg := Registry()

	ids := cat.LeaderIDs()
	assert.Len(t, ids, len(All()))
	for _, id := range ids {
		_, ok := reg.Get(id)
		assert.True(t, ok, id)
	}
	for _, l := range All() {
		_, ok := cat.Leader(l.LeaderID())
		assert.True(t, ok, l.LeaderID())
	}
}

func TestPaulLooksAtTheTopCard(t *testing.T) {
	g := newGame(t, PaulAtreides, "")

	pd := g.Pending(0)
	require.NotNil(t, pd, "the first turn starts with a look at the deck")
	assert.Equal(t, decision.KindTopCard, pd.Kind())

	err := g.PlaceAgent(0, ring(t, g, 0), "hall", decline)
	assert.ErrorIs(t, err, game.ErrDecisionPending)

	top, ok := g.TopOfDeck(0)
	require.True(t, ok)
	require.NoError(t, g.ResolveTopCard(0, top.ID, false))
	assert.Nil(t, g.Pending(0))

	next, ok := g.TopOfDeck(0)
	require.True(t, ok)
	assert.NotEqual(t, top.ID, next.ID, "the card went to the bottom")

	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "hall", decline))
}

func TestPaulRecruitsAfterWinningWithTroops(t *testing.T) {
	g := newGame(t, PaulAtreides, "")
	top, ok := g.TopOfDeck(0)
	require.True(t, ok)
	require.NoError(t, g.ResolveTopCard(0, top.ID, false))

	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "barracks", decline))
	require.NoError(t, g.DeployTroops(0, "barracks", 2))
	p := seat(g, 0)
	assert.Equal(t, 3, p.Garrison)
	assert.Equal(t, 2, p.Units)
	assert.Contains(t, g.View().Log, "paulAtreides's leader has no signet ability",
		"the signet ring does nothing for him")

	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "well", decline))
	require.NoError(t, g.RevealHand(0, nil))
	require.NoError(t, g.EndTurn(0))
	finishTurn(t, g, 1, "hall", "bazaar")

	p = seat(g, 0)
	assert.Equal(t, 4, p.Garrison, "one troop for the win")
	assert.Zero(t, p.Units)
}

func TestPaulConflictWinNeedsTroops(t *testing.T) {
	g := newGame(t, PaulAtreides, "")
	top, ok := g.TopOfDeck(0)
	require.True(t, ok)
	require.NoError(t, g.ResolveTopCard(0, top.ID, false))

	var paul Paul
	paul.OnConflictWon(g, 0, 0)
	assert.Equal(t, 3, seat(g, 0).Garrison)
	paul.OnConflictWon(g, 0, 1)
	assert.Equal(t, 4, seat(g, 0).Garrison)
}

func TestBaronChoosesInitialInfluence(t *testing.T) {
	g := newGame(t, BaronHarkonnen, "")

	assert.Equal(t, rules.PhaseSetup, g.Phase())
	assert.Equal(t, 0, g.Round())
	pd := g.Pending(0)
	require.NotNil(t, pd)
	assert.Equal(t, decision.KindInitialInfluence, pd.Kind())

	err := g.ChooseInitialInfluence(0, []catalog.Faction{catalog.Emperor, catalog.Emperor})
	assert.ErrorIs(t, err, game.ErrInvalidDecision, "factions must differ")
	assert.Equal(t, rules.PhaseSetup, g.Phase())

	require.NoError(t, g.ChooseInitialInfluence(0, []catalog.Faction{catalog.Emperor, catalog.Fremen}))
	assert.Equal(t, rules.PhasePlayerTurn, g.Phase())
	assert.Equal(t, 1, g.Round())

	p := seat(g, 0)
	assert.Equal(t, 1, p.Influence[catalog.Emperor])
	assert.Equal(t, 1, p.Influence[catalog.Fremen])
	assert.Equal(t, 0, p.Influence[catalog.BeneGesserit])
}

func TestBaronSignetBuysIntrigue(t *testing.T) {
	g := newGame(t, BaronHarkonnen, "")
	require.NoError(t, g.ChooseInitialInfluence(0, []catalog.Faction{catalog.Emperor, catalog.Fremen}))

	card := ring(t, g, 0)
	require.NoError(t, g.PlaceAgent(0, card, "hall", game.Preset{}))
	pd := g.Pending(0)
	require.NotNil(t, pd)
	assert.Equal(t, decision.KindSignetChoice, pd.Kind())

	require.NoError(t, g.ResolveSignet(0, card, true, ""))
	p := seat(g, 0)
	assert.Equal(t, 0, p.Resources[resources.Spice])
	assert.Len(t, p.Intrigue, 1)

	// A declined signet never asks.
	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "bazaar", decline))
	assert.Nil(t, g.Pending(0))
	assert.Len(t, seat(g, 0).Intrigue, 1)
}

func TestLetoSignet(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		g := newGame(t, LetoAtreides, "")
		card := ring(t, g, 0)
		require.NoError(t, g.PlaceAgent(0, card, "hall", game.Preset{}))
		require.NotNil(t, g.Pending(0))

		require.NoError(t, g.ResolveSignet(0, card, true, catalog.Fremen))
		p := seat(g, 0)
		assert.Equal(t, 0, p.Resources[resources.Water])
		assert.Equal(t, 1, p.Influence[catalog.Fremen])
	})

	t.Run("decline", func(t *testing.T) {
		g := newGame(t, LetoAtreides, "")
		require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "hall", decline))
		assert.Nil(t, g.Pending(0))

		p := seat(g, 0)
		assert.Equal(t, 1, p.Resources[resources.Water])
		for _, f := range catalog.Factions {
			assert.Zero(t, p.Influence[f], f)
		}
	})
}

func TestRabbanProfitsFromOpponentRecruits(t *testing.T) {
	g := newGame(t, GlossuRabban, "")

	finishTurn(t, g, 0, "hall", "bazaar")
	before := seat(g, 0).Resources[resources.Solari]

	require.NoError(t, g.PlaceAgent(1, ring(t, g, 1), "barracks", decline))
	assert.Equal(t, before+1, seat(g, 0).Resources[resources.Solari])
	assert.Equal(t, 5, seat(g, 1).Garrison)
}

func TestMemnonEarnsForCommitting(t *testing.T) {
	g := newGame(t, MemnonThorvald, "")

	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "barracks", game.Preset{}))
	p := seat(g, 0)
	assert.Equal(t, 1, p.Resources[resources.Solari], "signet")
	assert.Equal(t, 6, p.Garrison)

	pd := g.Pending(0)
	require.NotNil(t, pd)
	assert.Equal(t, decision.KindTroopDeployment, pd.Kind())
	require.NoError(t, g.DeployTroops(0, "barracks", 2))
	p = seat(g, 0)
	assert.Equal(t, 2, p.Resources[resources.Solari])
	assert.Equal(t, 2, p.Units)

	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "well", game.Preset{}))
	require.NoError(t, g.RevealHand(0, nil))
	require.NoError(t, g.CommitTroops(0, 1))
	assert.Equal(t, 4, seat(g, 0).Resources[resources.Solari], "signet at the well plus one commit")
}

func TestIlbanEarnsForTech(t *testing.T) {
	g := newGame(t, IlbanRichese, "")

	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "hall", game.Preset{}))
	assert.Len(t, seat(g, 0).Hand, 5, "signet draws a card")
	require.NoError(t, g.PlaceAgent(0, ring(t, g, 0), "bazaar", game.Preset{}))
	require.NoError(t, g.RevealHand(0, nil))

	view := g.View()
	require.NotEmpty(t, view.ImperiumRow)
	before := view.Players[0].Resources[resources.Solari]
	require.NoError(t, g.PurchaseCard(0, view.ImperiumRow[0].ID))
	assert.Equal(t, before+1, seat(g, 0).Resources[resources.Solari])
}

func TestHelenaIgnoresOccupiedLandsraad(t *testing.T) {
	g := newGame(t, "", HelenaRichese, "")
	finishTurn(t, g, 0, "hall", "barracks")

	require.NoError(t, g.PlaceAgent(1, ring(t, g, 1), "hall", game.Preset{}))
	err := g.PlaceAgent(1, ring(t, g, 1), "barracks", game.Preset{})
	assert.ErrorIs(t, err, game.ErrLocationFull, "city spaces stay exclusive")

	for _, loc := range g.View().Board {
		if loc.ID == "hall" {
			assert.Equal(t, []int{0, 1}, loc.Occupants)
		}
	}
	assert.Equal(t, 2, seat(g, 1).Resources[resources.Solari], "hall plus signet")
}
