// Package leaders implements the leader abilities of the default catalog.
// Each leader implements game.LeaderAbility plus the capability hooks it
// needs.
package leaders

import (
	"github.com/imperiumfree/imperium-server-go/internal/game"
	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
)

// Leader ids as they appear in the catalog.
const (
	PaulAtreides   = "paulAtreides"
	GlossuRabban   = "glossuRabban"
	MemnonThorvald = "memnonThorvald"
	IlbanRichese   = "ilbanRichese"
	LetoAtreides   = "letoAtreides"
	BaronHarkonnen = "baronHarkonnen"
	HelenaRichese  = "helenaRichese"
)

// All returns one instance of every leader.
func All() []game.LeaderAbility {
	return []game.LeaderAbility{
		Paul{}, Rabban{}, Memnon{}, Ilban{}, Leto{}, Baron{}, Helena{},
	}
}

// Register adds every leader to r.
func Register(r *game.LeaderRegistry) {
	for _, l := range All() {
		r.Register(l)
	}
}

// Registry returns a registry holding every leader.
func Registry() *game.LeaderRegistry {
	r := game.NewLeaderRegistry()
	Register(r)
	return r
}

func solari(n int) resources.Amounts {
	return resources.Amounts{resources.Solari: n}
}

func signetContext(ctx game.EffectContext) game.EffectContext {
	ctx.Source = decision.SourceSignet
	return ctx
}

// Paul looks at the top card of his deck at the start of each turn and may
// put it on the bottom. Winning a conflict with troops in it recruits one.
type Paul struct{}

func (Paul) LeaderID() string { return PaulAtreides }

func (Paul) OnTurnStart(g *game.Game, pid int) {
	top, ok := g.TopOfDeck(pid)
	if !ok {
		return
	}
	ctx := game.EffectContext{PlayerID: pid, CardID: top.ID, Source: decision.SourceLeader}
	g.Suspend(pid, ctx, &decision.TopCard{
		Origin: decision.Origin{CardID: top.ID, Source: decision.SourceLeader},
	})
}

func (Paul) OnConflictWon(g *game.Game, pid, units int) {
	if units < 1 {
		return
	}
	g.Logf("%s's troops earn a recruit", g.PlayerName(pid))
	g.Recruit(pid, 1, false, decision.SourceConflict)
}

// Rabban profits from opponents raising troops; his signet buys a troop.
type Rabban struct{}

func (Rabban) LeaderID() string { return GlossuRabban }

func (Rabban) OnOpponentRecruit(g *game.Game, pid, recruiter, count int) {
	g.Gain(pid, solari(1))
	g.Logf("%s gains 1 solari as %s recruits", g.PlayerName(pid), g.PlayerName(recruiter))
}

func (Rabban) Signet(g *game.Game, ctx game.EffectContext) *game.PendingDecision {
	return g.ApplyEffect(catalog.Effect{
		OptionalCost: &catalog.OptionalCost{
			Cost:    solari(2),
			Benefit: catalog.Effect{Recruit: &catalog.Recruit{Count: 1}},
		},
	}, signetContext(ctx))
}

// Memnon earns solari whenever he sends troops into the conflict.
type Memnon struct{}

func (Memnon) LeaderID() string { return MemnonThorvald }

func (Memnon) OnCommit(g *game.Game, pid, count int) {
	g.Gain(pid, solari(1))
	g.Logf("%s gains 1 solari for committing troops", g.PlayerName(pid))
}

func (Memnon) Signet(g *game.Game, ctx game.EffectContext) *game.PendingDecision {
	return g.ApplyEffect(catalog.Effect{
		Resources: solari(1),
		Recruit:   &catalog.Recruit{Count: 1},
	}, signetContext(ctx))
}

// Ilban earns solari for tech cards; his signet draws.
type Ilban struct{}

func (Ilban) LeaderID() string { return IlbanRichese }

func (Ilban) OnAcquire(g *game.Game, pid int, card *catalog.CardDef) {
	if !card.HasTag(catalog.TagTech) {
		return
	}
	g.Gain(pid, solari(1))
	g.Logf("%s gains 1 solari for acquiring %s", g.PlayerName(pid), card.Name)
}

func (Ilban) Signet(g *game.Game, ctx game.EffectContext) *game.PendingDecision {
	return g.ApplyEffect(catalog.Effect{Draw: 1}, signetContext(ctx))
}

// Leto may pay water for influence with a faction of his choice.
type Leto struct{}

func (Leto) LeaderID() string { return LetoAtreides }

func (Leto) Signet(g *game.Game, ctx game.EffectContext) *game.PendingDecision {
	if ctx.Preset.OptionalCost == game.ChoiceDecline {
		return nil
	}
	ctx = signetContext(ctx)
	return g.Suspend(ctx.PlayerID, ctx, &decision.Signet{
		Origin:          decision.Origin{CardID: ctx.CardID, Source: decision.SourceSignet},
		LeaderID:        LetoAtreides,
		Cost:            resources.Amounts{resources.Water: 1},
		ValidFactions:   append([]catalog.Faction(nil), catalog.Factions...),
		InfluenceAmount: 1,
	})
}

// Baron picks two factions at setup and may buy intrigue with spice.
type Baron struct{}

func (Baron) LeaderID() string { return BaronHarkonnen }

func (Baron) OnSetup(g *game.Game, pid int) {
	ctx := game.EffectContext{PlayerID: pid, Source: decision.SourceLeader}
	g.Suspend(pid, ctx, &decision.InitialInfluence{
		Origin:        decision.Origin{Source: decision.SourceLeader},
		Count:         2,
		ValidFactions: append([]catalog.Faction(nil), catalog.Factions...),
	})
}

func (Baron) Signet(g *game.Game, ctx game.EffectContext) *game.PendingDecision {
	if ctx.Preset.OptionalCost == game.ChoiceDecline {
		return nil
	}
	ctx = signetContext(ctx)
	return g.Suspend(ctx.PlayerID, ctx, &decision.Signet{
		Origin:   decision.Origin{CardID: ctx.CardID, Source: decision.SourceSignet},
		LeaderID: BaronHarkonnen,
		Cost:     resources.Amounts{resources.Spice: 1},
		Benefit:  catalog.Effect{DrawIntrigue: 1},
	})
}

// Helena may enter occupied Landsraad and CHOAM spaces.
type Helena struct{}

func (Helena) LeaderID() string { return HelenaRichese }

func (Helena) IgnoresOccupancy(loc *catalog.LocationDef) bool {
	return loc.Icon == catalog.IconLandsraad || loc.Icon == catalog.IconCHOAM
}

func (Helena) Signet(g *game.Game, ctx game.EffectContext) *game.PendingDecision {
	return g.ApplyEffect(catalog.Effect{Resources: solari(1)}, signetContext(ctx))
}

var (
	_ game.TurnStartHook     = Paul{}
	_ game.ConflictWinHook   = Paul{}
	_ game.RecruitObserver   = Rabban{}
	_ game.SignetAbility     = Rabban{}
	_ game.CommitHook        = Memnon{}
	_ game.SignetAbility     = Memnon{}
	_ game.AcquireHook       = Ilban{}
	_ game.SignetAbility     = Ilban{}
	_ game.SignetAbility     = Leto{}
	_ game.SetupHook         = Baron{}
	_ game.SignetAbility     = Baron{}
	_ game.OccupancyOverride = Helena{}
	_ game.SignetAbility     = Helena{}
)
