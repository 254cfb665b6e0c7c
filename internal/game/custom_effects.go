package game

import (
	"fmt"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
)

// CustomEffect is a named effect that needs code rather than data. Start
// runs when the effect is reached and may suspend; Resume receives the
// answer to a decision Start (or an earlier Resume) raised and may suspend
// again.
type CustomEffect struct {
	Start  func(g *Game, ctx EffectContext) *PendingDecision
	Resume func(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error)
}

const (
	effectChoamDirectorship    = "choam_directorship"
	effectBeneGesseritInitiate = "bene_gesserit_initiate"
	effectStillsuit            = "stillsuit"
	effectTheVoice             = "the_voice"
	effectPoisonSnooper        = "poison_snooper"
	effectDecoy                = "decoy"
	effectBinduSuspension      = "bindu_suspension"
	effectSietchReverendMother = "sietch_reverend_mother"
	effectSeekAllies           = "seek_allies"
	effectBlackmail            = "blackmail"
	effectTestOfHumanity       = "test_of_humanity"
	effectSardaukarDeploy      = "sardaukar_deploy"
	effectGuildAmbassador      = "guild_ambassador"
	effectSignetRing           = "signet_ring"
)

var builtinCustomEffects = map[string]CustomEffect{
	effectChoamDirectorship:    {Start: startChoamDirectorship},
	effectBeneGesseritInitiate: {Start: startBeneGesseritInitiate, Resume: resumeTrash},
	effectStillsuit:            {Start: startStillsuit},
	effectTheVoice:             {Start: startTheVoice, Resume: resumeTheVoice},
	effectPoisonSnooper:        {Start: startPoisonSnooper, Resume: resumePoisonSnooper},
	effectDecoy:                {Start: startDecoy, Resume: resumeDecoy},
	effectBinduSuspension:      {Start: startBinduSuspension, Resume: resumeBinduSuspension},
	effectSietchReverendMother: {Start: startSietchReverendMother, Resume: resumeTrash},
	effectSeekAllies:           {Start: startSeekAllies, Resume: resumeFaction},
	effectBlackmail:            {Start: startPenaltyTarget(effectBlackmail), Resume: resumePenalty},
	effectTestOfHumanity:       {Start: startPenaltyTarget(effectTestOfHumanity), Resume: resumePenalty},
	effectSardaukarDeploy:      {Start: startSardaukarDeploy, Resume: resumeSardaukarDeploy},
	effectGuildAmbassador:      {Start: startGuildAmbassador, Resume: resumeResourceChoice},
	effectSignetRing:           {Start: startSignetRing},
}

// opponents lists the other players that match keep and are not already
// waiting on a decision of their own.
func (g *Game) opponents(pid int, keep func(p *Player) bool) []int {
	var out []int
	for _, p := range g.state.Players {
		if p.ID == pid || p.Pending != nil {
			continue
		}
		if keep == nil || keep(p) {
			out = append(out, p.ID)
		}
	}
	return out
}

func startChoamDirectorship(g *Game, ctx EffectContext) *PendingDecision {
	n := 0
	for _, loc := range g.state.Board {
		if def := g.locationDef(loc.ID); def != nil && def.Icon == catalog.IconCHOAM && loc.occupiedBy(ctx.PlayerID) {
			n++
		}
	}
	if n > 0 {
		p := g.state.Players[ctx.PlayerID]
		p.Resources.Gain(resources.Amounts{resources.Spice: n})
		g.logf("%s gains %d spice from CHOAM spaces", p.Name, n)
	}
	return nil
}

func startBeneGesseritInitiate(g *Game, ctx EffectContext) *PendingDecision {
	p := g.state.Players[ctx.PlayerID]
	refs := trashable(p)
	if len(refs) == 0 {
		g.draw(p, 1)
		return nil
	}
	return g.suspend(p.ID, ctx, &decision.TrashCard{
		Origin:    ctx.origin(effectBeneGesseritInitiate),
		Optional:  true,
		DrawAfter: 1,
		Valid:     refs,
	})
}

func startSietchReverendMother(g *Game, ctx EffectContext) *PendingDecision {
	p := g.state.Players[ctx.PlayerID]
	refs := trashable(p)
	if len(refs) == 0 {
		return nil
	}
	return g.suspend(p.ID, ctx, &decision.TrashCards{
		Origin:   ctx.origin(effectSietchReverendMother),
		MaxCards: 2,
		Valid:    refs,
	})
}

func resumeTrash(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	p := g.state.Players[pd.Owner]
	for _, ref := range a.Selected {
		if !g.trash(p, ref) {
			return nil, fmt.Errorf("%w: %s is no longer in %s", ErrCardNotFound, ref.CardID, ref.Zone)
		}
	}
	if d, ok := pd.Payload.(*decision.TrashCard); ok && d.DrawAfter > 0 {
		g.draw(p, d.DrawAfter)
	}
	return nil, nil
}

func startStillsuit(g *Game, ctx EffectContext) *PendingDecision {
	if def := g.locationDef(ctx.LocationID); def != nil && def.Desert {
		p := g.state.Players[ctx.PlayerID]
		p.Resources.Gain(resources.Amounts{resources.Water: 1})
		g.logf("%s gains 1 water from a stillsuit", p.Name)
	}
	return nil
}

func startTheVoice(g *Game, ctx EffectContext) *PendingDecision {
	targets := g.opponents(ctx.PlayerID, func(p *Player) bool { return p.Garrison > 0 })
	return g.suspend(ctx.PlayerID, ctx, &decision.TheVoice{
		Origin:       ctx.origin(effectTheVoice),
		Solari:       2,
		ValidTargets: targets,
	})
}

func resumeTheVoice(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	d := pd.Payload.(*decision.TheVoice)
	p := g.state.Players[pd.Owner]
	switch a.Option {
	case decision.OptionSolari:
		p.Resources.Gain(resources.Amounts{resources.Solari: d.Solari})
		g.logf("%s gains %d solari", p.Name, d.Solari)
	case decision.OptionRemoveTroop:
		target := g.state.Players[a.Target]
		if target.Garrison == 0 {
			return nil, fmt.Errorf("%w: %s has no garrison troops", ErrInvalidTarget, target.Name)
		}
		target.Garrison--
		g.logf("%s removes a troop from %s's garrison", p.Name, target.Name)
	}
	return nil, nil
}

func startPoisonSnooper(g *Game, ctx EffectContext) *PendingDecision {
	targets := g.opponents(ctx.PlayerID, func(p *Player) bool { return len(p.Hand) > 0 })
	if len(targets) == 0 {
		g.logf("%s finds no hand to look at", g.state.Players[ctx.PlayerID].Name)
		return nil
	}
	return g.suspend(ctx.PlayerID, ctx, &decision.PlayerTarget{
		Origin:       ctx.origin(effectPoisonSnooper),
		ValidTargets: targets,
	})
}

func resumePoisonSnooper(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	switch d := pd.Payload.(type) {
	case *decision.PlayerTarget:
		target := g.state.Players[a.Target]
		ids := make([]string, 0, len(target.Hand))
		for _, c := range target.Hand {
			ids = append(ids, c.ID)
		}
		return g.suspend(pd.Owner, pd.Context, &decision.CardFromZone{
			Origin:       d.Origin,
			TargetPlayer: target.ID,
			Zone:         decision.ZoneHand,
			ValidCards:   ids,
		}), nil
	case *decision.CardFromZone:
		target := g.state.Players[d.TargetPlayer]
		hand, c, ok := takeCard(target.Hand, a.Selected[0].CardID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCardNotFound, a.Selected[0].CardID)
		}
		target.Hand = hand
		target.Discard = append(target.Discard, c)
		g.logf("%s makes %s discard %s", g.state.Players[pd.Owner].Name, target.Name, g.def(c).Name)
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: %s cannot resume %s", ErrInvalidDecision, effectPoisonSnooper, pd.Kind())
	}
}

func startDecoy(g *Game, ctx EffectContext) *PendingDecision {
	targets := g.opponents(ctx.PlayerID, func(p *Player) bool { return p.Units > 0 || p.Garrison > 0 })
	if len(targets) == 0 {
		return nil
	}
	return g.suspend(ctx.PlayerID, ctx, &decision.PlayerTarget{
		Origin:       ctx.origin(effectDecoy),
		ValidTargets: targets,
	})
}

func resumeDecoy(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	target := g.state.Players[a.Target]
	if target.Units > 0 {
		n := min(2, target.Units)
		target.Units -= n
		g.logf("%s loses %d troops from the conflict", target.Name, n)
		return nil, nil
	}
	n := min(2, target.Garrison)
	target.Garrison -= n
	g.logf("%s loses %d garrison troops", target.Name, n)
	return nil, nil
}

func startBinduSuspension(g *Game, ctx EffectContext) *PendingDecision {
	var valid []string
	for _, loc := range g.state.Board {
		if loc.occupiedBy(ctx.PlayerID) && !containsSeat(loc.Protected, ctx.PlayerID) {
			valid = append(valid, loc.ID)
		}
	}
	if len(valid) == 0 {
		return nil
	}
	return g.suspend(ctx.PlayerID, ctx, &decision.AgentLocation{
		Origin:         ctx.origin(effectBinduSuspension),
		ValidLocations: valid,
	})
}

func resumeBinduSuspension(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	loc := g.state.location(a.LocationID)
	if loc == nil || !loc.occupiedBy(pd.Owner) {
		return nil, fmt.Errorf("%w: no agent on %s", ErrInvalidTarget, a.LocationID)
	}
	loc.Protected = append(loc.Protected, pd.Owner)
	g.logf("%s's agent on %s will stay through the recall", g.state.Players[pd.Owner].Name, a.LocationID)
	return nil, nil
}

func containsSeat(seats []int, pid int) bool {
	for _, s := range seats {
		if s == pid {
			return true
		}
	}
	return false
}

func startSeekAllies(g *Game, ctx EffectContext) *PendingDecision {
	return g.suspend(ctx.PlayerID, ctx, &decision.FactionChoice{
		Origin:        ctx.origin(effectSeekAllies),
		ValidFactions: append([]catalog.Faction(nil), catalog.Factions...),
		Amount:        1,
	})
}

func resumeFaction(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	d := pd.Payload.(*decision.FactionChoice)
	g.gainInfluence(pd.Owner, a.Factions[0], d.Amount)
	return nil, nil
}

// penaltyOptions lists the penalties the target can actually take.
func penaltyOptions(effect string, target *Player) []string {
	var opts []string
	switch effect {
	case effectBlackmail:
		if target.Resources.Solari >= 2 {
			opts = append(opts, decision.OptionPay)
		}
		if target.Garrison >= 1 {
			opts = append(opts, decision.OptionLoseTroop)
		}
	case effectTestOfHumanity:
		if len(target.Hand) > 0 {
			opts = append(opts, decision.OptionDiscard)
		}
		if target.Resources.Spice >= 2 {
			opts = append(opts, decision.OptionLoseSpice)
		}
	}
	return opts
}

func startPenaltyTarget(effect string) func(g *Game, ctx EffectContext) *PendingDecision {
	return func(g *Game, ctx EffectContext) *PendingDecision {
		targets := g.opponents(ctx.PlayerID, nil)
		if len(targets) == 0 {
			return nil
		}
		return g.suspend(ctx.PlayerID, ctx, &decision.PlayerTarget{
			Origin:       ctx.origin(effect),
			ValidTargets: targets,
		})
	}
}

// resumePenalty hands the choice to the target. With a single feasible
// penalty it is applied at once; with none nothing happens.
func resumePenalty(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	effect := pd.Payload.From().Effect
	switch d := pd.Payload.(type) {
	case *decision.PlayerTarget:
		target := g.state.Players[a.Target]
		opts := penaltyOptions(effect, target)
		switch len(opts) {
		case 0:
			g.logf("%s has nothing to lose", target.Name)
			return nil, nil
		case 1:
			return nil, g.applyPenalty(pd.Owner, target, opts[0])
		default:
			return g.suspend(target.ID, pd.Context, &decision.Penalty{
				Origin:  d.Origin,
				Caster:  pd.Owner,
				Options: opts,
			}), nil
		}
	case *decision.Penalty:
		return nil, g.applyPenalty(d.Caster, g.state.Players[pd.Owner], a.Option)
	default:
		return nil, fmt.Errorf("%w: %s cannot resume %s", ErrInvalidDecision, effect, pd.Kind())
	}
}

func (g *Game) applyPenalty(caster int, target *Player, option string) error {
	switch option {
	case decision.OptionPay:
		if err := target.Resources.Spend(resources.Amounts{resources.Solari: 2}); err != nil {
			return fmt.Errorf("%w: %w", ErrInsufficientResources, err)
		}
		g.state.Players[caster].Resources.Gain(resources.Amounts{resources.Solari: 2})
		g.logf("%s pays 2 solari to %s", target.Name, g.state.Players[caster].Name)
	case decision.OptionLoseTroop:
		if target.Garrison == 0 {
			return fmt.Errorf("%w: %s has no garrison troops", ErrInvalidTarget, target.Name)
		}
		target.Garrison--
		g.logf("%s loses a garrison troop", target.Name)
	case decision.OptionDiscard:
		if len(target.Hand) == 0 {
			return fmt.Errorf("%w: %s has an empty hand", ErrInvalidTarget, target.Name)
		}
		var c Card
		target.Hand, c = removeAt(target.Hand, g.rng.intn(len(target.Hand)))
		target.Discard = append(target.Discard, c)
		g.logf("%s discards %s at random", target.Name, g.def(c).Name)
	case decision.OptionLoseSpice:
		lost := target.Resources.Lose(resources.Amounts{resources.Spice: 2})
		g.logf("%s loses %s", target.Name, lost)
	default:
		return fmt.Errorf("%w: unknown penalty %q", ErrInvalidDecision, option)
	}
	return nil
}

func startSardaukarDeploy(g *Game, ctx EffectContext) *PendingDecision {
	p := g.state.Players[ctx.PlayerID]
	if p.Garrison == 0 {
		return nil
	}
	return g.suspend(p.ID, ctx, &decision.SardaukarDeploy{
		Origin: ctx.origin(effectSardaukarDeploy),
		Max:    min(2, p.Garrison),
	})
}

func resumeSardaukarDeploy(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	p := g.state.Players[pd.Owner]
	g.deploy(p, min(a.Count, p.Garrison))
	return nil, nil
}

func startGuildAmbassador(g *Game, ctx EffectContext) *PendingDecision {
	return g.suspend(ctx.PlayerID, ctx, &decision.ResourceChoice{
		Origin: ctx.origin(effectGuildAmbassador),
		Options: []decision.ResourceOption{
			{Name: string(resources.Solari), Gain: resources.Amounts{resources.Solari: 1}},
			{Name: string(resources.Spice), Gain: resources.Amounts{resources.Spice: 1}},
		},
	})
}

func resumeResourceChoice(g *Game, pd *PendingDecision, a decision.Answer) (*PendingDecision, error) {
	d := pd.Payload.(*decision.ResourceChoice)
	for _, opt := range d.Options {
		if opt.Name == a.Option {
			p := g.state.Players[pd.Owner]
			p.Resources.Gain(opt.Gain)
			g.logf("%s gains %s", p.Name, opt.Gain)
		}
	}
	return nil, nil
}

func startSignetRing(g *Game, ctx EffectContext) *PendingDecision {
	sig, ok := g.leader(ctx.PlayerID).(SignetAbility)
	if !ok {
		g.logf("%s's leader has no signet ability", g.state.Players[ctx.PlayerID].Name)
		return nil
	}
	return sig.Signet(g, ctx)
}
