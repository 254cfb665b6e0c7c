package game

import (
	"go.uber.org/zap"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
	"github.com/imperiumfree/imperium-server-go/internal/game/decision"
	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/imperiumfree/imperium-server-go/internal/game/rules"
	"github.com/imperiumfree/imperium-server-go/internal/game/scoring"
)

// Outcome reports whether running an effect stopped on a decision.
type Outcome struct {
	Suspended bool
	Decision  *PendingDecision
}

// expand turns an effect descriptor into steps: primitives first, then the
// optional cost, then the custom handler.
func expand(effect catalog.Effect, ctx EffectContext) []Step {
	var steps []Step
	if effect.HasPrimitives() {
		direct := effect
		direct.OptionalCost = nil
		direct.Custom = ""
		steps = append(steps, Step{Kind: StepDirect, Effect: direct, Context: ctx})
	}
	if effect.OptionalCost != nil {
		steps = append(steps, Step{Kind: StepOptionalCost, Effect: catalog.Effect{OptionalCost: effect.OptionalCost}, Context: ctx})
	}
	if effect.Custom != "" {
		steps = append(steps, Step{Kind: StepCustom, Effect: catalog.Effect{Custom: effect.Custom}, Context: ctx})
	}
	return steps
}

func (g *Game) apply(effect catalog.Effect, ctx EffectContext) Outcome {
	return g.run(expand(effect, ctx))
}

// ApplyEffect runs an effect for ctx.PlayerID and returns the decision it
// suspended on, if any. Leader abilities use it for their signets.
func (g *Game) ApplyEffect(effect catalog.Effect, ctx EffectContext) *PendingDecision {
	return g.apply(effect, ctx).Decision
}

// run executes steps in order. When a step suspends, the steps after it are
// queued on the decision and run once it is resolved.
func (g *Game) run(steps []Step) Outcome {
	for i, st := range steps {
		pd := g.step(st)
		if pd != nil {
			pd.Rest = append(pd.Rest, steps[i+1:]...)
			return Outcome{Suspended: true, Decision: pd}
		}
	}
	return Outcome{}
}

func (g *Game) step(st Step) *PendingDecision {
	ctx := st.Context
	switch st.Kind {
	case StepDirect:
		g.direct(st.Effect, ctx)
		return nil
	case StepOptionalCost:
		return g.optionalCost(st.Effect.OptionalCost, ctx)
	case StepCustom:
		ce, ok := g.customs[st.Effect.Custom]
		if !ok {
			g.logger.Warn("unknown custom effect skipped",
				zap.String("effect", st.Effect.Custom),
				zap.String("card_id", ctx.CardID),
			)
			return nil
		}
		return ce.Start(g, ctx)
	case StepTroopDeployment:
		p := g.state.Players[ctx.PlayerID]
		if p.Garrison == 0 {
			return nil
		}
		return g.suspend(p.ID, ctx, &decision.TroopDeployment{
			Origin:     decision.Origin{Source: decision.SourceLocation},
			LocationID: ctx.LocationID,
			Max:        p.Garrison,
		})
	default:
		g.logger.Error("unknown step kind", zap.Stringer("kind", st.Kind))
		return nil
	}
}

func (g *Game) optionalCost(oc *catalog.OptionalCost, ctx EffectContext) *PendingDecision {
	p := g.state.Players[ctx.PlayerID]
	switch ctx.Preset.OptionalCost {
	case ChoiceAccept:
		if err := p.Resources.Spend(oc.Cost); err != nil {
			g.logf("%s cannot pay %s and declines", p.Name, oc.Cost)
			return nil
		}
		g.logf("%s pays %s", p.Name, oc.Cost)
		return g.apply(oc.Benefit, ctx).Decision
	case ChoiceDecline:
		g.logf("%s declines to pay %s", p.Name, oc.Cost)
		return nil
	default:
		return g.suspend(p.ID, ctx, &decision.OptionalCost{
			Origin:  ctx.origin(""),
			Cost:    oc.Cost.Clone(),
			Benefit: oc.Benefit,
		})
	}
}

// direct applies the primitive parts of an effect.
func (g *Game) direct(e catalog.Effect, ctx EffectContext) {
	pid := ctx.PlayerID
	p := g.state.Players[pid]

	if !e.Resources.IsZero() {
		p.Resources.Gain(e.Resources)
		if e.Resources[resources.Swords] > 0 {
			g.state.addParticipant(pid)
		}
	}
	if e.Persuasion > 0 {
		p.Resources.Gain(resources.Amounts{resources.Persuasion: e.Persuasion})
	}
	if e.Swords > 0 {
		p.Resources.Gain(resources.Amounts{resources.Swords: e.Swords})
		g.state.addParticipant(pid)
	}
	if e.Draw > 0 {
		g.draw(p, e.Draw)
	}
	if e.DrawIntrigue > 0 {
		g.drawIntrigue(p, e.DrawIntrigue)
	}
	if e.Recruit != nil && e.Recruit.Count > 0 {
		g.recruit(pid, e.Recruit.Count, e.Recruit.ToConflict, ctx.Source)
	}
	if e.DeployFromGarrison > 0 {
		g.deploy(p, min(e.DeployFromGarrison, p.Garrison))
	}
	for _, inf := range e.Influence {
		g.gainInfluence(pid, inf.Faction, inf.Amount)
	}
	if e.VP != 0 {
		g.addVP(pid, e.VP)
	}
}

// Recruit gives a player n fresh troops, in the garrison or straight into
// the conflict.
func (g *Game) Recruit(pid, n int, toConflict bool, source decision.Source) {
	g.recruit(pid, n, toConflict, source)
}

func (g *Game) recruit(pid, n int, toConflict bool, source decision.Source) {
	if n <= 0 {
		return
	}
	p := g.state.Players[pid]
	if toConflict {
		p.Units += n
		g.state.addParticipant(pid)
		g.logf("%s deploys %d new troops to the conflict", p.Name, n)
	} else {
		p.Garrison += n
		g.logf("%s recruits %d troops", p.Name, n)
	}
	g.publish(rules.NewEventWithAmount(rules.EventTroopsRecruited, g.state.Turn.Round, pid, n))

	if toConflict {
		if hook, ok := g.leader(pid).(CommitHook); ok {
			hook.OnCommit(g, pid, n)
		}
	}
	if source == decision.SourceConflict {
		return
	}
	for _, other := range g.state.Players {
		if other.ID == pid {
			continue
		}
		if obs, ok := g.leader(other.ID).(RecruitObserver); ok {
			obs.OnOpponentRecruit(g, other.ID, pid, n)
		}
	}
}

// deploy moves n troops from the garrison into the conflict.
func (g *Game) deploy(p *Player, n int) {
	if n <= 0 {
		return
	}
	p.Garrison -= n
	p.Units += n
	g.state.addParticipant(p.ID)
	g.logf("%s commits %d troops to the conflict", p.Name, n)
	g.publish(rules.NewEventWithAmount(rules.EventTroopsCommitted, g.state.Turn.Round, p.ID, n))
	if hook, ok := g.leader(p.ID).(CommitHook); ok {
		hook.OnCommit(g, p.ID, n)
	}
}

func (g *Game) gainInfluence(pid int, f catalog.Faction, amount int) {
	if amount == 0 || !f.Valid() {
		return
	}
	ch := g.state.Rules.tracker().Gain(tracks{g}, pid, f, amount)
	if ch.Before != ch.After {
		g.logf("%s influence with %s: %d -> %d", g.state.Players[pid].Name, f, ch.Before, ch.After)
		ev := rules.NewEventWithAmount(rules.EventInfluenceChanged, g.state.Turn.Round, pid, ch.After-ch.Before)
		ev.Data = string(f)
		g.publish(ev)
	}
	if ch.AllianceChanged() {
		g.logf("alliance with %s: %s", f, g.holderName(ch.Holder))
		ev := rules.NewEvent(rules.EventAllianceChanged, g.state.Turn.Round, ch.Holder)
		ev.Data = string(f)
		g.publish(ev)
	}
}

func (g *Game) holderName(pid int) string {
	if pid < 0 || pid >= len(g.state.Players) {
		return "nobody"
	}
	return g.state.Players[pid].Name
}

// addVP changes a player's VP, never below zero, and latches the game end
// when the victory threshold is reached.
func (g *Game) addVP(pid, delta int) {
	if delta == 0 {
		return
	}
	p := g.state.Players[pid]
	p.VP += delta
	if p.VP < 0 {
		p.VP = 0
	}
	g.publish(rules.NewEventWithAmount(rules.EventVictoryPoints, g.state.Turn.Round, pid, delta))
	if delta > 0 && scoring.ThresholdReached(p.VP, g.state.Rules.VictoryThreshold) {
		g.latchEnd(p.Name + " reached the victory threshold")
	}
}

func (g *Game) latchEnd(reason string) {
	if g.state.EndTriggered {
		return
	}
	g.state.EndTriggered = true
	g.state.EndReason = reason
	g.logf("the game will end after this round: %s", reason)
}
