package decision

import (
	"errors"
	"fmt"

	"github.com/imperiumfree/imperium-server-go/internal/game/catalog"
)

// ErrInvalid is returned when an answer does not fit the pending payload.
var ErrInvalid = errors.New("invalid decision answer")

// Top card choices reuse Answer.Accept: true keeps the card on top.
const (
	OptionKeep   = "keep"
	OptionBottom = "bottom"
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Matches checks that the answer addresses this payload: same card, same
// source when one is given, same location for troop deployment.
func Matches(p Payload, a Answer) error {
	origin := p.From()
	if a.CardID != origin.CardID {
		return invalid("answer names card %q, pending decision is for %q", a.CardID, origin.CardID)
	}
	if a.Source != "" && a.Source != origin.Source {
		return invalid("answer names source %q, pending decision is for %q", a.Source, origin.Source)
	}
	if td, ok := p.(*TroopDeployment); ok && a.LocationID != td.LocationID {
		return invalid("answer names location %q, pending deployment is for %q", a.LocationID, td.LocationID)
	}
	return nil
}

// Validate checks the answer against the payload's fixed choice set.
// Checks that depend on game state, such as affordability, are left to the
// caller.
func Validate(p Payload, a Answer) error {
	if err := Matches(p, a); err != nil {
		return err
	}

	switch d := p.(type) {
	case *OptionalCost:
		return nil
	case *PlayerTarget:
		if !containsInt(d.ValidTargets, a.Target) {
			return invalid("player %d is not a valid target", a.Target)
		}
	case *CardFromZone:
		if len(a.Selected) != 1 {
			return invalid("select exactly one card")
		}
		ref := a.Selected[0]
		if ref.Zone != d.Zone || !containsString(d.ValidCards, ref.CardID) {
			return invalid("card %s/%s cannot be selected", ref.Zone, ref.CardID)
		}
	case *TrashCard:
		switch len(a.Selected) {
		case 0:
			if !d.Optional {
				return invalid("a card must be trashed")
			}
		case 1:
			if !containsRef(d.Valid, a.Selected[0]) {
				return invalid("card %s/%s cannot be trashed", a.Selected[0].Zone, a.Selected[0].CardID)
			}
		default:
			return invalid("trash at most one card")
		}
	case *TrashCards:
		if len(a.Selected) > d.MaxCards {
			return invalid("trash at most %d cards", d.MaxCards)
		}
		seen := make(map[CardRef]bool, len(a.Selected))
		for _, ref := range a.Selected {
			if seen[ref] {
				return invalid("card %s selected twice", ref.CardID)
			}
			seen[ref] = true
			if !containsRef(d.Valid, ref) {
				return invalid("card %s/%s cannot be trashed", ref.Zone, ref.CardID)
			}
		}
	case *AgentLocation:
		if !containsString(d.ValidLocations, a.LocationID) {
			return invalid("location %q is not a valid choice", a.LocationID)
		}
	case *TroopDeployment:
		if a.Count < 0 || a.Count > d.Max {
			return invalid("deploy between 0 and %d troops", d.Max)
		}
	case *SardaukarDeploy:
		if a.Count < 0 || a.Count > d.Max {
			return invalid("deploy between 0 and %d troops", d.Max)
		}
	case *FactionChoice:
		if len(a.Factions) != 1 || !containsFaction(d.ValidFactions, a.Factions[0]) {
			return invalid("choose one of %v", d.ValidFactions)
		}
	case *ResourceChoice:
		for _, opt := range d.Options {
			if opt.Name == a.Option {
				return nil
			}
		}
		return invalid("unknown option %q", a.Option)
	case *TheVoice:
		switch a.Option {
		case OptionSolari:
		case OptionRemoveTroop:
			if !containsInt(d.ValidTargets, a.Target) {
				return invalid("player %d is not a valid target", a.Target)
			}
		default:
			return invalid("unknown option %q", a.Option)
		}
	case *Penalty:
		if !containsString(d.Options, a.Option) {
			return invalid("option %q is not available", a.Option)
		}
	case *InitialInfluence:
		if len(a.Factions) != d.Count {
			return invalid("choose exactly %d factions", d.Count)
		}
		seen := make(map[catalog.Faction]bool, len(a.Factions))
		for _, f := range a.Factions {
			if seen[f] || !containsFaction(d.ValidFactions, f) {
				return invalid("faction %q is not a valid distinct choice", f)
			}
			seen[f] = true
		}
	case *Signet:
		if a.Accept && len(d.ValidFactions) > 0 {
			if len(a.Factions) != 1 || !containsFaction(d.ValidFactions, a.Factions[0]) {
				return invalid("choose one of %v", d.ValidFactions)
			}
		}
	case *TopCard:
		return nil
	default:
		return invalid("unsupported decision %T", p)
	}
	return nil
}

// Answers enumerates every answer Validate accepts for p. Affordability is
// not considered; callers filter accept answers they cannot pay for.
func Answers(p Payload) []Answer {
	origin := p.From()
	base := Answer{CardID: origin.CardID, Source: origin.Source}

	with := func(f func(a *Answer)) Answer {
		a := base
		f(&a)
		return a
	}

	var out []Answer
	switch d := p.(type) {
	case *OptionalCost:
		out = append(out, with(func(a *Answer) { a.Accept = true }), base)
	case *PlayerTarget:
		for _, t := range d.ValidTargets {
			out = append(out, with(func(a *Answer) { a.Target = t }))
		}
	case *CardFromZone:
		for _, id := range d.ValidCards {
			ref := CardRef{Zone: d.Zone, CardID: id}
			out = append(out, with(func(a *Answer) { a.Selected = []CardRef{ref} }))
		}
	case *TrashCard:
		if d.Optional {
			out = append(out, base)
		}
		for _, ref := range d.Valid {
			out = append(out, with(func(a *Answer) { a.Selected = []CardRef{ref} }))
		}
	case *TrashCards:
		for _, subset := range subsets(d.Valid, d.MaxCards) {
			out = append(out, with(func(a *Answer) { a.Selected = subset }))
		}
	case *AgentLocation:
		for _, id := range d.ValidLocations {
			out = append(out, with(func(a *Answer) { a.LocationID = id }))
		}
	case *TroopDeployment:
		for n := 0; n <= d.Max; n++ {
			out = append(out, with(func(a *Answer) { a.LocationID = d.LocationID; a.Count = n }))
		}
	case *SardaukarDeploy:
		for n := 0; n <= d.Max; n++ {
			out = append(out, with(func(a *Answer) { a.Count = n }))
		}
	case *FactionChoice:
		for _, f := range d.ValidFactions {
			out = append(out, with(func(a *Answer) { a.Factions = []catalog.Faction{f} }))
		}
	case *ResourceChoice:
		for _, opt := range d.Options {
			name := opt.Name
			out = append(out, with(func(a *Answer) { a.Option = name }))
		}
	case *TheVoice:
		out = append(out, with(func(a *Answer) { a.Option = OptionSolari }))
		for _, t := range d.ValidTargets {
			out = append(out, with(func(a *Answer) { a.Option = OptionRemoveTroop; a.Target = t }))
		}
	case *Penalty:
		for _, opt := range d.Options {
			out = append(out, with(func(a *Answer) { a.Option = opt }))
		}
	case *InitialInfluence:
		for _, combo := range factionCombos(d.ValidFactions, d.Count) {
			out = append(out, with(func(a *Answer) { a.Factions = combo }))
		}
	case *Signet:
		out = append(out, base)
		if len(d.ValidFactions) == 0 {
			out = append(out, with(func(a *Answer) { a.Accept = true }))
		}
		for _, f := range d.ValidFactions {
			out = append(out, with(func(a *Answer) { a.Accept = true; a.Factions = []catalog.Faction{f} }))
		}
	case *TopCard:
		out = append(out, with(func(a *Answer) { a.Accept = true; a.Option = OptionKeep }))
		out = append(out, with(func(a *Answer) { a.Option = OptionBottom }))
	}
	return out
}

// subsets returns every subset of refs with at most limit elements, in
// index order, starting with the empty subset.
func subsets(refs []CardRef, limit int) [][]CardRef {
	out := [][]CardRef{nil}
	var walk func(start int, cur []CardRef)
	walk = func(start int, cur []CardRef) {
		if len(cur) == limit {
			return
		}
		for i := start; i < len(refs); i++ {
			next := append(append([]CardRef(nil), cur...), refs[i])
			out = append(out, next)
			walk(i+1, next)
		}
	}
	walk(0, nil)
	return out
}

func factionCombos(factions []catalog.Faction, k int) [][]catalog.Faction {
	var out [][]catalog.Faction
	var walk func(start int, cur []catalog.Faction)
	walk = func(start int, cur []catalog.Faction) {
		if len(cur) == k {
			out = append(out, append([]catalog.Faction(nil), cur...))
			return
		}
		for i := start; i < len(factions); i++ {
			walk(i+1, append(cur, factions[i]))
		}
	}
	walk(0, nil)
	return out
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsFaction(xs []catalog.Faction, v catalog.Faction) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsRef(xs []CardRef, v CardRef) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
