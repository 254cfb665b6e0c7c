package resources

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Resource names a counter in a player's ledger.
type Resource string

const (
	Spice      Resource = "spice"
	Solari     Resource = "solari"
	Water      Resource = "water"
	Persuasion Resource = "persuasion"
	Swords     Resource = "swords"
)

// All lists every ledger counter in display order.
var All = []Resource{Spice, Solari, Water, Persuasion, Swords}

// ErrInsufficient is returned by Spend when any requested counter is short.
var ErrInsufficient = errors.New("insufficient resources")

// Valid reports whether r names a ledger counter.
func (r Resource) Valid() bool {
	switch r {
	case Spice, Solari, Water, Persuasion, Swords:
		return true
	default:
		return false
	}
}

// Amounts is a bag of resource quantities used for costs and gains.
type Amounts map[Resource]int

// IsZero reports whether no positive quantity is present.
func (a Amounts) IsZero() bool {
	for _, v := range a {
		if v > 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (a Amounts) Clone() Amounts {
	if a == nil {
		return nil
	}
	out := make(Amounts, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Plus returns the element-wise sum of a and b.
func (a Amounts) Plus(b Amounts) Amounts {
	out := a.Clone()
	if out == nil {
		out = make(Amounts, len(b))
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

// String renders the amounts sorted by resource name, e.g. "solari:2 spice:1".
func (a Amounts) String() string {
	keys := make([]string, 0, len(a))
	for k, v := range a {
		if v != 0 {
			keys = append(keys, string(k))
		}
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%d", k, a[Resource(k)]))
	}
	return strings.Join(parts, " ")
}

// Ledger holds a player's resource counters.
// It is not safe for concurrent use; the owning game serializes access.
type Ledger struct {
	Spice      int
	Solari     int
	Water      int
	Persuasion int
	Swords     int
}

// NewLedger creates a ledger credited with the given starting amounts.
func NewLedger(start Amounts) Ledger {
	var l Ledger
	l.Gain(start)
	return l
}

// Get returns the current value of a counter. Unknown resources read as zero.
func (l *Ledger) Get(r Resource) int {
	switch r {
	case Spice:
		return l.Spice
	case Solari:
		return l.Solari
	case Water:
		return l.Water
	case Persuasion:
		return l.Persuasion
	case Swords:
		return l.Swords
	default:
		return 0
	}
}

func (l *Ledger) add(r Resource, delta int) {
	switch r {
	case Spice:
		l.Spice += delta
	case Solari:
		l.Solari += delta
	case Water:
		l.Water += delta
	case Persuasion:
		l.Persuasion += delta
	case Swords:
		l.Swords += delta
	}
}

// Gain credits every positive quantity. It never fails; non-positive entries
// and unknown resources are ignored.
func (l *Ledger) Gain(a Amounts) {
	for r, v := range a {
		if v <= 0 {
			continue
		}
		l.add(r, v)
	}
}

// CanAfford reports whether every requested counter is covered.
func (l *Ledger) CanAfford(cost Amounts) bool {
	for r, v := range cost {
		if v <= 0 {
			continue
		}
		if !r.Valid() || l.Get(r) < v {
			return false
		}
	}
	return true
}

// Shortfall returns how much of each resource is missing to pay cost.
// The result is empty when the cost is affordable.
func (l *Ledger) Shortfall(cost Amounts) Amounts {
	missing := Amounts{}
	for r, v := range cost {
		if v <= 0 {
			continue
		}
		if have := l.Get(r); have < v {
			missing[r] = v - have
		}
	}
	return missing
}

// Spend debits cost atomically: either every counter is debited or none is.
func (l *Ledger) Spend(cost Amounts) error {
	if !l.CanAfford(cost) {
		return fmt.Errorf("%w: missing %s", ErrInsufficient, l.Shortfall(cost))
	}
	for r, v := range cost {
		if v > 0 {
			l.add(r, -v)
		}
	}
	return nil
}

// Lose removes up to the requested quantities, clamping each counter at zero,
// and returns what was actually removed.
func (l *Ledger) Lose(a Amounts) Amounts {
	removed := Amounts{}
	for r, v := range a {
		if v <= 0 {
			continue
		}
		take := v
		if have := l.Get(r); have < take {
			take = have
		}
		if take > 0 {
			l.add(r, -take)
			removed[r] = take
		}
	}
	return removed
}

// ResetTurn clears the per-turn counters (persuasion and swords).
func (l *Ledger) ResetTurn() {
	l.Persuasion = 0
	l.Swords = 0
}

// Amounts returns the ledger contents as a bag.
func (l *Ledger) Amounts() Amounts {
	out := make(Amounts, len(All))
	for _, r := range All {
		out[r] = l.Get(r)
	}
	return out
}
