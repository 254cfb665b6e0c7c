package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_Gain(t *testing.T) {
	l := NewLedger(Amounts{Spice: 1, Water: 1})

	l.Gain(Amounts{Spice: 2, Solari: 3, Water: -4, Resource("melange"): 9})

	assert.Equal(t, 3, l.Get(Spice))
	assert.Equal(t, 3, l.Get(Solari))
	assert.Equal(t, 1, l.Get(Water), "negative gains are ignored")
	assert.Equal(t, 0, l.Get(Resource("melange")))
}

func TestLedger_SpendIsAtomic(t *testing.T) {
	tests := []struct {
		name string
		cost Amounts
	}{
		{name: "one short counter", cost: Amounts{Spice: 2, Solari: 5}},
		{name: "every counter short", cost: Amounts{Spice: 9, Solari: 9, Water: 9}},
		{name: "unknown resource", cost: Amounts{Spice: 1, Resource("melange"): 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger(Amounts{Spice: 3, Solari: 2, Water: 1})
			before := l

			err := l.Spend(tt.cost)

			require.ErrorIs(t, err, ErrInsufficient)
			assert.Equal(t, before, l, "failed spend must not mutate the ledger")
		})
	}
}

func TestLedger_SpendDebitsEverything(t *testing.T) {
	l := NewLedger(Amounts{Spice: 3, Solari: 2, Water: 1})

	require.NoError(t, l.Spend(Amounts{Spice: 3, Water: 1}))

	assert.Equal(t, 0, l.Spice)
	assert.Equal(t, 2, l.Solari)
	assert.Equal(t, 0, l.Water)
}

func TestLedger_Shortfall(t *testing.T) {
	l := NewLedger(Amounts{Solari: 2})

	assert.Equal(t, Amounts{Solari: 6}, l.Shortfall(Amounts{Solari: 8}))
	assert.Empty(t, l.Shortfall(Amounts{Solari: 2}))
	assert.True(t, l.CanAfford(Amounts{Solari: 2, Spice: 0}))
	assert.False(t, l.CanAfford(Amounts{Solari: 3}))
}

func TestLedger_LoseClampsAtZero(t *testing.T) {
	l := NewLedger(Amounts{Spice: 1, Solari: 4})

	removed := l.Lose(Amounts{Spice: 2, Solari: 2})

	assert.Equal(t, Amounts{Spice: 1, Solari: 2}, removed)
	assert.Equal(t, 0, l.Spice)
	assert.Equal(t, 2, l.Solari)
}

func TestLedger_ResetTurn(t *testing.T) {
	l := NewLedger(Amounts{Persuasion: 4, Swords: 3, Spice: 2})

	l.ResetTurn()

	assert.Zero(t, l.Persuasion)
	assert.Zero(t, l.Swords)
	assert.Equal(t, 2, l.Spice)
}

func TestAmounts_String(t *testing.T) {
	assert.Equal(t, "solari:2 spice:1", Amounts{Spice: 1, Solari: 2, Water: 0}.String())
	assert.True(t, Amounts{Water: 0}.IsZero())
	assert.Equal(t, Amounts{Spice: 3, Water: 1}, Amounts{Spice: 1}.Plus(Amounts{Spice: 2, Water: 1}))
}
