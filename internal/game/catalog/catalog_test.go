package catalog

import (
	"strings"
	"testing"

	"github.com/imperiumfree/imperium-server-go/internal/game/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.StartingDeck, 10)
	assert.NotEmpty(t, c.CardsOfType(TypeImperium))
	assert.NotEmpty(t, c.CardsOfType(TypeIntrigue))

	heighliner, ok := c.Location("heighliner")
	require.True(t, ok)
	assert.Equal(t, resources.Amounts{resources.Spice: 6}, heighliner.Cost)
	assert.True(t, heighliner.SealWaivesCost)

	signet, ok := c.Card("signet_ring")
	require.True(t, ok)
	assert.True(t, signet.GuildSeal)
	assert.Equal(t, "signet_ring", signet.Agent.Custom)

	guildBank, ok := c.Card("guild_bank")
	require.True(t, ok)
	require.NotNil(t, guildBank.Agent.OptionalCost)
	assert.Equal(t, 2, guildBank.Agent.OptionalCost.Cost[resources.Spice])
	assert.Equal(t, 3, guildBank.Agent.OptionalCost.Benefit.Resources[resources.Solari])

	levels := c.ConflictLevels()
	require.Len(t, levels, 3)
	assert.Equal(t, 1, levels[0][0].Level)
	assert.Equal(t, 3, levels[2][0].Level)

	assert.Contains(t, c.LeaderIDs(), "paulAtreides")
}

func TestCardDef_HasIcon(t *testing.T) {
	c := &CardDef{Icons: []Icon{IconFremen}}
	assert.True(t, c.HasIcon(IconFremen))
	assert.False(t, c.HasIcon(IconCity))

	wild := &CardDef{Icons: []Icon{IconAny}}
	assert.True(t, wild.HasIcon(IconCity))
}

func TestEffect_Classification(t *testing.T) {
	assert.True(t, Effect{}.IsZero())
	assert.True(t, Effect{Swords: 2}.HasPrimitives())
	assert.False(t, Effect{Custom: "decoy"}.PrimitiveOnly())
	assert.False(t, Effect{OptionalCost: &OptionalCost{}}.PrimitiveOnly())
	assert.False(t, Effect{Recruit: &Recruit{}}.HasPrimitives())
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "conflict reward needs a decision",
			doc: `
startingDeck: [s]
cards:
  - {id: s, name: S, type: starter, icons: [any]}
conflicts:
  - id: c
    name: C
    level: 1
    rewards:
      - {custom: decoy}
`,
			wantErr: "rewards must not require decisions",
		},
		{
			name: "duplicate card",
			doc: `
startingDeck: [s]
cards:
  - {id: s, name: S, type: starter, icons: [any]}
  - {id: s, name: S2, type: starter, icons: [any]}
`,
			wantErr: "duplicate card id",
		},
		{
			name: "unknown faction",
			doc: `
startingDeck: [s]
cards:
  - {id: s, name: S, type: starter, icons: [any]}
locations:
  - id: l
    name: L
    icon: city
    capacity: 1
    effect:
      influence: [{faction: harkonnen, amount: 1}]
conflicts:
  - {id: c, name: C, level: 1, rewards: [{vp: 1}]}
`,
			wantErr: "unknown faction",
		},
		{
			name: "unknown field",
			doc: `
startingDeck: [s]
cardz: []
`,
			wantErr: "decode catalog",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
