package game

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// rng is the game's only source of randomness. Its state is saved with every
// snapshot so a restored game shuffles exactly like the original.
type rng struct {
	src *rand.PCGSource
	r   *rand.Rand
}

func newRNG(seed uint64) *rng {
	src := &rand.PCGSource{}
	src.Seed(seed)
	return &rng{src: src, r: rand.New(src)}
}

func (g *rng) intn(n int) int {
	return g.r.Intn(n)
}

func shuffle[T any](g *rng, xs []T) {
	g.r.Shuffle(len(xs), func(i, j int) { xs[i], xs[j] = xs[j], xs[i] })
}

func (g *rng) marshal() ([]byte, error) {
	b, err := g.src.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal rng: %w", err)
	}
	return b, nil
}

func (g *rng) restore(b []byte) error {
	if err := g.src.UnmarshalBinary(b); err != nil {
		return fmt.Errorf("restore rng: %w", err)
	}
	return nil
}
