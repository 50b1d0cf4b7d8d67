// Package rng provides the single deterministic PRNG source used by map
// generation. It is seeded once per game and
// must never be reseeded from wall-clock.
package rng

import "math/rand"

// RNG wraps math/rand.Rand with a construction path that only accepts an
// explicit seed, so nothing in the engine can accidentally fall back to
// the global, time-seeded default source.
type RNG struct {
	r *rand.Rand
}

// New creates an RNG seeded deterministically from seed. Two RNGs created
// with the same seed produce identical sequences, which is what makes a
// game a pure function of (seed, bots).
func New(seed uint64) *RNG {
	return &RNG{r: rand.New(rand.NewSource(int64(seed)))}
}

// Uint64 returns the next 64-bit value in the sequence.
func (g *RNG) Uint64() uint64 { return g.r.Uint64() }

// Intn returns a pseudo-random int in [0, n).
func (g *RNG) Intn(n int) int { return g.r.Intn(n) }

// Shuffle randomizes the order of a slice of length n via swap, mirroring
// rand.Rand.Shuffle's Fisher-Yates.
func (g *RNG) Shuffle(n int, swap func(i, j int)) { g.r.Shuffle(n, swap) }

// Reset reseeds the generator so it repeats its sequence from seed.
// Replay does not call it; mapgen.Generate builds a fresh RNG from the
// recorded seed instead.
func (g *RNG) Reset(seed uint64) { g.r = rand.New(rand.NewSource(int64(seed))) }
