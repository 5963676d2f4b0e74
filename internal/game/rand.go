package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Rand is the random source used by battles. *rand.Rand from math/rand/v2
// satisfies it; tests substitute fixed sequences.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a PCG generator seeded from crypto/rand.
func NewRand() Rand {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms
		panic("read random seed: " + err.Error())
	}
	return rand.New(rand.NewPCG(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:])))
}

// NewSeededRand returns a deterministic generator for reproducible battles.
func NewSeededRand(seed uint64) Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func pickMove(rng Rand, moves []string) string {
	if len(moves) == 0 {
		return FallbackMove
	}
	return moves[rng.IntN(len(moves))]
}
