package game

import (
	"math/rand/v2"
	"time"
)

// RandomSource draws a uniform integer in [0, n).
type RandomSource interface {
	IntN(n int) int
}

// NewRandomSource returns a PCG-backed source. A zero seed is replaced with
// the current time.
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
