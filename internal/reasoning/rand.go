package reasoning

import "math/rand/v2"

// Rand is the source of template variety. *rand.Rand from math/rand/v2
// satisfies it; tests supply a deterministic stub.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

func newRand() Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// pick returns a random element of pool, or "" when pool is empty.
func pick(rng Rand, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.IntN(len(pool))]
}
