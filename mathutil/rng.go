package mathutil

import (
	"math/rand"
	"time"
)

// NewRand returns a generator owned by the caller. Seed zero asks for
// a time-seeded generator, any other value gives a reproducible run.
// Samplers must hold exactly one generator per instance so concurrent
// runs and tests stay independent.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
