package opt

import "math/rand"

// defaultSeed is used when callers pass seed 0.
const defaultSeed int64 = 1

// rngFromSeed returns a deterministic source. seed 0 maps to defaultSeed,
// anything else is used verbatim. A *rand.Rand must not be shared between
// goroutines.
func rngFromSeed(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultSeed
	}
	return rand.New(rand.NewSource(seed))
}
