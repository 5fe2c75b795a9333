package rangeproof

import (
	"fmt"
	"sync"

	"github.com/tos-network/terminos/crypto/group"
)

// BitLength is the fixed, consensus-wide range-proof bit width: every
// committed amount is proven to lie in [0, 2^64).
const BitLength = 64

type generatorSet struct {
	mu sync.Mutex
	g  []*group.Point
	h  []*group.Point
}

var gens generatorSet

// vectorGenerators returns deterministic, independent generator vectors
// of length n, growing and caching them lazily. Each generator is derived
// by hashing a fixed label and its index, so every participant derives
// the identical basis without any setup ceremony or shared randomness.
func vectorGenerators(n int) ([]*group.Point, []*group.Point) {
	gens.mu.Lock()
	defer gens.mu.Unlock()

	for len(gens.g) < n {
		i := len(gens.g)
		gens.g = append(gens.g, deriveGenerator("terminos/bulletproof/G", i))
		gens.h = append(gens.h, deriveGenerator("terminos/bulletproof/H", i))
	}
	return gens.g[:n], gens.h[:n]
}

func deriveGenerator(label string, index int) *group.Point {
	return group.HashToPoint(fmt.Sprintf("%s/%d", label, index))
}
