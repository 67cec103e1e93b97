package analysis

import (
	"errors"
	"math/rand/v2"
)

// DefaultPersonas is the pool used when no personas are configured.
var DefaultPersonas = []string{
	"Hippocrates",
	"Leonardo da Vinci",
	"Marie Curie",
	"Benjamin Franklin",
	"Florence Nightingale",
	"Marcus Aurelius",
}

var ErrEmptyPersonaPool = errors.New("persona pool is empty")

// Rand is the random source used for persona selection. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand returns a Rand backed by the runtime's goroutine-safe generator.
func DefaultRand() Rand { return globalRand{} }

// PickPersona draws one persona uniformly from pool.
func PickPersona(pool []string, r Rand) (string, error) {
	if len(pool) == 0 {
		return "", ErrEmptyPersonaPool
	}
	if r == nil {
		r = DefaultRand()
	}
	return pool[r.IntN(len(pool))], nil
}
