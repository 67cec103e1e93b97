package analysis

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRand always returns the same index.
type fixedRand int

func (f fixedRand) IntN(n int) int { return int(f) % n }

func TestPickPersona(t *testing.T) {
	pool := []string{"Hippocrates", "Marie Curie", "Marcus Aurelius"}

	got, err := PickPersona(pool, fixedRand(1))
	require.NoError(t, err)
	assert.Equal(t, "Marie Curie", got)
}

func TestPickPersona_SingleElementPool(t *testing.T) {
	got, err := PickPersona([]string{"Hippocrates"}, DefaultRand())
	require.NoError(t, err)
	assert.Equal(t, "Hippocrates", got)
}

func TestPickPersona_EmptyPool(t *testing.T) {
	_, err := PickPersona(nil, DefaultRand())
	assert.ErrorIs(t, err, ErrEmptyPersonaPool)
}

func TestPickPersona_NilRandUsesDefault(t *testing.T) {
	got, err := PickPersona(DefaultPersonas, nil)
	require.NoError(t, err)
	assert.Contains(t, DefaultPersonas, got)
}

func TestPickPersona_Uniform(t *testing.T) {
	pool := []string{"a", "b", "c", "d"}
	const draws = 1000
	r := rand.New(rand.NewPCG(42, 1024))

	counts := make(map[string]int, len(pool))
	for range draws {
		p, err := PickPersona(pool, r)
		require.NoError(t, err)
		counts[p]++
	}

	// Expected 250 per persona with a standard deviation of ~13.7; allow ~4.4σ.
	expected := draws / len(pool)
	for _, p := range pool {
		assert.InDelta(t, expected, counts[p], 60, "persona %q drawn %d times", p, counts[p])
	}
}

func TestPickPersona_SeededIsDeterministic(t *testing.T) {
	draw := func() []string {
		r := rand.New(rand.NewPCG(7, 7))
		out := make([]string, 20)
		for i := range out {
			out[i], _ = PickPersona(DefaultPersonas, r)
		}
		return out
	}
	assert.Equal(t, draw(), draw())
}
