package formula

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ProducesParseableText(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))
	for i := 0; i < 500; i++ {
		text := Generate(rng)
		assert.LessOrEqual(t, len(text), maxGeneratedLength)

		f, err := Parse(text)
		require.NoError(t, err, "generated %q", text)

		back, err := Parse(f.String())
		require.NoError(t, err, "canonical %q of %q", f.String(), text)
		assert.True(t, f.Equal(back), "round trip of %q via %q", text, f.String())
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := rand.New(rand.NewSource(7))
	b := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		assert.Equal(t, Generate(a), Generate(b))
	}
}
