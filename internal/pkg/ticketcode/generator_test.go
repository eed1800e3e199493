package ticketcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomGenerator_Generate(t *testing.T) {
	g := NewRandomGenerator()

	code, err := g.Generate()
	require.NoError(t, err)
	assert.Len(t, code, CodeLength)

	// 紛らわしい文字（0/O, 1/I/L）を含まない
	for _, r := range code {
		assert.True(t, strings.ContainsRune(alphabet, r), "unexpected character: %c", r)
	}
}

func TestRandomGenerator_Generate_Unique(t *testing.T) {
	g := NewRandomGenerator()

	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		code, err := g.Generate()
		require.NoError(t, err)
		_, dup := seen[code]
		require.False(t, dup, "duplicate code: %s", code)
		seen[code] = struct{}{}
	}
}
