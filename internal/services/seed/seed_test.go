package seed

import (
	"fmt"
	"testing"

	"github.com/iwtcode/linacService/internal/domain/models"
	"github.com/stretchr/testify/require"
)

func TestHashKnownValues(t *testing.T) {
	// Эталонные значения FNV-1a 32
	require.Equal(t, uint32(2166136261), Hash(""))
	require.Equal(t, uint32(0xe40c292c), Hash("a"))
	require.Equal(t, uint32(0xbf9cf968), Hash("foobar"))
}

func TestSeedIsDeterministic(t *testing.T) {
	for _, id := range []string{"A2", "A2_computer_withErrors", "B7", "unknown", "сценарий"} {
		first := Seed(id)
		second := Seed(id)
		require.Equal(t, first, second, id)
	}
}

func TestSeedRanges(t *testing.T) {
	for i := 0; i < 500; i++ {
		off := Seed(fmt.Sprintf("S%d", i))
		require.GreaterOrEqual(t, off.TranslateX, -20.0)
		require.Less(t, off.TranslateX, 20.0)
		require.GreaterOrEqual(t, off.TranslateY, -20.0)
		require.Less(t, off.TranslateY, 20.0)
		require.GreaterOrEqual(t, off.RotateDeg, -1.2)
		require.Less(t, off.RotateDeg, 1.2)
		require.GreaterOrEqual(t, off.Scale, 0.99)
		require.Less(t, off.Scale, 1.01)
	}
}

func TestSeedLowCollision(t *testing.T) {
	seen := make(map[models.SeedOffset]string)
	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("scenario-%03d", i)
		off := Seed(id)
		prev, dup := seen[off]
		require.False(t, dup, "collision between %s and %s", prev, id)
		seen[off] = id
	}
}

func TestSeedEmptyIdentifierUsesFallback(t *testing.T) {
	off := Seed("")
	require.Equal(t, off, Seed(""))
	require.NotEqual(t, models.SeedOffset{}, off)
	require.NotZero(t, off.Scale)
}
