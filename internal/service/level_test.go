package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateLevel_KnownValues(t *testing.T) {
	tests := []struct {
		experience int
		level      int
	}{
		{0, 0},
		{99, 0},
		{100, 1},
		{299, 1},
		{300, 2},
		{5000, 9},
		{5499, 9},
		{5500, 10},
		{10_000_000, 446},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, CalculateLevel(tt.experience), "experience %d", tt.experience)
	}
}

func TestCalculateLevel_IsMonotonic(t *testing.T) {
	prev := CalculateLevel(0)
	for e := 1; e <= 10_000_000; e++ {
		level := CalculateLevel(e)
		if level < prev {
			require.Failf(t, "level decreased", "experience %d: level %d after %d", e, level, prev)
		}
		prev = level
	}
}

func TestCalculateUntilNextLevel_AtLevelBoundaries(t *testing.T) {
	for level := 0; level <= 446; level++ {
		threshold := 50 * level * (level + 1)

		// Exactly on the threshold the new level is reached and a full
		// level's worth of experience remains.
		got := CalculateLevel(threshold)
		require.Equal(t, level, got, "threshold %d", threshold)
		assert.Equal(t, 100*(level+1), CalculateUntilNextLevel(got, threshold))

		// One point below, one point remains.
		if threshold > 0 {
			below := CalculateLevel(threshold - 1)
			require.Equal(t, level-1, below, "threshold-1 %d", threshold-1)
			assert.Equal(t, 1, CalculateUntilNextLevel(below, threshold-1))
		}
	}
}

func TestCalculateUntilNextLevel_NeverNegativeAfterCalculateLevel(t *testing.T) {
	for e := 0; e <= 10_000_000; e += 997 {
		assert.Positive(t, CalculateUntilNextLevel(CalculateLevel(e), e), "experience %d", e)
	}
}
