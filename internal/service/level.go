package service

import (
	"math"

	"github.com/aanand-mishra/players-api/internal/types"
)

// CalculateLevel returns floor((sqrt(2500 + 200*experience) - 50) / 100).
//
// Level L is reached at exactly 50*L*(L+1) experience; at those values
// the radicand is the perfect square (100L+50)², so the boundaries are
// exact in float64.
func CalculateLevel(experience int) int {
	return int(math.Floor((math.Sqrt(2500+200*float64(experience)) - 50) / 100))
}

// CalculateUntilNextLevel returns the experience still needed to reach
// level+1: 50*(level+1)*(level+2) - experience.
func CalculateUntilNextLevel(level, experience int) int {
	return 50*(level+1)*(level+2) - experience
}

// derive overwrites the derived fields of p from its experience.
func derive(p *types.Player) {
	p.Level = CalculateLevel(p.Experience)
	p.UntilNextLevel = CalculateUntilNextLevel(p.Level, p.Experience)
}
