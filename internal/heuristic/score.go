package heuristic

import "math"

// Score bounds shared by every analyzer.
const (
	MinScore = 0
	MaxScore = 100
)

// ClampScore limits v to [MinScore, MaxScore].
func ClampScore(v int) int {
	return min(max(v, MinScore), MaxScore)
}

// RoundScore rounds f half-to-even (12.5 becomes 12) and clamps the
// result to [0,100]. NaN maps to 0.
func RoundScore(f float64) int {
	if math.IsNaN(f) {
		return MinScore
	}
	if math.IsInf(f, 1) {
		return MaxScore
	}
	if math.IsInf(f, -1) {
		return MinScore
	}
	return ClampScore(int(math.RoundToEven(f)))
}
