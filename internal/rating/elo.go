package rating

import "math"

// DefaultKFactor is the standard rating volatility.
const DefaultKFactor = 32

// Expected returns the Elo expected score for a player against an
// opponent: 1 / (1 + 10^((opponent - rating) / 400)).
func Expected(rating, opponent int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(opponent-rating)/400.0))
}

// NewRating computes the post-match absolute rating for one side. score is
// 1 for a win and 0 for a loss. No floor or ceiling is applied.
func NewRating(rating, opponent int, score float64, k int) int {
	return int(math.Round(float64(rating) + float64(k)*(score-Expected(rating, opponent))))
}

// MatchOutcome returns the new absolute ratings for a decided match,
// computed symmetrically from each side's perspective.
func MatchOutcome(winnerRating, loserRating, k int) (newWinner, newLoser int) {
	newWinner = NewRating(winnerRating, loserRating, 1, k)
	newLoser = NewRating(loserRating, winnerRating, 0, k)
	return newWinner, newLoser
}
