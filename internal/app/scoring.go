package app

import "math"

const (
	// BasePoints is what any correct answer is worth.
	BasePoints = 100
	// MaxSpeedBonus is added on top of BasePoints for an instant answer.
	MaxSpeedBonus = 50
	// QuestionTimeMs is the duel countdown shown to clients.
	QuestionTimeMs = 10_000
	// raceDecayMs is how many milliseconds cost one race bonus point.
	raceDecayMs = 200
)

// DuelPoints is the scoring rule duel clients apply before submitting.
// The server trusts submitted points; this exists so clients and tests agree.
func DuelPoints(elapsedMs int, correct bool) int {
	if !correct {
		return 0
	}
	bonus := int(math.Round(MaxSpeedBonus * (1 - float64(elapsedMs)/QuestionTimeMs)))
	if bonus < 0 {
		bonus = 0
	}
	return BasePoints + bonus
}

// RacePoints scores a race winner: the bonus loses a point every 200ms.
func RacePoints(elapsedMs int) int {
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	bonus := MaxSpeedBonus - elapsedMs/raceDecayMs
	if bonus < 0 {
		bonus = 0
	}
	return BasePoints + bonus
}
