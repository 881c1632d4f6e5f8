// Package scoring holds the pure quiz rules: points per round, streak
// commentary and the advisory difficulty recommendation.
package scoring

import (
	"fmt"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

const (
	BasePoints    = 10
	MaxMultiplier = 10
)

// Points awards BasePoints times (1 + streak), with the streak capped at
// MaxMultiplier. streak already includes the answer being scored. Incorrect
// answers score nothing.
func Points(streak int, correct bool) int {
	if !correct {
		return 0
	}
	return BasePoints * (1 + min(max(streak, 0), MaxMultiplier))
}

func StreakMessage(streak int) string {
	switch {
	case streak <= 0:
		return "¡Comienza tu racha!"
	case streak < 3:
		return fmt.Sprintf("¡Racha de %d! 🔥", streak)
	case streak < 5:
		return fmt.Sprintf("¡Excelente! ¡%d seguidas! 🔥🔥", streak)
	case streak < 10:
		return fmt.Sprintf("¡Increíble! ¡%d aciertos! 🔥🔥🔥", streak)
	default:
		return fmt.Sprintf("¡LEYENDA! ¡%d ACIERTOS! 🏆🔥🔥🔥", streak)
	}
}

// MinGamesForRecommendation is the sample size below which the
// recommendation stays on easy.
const MinGamesForRecommendation = 5

// RecommendDifficulty suggests a difficulty from a player's accuracy in
// [0,1]. It is advisory; nothing applies it automatically.
func RecommendDifficulty(accuracy float64, totalGames int) roadrisk.Difficulty {
	switch {
	case totalGames < MinGamesForRecommendation:
		return roadrisk.DifficultyEasy
	case accuracy > 0.80:
		return roadrisk.DifficultyHard
	case accuracy > 0.60:
		return roadrisk.DifficultyMedium
	default:
		return roadrisk.DifficultyEasy
	}
}

// Accuracy is won/played, or 0 before the first round.
func Accuracy(won, played int) float64 {
	if played <= 0 {
		return 0
	}
	return float64(won) / float64(played)
}
