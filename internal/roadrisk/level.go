package roadrisk

import "fmt"

// RiskLevel buckets a continuous risk value for display.
type RiskLevel string

const (
	LevelVeryLow  RiskLevel = "very_low"
	LevelLow      RiskLevel = "low"
	LevelModerate RiskLevel = "moderate"
	LevelHigh     RiskLevel = "high"
	LevelVeryHigh RiskLevel = "very_high"
)

// LevelFor buckets risk on 0.2-wide bands; 0.8 and above is very high.
func LevelFor(risk float64) RiskLevel {
	switch {
	case risk < 0.2:
		return LevelVeryLow
	case risk < 0.4:
		return LevelLow
	case risk < 0.6:
		return LevelModerate
	case risk < 0.8:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

func (l RiskLevel) Label() string {
	switch l {
	case LevelVeryLow:
		return "Muy Bajo"
	case LevelLow:
		return "Bajo"
	case LevelModerate:
		return "Moderado"
	case LevelHigh:
		return "Alto"
	case LevelVeryHigh:
		return "Muy Alto"
	default:
		return string(l)
	}
}

func (l RiskLevel) Color() string {
	switch l {
	case LevelVeryLow:
		return "#28a745"
	case LevelLow:
		return "#90EE90"
	case LevelModerate:
		return "#ffc107"
	case LevelHigh:
		return "#fd7e14"
	default:
		return "#dc3545"
	}
}

func (l RiskLevel) Emoji() string {
	switch l {
	case LevelVeryLow:
		return "✅"
	case LevelLow:
		return "🟢"
	case LevelModerate:
		return "🟡"
	case LevelHigh:
		return "🟠"
	default:
		return "🔴"
	}
}

// Percentage formats risk the way the API reports it, e.g. "42.5%".
func Percentage(risk float64) string {
	return fmt.Sprintf("%.1f%%", risk*100)
}
