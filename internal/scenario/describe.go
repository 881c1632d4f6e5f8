package scenario

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

var (
	roadEmoji = map[roadrisk.RoadType]string{
		roadrisk.RoadHighway: "🛣️",
		roadrisk.RoadRural:   "🌾",
		roadrisk.RoadUrban:   "🏙️",
	}
	weatherEmoji = map[roadrisk.Weather]string{
		roadrisk.WeatherClear: "☀️",
		roadrisk.WeatherFoggy: "🌫️",
		roadrisk.WeatherRainy: "🌧️",
	}
	lightingEmoji = map[roadrisk.Lighting]string{
		roadrisk.LightingDaylight: "☀️",
		roadrisk.LightingDim:      "🌤️",
		roadrisk.LightingNight:    "🌙",
	}
	timeEmoji = map[roadrisk.TimeOfDay]string{
		roadrisk.TimeMorning:   "🌅",
		roadrisk.TimeAfternoon: "☀️",
		roadrisk.TimeEvening:   "🌆",
	}
)

// CurveClass names how bent a road is: recta below 0.3, curva cerrada from 0.7.
func CurveClass(curvature float64) string {
	switch {
	case curvature < 0.3:
		return "recta"
	case curvature < 0.7:
		return "curva moderada"
	default:
		return "curva cerrada"
	}
}

// Describe renders the player-facing card for a scenario, one attribute per line.
func Describe(s roadrisk.Scenario) string {
	road, ok := roadEmoji[s.RoadType]
	if !ok {
		road = roadEmoji[roadrisk.RoadHighway]
	}
	signs := "con señales"
	if !s.RoadSignsPresent {
		signs = "sin señales"
	}

	lines := []string{
		fmt.Sprintf("%s %s con %d carril(es)", road, capitalize(string(s.RoadType)), s.NumLanes),
		fmt.Sprintf("🌀 %s (curv: %.2f)", capitalize(CurveClass(s.Curvature)), s.Curvature),
		fmt.Sprintf("⚡ Límite: %d mph", s.SpeedLimit),
		fmt.Sprintf("%s Clima: %s", weatherEmoji[s.Weather], s.Weather),
		fmt.Sprintf("%s Iluminación: %s", lightingEmoji[s.Lighting], s.Lighting),
		fmt.Sprintf("%s Momento: %s", timeEmoji[s.TimeOfDay], s.TimeOfDay),
		fmt.Sprintf("🚸 %s", capitalize(signs)),
		fmt.Sprintf("📊 Accidentes previos: %d", s.NumReportedAccidents),
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
