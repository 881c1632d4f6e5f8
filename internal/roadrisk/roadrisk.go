// Package roadrisk defines the core domain types shared by the generator,
// the risk oracle and the quiz session. It has zero external dependencies.
package roadrisk

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	ErrInvalidDifficulty = errors.New("invalid difficulty")
	ErrInvalidScenario   = errors.New("invalid scenario")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrOracleUnavailable = errors.New("risk oracle unavailable")
	ErrNotFound          = errors.New("not found")
)

type RoadType string

const (
	RoadHighway RoadType = "highway"
	RoadRural   RoadType = "rural"
	RoadUrban   RoadType = "urban"
)

type Lighting string

const (
	LightingDaylight Lighting = "daylight"
	LightingDim      Lighting = "dim"
	LightingNight    Lighting = "night"
)

type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherFoggy Weather = "foggy"
	WeatherRainy Weather = "rainy"
)

type TimeOfDay string

const (
	TimeMorning   TimeOfDay = "morning"
	TimeAfternoon TimeOfDay = "afternoon"
	TimeEvening   TimeOfDay = "evening"
)

// Domains of the categorical and discrete fields, in the order the
// generator draws from.
var (
	RoadTypes   = []RoadType{RoadHighway, RoadRural, RoadUrban}
	Lightings   = []Lighting{LightingDaylight, LightingDim, LightingNight}
	Weathers    = []Weather{WeatherClear, WeatherFoggy, WeatherRainy}
	TimesOfDay  = []TimeOfDay{TimeMorning, TimeAfternoon, TimeEvening}
	SpeedLimits = []int{25, 35, 45, 60, 70}
)

const (
	MinLanes     = 1
	MaxLanes     = 4
	MaxAccidents = 3
)

// Scenario describes one road segment. JSON names match the columns of the
// training data so a scenario can be posted straight from a CSV row.
type Scenario struct {
	RoadType             RoadType  `json:"road_type"`
	NumLanes             int       `json:"num_lanes"`
	Curvature            float64   `json:"curvature"`
	SpeedLimit           int       `json:"speed_limit"`
	Lighting             Lighting  `json:"lighting"`
	Weather              Weather   `json:"weather"`
	RoadSignsPresent     bool      `json:"road_signs_present"`
	PublicRoad           bool      `json:"public_road"`
	TimeOfDay            TimeOfDay `json:"time_of_day"`
	Holiday              bool      `json:"holiday"`
	SchoolSeason         bool      `json:"school_season"`
	NumReportedAccidents int       `json:"num_reported_accidents"`
}

// Validate reports the first field outside its declared domain. Reported
// accidents are only bounded below: real data goes past the generator's range.
func (s Scenario) Validate() error {
	switch {
	case !slices.Contains(RoadTypes, s.RoadType):
		return fmt.Errorf("%w: road_type %q", ErrInvalidScenario, s.RoadType)
	case s.NumLanes < MinLanes || s.NumLanes > MaxLanes:
		return fmt.Errorf("%w: num_lanes %d out of [%d,%d]", ErrInvalidScenario, s.NumLanes, MinLanes, MaxLanes)
	case math.IsNaN(s.Curvature) || s.Curvature < 0 || s.Curvature > 1:
		return fmt.Errorf("%w: curvature %v out of [0,1]", ErrInvalidScenario, s.Curvature)
	case !slices.Contains(SpeedLimits, s.SpeedLimit):
		return fmt.Errorf("%w: speed_limit %d", ErrInvalidScenario, s.SpeedLimit)
	case !slices.Contains(Lightings, s.Lighting):
		return fmt.Errorf("%w: lighting %q", ErrInvalidScenario, s.Lighting)
	case !slices.Contains(Weathers, s.Weather):
		return fmt.Errorf("%w: weather %q", ErrInvalidScenario, s.Weather)
	case !slices.Contains(TimesOfDay, s.TimeOfDay):
		return fmt.Errorf("%w: time_of_day %q", ErrInvalidScenario, s.TimeOfDay)
	case s.NumReportedAccidents < 0:
		return fmt.Errorf("%w: num_reported_accidents %d", ErrInvalidScenario, s.NumReportedAccidents)
	}
	return nil
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"

	DefaultDifficulty = DifficultyMedium
)

var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// ParseDifficulty accepts the three difficulty names, ignoring case and
// surrounding space. Anything else fails with ErrInvalidDifficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return d, nil
}

func (d Difficulty) Valid() bool {
	return slices.Contains(Difficulties, d)
}

// Label is the player-facing name shown by the front-end.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyEasy:
		return "Fácil"
	case DifficultyMedium:
		return "Medio"
	case DifficultyHard:
		return "Difícil"
	default:
		return string(d)
	}
}
