// Package scenario draws random road scenarios and contrasting pairs for the
// quiz. A Generator is not safe for concurrent use; each session owns one.
package scenario

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

// Pair is two scenarios shown side by side as roads A and B.
type Pair struct {
	A roadrisk.Scenario `json:"a"`
	B roadrisk.Scenario `json:"b"`
}

type Generator struct {
	rng *rand.Rand
}

// New returns a generator with a fixed seed, so the same seed replays the
// same sequence of scenarios.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// NewRandom seeds a generator from crypto/rand.
func NewRandom() (*Generator, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return New(seed), nil
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Generate draws every field independently and uniformly from its domain.
func (g *Generator) Generate() roadrisk.Scenario {
	return roadrisk.Scenario{
		RoadType:             pick(g.rng, roadrisk.RoadTypes),
		NumLanes:             roadrisk.MinLanes + g.rng.Intn(roadrisk.MaxLanes-roadrisk.MinLanes+1),
		Curvature:            round2(g.rng.Float64()),
		SpeedLimit:           pick(g.rng, roadrisk.SpeedLimits),
		Lighting:             pick(g.rng, roadrisk.Lightings),
		Weather:              pick(g.rng, roadrisk.Weathers),
		RoadSignsPresent:     g.rng.Intn(2) == 1,
		PublicRoad:           g.rng.Intn(2) == 1,
		TimeOfDay:            pick(g.rng, roadrisk.TimesOfDay),
		Holiday:              g.rng.Intn(2) == 1,
		SchoolSeason:         g.rng.Intn(2) == 1,
		NumReportedAccidents: g.rng.Intn(roadrisk.MaxAccidents + 1),
	}
}

// Contrasting draws a base scenario A and derives B from it. The difficulty
// picks how far B moves from A in feature space; nothing checks the gap the
// oracle ends up seeing.
func (g *Generator) Contrasting(d roadrisk.Difficulty) (Pair, error) {
	if !d.Valid() {
		return Pair{}, fmt.Errorf("contrasting pair: %w: %q", roadrisk.ErrInvalidDifficulty, d)
	}

	a := g.Generate()
	b := a

	switch d {
	case roadrisk.DifficultyEasy:
		b.Lighting = roadrisk.LightingDaylight
		if a.Lighting == roadrisk.LightingDaylight {
			b.Lighting = roadrisk.LightingNight
		}
		b.Weather = roadrisk.WeatherClear
		if a.Weather == roadrisk.WeatherClear {
			b.Weather = roadrisk.WeatherFoggy
		}
		b.Curvature = 0.1
		if a.Curvature < 0.3 {
			b.Curvature = 0.9
		}
		b.SpeedLimit = 25
		if a.SpeedLimit <= 45 {
			b.SpeedLimit = 70
		}

	case roadrisk.DifficultyMedium:
		if g.rng.Float64() > 0.5 {
			b.Lighting = pick(g.rng, without(roadrisk.Lightings, a.Lighting))
		}
		b.Curvature = round2(1 - a.Curvature)
		b.SpeedLimit = pick(g.rng, farSpeeds(a.SpeedLimit, 20))

	case roadrisk.DifficultyHard:
		if a.NumLanes > roadrisk.MinLanes && a.NumLanes < roadrisk.MaxLanes {
			b.NumLanes = a.NumLanes + pick(g.rng, []int{-1, 1})
		}
		jitter := g.rng.Float64()*0.4 - 0.2
		b.Curvature = clamp(round2(a.Curvature+jitter), 0, 1)
		b.RoadSignsPresent = !a.RoadSignsPresent
	}

	return Pair{A: a, B: b}, nil
}

func pick[T any](rng *rand.Rand, xs []T) T {
	return xs[rng.Intn(len(xs))]
}

func without[T comparable](xs []T, skip T) []T {
	out := make([]T, 0, len(xs))
	for _, x := range xs {
		if x != skip {
			out = append(out, x)
		}
	}
	return out
}

// farSpeeds lists the speed limits at least gap mph away from base. Every
// limit in the set has at least one such neighbour for gap 20.
func farSpeeds(base, gap int) []int {
	var out []int
	for _, s := range roadrisk.SpeedLimits {
		if abs(s-base) >= gap {
			out = append(out, s)
		}
	}
	return out
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
