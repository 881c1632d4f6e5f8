package oracle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

func baseScenario() roadrisk.Scenario {
	return roadrisk.Scenario{
		RoadType:         roadrisk.RoadUrban,
		NumLanes:         2,
		Curvature:        0.4,
		SpeedLimit:       35,
		Lighting:         roadrisk.LightingDaylight,
		Weather:          roadrisk.WeatherClear,
		RoadSignsPresent: true,
		PublicRoad:       true,
		TimeOfDay:        roadrisk.TimeMorning,
	}
}

func TestDefaultModelRanksDangerousRoadHigher(t *testing.T) {
	m := DefaultModel()
	ctx := context.Background()

	dangerous := baseScenario()
	dangerous.Lighting = roadrisk.LightingNight
	dangerous.Weather = roadrisk.WeatherFoggy
	dangerous.SpeedLimit = 70
	dangerous.Curvature = 0.95
	dangerous.NumReportedAccidents = 3

	safe := baseScenario()
	safe.Lighting = roadrisk.LightingDaylight
	safe.Weather = roadrisk.WeatherClear
	safe.SpeedLimit = 35
	safe.Curvature = 0.05
	safe.NumReportedAccidents = 0

	rd, err := m.Predict(ctx, dangerous)
	require.NoError(t, err)
	rs, err := m.Predict(ctx, safe)
	require.NoError(t, err)

	assert.Greater(t, rd, rs)
	assert.Equal(t, roadrisk.LevelHigh, roadrisk.LevelFor(rd))
	assert.Equal(t, roadrisk.LevelVeryLow, roadrisk.LevelFor(rs))
}

func TestDefaultModelStaysInUnitInterval(t *testing.T) {
	m := DefaultModel()
	for _, l := range roadrisk.Lightings {
		for _, w := range roadrisk.Weathers {
			for _, speed := range roadrisk.SpeedLimits {
				s := baseScenario()
				s.Lighting, s.Weather, s.SpeedLimit, s.Curvature = l, w, speed, 1
				r, err := m.Predict(context.Background(), s)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, r, 0.0)
				assert.LessOrEqual(t, r, 1.0)
			}
		}
	}
}

func TestModelClampsOutput(t *testing.T) {
	leaf := func(v float64) Tree {
		return Tree{Nodes: []Node{{Left: -1, Right: -1, Value: v}}}
	}
	tests := []struct {
		name string
		init float64
		want float64
	}{
		{"above one", 0.9, 1},
		{"below zero", -0.9, 0},
		{"inside", 0.2, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Model{Init: tt.init, LearningRate: 1, Features: []string{"curvature"}, Trees: []Tree{leaf(0.5)}}
			got, err := m.Predict(context.Background(), baseScenario())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestModelSplitsLeftOnEqual(t *testing.T) {
	m := &Model{
		LearningRate: 1,
		Features:     []string{"speed_limit"},
		Trees: []Tree{{Nodes: []Node{
			{Feature: 0, Threshold: 45, Left: 1, Right: 2},
			{Left: -1, Right: -1, Value: 0.1},
			{Left: -1, Right: -1, Value: 0.9},
		}}},
	}
	s := baseScenario()
	s.SpeedLimit = 45
	got, err := m.Predict(context.Background(), s)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-9)

	s.SpeedLimit = 60
	got, err = m.Predict(context.Background(), s)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, got, 1e-9)
}

func TestNilModelIsUnavailable(t *testing.T) {
	var m *Model
	_, err := m.Predict(context.Background(), baseScenario())
	assert.ErrorIs(t, err, roadrisk.ErrOracleUnavailable)
}

func TestModelRejectsUnseenCategory(t *testing.T) {
	s := baseScenario()
	s.Weather = "snowy"
	_, err := DefaultModel().Predict(context.Background(), s)
	assert.ErrorIs(t, err, roadrisk.ErrInvalidScenario)
}

func TestEngineeredFeatures(t *testing.T) {
	m := DefaultModel()
	s := baseScenario()
	s.SpeedLimit = 60
	s.Curvature = 0.7
	s.NumLanes = 3
	s.NumReportedAccidents = 2

	x, err := m.vector(s)
	require.NoError(t, err)

	at := func(name string) float64 {
		for i, f := range m.Features {
			if f == name {
				return x[i]
			}
		}
		t.Fatalf("feature %q missing", name)
		return 0
	}
	assert.InDelta(t, 42.0, at("speed_curvature"), 1e-9)
	assert.Equal(t, 6.0, at("lanes_accidents"))
	assert.Equal(t, 1.0, at("high_speed"))
	assert.Equal(t, 1.0, at("sharp_curve"))
	assert.Equal(t, 2.0, at("road_type"))   // urban
	assert.Equal(t, 2.0, at("time_of_day")) // morning sorts last
	assert.Equal(t, 1.0, at("road_signs_present"))
}

func TestDecodeModelValidation(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{"not json", `{`, "decoding model"},
		{"no features", `{"trees":[]}`, "no features"},
		{"unknown feature", `{"features":["colour"]}`, "unknown feature"},
		{"missing encoder", `{"features":["weather"]}`, "no encoder"},
		{"bad feature index", `{"features":["curvature"],"trees":[{"nodes":[{"feature":3,"left":1,"right":2},{"left":-1},{"left":-1}]}]}`, "out of range"},
		{"child loops back", `{"features":["curvature"],"trees":[{"nodes":[{"feature":0,"left":0,"right":1},{"left":-1}]}]}`, "child index"},
		{"empty tree", `{"features":["curvature"],"trees":[{"nodes":[]}]}`, "empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeModel(strings.NewReader(tt.json))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, defaultModelJSON, 0o644))

	m, err := LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel().Version, m.Version)

	_, err = LoadModel(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
