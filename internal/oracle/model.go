package oracle

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"

	"github.com/playperu/roadrisk/internal/roadrisk"
)

//go:embed default_model.json
var defaultModelJSON []byte

// Model is a gradient-boosted regression tree ensemble exported from the
// training pipeline. Splits follow the usual "x <= threshold goes left"
// convention and a node with Left == -1 is a leaf.
type Model struct {
	Version      string              `json:"version"`
	Init         float64             `json:"init"`
	LearningRate float64             `json:"learning_rate"`
	Features     []string            `json:"features"`
	Encoders     map[string][]string `json:"encoders"`
	Trees        []Tree              `json:"trees"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
}

func (n Node) leaf() bool { return n.Left < 0 }

// Feature columns in the order the training data lays them out. The last
// four are engineered from the raw columns.
var knownFeatures = []string{
	"road_type", "num_lanes", "curvature", "speed_limit", "lighting", "weather",
	"road_signs_present", "public_road", "time_of_day", "holiday",
	"school_season", "num_reported_accidents",
	"speed_curvature", "lanes_accidents", "high_speed", "sharp_curve",
}

var categoricalFeatures = []string{"road_type", "lighting", "weather", "time_of_day"}

// LoadModel reads and validates a model file.
func LoadModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()
	return DecodeModel(f)
}

// DecodeModel parses a model from r and checks that every tree only
// references known features and in-range nodes.
func DecodeModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// DefaultModel returns the baseline ensemble compiled into the binary.
func DefaultModel() *Model {
	m, err := DecodeModel(bytes.NewReader(defaultModelJSON))
	if err != nil {
		panic(fmt.Sprintf("embedded model is invalid: %v", err))
	}
	return m
}

func (m *Model) validate() error {
	if len(m.Features) == 0 {
		return errors.New("model has no features")
	}
	for _, f := range m.Features {
		if !slices.Contains(knownFeatures, f) {
			return fmt.Errorf("model uses unknown feature %q", f)
		}
	}
	for _, c := range categoricalFeatures {
		if slices.Contains(m.Features, c) && len(m.Encoders[c]) == 0 {
			return fmt.Errorf("model has no encoder for %q", c)
		}
	}
	for i, t := range m.Trees {
		if len(t.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", i)
		}
		for j, n := range t.Nodes {
			if n.leaf() {
				continue
			}
			if n.Feature < 0 || n.Feature >= len(m.Features) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", i, j, n.Feature)
			}
			// Children must come after their parent, which also rules out cycles.
			if n.Left <= j || n.Left >= len(t.Nodes) || n.Right <= j || n.Right >= len(t.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", i, j)
			}
		}
	}
	return nil
}

// Predict evaluates the ensemble and clamps the result to [0,1].
func (m *Model) Predict(_ context.Context, s roadrisk.Scenario) (float64, error) {
	if m == nil || len(m.Trees) == 0 {
		return 0, fmt.Errorf("%w: model not loaded", roadrisk.ErrOracleUnavailable)
	}

	x, err := m.vector(s)
	if err != nil {
		return 0, err
	}

	sum := m.Init
	for _, t := range m.Trees {
		sum += m.LearningRate * t.eval(x)
	}
	return math.Max(0, math.Min(1, sum)), nil
}

func (t Tree) eval(x []float64) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.leaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// vector encodes s into the model's feature order. Categoricals map to their
// index in the encoder's class list; booleans are 0/1.
func (m *Model) vector(s roadrisk.Scenario) ([]float64, error) {
	raw := map[string]float64{
		"num_lanes":              float64(s.NumLanes),
		"curvature":              s.Curvature,
		"speed_limit":            float64(s.SpeedLimit),
		"road_signs_present":     b2f(s.RoadSignsPresent),
		"public_road":            b2f(s.PublicRoad),
		"holiday":                b2f(s.Holiday),
		"school_season":          b2f(s.SchoolSeason),
		"num_reported_accidents": float64(s.NumReportedAccidents),
		"speed_curvature":        float64(s.SpeedLimit) * s.Curvature,
		"lanes_accidents":        float64(s.NumLanes * s.NumReportedAccidents),
		"high_speed":             b2f(s.SpeedLimit >= 60),
		"sharp_curve":            b2f(s.Curvature >= 0.7),
	}
	categories := map[string]string{
		"road_type":   string(s.RoadType),
		"lighting":    string(s.Lighting),
		"weather":     string(s.Weather),
		"time_of_day": string(s.TimeOfDay),
	}

	x := make([]float64, len(m.Features))
	for i, f := range m.Features {
		if v, ok := categories[f]; ok {
			idx := slices.Index(m.Encoders[f], v)
			if idx < 0 {
				return nil, fmt.Errorf("%w: unseen %s %q", roadrisk.ErrInvalidScenario, f, v)
			}
			x[i] = float64(idx)
			continue
		}
		x[i] = raw[f]
	}
	return x, nil
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
