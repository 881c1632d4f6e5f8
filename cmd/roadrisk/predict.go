package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
)

type predictOutput struct {
	Scenario     roadrisk.Scenario  `json:"scenario"`
	AccidentRisk float64            `json:"accident_risk"`
	RiskLevel    roadrisk.RiskLevel `json:"risk_level"`
	RiskLabel    string             `json:"risk_label"`
}

func newPredictCmd() *cobra.Command {
	var (
		s       roadrisk.Scenario
		road    string
		light   string
		weather string
		tod     string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the accident risk of one road scenario",
		Example: "  roadrisk predict --road-type rural --curvature 0.8 --speed 60 --lighting night --weather foggy\n" +
			"  roadrisk predict --json --accidents 2",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s.RoadType = roadrisk.RoadType(road)
			s.Lighting = roadrisk.Lighting(light)
			s.Weather = roadrisk.Weather(weather)
			s.TimeOfDay = roadrisk.TimeOfDay(tod)
			if err := s.Validate(); err != nil {
				return err
			}

			o, err := resolveOracle(cmd)
			if err != nil {
				return err
			}
			risk, err := o.Predict(cmd.Context(), s)
			if err != nil {
				return fmt.Errorf("predicting: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				level := roadrisk.LevelFor(risk)
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(predictOutput{Scenario: s, AccidentRisk: risk, RiskLevel: level, RiskLabel: level.Label()})
			}

			fmt.Fprintln(out, card("Escenario", scenario.Describe(s)))
			fmt.Fprintln(out, "Riesgo de accidente:", riskLine(risk))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&road, "road-type", string(roadrisk.RoadUrban), "urban, rural or highway")
	f.IntVar(&s.NumLanes, "lanes", 2, "Number of lanes (1-4)")
	f.Float64Var(&s.Curvature, "curvature", 0.3, "Curvature in [0,1]")
	f.IntVar(&s.SpeedLimit, "speed", 45, "Speed limit in mph (25, 35, 45, 60 or 70)")
	f.StringVar(&light, "lighting", string(roadrisk.LightingDaylight), "daylight, dim or night")
	f.StringVar(&weather, "weather", string(roadrisk.WeatherClear), "clear, rainy or foggy")
	f.BoolVar(&s.RoadSignsPresent, "signs", true, "Road signs present")
	f.BoolVar(&s.PublicRoad, "public", true, "Public road")
	f.StringVar(&tod, "time", string(roadrisk.TimeMorning), "morning, afternoon or evening")
	f.BoolVar(&s.Holiday, "holiday", false, "Holiday")
	f.BoolVar(&s.SchoolSeason, "school", false, "School season")
	f.IntVar(&s.NumReportedAccidents, "accidents", 0, "Previously reported accidents")
	f.BoolVar(&asJSON, "json", false, "Print JSON instead of a card")
	return cmd
}
