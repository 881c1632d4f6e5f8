package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
)

func newGenerateCmd() *cobra.Command {
	var (
		n          int
		pairs      bool
		difficulty string
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random scenarios or contrasting pairs as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 {
				return fmt.Errorf("-n must be at least 1, got %d", n)
			}
			d, err := roadrisk.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}

			gen := scenario.New(seed)
			if !cmd.Flags().Changed("seed") {
				if gen, err = scenario.NewRandom(); err != nil {
					return err
				}
			}

			var out any
			if pairs {
				ps := make([]scenario.Pair, 0, n)
				for range n {
					p, err := gen.Contrasting(d)
					if err != nil {
						return err
					}
					ps = append(ps, p)
				}
				out = ps
			} else {
				ss := make([]roadrisk.Scenario, 0, n)
				for range n {
					ss = append(ss, gen.Generate())
				}
				out = ss
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().IntVarP(&n, "count", "n", 1, "How many scenarios or pairs")
	cmd.Flags().BoolVar(&pairs, "pairs", false, "Generate contrasting pairs instead of single scenarios")
	cmd.Flags().StringVar(&difficulty, "difficulty", string(roadrisk.DefaultDifficulty), "Pair difficulty: easy, medium or hard")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for reproducible output (default: random)")
	return cmd
}
