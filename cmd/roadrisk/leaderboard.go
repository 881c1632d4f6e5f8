package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/playperu/roadrisk/internal/database"
	"github.com/playperu/roadrisk/internal/leaderboard"
	"github.com/playperu/roadrisk/internal/migrations"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the best runs stored in the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(cmd.Context(), dbPath)
			if err != nil {
				return fmt.Errorf("opening %s: %w", dbPath, err)
			}
			defer db.Close()
			if err := migrations.Run(cmd.Context(), db); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			entries, err := leaderboard.NewSQLiteStore(db).Top(cmd.Context(), leaderboard.ClampLimit(limit))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, dimStyle.Render("Aún no hay partidas registradas."))
				return nil
			}

			fmt.Fprintln(out, titleStyle.Render("🏆 Mejores partidas"))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tJUGADOR\tPUNTOS\tACIERTOS\tRACHA\tDIFICULTAD\tFECHA")
			for i, e := range entries {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d/%d\t%d\t%s\t%s\n",
					i+1, e.PlayerName, e.Score, e.GamesWon, e.GamesPlayed, e.BestStreak,
					e.Difficulty.Label(), e.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/roadrisk.db", "Path to the SQLite database file")
	cmd.Flags().IntVar(&limit, "limit", leaderboard.DefaultLimit, "How many runs to show (max 100)")
	return cmd
}
