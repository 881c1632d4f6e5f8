package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/playperu/roadrisk/internal/database"
	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/leaderboard"
	"github.com/playperu/roadrisk/internal/migrations"
	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
	"github.com/playperu/roadrisk/internal/scoring"
)

const prompt = "(r reiniciar · d <fácil|medio|difícil> · q salir)"

func newPlayCmd() *cobra.Command {
	var (
		difficulty string
		seed       int64
		name       string
		saveDB     string
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		Long:  "Two roads are shown; pick the one with the higher accident risk. Consecutive hits multiply your points.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := roadrisk.ParseDifficulty(difficulty)
			if err != nil {
				return err
			}
			o, err := resolveOracle(cmd)
			if err != nil {
				return err
			}

			gen := scenario.New(seed)
			if !cmd.Flags().Changed("seed") {
				if gen, err = scenario.NewRandom(); err != nil {
					return err
				}
			}
			s, err := game.New("terminal", gen, o, d)
			if err != nil {
				return err
			}
			s.PlayerName = name

			out := cmd.OutOrStdout()
			if err := playLoop(cmd.Context(), cmd.InOrStdin(), out, s); err != nil {
				return err
			}

			st := s.State()
			fmt.Fprintf(out, "\nPuntaje final: %d · Aciertos: %d/%d · Mejor racha: %d\n",
				st.Score, st.GamesWon, st.GamesPlayed, st.BestStreak)
			if saveDB == "" || st.GamesPlayed == 0 {
				return nil
			}
			return saveRun(cmd.Context(), out, saveDB, s)
		},
	}

	cmd.Flags().StringVar(&difficulty, "difficulty", string(roadrisk.DefaultDifficulty), "easy, medium or hard")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Seed for a reproducible sequence of pairs (default: random)")
	cmd.Flags().StringVar(&name, "name", "", "Player name for the leaderboard")
	cmd.Flags().StringVar(&saveDB, "save-db", "", "SQLite file to record the run in when you quit")
	return cmd
}

// difficultyAliases lets players type the names shown on screen.
var difficultyAliases = map[string]string{
	"fácil":   "easy",
	"facil":   "easy",
	"medio":   "medium",
	"difícil": "hard",
	"dificil": "hard",
}

// playLoop drives s from lines read on in until the player quits or in is
// exhausted.
func playLoop(ctx context.Context, in io.Reader, out io.Writer, s *game.Session) error {
	sc := bufio.NewScanner(in)
	showPair := true

	for {
		if ctx.Err() != nil {
			return nil
		}

		switch s.Phase() {
		case game.PhaseAwaitingChoice:
			if showPair {
				renderPair(out, s)
				showPair = false
			}
			fmt.Fprintf(out, "¿Cuál camino es más peligroso? [A/B] %s: ", dimStyle.Render(prompt))
		case game.PhaseShowingResult:
			fmt.Fprintf(out, "Enter para el siguiente par %s: ", dimStyle.Render(prompt))
		}

		if !sc.Scan() {
			return sc.Err()
		}
		word, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")

		switch strings.ToLower(word) {
		case "q", "quit", "salir":
			return nil
		case "r", "reset":
			s.Reset()
			showPair = true
			fmt.Fprintln(out, dimStyle.Render("Marcador reiniciado."))
			continue
		case "d":
			arg = strings.ToLower(strings.TrimSpace(arg))
			if alias, ok := difficultyAliases[arg]; ok {
				arg = alias
			}
			d, err := roadrisk.ParseDifficulty(arg)
			if err == nil {
				err = s.SetDifficulty(d)
			}
			if err != nil {
				fmt.Fprintln(out, failStyle.Render("Dificultad desconocida: "+arg))
				continue
			}
			fmt.Fprintf(out, "Dificultad: %s (desde el próximo par)\n", d.Label())
			continue
		}

		if s.Phase() == game.PhaseShowingResult {
			if _, err := s.Next(); err != nil {
				return err
			}
			showPair = true
			continue
		}

		choice, err := game.ParseChoice(word)
		if err != nil {
			fmt.Fprintln(out, failStyle.Render("Responde A o B."))
			continue
		}
		res, err := s.Submit(ctx, choice)
		if errors.Is(err, roadrisk.ErrOracleUnavailable) {
			fmt.Fprintln(out, failStyle.Render("No se pudo calcular el riesgo, inténtalo de nuevo."))
			continue
		}
		if err != nil {
			return err
		}
		renderResult(out, s, res)
	}
}

func renderPair(out io.Writer, s *game.Session) {
	p := s.Pair()
	st := s.State()
	fmt.Fprintf(out, "\n%s  Puntos: %d · Racha: %d · %s\n",
		titleStyle.Render("Nivel "+s.Difficulty().Label()), st.Score, st.Streak, scoring.StreakMessage(st.Streak))
	fmt.Fprintln(out, sideBySide(
		card("Camino A", scenario.Describe(p.A)),
		card("Camino B", scenario.Describe(p.B)),
	))
}

func renderResult(out io.Writer, s *game.Session, res game.RoundResult) {
	if res.Correct {
		fmt.Fprintf(out, "%s +%d puntos. %s\n", okStyle.Render("¡Correcto!"), res.Points, res.Message)
	} else {
		fmt.Fprintf(out, "%s %s\n", failStyle.Render("Incorrecto."), res.Message)
	}
	fmt.Fprintf(out, "  Camino A: %s\n  Camino B: %s\n", riskLine(res.RiskA), riskLine(res.RiskB))

	st := s.State()
	fmt.Fprintf(out, "  Puntos: %d · Racha: %d · Precisión: %.0f%%\n", st.Score, st.Streak, s.Accuracy()*100)
	if rec := s.Recommendation(); rec != s.Difficulty() && st.GamesPlayed >= scoring.MinGamesForRecommendation {
		fmt.Fprintln(out, dimStyle.Render("  Sugerencia: prueba el nivel "+rec.Label()))
	}
}

func saveRun(ctx context.Context, out io.Writer, path string, s *game.Session) error {
	db, err := database.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer db.Close()
	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	st := s.State()
	e, err := leaderboard.NewSQLiteStore(db).Submit(ctx, leaderboard.Entry{
		PlayerName:  s.PlayerName,
		Score:       st.Score,
		GamesPlayed: st.GamesPlayed,
		GamesWon:    st.GamesWon,
		BestStreak:  st.BestStreak,
		Difficulty:  s.Difficulty(),
	})
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	fmt.Fprintf(out, "Partida guardada en el ranking como %s.\n", e.PlayerName)
	return nil
}
