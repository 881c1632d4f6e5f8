// Package game runs the "which road is riskier?" quiz. A Session is a small
// state machine over one player's run; it is not safe for concurrent use and
// callers serialise access through a Registry.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/playperu/roadrisk/internal/metrics"
	"github.com/playperu/roadrisk/internal/oracle"
	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
	"github.com/playperu/roadrisk/internal/scoring"
)

var ErrInvalidChoice = errors.New("choice must be A or B")

type Phase string

const (
	PhaseAwaitingChoice Phase = "awaiting_choice"
	PhaseShowingResult  Phase = "showing_result"
)

type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
)

func ParseChoice(s string) (Choice, error) {
	switch c := Choice(strings.ToUpper(strings.TrimSpace(s))); c {
	case ChoiceA, ChoiceB:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChoice, s)
	}
}

// State holds the running counters of a session.
type State struct {
	Score       int `json:"score"`
	Streak      int `json:"streak"`
	BestStreak  int `json:"bestStreak"`
	GamesPlayed int `json:"gamesPlayed"`
	GamesWon    int `json:"gamesWon"`
}

// RoundResult is the outcome of one answered pair.
type RoundResult struct {
	Pair       scenario.Pair       `json:"pair"`
	Difficulty roadrisk.Difficulty `json:"difficulty"`
	RiskA      float64             `json:"riskA"`
	RiskB      float64             `json:"riskB"`
	Higher     Choice              `json:"higher"`
	Choice     Choice              `json:"choice"`
	Correct    bool                `json:"correct"`
	Points     int                 `json:"points"`
	Message    string              `json:"message"`
}

type Session struct {
	ID         string
	PlayerName string

	gen        *scenario.Generator
	oracle     oracle.Oracle
	difficulty roadrisk.Difficulty

	phase          Phase
	state          State
	pair           scenario.Pair
	pairDifficulty roadrisk.Difficulty
	last           *RoundResult
}

// New starts a session at difficulty d with a fresh pair on the table.
func New(id string, gen *scenario.Generator, o oracle.Oracle, d roadrisk.Difficulty) (*Session, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("new session: %w: %q", roadrisk.ErrInvalidDifficulty, d)
	}
	s := &Session{ID: id, gen: gen, oracle: o, difficulty: d}
	if err := s.deal(); err != nil {
		return nil, err
	}
	return s, nil
}

// Submit resolves the live pair against the oracle. On oracle failure the
// session is left untouched and still awaiting a choice.
func (s *Session) Submit(ctx context.Context, choice Choice) (RoundResult, error) {
	if s.phase != PhaseAwaitingChoice {
		return RoundResult{}, fmt.Errorf("submit in phase %s: %w", s.phase, roadrisk.ErrInvalidTransition)
	}
	if choice != ChoiceA && choice != ChoiceB {
		return RoundResult{}, fmt.Errorf("%w: %q", ErrInvalidChoice, choice)
	}

	cmp, err := oracle.Compare(ctx, s.oracle, s.pair.A, s.pair.B)
	if err != nil {
		if !errors.Is(err, roadrisk.ErrOracleUnavailable) {
			err = fmt.Errorf("%w: %v", roadrisk.ErrOracleUnavailable, err)
		}
		return RoundResult{}, fmt.Errorf("resolving round: %w", err)
	}

	higher := ChoiceB
	if cmp.Higher == 0 {
		higher = ChoiceA
	}

	res := RoundResult{
		Pair:       s.pair,
		Difficulty: s.pairDifficulty,
		RiskA:      cmp.RiskA,
		RiskB:      cmp.RiskB,
		Higher:     higher,
		Choice:     choice,
		Correct:    choice == higher,
	}

	s.state.GamesPlayed++
	if res.Correct {
		// The streak counts this round before scoring, so a first hit is worth 20.
		s.state.Streak++
		res.Points = scoring.Points(s.state.Streak, true)
		s.state.Score += res.Points
		s.state.GamesWon++
		s.state.BestStreak = max(s.state.BestStreak, s.state.Streak)
		res.Message = scoring.StreakMessage(s.state.Streak)
	} else {
		s.state.Streak = 0
		res.Message = fmt.Sprintf("El Camino %s tenía mayor riesgo.", higher)
	}

	outcome := "wrong"
	if res.Correct {
		outcome = "correct"
	}
	metrics.RoundsTotal.WithLabelValues(string(res.Difficulty), outcome).Inc()
	metrics.RiskGap.WithLabelValues(string(res.Difficulty)).Observe(math.Abs(cmp.RiskA - cmp.RiskB))

	s.last = &res
	s.phase = PhaseShowingResult
	return res, nil
}

// Next discards the shown result and deals a pair at the current difficulty.
func (s *Session) Next() (scenario.Pair, error) {
	if s.phase != PhaseShowingResult {
		return scenario.Pair{}, fmt.Errorf("next in phase %s: %w", s.phase, roadrisk.ErrInvalidTransition)
	}
	if err := s.deal(); err != nil {
		return scenario.Pair{}, err
	}
	return s.pair, nil
}

// Reset zeroes every counter and deals a fresh pair. It is valid in any phase.
func (s *Session) Reset() scenario.Pair {
	s.state = State{}
	if err := s.deal(); err != nil {
		// New and SetDifficulty only admit valid difficulties.
		panic(fmt.Sprintf("game: reset: %v", err))
	}
	return s.pair
}

// SetDifficulty changes the difficulty of the next dealt pair. The live pair
// keeps the difficulty it was drawn at.
func (s *Session) SetDifficulty(d roadrisk.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("set difficulty: %w: %q", roadrisk.ErrInvalidDifficulty, d)
	}
	s.difficulty = d
	return nil
}

func (s *Session) deal() error {
	p, err := s.gen.Contrasting(s.difficulty)
	if err != nil {
		return err
	}
	s.pair = p
	s.pairDifficulty = s.difficulty
	s.last = nil
	s.phase = PhaseAwaitingChoice
	return nil
}

func (s *Session) Phase() Phase                    { return s.phase }
func (s *Session) State() State                    { return s.state }
func (s *Session) Pair() scenario.Pair             { return s.pair }
func (s *Session) Difficulty() roadrisk.Difficulty { return s.difficulty }

// LastResult is the result on display, or nil while awaiting a choice.
func (s *Session) LastResult() *RoundResult { return s.last }

func (s *Session) Accuracy() float64 {
	return scoring.Accuracy(s.state.GamesWon, s.state.GamesPlayed)
}

// Recommendation is the advisory difficulty for this player's record so far.
func (s *Session) Recommendation() roadrisk.Difficulty {
	return scoring.RecommendDifficulty(s.Accuracy(), s.state.GamesPlayed)
}

// View is a read-only snapshot suitable for rendering.
type View struct {
	ID             string              `json:"id"`
	PlayerName     string              `json:"playerName,omitempty"`
	Phase          Phase               `json:"phase"`
	Difficulty     roadrisk.Difficulty `json:"difficulty"`
	PairDifficulty roadrisk.Difficulty `json:"pairDifficulty"`
	State          State               `json:"state"`
	Pair           scenario.Pair       `json:"pair"`
	Cards          [2]string           `json:"cards"`
	LastResult     *RoundResult        `json:"lastResult,omitempty"`
	Accuracy       float64             `json:"accuracy"`
	StreakMessage  string              `json:"streakMessage"`
	Recommended    roadrisk.Difficulty `json:"recommendedDifficulty"`
}

func (s *Session) View() View {
	v := View{
		ID:             s.ID,
		PlayerName:     s.PlayerName,
		Phase:          s.phase,
		Difficulty:     s.difficulty,
		PairDifficulty: s.pairDifficulty,
		State:          s.state,
		Pair:           s.pair,
		Cards:          [2]string{scenario.Describe(s.pair.A), scenario.Describe(s.pair.B)},
		Accuracy:       s.Accuracy(),
		StreakMessage:  scoring.StreakMessage(s.state.Streak),
		Recommended:    s.Recommendation(),
	}
	if s.last != nil {
		r := *s.last
		v.LastResult = &r
	}
	return v
}
