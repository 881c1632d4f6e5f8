package game

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playperu/roadrisk/internal/oracle"
	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/scenario"
)

// curvatureOracle calls the curvier road the riskier one.
var curvatureOracle = oracle.Func(func(_ context.Context, s roadrisk.Scenario) (float64, error) {
	return s.Curvature, nil
})

func newSession(t *testing.T, o oracle.Oracle, d roadrisk.Difficulty) *Session {
	t.Helper()
	s, err := New("test-session", scenario.New(1), o, d)
	require.NoError(t, err)
	return s
}

func winningChoice(t *testing.T, s *Session) Choice {
	t.Helper()
	c, err := oracle.Compare(context.Background(), s.oracle, s.Pair().A, s.Pair().B)
	require.NoError(t, err)
	if c.Higher == 0 {
		return ChoiceA
	}
	return ChoiceB
}

func losingChoice(t *testing.T, s *Session) Choice {
	if winningChoice(t, s) == ChoiceA {
		return ChoiceB
	}
	return ChoiceA
}

func play(t *testing.T, s *Session, c Choice) RoundResult {
	t.Helper()
	res, err := s.Submit(context.Background(), c)
	require.NoError(t, err)
	return res
}

func TestNewSession(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)
	assert.Equal(t, PhaseAwaitingChoice, s.Phase())
	assert.Equal(t, State{}, s.State())
	assert.Nil(t, s.LastResult())
	assert.NoError(t, s.Pair().A.Validate())

	_, err := New("x", scenario.New(1), curvatureOracle, "impossible")
	assert.ErrorIs(t, err, roadrisk.ErrInvalidDifficulty)
}

func TestThreeCorrectAnswersScoreNinety(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)

	// The streak includes the round being scored: 1, 2, 3.
	wantPoints := []int{20, 30, 40}
	for i, want := range wantPoints {
		res := play(t, s, winningChoice(t, s))
		assert.True(t, res.Correct, "round %d", i)
		assert.Equal(t, want, res.Points, "round %d", i)
		_, err := s.Next()
		require.NoError(t, err)
	}

	st := s.State()
	assert.Equal(t, 90, st.Score)
	assert.Equal(t, 3, st.Streak)
	assert.Equal(t, 3, st.GamesPlayed)
	assert.Equal(t, 3, st.GamesWon)
	assert.Equal(t, 3, st.BestStreak)
}

func TestPointsCapAtHundredTen(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)

	var points []int
	for i := 0; i < 13; i++ {
		res := play(t, s, winningChoice(t, s))
		points = append(points, res.Points)
		_, err := s.Next()
		require.NoError(t, err)
	}
	assert.Equal(t, 100, points[8])
	assert.Equal(t, []int{110, 110, 110, 110}, points[9:])
	assert.Equal(t, 13, s.State().Streak)
}

func TestWrongAnswerResetsStreak(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)

	play(t, s, winningChoice(t, s))
	_, _ = s.Next()
	play(t, s, winningChoice(t, s))
	_, _ = s.Next()

	higher := winningChoice(t, s)
	res := play(t, s, losingChoice(t, s))
	assert.False(t, res.Correct)
	assert.Zero(t, res.Points)
	assert.Equal(t, higher, res.Higher)
	assert.Equal(t, "El Camino "+string(higher)+" tenía mayor riesgo.", res.Message)

	st := s.State()
	assert.Equal(t, 0, st.Streak)
	assert.Equal(t, 2, st.BestStreak)
	assert.Equal(t, 50, st.Score)
	assert.Equal(t, 3, st.GamesPlayed)
	assert.Equal(t, 2, st.GamesWon)
}

func TestTieGoesToB(t *testing.T) {
	s := newSession(t, oracle.Fixed(0.5), roadrisk.DifficultyMedium)
	res := play(t, s, ChoiceB)
	assert.Equal(t, ChoiceB, res.Higher)
	assert.True(t, res.Correct)
}

func TestCorrectMessageIsStreakMessage(t *testing.T) {
	s := newSession(t, oracle.Fixed(0.5), roadrisk.DifficultyMedium)
	res := play(t, s, ChoiceB)
	assert.Equal(t, "¡Racha de 1! 🔥", res.Message)
}

func TestInvalidTransitions(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyHard)

	_, err := s.Next()
	assert.ErrorIs(t, err, roadrisk.ErrInvalidTransition)

	play(t, s, ChoiceA)
	_, err = s.Submit(context.Background(), ChoiceA)
	assert.ErrorIs(t, err, roadrisk.ErrInvalidTransition)
	assert.Equal(t, 1, s.State().GamesPlayed, "rejected submit must not count")
}

func TestInvalidChoice(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyHard)
	_, err := s.Submit(context.Background(), "C")
	assert.ErrorIs(t, err, ErrInvalidChoice)
	assert.Equal(t, PhaseAwaitingChoice, s.Phase())
}

func TestParseChoice(t *testing.T) {
	c, err := ParseChoice(" a ")
	require.NoError(t, err)
	assert.Equal(t, ChoiceA, c)

	c, err = ParseChoice("B")
	require.NoError(t, err)
	assert.Equal(t, ChoiceB, c)

	_, err = ParseChoice("left")
	assert.ErrorIs(t, err, ErrInvalidChoice)
}

func TestOracleFailureLeavesSessionAwaiting(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"unavailable", roadrisk.ErrOracleUnavailable},
		{"other failure", errors.New("model file corrupt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := oracle.Func(func(context.Context, roadrisk.Scenario) (float64, error) {
				return 0, tt.err
			})
			s := newSession(t, o, roadrisk.DifficultyMedium)
			pair := s.Pair()

			_, err := s.Submit(context.Background(), ChoiceA)
			assert.ErrorIs(t, err, roadrisk.ErrOracleUnavailable)
			assert.Equal(t, PhaseAwaitingChoice, s.Phase())
			assert.Equal(t, State{}, s.State())
			assert.Equal(t, pair, s.Pair())
		})
	}
}

func TestNextDealsNewPair(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyMedium)
	first := s.Pair()
	play(t, s, ChoiceA)
	assert.Equal(t, PhaseShowingResult, s.Phase())
	require.NotNil(t, s.LastResult())

	next, err := s.Next()
	require.NoError(t, err)
	assert.NotEqual(t, first, next)
	assert.Equal(t, PhaseAwaitingChoice, s.Phase())
	assert.Nil(t, s.LastResult())
}

func TestReset(t *testing.T) {
	for _, showingResult := range []bool{false, true} {
		s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)
		play(t, s, winningChoice(t, s))
		if !showingResult {
			_, err := s.Next()
			require.NoError(t, err)
		}

		s.Reset()
		assert.Equal(t, State{}, s.State())
		assert.Equal(t, PhaseAwaitingChoice, s.Phase())
		assert.Nil(t, s.LastResult())
	}
}

func TestResetPanicsOnUndealableDifficulty(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)
	s.difficulty = "extreme"

	assert.Panics(t, func() { s.Reset() })
}

func TestSetDifficultyAppliesToNextPair(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)

	require.NoError(t, s.SetDifficulty(roadrisk.DifficultyHard))
	assert.Equal(t, roadrisk.DifficultyHard, s.Difficulty())
	assert.Equal(t, roadrisk.DifficultyEasy, s.View().PairDifficulty)

	res := play(t, s, ChoiceA)
	assert.Equal(t, roadrisk.DifficultyEasy, res.Difficulty)

	_, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, roadrisk.DifficultyHard, s.View().PairDifficulty)

	err = s.SetDifficulty("nightmare")
	assert.ErrorIs(t, err, roadrisk.ErrInvalidDifficulty)
	assert.Equal(t, roadrisk.DifficultyHard, s.Difficulty())
}

func TestViewAndRecommendation(t *testing.T) {
	s := newSession(t, curvatureOracle, roadrisk.DifficultyEasy)
	for i := 0; i < 5; i++ {
		play(t, s, winningChoice(t, s))
		_, err := s.Next()
		require.NoError(t, err)
	}

	v := s.View()
	assert.Equal(t, "test-session", v.ID)
	assert.Equal(t, 1.0, v.Accuracy)
	assert.Equal(t, roadrisk.DifficultyHard, v.Recommended)
	assert.Equal(t, "¡Increíble! ¡5 aciertos! 🔥🔥🔥", v.StreakMessage)
	assert.Contains(t, v.Cards[0], "Límite:")
	assert.Contains(t, v.Cards[1], "Accidentes previos:")
}
