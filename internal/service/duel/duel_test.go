package duel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

func twoPlayerGame(mode string) *entity.Game {
	now := time.Now()
	g := entity.NewGame("ABC123", 1, entity.GameConfig{Category: entity.CategoryMath, NumRounds: 3, Mode: mode}, now)
	g.Players = append(g.Players, *entity.NewPlayer(2, now))
	g.Status = entity.GameStatusActive
	g.CurrentRound = 1
	g.GameQuestions = entity.QuestionList{
		{Text: "q1", Choices: []string{"a", "b"}, Answer: "a"},
		{Text: "q2", Choices: []string{"a", "b"}, Answer: "b"},
		{Text: "q3", Choices: []string{"a", "b"}, Answer: "a"},
	}
	g.Questions = entity.IntArray{0, 1, 2}
	q := g.GameQuestions[0].Bare()
	g.CurrentQuestion = &q
	return g
}

func identityPerm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func reversePerm(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = n - 1 - i
	}
	return out
}

func TestNormalizeConfig(t *testing.T) {
	limits := DefaultLimits()

	testCases := []struct {
		name    string
		input   entity.GameConfig
		want    entity.GameConfig
		wantErr bool
	}{
		{
			name:  "fast mode drops time limit",
			input: entity.GameConfig{Category: "Math", NumRounds: 3, Mode: "fast", TimeLimitSec: 20},
			want:  entity.GameConfig{Category: "math", NumRounds: 3, Mode: "fast"},
		},
		{
			name:  "timed mode gets default limit",
			input: entity.GameConfig{Category: "english", Topic: " grammar ", NumRounds: 10, Mode: "timed"},
			want:  entity.GameConfig{Category: "english", Topic: "grammar", NumRounds: 10, Mode: "timed", TimeLimitSec: 30},
		},
		{
			name:  "empty mode defaults to fast",
			input: entity.GameConfig{Category: "math", NumRounds: 5},
			want:  entity.GameConfig{Category: "math", NumRounds: 5, Mode: "fast"},
		},
		{name: "unknown category", input: entity.GameConfig{Category: "science", NumRounds: 3, Mode: "fast"}, wantErr: true},
		{name: "too few rounds", input: entity.GameConfig{Category: "math", NumRounds: 2, Mode: "fast"}, wantErr: true},
		{name: "too many rounds", input: entity.GameConfig{Category: "math", NumRounds: 11, Mode: "fast"}, wantErr: true},
		{name: "unknown mode", input: entity.GameConfig{Category: "math", NumRounds: 3, Mode: "blitz"}, wantErr: true},
		{name: "time limit too short", input: entity.GameConfig{Category: "math", NumRounds: 3, Mode: "timed", TimeLimitSec: 1}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeConfig(tc.input, limits)
			if tc.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		normalized, ok := NormalizeCode(code)
		assert.True(t, ok, code)
		assert.Equal(t, code, normalized)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 190, "codes should rarely collide")
}

func TestNormalizeCode(t *testing.T) {
	code, ok := NormalizeCode(" ab12cd ")
	assert.True(t, ok)
	assert.Equal(t, "AB12CD", code)

	for _, bad := range []string{"", "ABC", "ABCDEFG", "AB-12C"} {
		_, ok := NormalizeCode(bad)
		assert.False(t, ok, bad)
	}
}

func TestAwardFastAnswer(t *testing.T) {
	t.Run("first correct answer scores", func(t *testing.T) {
		g := twoPlayerGame(entity.GameModeFast)
		g.Players[0].SetAnswer("a", time.Now())

		awarded := AwardFastAnswer(g.CurrentQuestion, &g.Players[0], &g.Players[1], true)

		assert.True(t, awarded)
		assert.Equal(t, 1, g.Players[0].Score)
	})

	t.Run("second correct answer does not score", func(t *testing.T) {
		g := twoPlayerGame(entity.GameModeFast)
		g.Players[1].SetAnswer("a", time.Now())
		g.Players[1].Score = 1
		g.Players[0].SetAnswer("a", time.Now())

		awarded := AwardFastAnswer(g.CurrentQuestion, &g.Players[0], &g.Players[1], true)

		assert.False(t, awarded)
		assert.Equal(t, 0, g.Players[0].Score)
	})

	t.Run("correct after opponent was wrong scores", func(t *testing.T) {
		g := twoPlayerGame(entity.GameModeFast)
		g.Players[1].SetAnswer("b", time.Now())
		g.Players[0].SetAnswer("a", time.Now())

		assert.True(t, AwardFastAnswer(g.CurrentQuestion, &g.Players[0], &g.Players[1], true))
	})

	t.Run("wrong answer never scores", func(t *testing.T) {
		g := twoPlayerGame(entity.GameModeFast)
		assert.False(t, AwardFastAnswer(g.CurrentQuestion, &g.Players[0], &g.Players[1], false))
		assert.Equal(t, 0, g.Players[0].Score)
	})
}

func TestScoreTimedRound(t *testing.T) {
	testCases := []struct {
		name     string
		answers  []string
		expected int
	}{
		{"both correct", []string{"a", "a"}, 2},
		{"one correct", []string{"a", "b"}, 1},
		{"none correct", []string{"b", "b"}, 0},
		{"one missing", []string{"b", ""}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := twoPlayerGame(entity.GameModeTimed)
			for i, a := range tc.answers {
				if a != "" {
					g.Players[i].SetAnswer(a, time.Now())
				}
			}

			awarded := ScoreTimedRound(g.CurrentQuestion, g.Players)

			assert.Equal(t, tc.expected, awarded)
			assert.Equal(t, tc.expected, g.Players[0].Score+g.Players[1].Score)
		})
	}
}

func TestRecordRoundHistory(t *testing.T) {
	// Arrange
	g := twoPlayerGame(entity.GameModeTimed)
	answeredAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g.Players[0].SetAnswer("b", answeredAt)
	now := answeredAt.Add(time.Minute)

	// Act
	RecordRoundHistory(g, 1, now)

	// Assert
	rq := g.GameQuestions[0]
	require.Len(t, rq.PlayerAnswers, 1)
	entry := rq.PlayerAnswers[1]
	assert.Equal(t, "b", entry.Answer)
	assert.False(t, entry.IsCorrect)
	assert.Equal(t, answeredAt, entry.AnsweredAt)
	require.NotNil(t, rq.ClosedAt)
	assert.Equal(t, now, *rq.ClosedAt)

	// A late answer is merged, the first close time is kept.
	g.Players[1].SetAnswer("a", now)
	RecordRoundHistory(g, 1, now.Add(time.Minute))
	assert.Len(t, g.GameQuestions[0].PlayerAnswers, 2)
	assert.True(t, g.GameQuestions[0].PlayerAnswers[2].IsCorrect)
	assert.Equal(t, now, *g.GameQuestions[0].ClosedAt)

	// Out of range rounds are ignored.
	RecordRoundHistory(g, 9, now)
}

func TestDecideWinner(t *testing.T) {
	players := []entity.Player{{UserID: 1, Score: 2}, {UserID: 2, Score: 1}}
	winner, tie := DecideWinner(players)
	require.NotNil(t, winner)
	assert.Equal(t, uint(1), *winner)
	assert.False(t, tie)

	players[1].Score = 3
	winner, tie = DecideWinner(players)
	require.NotNil(t, winner)
	assert.Equal(t, uint(2), *winner)
	assert.False(t, tie)

	players[0].Score = 3
	winner, tie = DecideWinner(players)
	assert.Nil(t, winner)
	assert.True(t, tie)
}

func TestForfeitWinner(t *testing.T) {
	g := twoPlayerGame(entity.GameModeFast)
	winner := ForfeitWinner(g, 1)
	require.NotNil(t, winner)
	assert.Equal(t, uint(2), *winner)

	g.Players = g.Players[:1]
	assert.Nil(t, ForfeitWinner(g, 1))
}

func TestSelectQuestions(t *testing.T) {
	pool := []entity.Question{{Text: "q0"}, {Text: "q1"}, {Text: "q2"}, {Text: "q3"}}

	indices, bodies, err := SelectQuestions(pool, 3, reversePerm)

	require.NoError(t, err)
	assert.Equal(t, entity.IntArray{3, 2, 1}, indices)
	require.Len(t, bodies, 3)
	assert.Equal(t, "q3", bodies[0].Text)

	_, _, err = SelectQuestions(pool, 5, identityPerm)
	assert.ErrorIs(t, err, apperrors.ErrNotReady)
}

func TestQuestionForRound(t *testing.T) {
	g := twoPlayerGame(entity.GameModeFast)
	pool := []entity.Question{
		{Text: "q1", Answer: "a", Choices: []string{"a", "b", "c"}},
		{Text: "q2", Answer: "b"},
		{Text: "q3", Answer: "a"},
	}

	q, ok := QuestionForRound(g, pool, 2)
	require.True(t, ok)
	assert.Equal(t, "q2", q.Text)

	// A pool that changed under the game falls back to the snapshot.
	pool[2] = entity.Question{Text: "different"}
	q, ok = QuestionForRound(g, pool, 3)
	require.True(t, ok)
	assert.Equal(t, "q3", q.Text)

	q, ok = QuestionForRound(g, nil, 2)
	require.True(t, ok)
	assert.Equal(t, "q2", q.Text)

	_, ok = QuestionForRound(g, pool, 4)
	assert.False(t, ok)
}
