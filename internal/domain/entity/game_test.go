package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame() *Game {
	now := time.Now()
	g := NewGame("ABC123", 1, GameConfig{Category: CategoryMath, NumRounds: 3, Mode: GameModeFast}, now)
	g.Players = append(g.Players, *NewPlayer(2, now))
	return g
}

func TestNewGame(t *testing.T) {
	g := NewGame("ABC123", 10, GameConfig{Category: CategoryEnglish, Topic: "grammar", NumRounds: 5, Mode: GameModeTimed, TimeLimitSec: 30}, time.Now())

	assert.Equal(t, GameStatusWaiting, g.Status)
	assert.True(t, g.IsWaiting())
	require.Len(t, g.Players, 1)
	assert.Equal(t, uint(10), g.Players[0].UserID)
	assert.False(t, g.Players[0].IsReady)
	assert.Equal(t, GameConfig{Category: CategoryEnglish, Topic: "grammar", NumRounds: 5, Mode: GameModeTimed, TimeLimitSec: 30}, g.Config())
}

func TestGame_PlayerAndOpponent(t *testing.T) {
	g := newTestGame()

	require.NotNil(t, g.Player(1))
	assert.Equal(t, uint(2), g.Opponent(1).UserID)
	assert.Equal(t, uint(1), g.Opponent(2).UserID)
	assert.Nil(t, g.Player(3))
	assert.False(t, g.HasPlayer(3))

	// Player returns a pointer into the slice.
	g.Player(2).Score = 4
	assert.Equal(t, 4, g.Players[1].Score)
}

func TestGame_StatusPredicates(t *testing.T) {
	g := newTestGame()
	for _, tc := range []struct {
		status   string
		active   bool
		terminal bool
	}{
		{GameStatusWaiting, false, false},
		{GameStatusActive, true, false},
		{GameStatusFinished, false, true},
		{GameStatusForfeited, false, true},
	} {
		g.Status = tc.status
		assert.Equal(t, tc.active, g.IsActive(), tc.status)
		assert.Equal(t, tc.terminal, g.IsTerminal(), tc.status)
	}
}

func TestGame_QuestionDeadline(t *testing.T) {
	g := newTestGame()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	g.QuestionStartTime = &start

	_, ok := g.QuestionDeadline()
	assert.False(t, ok, "fast mode has no deadline")

	g.Mode = GameModeTimed
	g.TimeLimitSec = 30
	deadline, ok := g.QuestionDeadline()
	require.True(t, ok)
	assert.Equal(t, start.Add(30*time.Second), deadline)
}

func TestGame_CloneIsDeep(t *testing.T) {
	// Arrange
	g := newTestGame()
	g.CurrentQuestion = &Question{Text: "q", Answer: "a"}
	g.Questions = IntArray{2, 0, 1}
	g.GameQuestions = QuestionList{{Text: "q"}}
	g.Players[0].SetAnswer("a", time.Now())

	// Act
	c := g.Clone()
	c.Players[0].Score = 9
	*c.Players[0].CurrentAnswer = "b"
	c.Questions[0] = 7
	c.CurrentQuestion.Text = "changed"
	c.GameQuestions[0].Text = "changed"

	// Assert
	assert.Equal(t, 0, g.Players[0].Score)
	assert.Equal(t, "a", *g.Players[0].CurrentAnswer)
	assert.Equal(t, 2, g.Questions[0])
	assert.Equal(t, "q", g.CurrentQuestion.Text)
	assert.Equal(t, "q", g.GameQuestions[0].Text)
}

func TestPlayer_AnswerLifecycle(t *testing.T) {
	p := NewPlayer(1, time.Now())
	assert.False(t, p.HasAnswered())

	p.SetAnswer("x", time.Now())
	assert.True(t, p.HasAnswered())
	assert.NotNil(t, p.AnsweredAt)

	p.ClearAnswer()
	assert.False(t, p.HasAnswered())
	assert.Nil(t, p.AnsweredAt)
}
