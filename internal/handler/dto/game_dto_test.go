package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/satprep-api/internal/domain/entity"
)

func activeGame() *entity.Game {
	now := time.Now()
	g := entity.NewGame("ABC123", 1, entity.GameConfig{Category: entity.CategoryMath, NumRounds: 3, Mode: entity.GameModeFast}, now)
	g.Players = append(g.Players, *entity.NewPlayer(2, now))
	g.Status = entity.GameStatusActive
	g.CurrentRound = 2
	g.CurrentQuestion = &entity.Question{Text: "2 + 2 = ?", Choices: []string{"3", "4"}, Answer: "4"}
	return g
}

func TestNewNextRoundResponse_OpenRound(t *testing.T) {
	g := activeGame()

	resp := NewNextRoundResponse(g, false, 1)

	assert.False(t, resp.Advanced)
	assert.False(t, resp.GameFinished)
	assert.Equal(t, 2, resp.CurrentRound)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Empty(t, resp.CurrentQuestion.Answer)
	assert.Nil(t, resp.WinnerID)
	assert.Empty(t, resp.Players)
}

func TestNewNextRoundResponse_Finished(t *testing.T) {
	g := activeGame()
	winner := uint(2)
	g.Status = entity.GameStatusFinished
	g.CurrentQuestion = nil
	g.WinnerID = &winner

	resp := NewNextRoundResponse(g, true, 1)

	assert.True(t, resp.Advanced)
	assert.True(t, resp.GameFinished)
	assert.Nil(t, resp.CurrentQuestion)
	require.NotNil(t, resp.WinnerID)
	assert.Equal(t, winner, *resp.WinnerID)
	assert.Len(t, resp.Players, 2)
}

func TestNewSubmitAnswerResponse(t *testing.T) {
	g := activeGame()
	answer := "4"
	g.Players[0].CurrentAnswer = &answer

	resp := NewSubmitAnswerResponse(g, true, true, 1, 2)

	assert.True(t, resp.IsCorrect)
	assert.True(t, resp.Awarded)
	assert.Equal(t, 1, resp.Score)
	// viewer 2 never sees player 1's open answer
	assert.Nil(t, resp.Game.Players[0].CurrentAnswer)
}
