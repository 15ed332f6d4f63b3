package duel

import (
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// AwardFastAnswer applies first-correct-wins scoring for an answer that was just
// recorded on player. A correct answer scores unless the opponent already holds
// the correct answer for this round. Returns whether a point was awarded.
func AwardFastAnswer(q *entity.Question, player, opponent *entity.Player, isCorrect bool) bool {
	if !isCorrect {
		return false
	}
	if opponent != nil && opponent.HasAnswered() && q.IsCorrect(*opponent.CurrentAnswer) {
		return false
	}
	player.Score++
	return true
}

// ScoreTimedRound gives one point to every player holding the correct answer.
// Callers must make sure the round has not been scored before.
func ScoreTimedRound(q *entity.Question, players []entity.Player) int {
	awarded := 0
	for i := range players {
		p := &players[i]
		if p.HasAnswered() && q.IsCorrect(*p.CurrentAnswer) {
			p.Score++
			awarded++
		}
	}
	return awarded
}

// RecordRoundHistory copies the players' current answers into the history of
// round and marks the round closed. Players without an answer get no entry.
// Calling it again for the same round only adds answers that were missing.
func RecordRoundHistory(game *entity.Game, round int, now time.Time) {
	rq := game.RoundQuestion(round)
	if rq == nil {
		return
	}
	if rq.PlayerAnswers == nil {
		rq.PlayerAnswers = make(map[uint]entity.PlayerAnswer, len(game.Players))
	}
	for i := range game.Players {
		p := &game.Players[i]
		if !p.HasAnswered() {
			continue
		}
		if _, recorded := rq.PlayerAnswers[p.UserID]; recorded {
			continue
		}
		answeredAt := now
		if p.AnsweredAt != nil {
			answeredAt = *p.AnsweredAt
		}
		rq.PlayerAnswers[p.UserID] = entity.PlayerAnswer{
			Answer:     *p.CurrentAnswer,
			IsCorrect:  rq.IsCorrect(*p.CurrentAnswer),
			AnsweredAt: answeredAt,
		}
	}
	if rq.ClosedAt == nil {
		rq.ClosedAt = &now
	}
}

// ClearAnswers resets every player's per-round answer.
func ClearAnswers(players []entity.Player) {
	for i := range players {
		players[i].ClearAnswer()
	}
}

// DecideWinner returns the player with the strictly highest score.
// Equal top scores produce a tie.
func DecideWinner(players []entity.Player) (winnerID *uint, isTie bool) {
	if len(players) == 0 {
		return nil, false
	}
	best := 0
	tie := false
	for i := 1; i < len(players); i++ {
		switch {
		case players[i].Score > players[best].Score:
			best = i
			tie = false
		case players[i].Score == players[best].Score:
			tie = true
		}
	}
	if tie {
		return nil, true
	}
	id := players[best].UserID
	return &id, false
}

// ForfeitWinner returns the opponent of the forfeiting player, or nil when there is none.
func ForfeitWinner(game *entity.Game, forfeiterID uint) *uint {
	opponent := game.Opponent(forfeiterID)
	if opponent == nil {
		return nil
	}
	id := opponent.UserID
	return &id
}
