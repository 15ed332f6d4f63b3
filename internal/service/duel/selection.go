package duel

import (
	"fmt"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// PermFunc returns a random permutation of [0, n).
type PermFunc func(n int) []int

// SelectQuestions draws numRounds distinct indices of pool through perm and
// returns them together with copies of the selected question bodies.
func SelectQuestions(pool []entity.Question, numRounds int, perm PermFunc) (entity.IntArray, entity.QuestionList, error) {
	if len(pool) < numRounds {
		return nil, nil, fmt.Errorf("%w: only %d questions available for %d rounds", apperrors.ErrNotReady, len(pool), numRounds)
	}

	order := perm(len(pool))[:numRounds]
	indices := make(entity.IntArray, numRounds)
	bodies := make(entity.QuestionList, numRounds)
	for i, idx := range order {
		indices[i] = idx
		bodies[i] = pool[idx].Bare()
	}
	return indices, bodies, nil
}

// QuestionForRound returns the question to open for round (1-indexed). The pool
// entry at questions[round-1] is used while it still matches the snapshot taken at
// start; otherwise the snapshot in gameQuestions is used.
func QuestionForRound(game *entity.Game, pool []entity.Question, round int) (entity.Question, bool) {
	snapshot := game.RoundQuestion(round)
	if snapshot == nil {
		return entity.Question{}, false
	}
	if round-1 < len(game.Questions) {
		idx := game.Questions[round-1]
		if idx >= 0 && idx < len(pool) && pool[idx].Text == snapshot.Text {
			return pool[idx].Bare(), true
		}
	}
	return snapshot.Bare(), true
}
