package service

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/service/duel"
)

// SubmitAnswerInput is the caller's answer. Round is optional; when set it must
// match the open round.
type SubmitAnswerInput struct {
	Answer string
	Round  int
}

// SubmitAnswerResult reports the outcome of one answer.
type SubmitAnswerResult struct {
	Game      *entity.Game
	IsCorrect bool
	Awarded   bool
	Score     int
}

// RoundResult is returned by NextRound. Advanced is false when the call was a
// replay for a round that had already been closed.
type RoundResult struct {
	Game     *entity.Game
	Advanced bool
	Finished bool
	WinnerID *uint
	IsTie    bool
}

// ForfeitResult is returned by Forfeit.
type ForfeitResult struct {
	Game     *entity.Game
	WinnerID *uint
}

// SubmitAnswer records the caller's answer for the open round. In fast mode the
// first correct answer scores immediately; timed mode scores at round end.
func (s *DuelService) SubmitAnswer(ctx context.Context, code string, userID uint, in SubmitAnswerInput) (*SubmitAnswerResult, error) {
	var result SubmitAnswerResult
	game, err := s.mutate(ctx, code, "answered", func(tx repository.GameTx, g *entity.Game) error {
		if !g.IsActive() {
			return fmt.Errorf("%w: answers are only accepted while the game is active", apperrors.ErrInvalidState)
		}
		p := g.Player(userID)
		if p == nil {
			return fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
		}
		if p.HasAnswered() {
			return fmt.Errorf("%w: you already answered round %d", apperrors.ErrAlreadyAnswered, g.CurrentRound)
		}
		if g.CurrentQuestion == nil {
			return apperrors.ErrNoActiveQuestion
		}
		if in.Round > 0 && in.Round != g.CurrentRound {
			return fmt.Errorf("%w: answer is for round %d but the game is on round %d", apperrors.ErrInvalidState, in.Round, g.CurrentRound)
		}

		now := s.now()
		if deadline, ok := g.QuestionDeadline(); ok && s.config.AnswerGrace >= 0 && now.After(deadline.Add(s.config.AnswerGrace)) {
			return fmt.Errorf("%w: round %d closed at %s", apperrors.ErrTimeExpired, g.CurrentRound, deadline.Format("15:04:05"))
		}

		isCorrect := g.CurrentQuestion.IsCorrect(in.Answer)
		p.SetAnswer(in.Answer, now)
		awarded := false
		if !g.IsTimed() {
			awarded = duel.AwardFastAnswer(g.CurrentQuestion, p, g.Opponent(userID), isCorrect)
		}

		result.IsCorrect = isCorrect
		result.Awarded = awarded
		result.Score = p.Score
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Game = game
	return &result, nil
}

// roundClosed reports whether expectedRound was already advanced past.
func roundClosed(g *entity.Game, expectedRound int) bool {
	return g.CurrentRound > expectedRound || (g.IsTerminal() && g.CurrentRound >= expectedRound)
}

// NextRound closes the open round and either opens the next one or finishes
// the game. expectedRound is the round the caller saw; when the game already
// moved past it the current outcome is returned unchanged, so both clients may
// advance at once without skipping a round.
func (s *DuelService) NextRound(ctx context.Context, code string, userID uint, expectedRound int) (*RoundResult, error) {
	if expectedRound <= 0 {
		return nil, fmt.Errorf("%w: expected_round must be a positive round number", apperrors.ErrValidation)
	}
	current, err := s.load(ctx, code)
	if err != nil {
		return nil, err
	}
	if !current.HasPlayer(userID) {
		return nil, fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
	}
	if roundClosed(current, expectedRound) {
		return roundResult(current, false), nil
	}
	if !current.IsActive() {
		return nil, fmt.Errorf("%w: game %s is %s", apperrors.ErrInvalidState, code, current.Status)
	}

	var pool []entity.Question
	if current.CurrentRound < current.NumRounds {
		if pool, err = s.fetchPool(ctx, current); err != nil {
			return nil, err
		}
	}

	advanced := false
	game, err := s.mutate(ctx, code, "round_closed", func(tx repository.GameTx, g *entity.Game) error {
		if roundClosed(g, expectedRound) {
			return repository.ErrNoChange
		}
		if !g.IsActive() {
			return fmt.Errorf("%w: game %s is %s", apperrors.ErrInvalidState, code, g.Status)
		}

		now := s.now()
		round := g.CurrentRound
		if rq := g.RoundQuestion(round); g.IsTimed() && rq != nil && !rq.IsClosed() {
			duel.ScoreTimedRound(rq, g.Players)
		}
		duel.RecordRoundHistory(g, round, now)
		duel.ClearAnswers(g.Players)

		next := round + 1
		if next > g.NumRounds {
			g.Status = entity.GameStatusFinished
			g.CurrentRound = g.NumRounds
			g.CurrentQuestion = nil
			g.FinishedAt = &now
			g.WinnerID, g.IsTie = duel.DecideWinner(g.Players)
			advanced = true
			return nil
		}

		q, ok := duel.QuestionForRound(g, pool, next)
		if !ok {
			return fmt.Errorf("game %s has no question recorded for round %d", code, next)
		}
		g.CurrentRound = next
		g.CurrentQuestion = &q
		g.QuestionStartTime = &now
		g.RoundStartTime = &now
		advanced = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if advanced && game.Status == entity.GameStatusFinished {
		log.Printf("[DuelService] Game %s finished (winner=%v, tie=%t)", code, formatWinner(game.WinnerID), game.IsTie)
	}
	return roundResult(game, advanced), nil
}

func roundResult(g *entity.Game, advanced bool) *RoundResult {
	return &RoundResult{
		Game:     g,
		Advanced: advanced,
		Finished: g.IsTerminal(),
		WinnerID: g.WinnerID,
		IsTie:    g.IsTie,
	}
}

// Forfeit ends the game early in favour of the caller's opponent. The open
// round's answers are kept in the history.
func (s *DuelService) Forfeit(ctx context.Context, code string, userID uint) (*ForfeitResult, error) {
	game, err := s.mutate(ctx, code, "forfeited", func(tx repository.GameTx, g *entity.Game) error {
		if g.IsTerminal() {
			return fmt.Errorf("%w: game %s is already %s", apperrors.ErrInvalidState, code, g.Status)
		}
		p := g.Player(userID)
		if p == nil {
			return fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
		}

		now := s.now()
		if g.IsActive() && g.CurrentRound > 0 {
			duel.RecordRoundHistory(g, g.CurrentRound, now)
		}
		p.HasForfeited = true
		g.Status = entity.GameStatusForfeited
		g.CurrentQuestion = nil
		g.FinishedAt = &now
		g.WinnerID = duel.ForfeitWinner(g, userID)
		g.IsTie = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DuelService] User #%d forfeited game %s (winner=%v)", userID, code, formatWinner(game.WinnerID))
	return &ForfeitResult{Game: game, WinnerID: game.WinnerID}, nil
}

func formatWinner(id *uint) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprintf("#%d", *id)
}
