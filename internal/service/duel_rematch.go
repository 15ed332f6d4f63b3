package service

import (
	"context"
	"fmt"
	"log"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// RematchRequestResult is returned by RequestRematch.
type RematchRequestResult struct {
	Game        *entity.Game
	ReadyCount  int
	RematchCode string
}

// RematchResult is returned by CreateRematch. Created is false when another
// request already created the rematch and this call returned its code.
type RematchResult struct {
	Code    string
	Config  entity.GameConfig
	Created bool
}

// RequestRematch records that the caller wants to play again.
func (s *DuelService) RequestRematch(ctx context.Context, code string, userID uint) (*RematchRequestResult, error) {
	game, err := s.mutate(ctx, code, "rematch_requested", func(tx repository.GameTx, g *entity.Game) error {
		if !g.IsTerminal() {
			return fmt.Errorf("%w: a rematch can only be requested once game %s is over", apperrors.ErrInvalidState, code)
		}
		p := g.Player(userID)
		if p == nil {
			return fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
		}
		if p.WantsRematch {
			return repository.ErrNoChange
		}
		p.WantsRematch = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &RematchRequestResult{Game: game}
	for i := range game.Players {
		if game.Players[i].WantsRematch {
			result.ReadyCount++
		}
	}
	if game.RematchCode != nil {
		result.RematchCode = *game.RematchCode
	}
	return result, nil
}

// CreateRematch creates a new waiting game with the same settings and players.
// The rematch code is stored on the source game under its lock, so concurrent
// calls create exactly one rematch and all of them return its code.
func (s *DuelService) CreateRematch(ctx context.Context, code string, userID uint) (*RematchResult, error) {
	var (
		created  *entity.Game
		existing string
	)

	source, err := s.mutate(ctx, code, "rematch_created", func(tx repository.GameTx, g *entity.Game) error {
		if !g.HasPlayer(userID) {
			return fmt.Errorf("%w: you are not a player of game %s", apperrors.ErrForbidden, code)
		}
		if !g.IsTerminal() {
			return fmt.Errorf("%w: game %s is not over yet", apperrors.ErrInvalidState, code)
		}
		if g.RematchCode != nil {
			existing = *g.RematchCode
			return repository.ErrNoChange
		}
		for i := range g.Players {
			if !g.Players[i].WantsRematch {
				return fmt.Errorf("%w: not all players want a rematch", apperrors.ErrNotReady)
			}
		}

		rematch, err := s.createWithUniqueCode(
			func(newCode string) *entity.Game { return s.buildRematch(g, newCode) },
			tx.CodeExists,
			tx.Create,
		)
		if err != nil {
			return err
		}
		g.RematchCode = &rematch.Code
		created = rematch
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created == nil {
		return &RematchResult{Code: existing, Config: source.Config(), Created: false}, nil
	}

	log.Printf("[DuelService] Rematch %s created from game %s", created.Code, code)
	s.notify(ctx, created, "created")
	return &RematchResult{Code: created.Code, Config: created.Config(), Created: true}, nil
}

// buildRematch copies the settings and participants of source into a fresh
// waiting game. Player order and the creator are preserved.
func (s *DuelService) buildRematch(source *entity.Game, code string) *entity.Game {
	now := s.now()
	game := entity.NewGame(code, source.CreatorID, source.Config(), now)
	for i := range source.Players {
		if source.Players[i].UserID == source.CreatorID {
			continue
		}
		game.Players = append(game.Players, *entity.NewPlayer(source.Players[i].UserID, now))
	}
	sourceCode := source.Code
	game.SourceGameCode = &sourceCode
	return game
}
