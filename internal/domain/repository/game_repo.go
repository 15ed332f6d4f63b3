package repository

import (
	"context"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// GameTx is the view of the store available inside an Update callback.
// Writes through it commit or roll back together with the locked game.
type GameTx interface {
	CodeExists(code string) (bool, error)
	Create(game *entity.Game) error
}

// UpdateFunc mutates a freshly loaded, locked game in place.
type UpdateFunc func(tx GameTx, game *entity.Game) error

// GameRepository is the game record store. Every mutation of an existing game
// goes through Update so that the game and its players form one consistency unit.
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	CodeExists(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*entity.Game, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Game, error)
	Update(ctx context.Context, code string, fn UpdateFunc) (*entity.Game, error)
}
