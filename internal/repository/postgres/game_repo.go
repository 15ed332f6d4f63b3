package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// GameRepo implements repository.GameRepository
type GameRepo struct {
	db *gorm.DB
}

// NewGameRepo creates the games repository
func NewGameRepo(db *gorm.DB) *GameRepo {
	return &GameRepo{db: db}
}

// Create inserts a game with its players in one transaction.
// A duplicate code is reported as repository.ErrCodeTaken.
func (r *GameRepo) Create(ctx context.Context, game *entity.Game) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createGame(tx, game)
	})
}

func createGame(tx *gorm.DB, game *entity.Game) error {
	if err := tx.Omit(clause.Associations).Create(game).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", repository.ErrCodeTaken, game.Code)
		}
		return fmt.Errorf("create game %s failed: %w", game.Code, err)
	}
	for i := range game.Players {
		game.Players[i].GameID = game.ID
		if err := tx.Create(&game.Players[i]).Error; err != nil {
			return fmt.Errorf("create player %d of game %s failed: %w", game.Players[i].UserID, game.Code, err)
		}
	}
	return nil
}

// CodeExists reports whether a game already uses code.
func (r *GameRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	return codeExists(r.db.WithContext(ctx), code)
}

func codeExists(db *gorm.DB, code string) (bool, error) {
	var count int64
	if err := db.Model(&entity.Game{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetByCode returns the game with its players in join order.
func (r *GameRepo) GetByCode(ctx context.Context, code string) (*entity.Game, error) {
	var game entity.Game
	err := r.db.WithContext(ctx).
		Preload("Players", orderPlayers).
		Where("code = ?", code).
		First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &game, nil
}

// ListByUser returns the terminal games userID played, newest first.
func (r *GameRepo) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Game, error) {
	var games []entity.Game
	err := r.db.WithContext(ctx).
		Preload("Players", orderPlayers).
		Joins("JOIN game_players ON game_players.game_id = games.id").
		Where("game_players.user_id = ? AND games.status IN ?", userID,
			[]string{entity.GameStatusFinished, entity.GameStatusForfeited}).
		Order("games.updated_at DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, err
	}
	return games, nil
}

// Update loads the game under SELECT ... FOR UPDATE, applies fn and writes the
// game and all of its players back in the same transaction.
func (r *GameRepo) Update(ctx context.Context, code string, fn repository.UpdateFunc) (*entity.Game, error) {
	var result *entity.Game
	unchanged := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var game entity.Game
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ?", code).
			First(&game).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}
		if err := tx.Where("game_id = ?", game.ID).Order("id").Find(&game.Players).Error; err != nil {
			return err
		}

		if err := fn(&gameTx{tx: tx}, &game); err != nil {
			if errors.Is(err, repository.ErrNoChange) {
				result = &game
				unchanged = true
			}
			return err
		}

		game.Version++
		if err := tx.Omit(clause.Associations).Save(&game).Error; err != nil {
			return fmt.Errorf("save game %s failed: %w", code, err)
		}
		for i := range game.Players {
			p := &game.Players[i]
			if p.ID == 0 {
				p.GameID = game.ID
				if err := tx.Create(p).Error; err != nil {
					return fmt.Errorf("create player %d of game %s failed: %w", p.UserID, code, err)
				}
				continue
			}
			if err := tx.Save(p).Error; err != nil {
				return fmt.Errorf("save player %d of game %s failed: %w", p.UserID, code, err)
			}
		}
		result = &game
		return nil
	})
	if unchanged {
		return result, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// gameTx exposes the locked transaction to Update callbacks.
type gameTx struct {
	tx *gorm.DB
}

func (t *gameTx) CodeExists(code string) (bool, error) {
	return codeExists(t.tx, code)
}

// Create runs in a nested transaction (savepoint) so a code collision can be
// retried without aborting the outer transaction.
func (t *gameTx) Create(game *entity.Game) error {
	return t.tx.Transaction(func(inner *gorm.DB) error {
		return createGame(inner, game)
	})
}

func orderPlayers(db *gorm.DB) *gorm.DB {
	return db.Order("game_players.id")
}

// isUniqueViolation checks for a Postgres unique violation (23505) from either the pgx or the lib/pq driver
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
