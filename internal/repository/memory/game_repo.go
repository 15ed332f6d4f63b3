package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

// GameRepo is an in-process repository.GameRepository. One mutex guards the
// whole store, so Update callbacks are serialized the way row locks serialize
// them in postgres. Callers always receive copies.
type GameRepo struct {
	mu           sync.Mutex
	games        map[string]*entity.Game
	nextGameID   uint
	nextPlayerID uint
	now          func() time.Time
}

// NewGameRepo creates an empty store
func NewGameRepo() *GameRepo {
	return &GameRepo{
		games: make(map[string]*entity.Game),
		now:   time.Now,
	}
}

// Create stores a copy of game and assigns ids to it and its players.
func (r *GameRepo) Create(ctx context.Context, game *entity.Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(game)
}

func (r *GameRepo) insertLocked(game *entity.Game) error {
	if _, exists := r.games[game.Code]; exists {
		return fmt.Errorf("%w: %s", repository.ErrCodeTaken, game.Code)
	}
	now := r.now()
	r.nextGameID++
	game.ID = r.nextGameID
	game.CreatedAt = now
	game.UpdatedAt = now
	r.assignPlayerIDsLocked(game, now)
	r.games[game.Code] = game.Clone()
	return nil
}

func (r *GameRepo) assignPlayerIDsLocked(game *entity.Game, now time.Time) {
	for i := range game.Players {
		p := &game.Players[i]
		p.GameID = game.ID
		if p.ID == 0 {
			r.nextPlayerID++
			p.ID = r.nextPlayerID
			p.CreatedAt = now
		}
		p.UpdatedAt = now
	}
}

// CodeExists reports whether a game already uses code.
func (r *GameRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.games[code]
	return exists, nil
}

// GetByCode returns a copy of the stored game.
func (r *GameRepo) GetByCode(ctx context.Context, code string) (*entity.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	game, exists := r.games[code]
	if !exists {
		return nil, apperrors.ErrNotFound
	}
	return game.Clone(), nil
}

// ListByUser returns the terminal games userID played, newest first.
func (r *GameRepo) ListByUser(ctx context.Context, userID uint, limit int) ([]entity.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var games []entity.Game
	for _, g := range r.games {
		if g.IsTerminal() && g.HasPlayer(userID) {
			games = append(games, *g.Clone())
		}
	}
	sort.Slice(games, func(i, j int) bool {
		if games[i].UpdatedAt.Equal(games[j].UpdatedAt) {
			return games[i].ID > games[j].ID
		}
		return games[i].UpdatedAt.After(games[j].UpdatedAt)
	})
	if limit > 0 && len(games) > limit {
		games = games[:limit]
	}
	return games, nil
}

// Update applies fn to a copy of the game and commits the copy, together with
// any games created through the GameTx, only when fn succeeds.
func (r *GameRepo) Update(ctx context.Context, code string, fn repository.UpdateFunc) (*entity.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, exists := r.games[code]
	if !exists {
		return nil, apperrors.ErrNotFound
	}

	work := stored.Clone()
	tx := &memTx{repo: r}
	if err := fn(tx, work); err != nil {
		if errors.Is(err, repository.ErrNoChange) {
			return stored.Clone(), nil
		}
		return nil, err
	}

	for _, created := range tx.created {
		if err := r.insertLocked(created); err != nil {
			return nil, err
		}
	}

	now := r.now()
	work.Version++
	work.UpdatedAt = now
	r.assignPlayerIDsLocked(work, now)
	r.games[code] = work
	return work.Clone(), nil
}

// memTx runs with GameRepo.mu held.
type memTx struct {
	repo    *GameRepo
	created []*entity.Game
}

func (t *memTx) CodeExists(code string) (bool, error) {
	if _, exists := t.repo.games[code]; exists {
		return true, nil
	}
	for _, g := range t.created {
		if g.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) Create(game *entity.Game) error {
	exists, _ := t.CodeExists(game.Code)
	if exists {
		return fmt.Errorf("%w: %s", repository.ErrCodeTaken, game.Code)
	}
	t.created = append(t.created, game)
	return nil
}
