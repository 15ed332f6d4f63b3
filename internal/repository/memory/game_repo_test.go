package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

func newStoredGame(t *testing.T, repo *GameRepo, code string) *entity.Game {
	t.Helper()
	game := entity.NewGame(code, 1, entity.GameConfig{Category: entity.CategoryMath, NumRounds: 3, Mode: entity.GameModeFast}, time.Now())
	require.NoError(t, repo.Create(context.Background(), game))
	return game
}

func TestGameRepo_CreateAndGet(t *testing.T) {
	repo := NewGameRepo()
	game := newStoredGame(t, repo, "AAAAAA")

	assert.NotZero(t, game.ID)
	assert.NotZero(t, game.Players[0].ID)

	got, err := repo.GetByCode(context.Background(), "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, game.ID, got.ID)

	// Mutating the returned copy does not touch the store.
	got.Status = entity.GameStatusFinished
	again, _ := repo.GetByCode(context.Background(), "AAAAAA")
	assert.Equal(t, entity.GameStatusWaiting, again.Status)

	_, err = repo.GetByCode(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGameRepo_CreateDuplicateCode(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")

	dup := entity.NewGame("AAAAAA", 2, entity.GameConfig{Category: entity.CategoryMath, NumRounds: 3, Mode: entity.GameModeFast}, time.Now())
	err := repo.Create(context.Background(), dup)

	assert.ErrorIs(t, err, repository.ErrCodeTaken)
	exists, _ := repo.CodeExists(context.Background(), "AAAAAA")
	assert.True(t, exists)
}

func TestGameRepo_UpdateCommitsOnSuccess(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")

	updated, err := repo.Update(context.Background(), "AAAAAA", func(tx repository.GameTx, g *entity.Game) error {
		g.Players = append(g.Players, *entity.NewPlayer(2, time.Now()))
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)
	require.Len(t, updated.Players, 2)
	assert.NotZero(t, updated.Players[1].ID)
	assert.Equal(t, updated.ID, updated.Players[1].GameID)
}

func TestGameRepo_UpdateRollsBackOnError(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")
	boom := errors.New("boom")

	_, err := repo.Update(context.Background(), "AAAAAA", func(tx repository.GameTx, g *entity.Game) error {
		g.Status = entity.GameStatusActive
		require.NoError(t, tx.Create(entity.NewGame("BBBBBB", 1, g.Config(), time.Now())))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	got, _ := repo.GetByCode(context.Background(), "AAAAAA")
	assert.Equal(t, entity.GameStatusWaiting, got.Status)
	assert.Equal(t, 0, got.Version)
	exists, _ := repo.CodeExists(context.Background(), "BBBBBB")
	assert.False(t, exists, "games created in a failed update are discarded")
}

func TestGameRepo_UpdateNoChange(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")

	got, err := repo.Update(context.Background(), "AAAAAA", func(tx repository.GameTx, g *entity.Game) error {
		g.Status = entity.GameStatusActive
		return repository.ErrNoChange
	})

	require.NoError(t, err)
	assert.Equal(t, entity.GameStatusWaiting, got.Status)
	assert.Equal(t, 0, got.Version)
}

func TestGameRepo_TxCreate(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")

	_, err := repo.Update(context.Background(), "AAAAAA", func(tx repository.GameTx, g *entity.Game) error {
		exists, err := tx.CodeExists("AAAAAA")
		require.NoError(t, err)
		assert.True(t, exists)

		assert.ErrorIs(t, tx.Create(entity.NewGame("AAAAAA", 1, g.Config(), time.Now())), repository.ErrCodeTaken)
		require.NoError(t, tx.Create(entity.NewGame("CCCCCC", 1, g.Config(), time.Now())))
		assert.ErrorIs(t, tx.Create(entity.NewGame("CCCCCC", 1, g.Config(), time.Now())), repository.ErrCodeTaken)
		return nil
	})

	require.NoError(t, err)
	created, err := repo.GetByCode(context.Background(), "CCCCCC")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestGameRepo_UpdateIsSerialized(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Update(context.Background(), "AAAAAA", func(tx repository.GameTx, g *entity.Game) error {
				g.Players[0].Score++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, _ := repo.GetByCode(context.Background(), "AAAAAA")
	assert.Equal(t, workers, got.Players[0].Score)
	assert.Equal(t, workers, got.Version)
}

func TestGameRepo_ListByUser(t *testing.T) {
	repo := NewGameRepo()
	newStoredGame(t, repo, "AAAAAA")
	newStoredGame(t, repo, "BBBBBB")
	for _, code := range []string{"AAAAAA", "BBBBBB"} {
		_, err := repo.Update(context.Background(), code, func(tx repository.GameTx, g *entity.Game) error {
			g.Status = entity.GameStatusFinished
			return nil
		})
		require.NoError(t, err)
	}
	newStoredGame(t, repo, "CCCCCC")

	games, err := repo.ListByUser(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, games, 2)

	games, _ = repo.ListByUser(context.Background(), 1, 1)
	assert.Len(t, games, 1)

	games, _ = repo.ListByUser(context.Background(), 99, 10)
	assert.Empty(t, games)
}

func TestQuestionRepo_Seeded(t *testing.T) {
	repo, err := NewSeededQuestionRepo("")
	require.NoError(t, err)

	pool, err := repo.GetPool(context.Background(), entity.CategoryMath, "")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(pool), entity.MaxRounds)
	for i := 1; i < len(pool); i++ {
		assert.Less(t, pool[i-1].ID, pool[i].ID, "pool is ordered by id")
	}
	for _, q := range pool {
		assert.True(t, q.HasAnswerInChoices(), q.Text)
	}

	algebra, err := repo.GetPool(context.Background(), entity.CategoryMath, "algebra")
	require.NoError(t, err)
	assert.NotEmpty(t, algebra)
	assert.Less(t, len(algebra), len(pool))

	topics, err := repo.ListTopics(context.Background(), entity.CategoryEnglish)
	require.NoError(t, err)
	assert.Equal(t, []string{"grammar", "reading", "vocabulary"}, topics)
}
