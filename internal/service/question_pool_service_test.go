package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/repository/memory"
)

func bankQuestions() []entity.BankQuestion {
	return []entity.BankQuestion{
		{ID: 1, Category: entity.CategoryMath, Topic: "algebra", Text: "2x = 4, x = ?", Choices: entity.StringArray{"1", "2", "3", "4"}, Answer: "2"},
		{ID: 2, Category: entity.CategoryMath, Topic: "geometry", Text: "Angles in a triangle?", Choices: entity.StringArray{"90", "180", "270", "360"}, Answer: "180"},
		{ID: 3, Category: entity.CategoryEnglish, Topic: "vocabulary", Text: "Synonym of rapid", Choices: entity.StringArray{"slow", "quick"}, Answer: "quick"},
	}
}

func TestQuestionPoolService_Pool_CacheMiss(t *testing.T) {
	// Arrange
	repo := new(MockQuestionRepository)
	cache := new(MockCacheRepository)
	svc := NewQuestionPoolService(repo, cache, time.Minute)
	ctx := context.Background()

	rows := bankQuestions()[:2]
	cache.On("GetJSON", ctx, "qpool:math:", mock.Anything).Return(apperrors.ErrNotFound)
	repo.On("GetPool", ctx, entity.CategoryMath, "").Return(rows, nil)
	cache.On("SetJSON", ctx, "qpool:math:", mock.Anything, time.Minute).Return(nil)

	// Act
	pool, err := svc.Pool(ctx, entity.CategoryMath, "")

	// Assert
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, "2x = 4, x = ?", pool[0].Text)
	assert.Equal(t, "2", pool[0].Answer)
	assert.Equal(t, "algebra", pool[0].Topic)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestQuestionPoolService_Pool_CacheHit(t *testing.T) {
	repo := new(MockQuestionRepository)
	cache := new(MockCacheRepository)
	svc := NewQuestionPoolService(repo, cache, time.Minute)
	ctx := context.Background()

	cached := []entity.Question{{Text: "cached", Choices: []string{"a", "b"}, Answer: "a"}}
	cache.On("GetJSON", ctx, "qpool:english:grammar", mock.Anything).Run(fillJSON(cached)).Return(nil)

	pool, err := svc.Pool(ctx, entity.CategoryEnglish, "grammar")

	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "cached", pool[0].Text)
	repo.AssertNotCalled(t, "GetPool", mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestionPoolService_Pool_CacheFailureFallsBack(t *testing.T) {
	repo := new(MockQuestionRepository)
	cache := new(MockCacheRepository)
	svc := NewQuestionPoolService(repo, cache, time.Minute)
	ctx := context.Background()

	cache.On("GetJSON", ctx, "qpool:math:", mock.Anything).Return(errors.New("redis down"))
	repo.On("GetPool", ctx, entity.CategoryMath, "").Return(bankQuestions()[:1], nil)
	cache.On("SetJSON", ctx, "qpool:math:", mock.Anything, time.Minute).Return(errors.New("redis down"))

	pool, err := svc.Pool(ctx, entity.CategoryMath, "")

	require.NoError(t, err)
	assert.Len(t, pool, 1)
}

func TestQuestionPoolService_Pool_RepositoryFailure(t *testing.T) {
	repo := new(MockQuestionRepository)
	svc := NewQuestionPoolService(repo, nil, 0)
	ctx := context.Background()

	repo.On("GetPool", ctx, entity.CategoryMath, "algebra").Return(nil, errors.New("connection reset"))

	_, err := svc.Pool(ctx, entity.CategoryMath, "algebra")

	assert.ErrorIs(t, err, apperrors.ErrSupplierUnavailable)
}

func TestQuestionPoolService_Pool_EmptyIsNotCached(t *testing.T) {
	repo := new(MockQuestionRepository)
	cache := new(MockCacheRepository)
	svc := NewQuestionPoolService(repo, cache, time.Minute)
	ctx := context.Background()

	cache.On("GetJSON", ctx, "qpool:english:poetry", mock.Anything).Return(apperrors.ErrNotFound)
	repo.On("GetPool", ctx, entity.CategoryEnglish, "poetry").Return([]entity.BankQuestion{}, nil)

	pool, err := svc.Pool(ctx, entity.CategoryEnglish, "poetry")

	require.NoError(t, err)
	assert.Empty(t, pool)
	cache.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestQuestionPoolService_Topics(t *testing.T) {
	svc := NewQuestionPoolService(memory.NewQuestionRepo(bankQuestions()), nil, 0)

	topics, err := svc.Topics(context.Background(), entity.CategoryMath)
	require.NoError(t, err)
	assert.Equal(t, []string{"algebra", "geometry"}, topics)

	_, err = svc.Topics(context.Background(), "science")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestQuestionPoolService_Import(t *testing.T) {
	ctx := context.Background()

	t.Run("stores valid questions and drops cached pools", func(t *testing.T) {
		repo := memory.NewQuestionRepo(nil)
		cache := new(MockCacheRepository)
		svc := NewQuestionPoolService(repo, cache, time.Minute)
		cache.On("DeleteByPattern", ctx, "qpool:*").Return(3, nil)

		n, err := svc.Import(ctx, bankQuestions())

		require.NoError(t, err)
		assert.Equal(t, 3, n)
		cache.AssertExpectations(t)
		rows, err := repo.GetPool(ctx, entity.CategoryMath, "")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	cases := []struct {
		name   string
		mutate func(q *entity.BankQuestion)
	}{
		{"unknown category", func(q *entity.BankQuestion) { q.Category = "art" }},
		{"missing text", func(q *entity.BankQuestion) { q.Text = "" }},
		{"single choice", func(q *entity.BankQuestion) { q.Choices = entity.StringArray{"2"} }},
		{"answer outside choices", func(q *entity.BankQuestion) { q.Answer = "5" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockQuestionRepository)
			svc := NewQuestionPoolService(repo, nil, 0)
			questions := bankQuestions()
			tc.mutate(&questions[0])

			_, err := svc.Import(ctx, questions)

			assert.ErrorIs(t, err, apperrors.ErrValidation)
			repo.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
		})
	}
}
