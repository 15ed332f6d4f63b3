package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
	"github.com/yourusername/satprep-api/internal/domain/repository"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

const poolCachePrefix = "qpool:"

// QuestionPoolService is the question supplier: it returns the ordered pool for
// a category/topic and caches it in Redis.
type QuestionPoolService struct {
	questionRepo repository.QuestionRepository
	cacheRepo    repository.CacheRepository
	cacheTTL     time.Duration
}

// NewQuestionPoolService creates the supplier. cacheRepo may be nil.
func NewQuestionPoolService(questionRepo repository.QuestionRepository, cacheRepo repository.CacheRepository, cacheTTL time.Duration) *QuestionPoolService {
	return &QuestionPoolService{
		questionRepo: questionRepo,
		cacheRepo:    cacheRepo,
		cacheTTL:     cacheTTL,
	}
}

func poolCacheKey(category, topic string) string {
	return fmt.Sprintf("%s%s:%s", poolCachePrefix, category, topic)
}

// Pool returns the questions of category (and topic, when set) in stable order.
// Repository failures are reported as apperrors.ErrSupplierUnavailable.
func (s *QuestionPoolService) Pool(ctx context.Context, category, topic string) ([]entity.Question, error) {
	key := poolCacheKey(category, topic)

	if s.cacheEnabled() {
		var cached []entity.Question
		err := s.cacheRepo.GetJSON(ctx, key, &cached)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuestionPool] Cache read failed for %s: %v", key, err)
		}
	}

	rows, err := s.questionRepo.GetPool(ctx, category, topic)
	if err != nil {
		log.Printf("[QuestionPool] Failed to load pool %s/%q: %v", category, topic, err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSupplierUnavailable, err)
	}

	pool := make([]entity.Question, len(rows))
	for i := range rows {
		pool[i] = rows[i].ToQuestion()
	}

	if s.cacheEnabled() && len(pool) > 0 {
		if err := s.cacheRepo.SetJSON(ctx, key, pool, s.cacheTTL); err != nil {
			log.Printf("[QuestionPool] Cache write failed for %s: %v", key, err)
		}
	}
	return pool, nil
}

// Topics lists the topics available for category.
func (s *QuestionPoolService) Topics(ctx context.Context, category string) ([]string, error) {
	if category != entity.CategoryMath && category != entity.CategoryEnglish {
		return nil, fmt.Errorf("%w: invalid category %q", apperrors.ErrValidation, category)
	}
	topics, err := s.questionRepo.ListTopics(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSupplierUnavailable, err)
	}
	return topics, nil
}

// Import validates and stores new bank questions, then drops cached pools.
// Returns the number of stored questions.
func (s *QuestionPoolService) Import(ctx context.Context, questions []entity.BankQuestion) (int, error) {
	for i := range questions {
		q := &questions[i]
		if q.Category != entity.CategoryMath && q.Category != entity.CategoryEnglish {
			return 0, fmt.Errorf("%w: question %d has invalid category %q", apperrors.ErrValidation, i+1, q.Category)
		}
		if q.Text == "" || len(q.Choices) < 2 {
			return 0, fmt.Errorf("%w: question %d needs a text and at least two choices", apperrors.ErrValidation, i+1)
		}
		if !q.HasAnswerInChoices() {
			return 0, fmt.Errorf("%w: answer of question %d is not one of its choices", apperrors.ErrValidation, i+1)
		}
	}

	if err := s.questionRepo.CreateBatch(ctx, questions); err != nil {
		return 0, fmt.Errorf("failed to store questions: %w", err)
	}
	s.InvalidateCache(ctx)
	return len(questions), nil
}

// InvalidateCache drops every cached pool.
func (s *QuestionPoolService) InvalidateCache(ctx context.Context) {
	if !s.cacheEnabled() {
		return
	}
	n, err := s.cacheRepo.DeleteByPattern(ctx, poolCachePrefix+"*")
	if err != nil {
		log.Printf("[QuestionPool] Failed to invalidate cached pools: %v", err)
		return
	}
	log.Printf("[QuestionPool] Invalidated %d cached pools", n)
}

func (s *QuestionPoolService) cacheEnabled() bool {
	return s.cacheRepo != nil && s.cacheTTL > 0
}
