package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

const questionBatchSize = 200

// QuestionRepo implements repository.QuestionRepository over the bank_questions table
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo creates the question bank repository
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetPool returns the category's questions ordered by id, optionally filtered by topic.
func (r *QuestionRepo) GetPool(ctx context.Context, category, topic string) ([]entity.BankQuestion, error) {
	var questions []entity.BankQuestion
	query := r.db.WithContext(ctx).Where("category = ?", category)
	if topic != "" {
		query = query.Where("topic = ?", topic)
	}
	if err := query.Order("id").Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

// CreateBatch inserts questions in batches inside one transaction
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.BankQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET CLIENT_ENCODING TO 'UTF8'").Error; err != nil {
			return err
		}
		return tx.CreateInBatches(&questions, questionBatchSize).Error
	})
}

// ListTopics returns the distinct non-empty topics of a category.
func (r *QuestionRepo) ListTopics(ctx context.Context, category string) ([]string, error) {
	var topics []string
	err := r.db.WithContext(ctx).
		Model(&entity.BankQuestion{}).
		Where("category = ? AND topic <> ''", category).
		Distinct().
		Order("topic").
		Pluck("topic", &topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}
