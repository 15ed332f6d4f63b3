package repository

import (
	"context"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

// QuestionRepository is the question bank backing the question supplier.
type QuestionRepository interface {
	// GetPool returns the questions of a category in stable id order.
	// An empty topic selects every topic of the category.
	GetPool(ctx context.Context, category, topic string) ([]entity.BankQuestion, error)
	CreateBatch(ctx context.Context, questions []entity.BankQuestion) error
	ListTopics(ctx context.Context, category string) ([]string, error)
}
