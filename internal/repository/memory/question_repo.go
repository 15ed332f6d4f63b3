package memory

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/satprep-api/internal/domain/entity"
)

//go:embed seed_questions.json
var seedQuestions []byte

// QuestionRepo is an in-process repository.QuestionRepository.
type QuestionRepo struct {
	mu        sync.RWMutex
	questions []entity.BankQuestion
	nextID    uint
}

// NewQuestionRepo creates a bank holding questions, assigning ids in order.
func NewQuestionRepo(questions []entity.BankQuestion) *QuestionRepo {
	r := &QuestionRepo{}
	_ = r.CreateBatch(context.Background(), questions)
	return r
}

// NewSeededQuestionRepo loads the bank from a JSON file, or from the built-in
// sample bank when path is empty.
func NewSeededQuestionRepo(path string) (*QuestionRepo, error) {
	if path == "" {
		questions, err := DecodeQuestionsJSON(bytes.NewReader(seedQuestions))
		if err != nil {
			return nil, fmt.Errorf("decode built-in question bank: %w", err)
		}
		return NewQuestionRepo(questions), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open question bank %s: %w", path, err)
	}
	defer f.Close()

	questions, err := DecodeQuestionsJSON(f)
	if err != nil {
		return nil, fmt.Errorf("decode question bank %s: %w", path, err)
	}
	return NewQuestionRepo(questions), nil
}

// DecodeQuestionsJSON reads a JSON array of questions in the
// {category, topic, question, choices, answer} format.
func DecodeQuestionsJSON(r io.Reader) ([]entity.BankQuestion, error) {
	var questions []entity.BankQuestion
	if err := json.NewDecoder(r).Decode(&questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// GetPool returns copies of the matching questions in id order.
func (r *QuestionRepo) GetPool(ctx context.Context, category, topic string) ([]entity.BankQuestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var pool []entity.BankQuestion
	for _, q := range r.questions {
		if q.Category != category || (topic != "" && q.Topic != topic) {
			continue
		}
		q.Choices = append(entity.StringArray(nil), q.Choices...)
		pool = append(pool, q)
	}
	return pool, nil
}

// CreateBatch appends questions and assigns their ids.
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.BankQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for i := range questions {
		r.nextID++
		questions[i].ID = r.nextID
		if questions[i].CreatedAt.IsZero() {
			questions[i].CreatedAt = now
		}
		r.questions = append(r.questions, questions[i])
	}
	return nil
}

// ListTopics returns the sorted distinct topics of a category.
func (r *QuestionRepo) ListTopics(ctx context.Context, category string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, q := range r.questions {
		if q.Category == category && q.Topic != "" {
			seen[q.Topic] = struct{}{}
		}
	}
	topics := make([]string, 0, len(seen))
	for t := range seen {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics, nil
}
