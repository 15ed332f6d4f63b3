package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/yourusername/satprep-api/internal/domain/entity"
	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
	"github.com/yourusername/satprep-api/internal/websocket"
)

// MockQuestionSupplier реализует QuestionSupplier
type MockQuestionSupplier struct {
	mock.Mock
}

func (m *MockQuestionSupplier) Pool(ctx context.Context, category, topic string) ([]entity.Question, error) {
	args := m.Called(ctx, category, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) GetPool(ctx context.Context, category, topic string) ([]entity.BankQuestion, error) {
	args := m.Called(ctx, category, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.BankQuestion), args.Error(1)
}

func (m *MockQuestionRepository) CreateBatch(ctx context.Context, questions []entity.BankQuestion) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockQuestionRepository) ListTopics(ctx context.Context, category string) ([]string, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) SetJSONIfNewer(ctx context.Context, key string, value interface{}, version int, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, version, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

func (m *MockCacheRepository) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	args := m.Called(ctx, pattern)
	return args.Int(0), args.Error(1)
}

// versionedCache is an in-memory CacheRepository with the same version guard
// as the Redis implementation.
type versionedCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newVersionedCache() *versionedCache {
	return &versionedCache{data: make(map[string][]byte)}
}

func (c *versionedCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *versionedCache) SetJSONIfNewer(ctx context.Context, key string, value interface{}, version int, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.data[key]; ok {
		var doc struct {
			Version *int `json:"version"`
		}
		if json.Unmarshal(cur, &doc) == nil && doc.Version != nil && *doc.Version >= version {
			return false, nil
		}
	}
	c.data[key] = data
	return true, nil
}

func (c *versionedCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.data[key]
	c.mu.Unlock()
	if !ok {
		return apperrors.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (c *versionedCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *versionedCache) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	return 0, nil
}

// fillJSON returns a Run hook that decodes value into the GetJSON destination.
func fillJSON(value interface{}) func(args mock.Arguments) {
	return func(args mock.Arguments) {
		data, err := json.Marshal(value)
		if err != nil {
			panic(err)
		}
		if err := json.Unmarshal(data, args.Get(2)); err != nil {
			panic(err)
		}
	}
}

// recordingNotifier collects the events published by the service.
type recordingNotifier struct {
	mu     sync.Mutex
	events []websocket.GameEvent
}

func (n *recordingNotifier) NotifyGameUpdated(ctx context.Context, event websocket.GameEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) actions() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.events))
	for i, e := range n.events {
		out[i] = e.Action
	}
	return out
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
