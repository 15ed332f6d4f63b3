package repository

import (
	"context"
	"time"
)

// CacheRepository is a JSON key/value cache. A missing key is reported as apperrors.ErrNotFound.
type CacheRepository interface {
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// SetJSONIfNewer stores value unless key already holds a JSON object whose
	// "version" field is >= version. It reports whether value was written.
	SetJSONIfNewer(ctx context.Context, key string, value interface{}, version int, expiration time.Duration) (bool, error)
	GetJSON(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) (int, error)
}
