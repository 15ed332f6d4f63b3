package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/yourusername/satprep-api/internal/pkg/errors"
)

const scanBatchSize = 100

// setIfNewerScript compares the stored document's version and writes in one step.
// ARGV: payload, version, ttl in milliseconds (0 = no expiry).
var setIfNewerScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local ok, doc = pcall(cjson.decode, cur)
	if ok and type(doc) == 'table' then
		local v = tonumber(doc['version'])
		if v and v >= tonumber(ARGV[2]) then
			return 0
		end
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// CacheRepo implements repository.CacheRepository on top of go-redis.
type CacheRepo struct {
	client redis.UniversalClient
}

// NewCacheRepo creates the cache repository; the client must not be nil
func NewCacheRepo(client redis.UniversalClient) (*CacheRepo, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil for CacheRepo")
	}
	return &CacheRepo{client: client}, nil
}

// SetJSON stores value encoded as JSON.
func (r *CacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// SetJSONIfNewer stores value unless the cached copy carries the same or a higher version.
func (r *CacheRepo) SetJSONIfNewer(ctx context.Context, key string, value interface{}, version int, expiration time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	written, err := setIfNewerScript.Run(ctx, r.client, []string{key}, data, version, expiration.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

// GetJSON loads a JSON value into dest. A missing key yields apperrors.ErrNotFound.
func (r *CacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return json.Unmarshal(data, dest)
}

// Delete removes keys. Missing keys are ignored.
func (r *CacheRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// DeleteByPattern removes every key matching a glob pattern and returns how many were deleted.
// In cluster mode every master is scanned.
func (r *CacheRepo) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if cluster, ok := r.client.(*redis.ClusterClient); ok {
		var (
			mu    sync.Mutex
			total int
		)
		err := cluster.ForEachMaster(ctx, func(ctx context.Context, node *redis.Client) error {
			n, err := scanAndDelete(ctx, node, pattern)
			mu.Lock()
			total += n
			mu.Unlock()
			return err
		})
		return total, err
	}
	return scanAndDelete(ctx, r.client, pattern)
}

func scanAndDelete(ctx context.Context, client redis.Cmdable, pattern string) (int, error) {
	deleted := 0
	iter := client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, iter.Err()
}
