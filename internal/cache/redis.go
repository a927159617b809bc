package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"Postboard/internal/core/posts"
)

const (
	postKeyPrefix = "post:"

	// Each key is a hash: "version" holds the cached Version or "deleted", "data" the post JSON
	dataField = "data"
)

// setIfNewerScript writes ARGV[2] at version ARGV[1] unless the key holds a tombstone
// or an equal or newer version. ARGV[3] is the TTL in milliseconds, 0 for none.
var setIfNewerScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if current then
	if current == 'deleted' or tonumber(current) >= tonumber(ARGV[1]) then
		return 0
	end
end
redis.call('HSET', KEYS[1], 'version', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// tombstoneScript replaces the key with a tombstone. ARGV[1] is the TTL in milliseconds, 0 for none.
var tombstoneScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'version', 'deleted')
if tonumber(ARGV[1]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return 1
`)

var _ posts.Cache = (*RedisCache)(nil)

// RedisCache shares cached posts between server instances
// Redis failures degrade to cache misses; they never fail a request
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisClient connects to addr and verifies the server answers PING
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// NewRedisCache creates a post cache with the given TTL
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get decodes the cached post, if any
func (c *RedisCache) Get(ctx context.Context, id string) (*posts.Post, bool) {
	data, err := c.client.HGet(ctx, postKeyPrefix+id, dataField).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("redis cache get failed", "post_id", id, "error", err)
		return nil, false
	}

	var post posts.Post
	if err := json.Unmarshal(data, &post); err != nil {
		c.logger.Warn("redis cache entry corrupt, dropping", "post_id", id, "error", err)
		if err := c.client.Del(ctx, postKeyPrefix+id).Err(); err != nil {
			c.logger.Warn("redis cache drop failed", "post_id", id, "error", err)
		}
		return nil, false
	}
	return &post, true
}

// Set stores the post as JSON unless a newer version or a tombstone is cached
func (c *RedisCache) Set(ctx context.Context, post *posts.Post) {
	if post == nil || post.ID == "" {
		return
	}

	data, err := json.Marshal(post)
	if err != nil {
		c.logger.Warn("failed to encode post for redis cache", "post_id", post.ID, "error", err)
		return
	}

	err = setIfNewerScript.Run(ctx, c.client, []string{postKeyPrefix + post.ID},
		post.Version, data, c.ttl.Milliseconds()).Err()
	if err != nil {
		c.logger.Warn("redis cache set failed", "post_id", post.ID, "error", err)
	}
}

// Delete replaces the cached post with a tombstone that lives for the cache TTL
func (c *RedisCache) Delete(ctx context.Context, id string) {
	if err := tombstoneScript.Run(ctx, c.client, []string{postKeyPrefix + id}, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Warn("redis cache delete failed", "post_id", id, "error", err)
	}
}
