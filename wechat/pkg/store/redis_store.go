package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(addr string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}))
}

// NewRedisStoreWithClient 复用外部创建的客户端，键统一加 wechat: 前缀
func NewRedisStoreWithClient(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, prefix: "wechat:"}
}

func (r *RedisStore) GetToken(ctx context.Context, appID string) (string, error) {
	result, err := r.client.Get(ctx, r.prefix+"token:"+appID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return result, err
}

func (r *RedisStore) SetToken(ctx context.Context, appID, token string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+"token:"+appID, token, ttl).Err()
}

func (r *RedisStore) DeleteToken(ctx context.Context, appID string) error {
	return r.client.Del(ctx, r.prefix+"token:"+appID).Err()
}

func (r *RedisStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	count, err := r.client.Exists(ctx, r.prefix+"processed:"+key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RedisStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+"processed:"+key, "1", ttl).Err()
}

// MarkIfNew 用 SET NX 原子登记，多实例并发收到同一条重试时只有一个返回 true
func (r *RedisStore) MarkIfNew(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.prefix+"processed:"+key, "1", ttl).Result()
}

func (r *RedisStore) Unmark(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+"processed:"+key).Err()
}

// Close 关闭底层连接
func (r *RedisStore) Close() error {
	return r.client.Close()
}
