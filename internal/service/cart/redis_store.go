// internal/service/cart/redis_store.go
package cart

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// 购物车不是永久数据，闲置 30 天自动过期。
const cartTTL = 30 * 24 * time.Hour

func cartKey(userID string) string {
	return "cart:" + userID
}

// RedisStore 是 Store 的 redis 实现。
type RedisStore struct {
	rdb goredis.UniversalClient
}

// NewRedisStore 创建 redis 购物车。
func NewRedisStore(rdb goredis.UniversalClient) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Items(ctx context.Context, userID string) ([]Line, error) {
	fields, err := s.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "read cart hash")
	}

	lines := make([]Line, 0, len(fields))
	for productID, raw := range fields {
		quantity, err := strconv.Atoi(raw)
		if err != nil || quantity <= 0 {
			continue
		}
		lines = append(lines, Line{ProductID: productID, Quantity: quantity})
	}
	return lines, nil
}

func (s *RedisStore) Add(ctx context.Context, userID, productID string, quantity int) error {
	key := cartKey(userID)
	newQuantity, err := s.rdb.HIncrBy(ctx, key, productID, int64(quantity)).Result()
	if err != nil {
		return errors.Wrap(err, "increment cart line")
	}
	if newQuantity <= 0 {
		return s.rdb.HDel(ctx, key, productID).Err()
	}
	return s.rdb.Expire(ctx, key, cartTTL).Err()
}

func (s *RedisStore) Remove(ctx context.Context, userID, productID string) error {
	return s.rdb.HDel(ctx, cartKey(userID), productID).Err()
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, cartKey(userID)).Err()
}
