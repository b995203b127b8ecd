// internal/service/catalog/cached_store.go
package catalog

import (
	"context"
	"encoding/json"
	"time"

	pkgerrors "github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"

	"commerce/internal/pkg/logger"
)

const (
	productCacheTTL = 10 * time.Minute

	// 空值占位也缓存，挡住对不存在商品的穿透查询
	notFoundPlaceholder = "__nil__"
	notFoundTTL         = time.Minute
)

func productCacheKey(productID string) string {
	return "catalog:product:" + productID
}

// CachedStore 用 redis 给底层 Store 加一层读穿透缓存。
// 写路径先落库再删缓存；缓存故障一律降级为直接读库。
type CachedStore struct {
	inner Store
	rdb   goredis.UniversalClient
}

// NewCachedStore 包装底层仓储。
func NewCachedStore(inner Store, rdb goredis.UniversalClient) *CachedStore {
	return &CachedStore{inner: inner, rdb: rdb}
}

func (s *CachedStore) Get(ctx context.Context, productID string) (Product, error) {
	key := productCacheKey(productID)

	cached, err := s.rdb.Get(ctx, key).Result()
	switch {
	case err == nil && cached == notFoundPlaceholder:
		return Product{}, ErrProductNotFound
	case err == nil:
		var p Product
		if jsonErr := json.Unmarshal([]byte(cached), &p); jsonErr == nil {
			return p, nil
		}
		// 缓存内容损坏，当未命中处理
	case !pkgerrors.Is(err, goredis.Nil):
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", productID).Msg("product cache read failed, falling back to db")
	}

	p, err := s.inner.Get(ctx, productID)
	if pkgerrors.Is(err, ErrProductNotFound) {
		s.rdb.Set(ctx, key, notFoundPlaceholder, notFoundTTL)
		return Product{}, err
	}
	if err != nil {
		return Product{}, err
	}

	if data, jsonErr := json.Marshal(p); jsonErr == nil {
		if setErr := s.rdb.Set(ctx, key, data, productCacheTTL).Err(); setErr != nil {
			logger.Ctx(ctx).Warn().Err(setErr).Str("product_id", productID).Msg("product cache write failed")
		}
	}
	return p, nil
}

// Save 先写库，再让缓存失效。
func (s *CachedStore) Save(ctx context.Context, p Product) error {
	if err := s.inner.Save(ctx, p); err != nil {
		return err
	}
	if err := s.rdb.Del(ctx, productCacheKey(p.ProductID)).Err(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("product_id", p.ProductID).Msg("product cache invalidation failed")
	}
	return nil
}

// List 不走缓存。
func (s *CachedStore) List(ctx context.Context, offset, limit int) ([]Product, error) {
	return s.inner.List(ctx, offset, limit)
}
