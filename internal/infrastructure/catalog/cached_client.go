package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/RodolfoDevApp/eventshop-inventory-ledger/internal/domain"
)

const productKeyPrefix = "catalog:product:"

// CachedClient keeps successful product lookups in Redis for ttl. Misses and
// failures are never cached, so a product that appears upstream is seen on
// the next call. Redis errors fall through to the wrapped client.
type CachedClient struct {
	next   domain.CatalogClient
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedClient(next domain.CatalogClient, client *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, redis: client, ttl: ttl, logger: logger}
}

func productKey(id int64) string {
	return productKeyPrefix + strconv.FormatInt(id, 10)
}

func (c *CachedClient) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	raw, err := c.redis.Get(ctx, productKey(id)).Bytes()
	switch {
	case err == nil:
		var product domain.Product
		if jsonErr := json.Unmarshal(raw, &product); jsonErr == nil {
			return &product, nil
		}
		c.logger.Warn("dropping unreadable cached product", zap.Int64("product_id", id))
		c.redis.Del(ctx, productKey(id))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", zap.Int64("product_id", id), zap.Error(err))
	}

	product, err := c.next.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(product); err == nil {
		if err := c.redis.Set(ctx, productKey(id), payload, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", zap.Int64("product_id", id), zap.Error(err))
		}
	}
	return product, nil
}

func (c *CachedClient) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	return c.next.GetProductsByCategory(ctx, category)
}

func (c *CachedClient) IsAvailable(ctx context.Context, id int64) (bool, error) {
	_, err := c.GetProductByID(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
