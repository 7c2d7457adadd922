package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/itsManeka/gibipromo-sub001/internal/cfg"
	"github.com/itsManeka/gibipromo-sub001/internal/repository/redis/converter"
	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/itsManeka/gibipromo-sub001/pkg/clients"
	"github.com/itsManeka/gibipromo-sub001/pkg/e"
	"github.com/itsManeka/gibipromo-sub001/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует снимки товаров для рендера уведомлений.
// Промах кэша — не ошибка: вызывающая сторона уходит в БД.
type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductInfoConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductInfoConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает закэшированный снимок товара или nil при промахе.
// Повреждённая запись удаляется и трактуется как промах.
func (c *CacheRepo) GetProduct(ctx context.Context, id string) (*usecase.ProductInfo, error) {
	key := c.productKey(id)

	data, err := c.client.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, nil // cache miss
		}
		c.logger.Warnf("Redis GET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductInfoRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
		c.deleteQuietly(key)
		return nil, nil
	}

	if model.ID != id {
		c.logger.Warnf("Cache ID mismatch: key_id: %s, model_id: %s", id, model.ID)
		c.deleteQuietly(key)
		return nil, nil
	}

	info, err := c.conv.ToUseCase(&model)
	if err != nil {
		c.logger.Warnf("Cache decode failed: %v", e.Wrap(whereami.WhereAmI(), err))
		c.deleteQuietly(key)
		return nil, nil
	}

	return info, nil
}

// SetProduct кэширует снимок товара с TTL из конфигурации.
func (c *CacheRepo) SetProduct(ctx context.Context, info *usecase.ProductInfo) error {
	model := c.conv.ToRedisModel(info)

	data, err := json.Marshal(model)
	if err != nil {
		c.logger.Warnf("Failed to marshal product for caching (Product ID: %s): %v", info.ID, e.Wrap(whereami.WhereAmI(), err))
		return nil
	}

	if err := c.client.Client.Set(ctx, c.productKey(info.ID), data, c.cfg.ProductTTL).Err(); err != nil {
		c.logger.Warnf("Redis SET failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// DeleteProduct удаляет снимок товара из кэша.
func (c *CacheRepo) DeleteProduct(ctx context.Context, id string) error {
	if err := c.client.Client.Del(ctx, c.productKey(id)).Err(); err != nil {
		c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

func (c *CacheRepo) deleteQuietly(key string) {
	if err := c.client.Client.Del(context.Background(), key).Err(); err != nil {
		c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

// productKey возвращает Redis-ключ для одного товара
func (c *CacheRepo) productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
