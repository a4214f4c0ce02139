package cases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Cache holds generated case lists per difficulty.
type Cache interface {
	Get(ctx context.Context, d Difficulty) ([]ClinicalCase, bool)
	Set(ctx context.Context, d Difficulty, list []ClinicalCase)
}

// tieredCache checks an in-process LRU first and Redis second. Redis is
// optional; a nil client leaves the LRU as the only tier.
type tieredCache struct {
	memory *expirable.LRU[Difficulty, []ClinicalCase]
	redis  *redis.Client
	ttl    time.Duration
	logger logrus.FieldLogger
}

type cachedList struct {
	Cases    []ClinicalCase `json:"cases"`
	CachedAt time.Time      `json:"cached_at"`
}

func NewCache(size int, ttl time.Duration, rdb *redis.Client, logger logrus.FieldLogger) Cache {
	return &tieredCache{
		memory: expirable.NewLRU[Difficulty, []ClinicalCase](size, nil, ttl),
		redis:  rdb,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *tieredCache) key(d Difficulty) string {
	return fmt.Sprintf("medisim:cases:%s", d)
}

func (c *tieredCache) Get(ctx context.Context, d Difficulty) ([]ClinicalCase, bool) {
	if list, ok := c.memory.Get(d); ok {
		return list, true
	}
	if c.redis == nil {
		return nil, false
	}

	val, err := c.redis.Get(ctx, c.key(d)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Warn("Redis case cache read failed")
		return nil, false
	}

	var cached cachedList
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		c.redis.Del(ctx, c.key(d))
		return nil, false
	}
	c.memory.Add(d, cached.Cases)
	return cached.Cases, true
}

func (c *tieredCache) Set(ctx context.Context, d Difficulty, list []ClinicalCase) {
	c.memory.Add(d, list)
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(cachedList{Cases: list, CachedAt: time.Now()})
	if err != nil {
		c.logger.WithError(err).Warn("Encoding case list for cache failed")
		return
	}
	if err := c.redis.Set(ctx, c.key(d), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis case cache write failed")
	}
}
