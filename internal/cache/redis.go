package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pennmobile/gsr-booking/config"
	"github.com/pennmobile/gsr-booking/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client       *redis.Client
	buildingsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, buildingsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		buildingsTTL: buildingsTTL,
	}
}

func (c *RedisCache) GetBuildings(ctx context.Context) ([]domain.Building, error) {
	data, err := c.client.Get(ctx, buildingsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var buildings []domain.Building
	if err := json.Unmarshal(data, &buildings); err != nil {
		return nil, err
	}
	return buildings, nil
}

func (c *RedisCache) SetBuildings(ctx context.Context, buildings []domain.Building) error {
	payload, err := json.Marshal(buildings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, buildingsKey(), payload, c.buildingsTTL).Err()
}

func buildingsKey() string {
	return "cache:gsr:buildings"
}
