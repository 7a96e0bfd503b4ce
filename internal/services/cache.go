package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheService fronts Redis for prediction and line data.
type CacheService struct {
	client *redis.Client
	logger *logrus.Logger
	ctx    context.Context
}

const (
	// PropLinesTTL keeps sportsbook lines fresh; books move lines all day.
	PropLinesTTL = 30 * time.Minute
	// PredictionsTTL covers a full slate; the batch job overwrites it daily.
	PredictionsTTL = 24 * time.Hour
	// AccuracyTTL refreshes with each verification run.
	AccuracyTTL = 6 * time.Hour
	// AthleteProfileTTL covers rolling profiles served by the API.
	AthleteProfileTTL = 1 * time.Hour
)

// NewCacheService creates a new cache service instance.
func NewCacheService(redisClient *redis.Client, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client: redisClient,
		logger: logger,
		ctx:    context.Background(),
	}
}

func (c *CacheService) buildCacheKey(elements ...string) string {
	return fmt.Sprintf("prop-engine:%s", strings.Join(elements, ":"))
}

// Set stores a value in cache with TTL.
func (c *CacheService) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	err = c.client.Set(c.ctx, key, data, ttl).Err()
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to set cache value")
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"key": key,
		"ttl": ttl.String(),
	}).Debug("Cached value successfully")

	return nil
}

// Get retrieves a value from cache.
func (c *CacheService) Get(key string, dest interface{}) error {
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return fmt.Errorf("cache miss")
		}
		c.logger.WithError(err).WithField("key", key).Error("Failed to get cache value")
		return err
	}

	err = json.Unmarshal([]byte(data), dest)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to unmarshal cache value")
		return err
	}

	c.logger.WithField("key", key).Debug("Cache hit")
	return nil
}

// Delete removes a value from cache.
func (c *CacheService) Delete(key string) error {
	err := c.client.Del(c.ctx, key).Err()
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Error("Failed to delete cache value")
		return err
	}
	return nil
}

// Prediction slate caching.
func (c *CacheService) SetPredictions(date string, predictions interface{}) error {
	key := c.buildCacheKey("predictions", date)
	return c.Set(key, predictions, PredictionsTTL)
}

func (c *CacheService) GetPredictions(date string, dest interface{}) error {
	key := c.buildCacheKey("predictions", date)
	return c.Get(key, dest)
}

// Sportsbook line caching.
func (c *CacheService) SetPropLines(date string, lines interface{}) error {
	key := c.buildCacheKey("lines", date)
	return c.Set(key, lines, PropLinesTTL)
}

func (c *CacheService) GetPropLines(date string, dest interface{}) error {
	key := c.buildCacheKey("lines", date)
	return c.Get(key, dest)
}

// Accuracy summary caching.
func (c *CacheService) SetAccuracy(days int, summary interface{}) error {
	key := c.buildCacheKey("accuracy", fmt.Sprintf("%d", days))
	return c.Set(key, summary, AccuracyTTL)
}

func (c *CacheService) GetAccuracy(days int, dest interface{}) error {
	key := c.buildCacheKey("accuracy", fmt.Sprintf("%d", days))
	return c.Get(key, dest)
}

func (c *CacheService) InvalidateAccuracy() error {
	pattern := c.buildCacheKey("accuracy", "*")
	return c.deleteByPattern(pattern)
}

// Athlete profile caching.
func (c *CacheService) SetAthleteProfile(athleteID string, profile interface{}) error {
	key := c.buildCacheKey("athlete", athleteID, "profile")
	return c.Set(key, profile, AthleteProfileTTL)
}

func (c *CacheService) GetAthleteProfile(athleteID string, dest interface{}) error {
	key := c.buildCacheKey("athlete", athleteID, "profile")
	return c.Get(key, dest)
}

func (c *CacheService) deleteByPattern(pattern string) error {
	keys, err := c.client.Keys(c.ctx, pattern).Result()
	if err != nil {
		return err
	}

	if len(keys) > 0 {
		err = c.client.Del(c.ctx, keys...).Err()
		if err != nil {
			c.logger.WithError(err).WithField("pattern", pattern).Error("Failed to delete keys by pattern")
			return err
		}
	}

	return nil
}

// IsHealthy pings Redis.
func (c *CacheService) IsHealthy() bool {
	err := c.client.Ping(c.ctx).Err()
	return err == nil
}
