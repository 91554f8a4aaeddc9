package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"plantwatch/internal/models"
)

const cycleResultTTL = 10 * time.Minute

// ResultCache mirrors the latest cycle state into Redis and fans alert
// events out over pub/sub, so dashboards and downstream consumers never
// query the primary store.
type ResultCache struct {
	client *redis.Client
}

// NewResultCache connects to Redis and verifies connectivity
func NewResultCache(ctx context.Context, addr, password string, db int) (*ResultCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &ResultCache{client: client}, nil
}

// StoreCycleResult writes the latest cycle summary hash for its domain
func (c *ResultCache) StoreCycleResult(ctx context.Context, res *models.CycleResult) error {
	key := fmt.Sprintf("cycle:%s:latest", res.Domain)

	fields := map[string]interface{}{
		"cycle_id":    res.CycleID,
		"domain":      string(res.Domain),
		"started_at":  res.StartedAt.Unix(),
		"finished_at": res.FinishedAt.Unix(),
		"violations":  len(res.Violations),
		"attempted":   res.Summary.Attempted,
		"succeeded":   res.Summary.Succeeded,
		"failed":      res.Summary.Failed,
		"simulated":   res.Summary.Simulated,
	}

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, cycleResultTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store cycle result for %s: %w", res.Domain, err)
	}
	return nil
}

// PublishAlert publishes an alert event JSON to the domain channel
func (c *ResultCache) PublishAlert(ctx context.Context, event *models.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal alert event: %w", err)
	}

	channel := fmt.Sprintf("alerts:%s", event.Violation.Domain)
	if err := c.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish alert to %s: %w", channel, err)
	}
	return nil
}

// Ping checks Redis connectivity
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the client
func (c *ResultCache) Close() error {
	return c.client.Close()
}
