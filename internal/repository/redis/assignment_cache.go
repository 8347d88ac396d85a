package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"myPriceLab/business/bandit"

	"github.com/redis/go-redis/v9"
)

const defaultAssignmentTTL = 30 * 24 * time.Hour

// AssignmentCache keeps sticky user -> arm assignments in Redis.
type AssignmentCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ bandit.AssignmentCache = (*AssignmentCache)(nil)

func NewAssignmentCache(client *redis.Client, ttl time.Duration) *AssignmentCache {
	if ttl <= 0 {
		ttl = defaultAssignmentTTL
	}
	return &AssignmentCache{
		client: client,
		ttl:    ttl,
	}
}

func assignmentKey(experimentID, userID string) string {
	// key format: "experiment:{experiment_id}:assignment:{user_id}"
	return fmt.Sprintf("experiment:%s:assignment:%s", experimentID, userID)
}

func (c *AssignmentCache) Get(ctx context.Context, experimentID, userID string) (string, bool, error) {
	armID, err := c.client.Get(ctx, assignmentKey(experimentID, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get assignment from Redis: %w", err)
	}
	return armID, true, nil
}

func (c *AssignmentCache) Set(ctx context.Context, experimentID, userID, armID string) error {
	if err := c.client.Set(ctx, assignmentKey(experimentID, userID), armID, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store assignment in Redis: %w", err)
	}
	return nil
}
