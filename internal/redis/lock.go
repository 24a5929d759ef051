package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

const inflightTTL = 1 * time.Minute

// Acquire marks a notification resource as in-flight. Returns false when
// another invocation is already processing the same resource; with
// at-least-once webhook delivery that duplicate can simply be dropped.
func (r *Redis) Acquire(resourceID string) (bool, error) {
	key := "reconcile_lock:" + resourceID
	ok, err := r.Client.SetNX(context.Background(), key, resourceID, inflightTTL).Result()
	return ok, err
}

// Release clears the in-flight marker once processing finishes.
func (r *Redis) Release(resourceID string) error {
	ctx := context.Background()
	key := fmt.Sprintf("reconcile_lock:%s", resourceID)
	_, err := r.Client.Del(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	return err
}
