package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"BrandPulse/internal/domain"
	"BrandPulse/internal/ports"
)

// runMessage is the wire shape pushed onto the queue.
type runMessage struct {
	RunID    string                `json:"run_id"`
	Override *domain.QueryOverride `json:"override,omitempty"`
}

// RedisQueue hands run requests between the API/scheduler and the worker
// through a Redis list.
type RedisQueue struct {
	client   *redis.Client
	queueKey string
}

var _ ports.RunQueue = (*RedisQueue)(nil)

// Connect parses the Redis URL and pings the server.
func Connect(url, queueKey string) (*RedisQueue, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisQueue{client: client, queueKey: queueKey}, nil
}

// Close releases the connection pool.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// Enqueue pushes one run request.
func (q *RedisQueue) Enqueue(ctx context.Context, runID string, override *domain.QueryOverride) error {
	payload, err := json.Marshal(runMessage{RunID: runID, Override: override})
	if err != nil {
		return fmt.Errorf("encode run message: %w", err)
	}

	if err := q.client.LPush(ctx, q.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("push run message: %w", err)
	}
	return nil
}

// Dequeue blocks until a run request arrives or ctx is done.
func (q *RedisQueue) Dequeue(ctx context.Context) (string, *domain.QueryOverride, error) {
	for {
		res, err := q.client.BRPop(ctx, 5*time.Second, q.queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", nil, fmt.Errorf("pop run message: %w", err)
		}
		if len(res) < 2 {
			continue
		}

		var msg runMessage
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
			return "", nil, fmt.Errorf("decode run message: %w", err)
		}
		return msg.RunID, msg.Override, nil
	}
}
