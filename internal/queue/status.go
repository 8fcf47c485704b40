/**
 * Redis-backed job status tracking.
 *
 * Mirrors each job's queue state for the UI: membership sets per status, a
 * results hash, and a pub/sub channel streaming transitions. Asynq owns the
 * queue itself; these keys exist purely for observers.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusTracker records job status transitions in Redis.
type StatusTracker struct {
	client    *redis.Client
	queueName string
}

// NewStatusTracker creates a tracker over the given Redis instance.
func NewStatusTracker(redisURL, queueName string) (*StatusTracker, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	if queueName == "" {
		queueName = "schedule:jobs"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &StatusTracker{client: client, queueName: queueName}, nil
}

// Mark records a job's transition into the given status and publishes an
// event for streaming consumers. Result payloads (completion details or error
// maps) land in the results hash.
func (t *StatusTracker) Mark(ctx context.Context, jobID, status string, result interface{}) error {
	switch status {
	case "processing":
		if err := t.client.SAdd(ctx, t.key("processing"), jobID).Err(); err != nil {
			return fmt.Errorf("failed to mark job processing: %w", err)
		}
	case "completed", "failed":
		pipe := t.client.TxPipeline()
		pipe.SRem(ctx, t.key("processing"), jobID)
		pipe.SAdd(ctx, t.key(status), jobID)
		if result != nil {
			if data, err := json.Marshal(result); err == nil {
				pipe.HSet(ctx, t.key("results"), jobID, data)
			}
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to mark job %s: %w", status, err)
		}
	default:
		return fmt.Errorf("unknown status: %s", status)
	}

	return t.publish(ctx, jobID, status)
}

// Result returns the stored result payload for a job, if any.
func (t *StatusTracker) Result(ctx context.Context, jobID string) (json.RawMessage, error) {
	data, err := t.client.HGet(ctx, t.key("results"), jobID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job result: %w", err)
	}
	return data, nil
}

// Stats returns per-status job counts.
func (t *StatusTracker) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 3)
	for _, status := range []string{"processing", "completed", "failed"} {
		n, err := t.client.SCard(ctx, t.key(status)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to count %s jobs: %w", status, err)
		}
		stats[status] = n
	}
	return stats, nil
}

// Close closes the Redis connection.
func (t *StatusTracker) Close() error {
	return t.client.Close()
}

func (t *StatusTracker) publish(ctx context.Context, jobID, status string) error {
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := t.client.Publish(ctx, t.key("events"), data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

func (t *StatusTracker) key(suffix string) string {
	return fmt.Sprintf("%s:%s", t.queueName, suffix)
}
