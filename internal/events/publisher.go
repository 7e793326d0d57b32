// Package events publishes job status transitions to a Redis stream so UI
// pollers and external consumers can observe pipeline progress without
// hitting the HTTP API.
package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/aabdoo23/Protomatic/internal/model"
)

// statusStreamMaxLen caps the stream; old entries are trimmed approximately.
const statusStreamMaxLen = 10000

type Publisher interface {
	PublishStatus(ctx context.Context, job *model.Job) error
	Close() error
}

type redisPublisher struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisPublisher(client *redis.Client, stream string, logger *slog.Logger) Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisPublisher{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisPublisher) PublishStatus(ctx context.Context, job *model.Job) error {
	fields := map[string]any{
		"job_id":   job.ID,
		"function": string(job.FunctionName),
		"status":   string(job.Status),
	}
	if job.Error != "" {
		fields["error"] = job.Error
	}
	if job.BlockID != nil {
		fields["block_id"] = *job.BlockID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: statusStreamMaxLen,
		Approx: true,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publish job status: %w", err)
	}

	p.logger.DebugContext(ctx, "published job status", "job_id", job.ID, "status", job.Status)
	return nil
}

func (p *redisPublisher) Close() error {
	return p.client.Close()
}
