package event

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.uber.org/zap"
)

// StreamAdder is the subset of the Redis client used to append to a stream.
// *redis.Client and redis.Cmdable satisfy it.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisEventForwarder forwards sale events to a Redis stream for downstream consumers
type RedisEventForwarder struct {
	client     StreamAdder
	stream     string
	maxLen     int64
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewRedisEventForwarder creates a forwarder writing to the given stream.
// maxLen caps the stream approximately (MAXLEN ~); zero disables trimming.
func NewRedisEventForwarder(client StreamAdder, stream string, maxLen int64, serializer *EventSerializer, logger *zap.Logger) *RedisEventForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEventForwarder{
		client:     client,
		stream:     stream,
		maxLen:     maxLen,
		serializer: serializer,
		logger:     logger.Named("redis_forwarder"),
	}
}

// EventTypes returns the sale event types forwarded to the stream
func (f *RedisEventForwarder) EventTypes() []string {
	return sales.SaleEventTypes
}

// Handle serializes the event and appends it to the stream
func (f *RedisEventForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := f.serializer.Serialize(event)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}

	args := &redis.XAddArgs{
		Stream: f.stream,
		Values: map[string]any{
			"event_id":     event.EventID().String(),
			"event_type":   event.EventType(),
			"aggregate_id": event.AggregateID().String(),
			"payload":      string(data),
		},
	}
	if f.maxLen > 0 {
		args.MaxLen = f.maxLen
		args.Approx = true
	}

	messageID, err := f.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("failed to forward %s to stream %s: %w", event.EventType(), f.stream, err)
	}

	f.logger.Debug("event forwarded",
		zap.String("stream", f.stream),
		zap.String("message_id", messageID),
		zap.String("event_type", event.EventType()),
		zap.String("sale_id", event.AggregateID().String()),
	)
	return nil
}

// Ensure RedisEventForwarder implements shared.EventHandler
var _ shared.EventHandler = (*RedisEventForwarder)(nil)
