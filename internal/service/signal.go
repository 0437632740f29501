package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/bloodlink/bloodlink/internal/domain"
)

var tracer = otel.Tracer("signal")

// eventChannel is the redis pub/sub channel all instances share.
const eventChannel = "bloodlink:events"

// SignalService distributes realtime events between instances over
// redis pub/sub. Published events come back through Listen on every
// instance, which hands them to the local connection registry.
type SignalService struct {
	rdb      *redis.Client
	registry *ConnectionRegistry
}

func NewSignalService(redisClient *redis.Client, registry *ConnectionRegistry) *SignalService {
	return &SignalService{
		rdb:      redisClient,
		registry: registry,
	}
}

func (s *SignalService) Publish(ctx context.Context, event domain.Event) error {
	ctx, span := tracer.Start(ctx, "Signal.Service.Publish")
	defer span.End()

	jsonstr, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "SignalService.Publish: marshal failed")
	}

	err = s.rdb.Publish(ctx, eventChannel, jsonstr).Err()
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "SignalService.Publish: redis publish failed")
	}

	return nil
}

// Listen consumes the pub/sub channel until ctx is cancelled, routing
// each event to its targets or to everyone. Run it in its own
// goroutine at startup.
func (s *SignalService) Listen(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, "malformed event payload",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			if len(event.Targets) > 0 {
				s.registry.SendTo(event.Targets, event)
			} else {
				s.registry.Broadcast(event)
			}
		}
	}
}
