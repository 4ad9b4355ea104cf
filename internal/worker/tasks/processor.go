package tasks

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"datingapp/internal/events"
)

type Counter interface {
	Increment(ctx context.Context, eventType string) error
}

// Processor turns activity events into counters.
type Processor struct {
	counter Counter
	logger  zerolog.Logger
}

func NewProcessor(counter Counter, logger zerolog.Logger) *Processor {
	return &Processor{
		counter: counter,
		logger:  logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	event, err := events.Decode(msg.Values)
	if err != nil {
		// A malformed entry will never decode; drop it instead of retrying forever.
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed event")
		return nil
	}

	switch event.Type {
	case events.TypeUserRegistered,
		events.TypeUserLoggedIn,
		events.TypeRolesEdited,
		events.TypePhotoUploaded,
		events.TypePhotoApproved,
		events.TypePhotoRejected:
	default:
		p.logger.Warn().Str("type", event.Type).Msg("unknown event type")
		return nil
	}

	if err := p.counter.Increment(ctx, event.Type); err != nil {
		return fmt.Errorf("increment %s: %w", event.Type, err)
	}

	p.logger.Debug().
		Str("type", event.Type).
		Int64("user_id", event.UserID).
		Int64("photo_id", event.PhotoID).
		Msg("event counted")
	return nil
}
