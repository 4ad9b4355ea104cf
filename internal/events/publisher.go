package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	TypeUserRegistered = "user.registered"
	TypeUserLoggedIn   = "user.logged_in"
	TypeRolesEdited    = "roles.edited"
	TypePhotoUploaded  = "photo.uploaded"
	TypePhotoApproved  = "photo.approved"
	TypePhotoRejected  = "photo.rejected"
)

// streamMaxLen caps the activity stream; trimming is approximate.
const streamMaxLen = 100000

// publishTimeout bounds how long a request waits on redis for an event.
const publishTimeout = 500 * time.Millisecond

type Event struct {
	Type     string    `json:"type"`
	UserID   int64     `json:"userId,omitempty"`
	UserName string    `json:"userName,omitempty"`
	PhotoID  int64     `json:"photoId,omitempty"`
	Actor    string    `json:"actor,omitempty"`
	Roles    []string  `json:"roles,omitempty"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// RedisPublisher appends events to a redis stream. A nil client turns
// Publish into a no-op.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisPublisher(client *redis.Client, stream string) *RedisPublisher {
	return &RedisPublisher{client: client, stream: stream}
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	if p == nil || p.client == nil {
		return nil
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"type": event.Type,
			"data": string(data),
		},
	}).Err()
}

// Decode reads an event back from stream entry values.
func Decode(values map[string]any) (Event, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return Event{}, fmt.Errorf("missing event data")
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if event.Type == "" {
		event.Type, _ = values["type"].(string)
	}
	return event, nil
}
