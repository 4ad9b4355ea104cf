package events

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	statsKey   = "dating:stats"
	backlogKey = "dating:moderation:backlog"
)

type Snapshot struct {
	Events  map[string]int64 `json:"events"`
	Backlog int64            `json:"moderationBacklog"`
}

// Stats keeps activity counters and the moderation backlog gauge in redis.
// Every method is a no-op on a nil client.
type Stats struct {
	client *redis.Client
}

func NewStats(client *redis.Client) *Stats {
	return &Stats{client: client}
}

func (s *Stats) Increment(ctx context.Context, eventType string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.HIncrBy(ctx, statsKey, eventType, 1).Err()
}

func (s *Stats) SetBacklog(ctx context.Context, count int64) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, backlogKey, count, 0).Err()
}

func (s *Stats) Snapshot(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{Events: map[string]int64{}}
	if s == nil || s.client == nil {
		return snap, nil
	}

	counters, err := s.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return Snapshot{}, err
	}
	for name, value := range counters {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		snap.Events[name] = n
	}

	backlog, err := s.client.Get(ctx, backlogKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, err
	}
	snap.Backlog = backlog
	return snap, nil
}
