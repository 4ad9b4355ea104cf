package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type BacklogCounter interface {
	CountUnapproved(ctx context.Context) (int64, error)
}

type BacklogRecorder interface {
	SetBacklog(ctx context.Context, count int64) error
}

// Scheduler periodically publishes how many photos await moderation.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	photos   BacklogCounter
	gauge    BacklogRecorder
	log      zerolog.Logger
}

func NewScheduler(schedule string, photos BacklogCounter, gauge BacklogRecorder, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		photos:   photos,
		gauge:    gauge,
		log:      log,
	}
}

// Start is a no-op without a gauge to write to.
func (s *Scheduler) Start() error {
	if s.gauge == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RefreshBacklog); err != nil {
		return err
	}

	s.cron.Start()
	go s.RefreshBacklog()
	return nil
}

func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) RefreshBacklog() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.photos.CountUnapproved(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("count unapproved photos failed")
		return
	}
	if err := s.gauge.SetBacklog(ctx, count); err != nil {
		s.log.Error().Err(err).Msg("record moderation backlog failed")
		return
	}
	s.log.Debug().Int64("backlog", count).Msg("moderation backlog refreshed")
}
