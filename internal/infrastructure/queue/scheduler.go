package queue

import (
	"fmt"

	"github.com/hibiken/asynq"

	"grimoire-backend/internal/config"
)

// Scheduler registers the periodic jobs the worker runs.
type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(cfg config.RedisConfig) *Scheduler {
	return &Scheduler{
		scheduler: asynq.NewScheduler(
			asynq.RedisClientOpt{
				Addr:     cfg.Host,
				Password: cfg.Password,
				DB:       cfg.DB,
			},
			nil,
		),
	}
}

// RegisterJobs wires the cron entries. The sweep runs nightly and removes
// stored files no book references anymore.
func (s *Scheduler) RegisterJobs() error {
	if _, err := s.scheduler.Register("0 3 * * *", NewImageSweepTask()); err != nil {
		return fmt.Errorf("register image sweep: %w", err)
	}
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
