package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/domains/book/job"
	"grimoire-backend/internal/infrastructure/queue"
	"grimoire-backend/pkg/container"
)

// setupAsynqServer starts the task consumer: one handler per task type.
func setupAsynqServer(c *container.Container) *asynq.Server {
	mux := asynq.NewServeMux()
	mux.Handle(queue.TypeImageCleanup, job.NewCleanupImageHandler(c.Store))
	mux.Handle(queue.TypeImageSweep, job.NewSweepImagesHandler(c.BookRepo, c.Store))

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).Msg("Task failed")
			}),
		},
	)

	go func() {
		log.Info().Msg("Worker starting")
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("Worker failed")
		}
	}()

	return srv
}

// setupScheduler starts the cron side: the nightly orphan-image sweep.
func setupScheduler(c *container.Container) *queue.Scheduler {
	scheduler := queue.NewScheduler(c.Config.Redis)

	if err := scheduler.RegisterJobs(); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}

	go func() {
		log.Info().Msg("Scheduler starting")
		if err := scheduler.Start(); err != nil {
			log.Fatal().Err(err).Msg("Scheduler failed")
		}
	}()

	return scheduler
}
