package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task types handled by cmd/worker.
const (
	TypeImageCleanup = "image:cleanup"
	TypeImageSweep   = "image:sweep"
)

// ImageCleanupPayload names one stored file to delete.
type ImageCleanupPayload struct {
	Filename string `json:"filename"`
}

// NewImageCleanupTask builds the cleanup task for one file.
func NewImageCleanupTask(filename string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageCleanupPayload{Filename: filename})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImageCleanup, payload, asynq.MaxRetry(3)), nil
}

// NewImageSweepTask builds the periodic orphan-file sweep task.
func NewImageSweepTask() *asynq.Task {
	return asynq.NewTask(TypeImageSweep, nil)
}
