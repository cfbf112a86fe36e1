package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/infrastructure/queue"
	"grimoire-backend/internal/infrastructure/storage"
)

// CleanupImageHandler deletes one stored cover file, queued after a book is
// deleted or its cover replaced.
type CleanupImageHandler struct {
	store storage.FileStore
}

func NewCleanupImageHandler(store storage.FileStore) *CleanupImageHandler {
	return &CleanupImageHandler{store: store}
}

func (h *CleanupImageHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload queue.ImageCleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal image cleanup payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	if err := h.store.Delete(ctx, payload.Filename); err != nil {
		log.Error().
			Err(err).
			Str("file", payload.Filename).
			Msg("Failed to delete image")
		return fmt.Errorf("delete image: %w", err)
	}

	log.Info().
		Str("file", payload.Filename).
		Msg("Image deleted")

	return nil
}
