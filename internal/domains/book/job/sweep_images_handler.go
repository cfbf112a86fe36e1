package job

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/domains/book"
	"grimoire-backend/internal/infrastructure/storage"
)

// orphanAge keeps the sweep from racing an in-flight upload: a file is only
// considered orphaned once it is older than this.
const orphanAge = 24 * time.Hour

// SweepImagesHandler removes stored files no book references anymore:
// staging leftovers from interrupted uploads and covers whose cleanup task
// was lost.
type SweepImagesHandler struct {
	repo  book.Repository
	store storage.FileStore
}

func NewSweepImagesHandler(repo book.Repository, store storage.FileStore) *SweepImagesHandler {
	return &SweepImagesHandler{
		repo:  repo,
		store: store,
	}
}

func (h *SweepImagesHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	referenced, err := h.repo.ListImageNames(ctx)
	if err != nil {
		return fmt.Errorf("list referenced images: %w", err)
	}
	inUse := make(map[string]bool, len(referenced))
	for _, name := range referenced {
		inUse[name] = true
	}

	files, err := h.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list stored files: %w", err)
	}

	cutoff := time.Now().Add(-orphanAge)
	removed := 0
	for _, f := range files {
		if inUse[f.Name] || f.ModTime.After(cutoff) {
			continue
		}
		if err := h.store.Delete(ctx, f.Name); err != nil {
			log.Error().Err(err).Str("file", f.Name).Msg("Failed to sweep orphan image")
			continue
		}
		removed++
	}

	log.Info().
		Int("stored", len(files)).
		Int("removed", removed).
		Msg("Image sweep finished")

	return nil
}
