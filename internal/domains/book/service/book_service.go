package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/domains/book"
	"grimoire-backend/internal/infrastructure/queue"
	"grimoire-backend/internal/infrastructure/storage"
)

// BookService is the catalog business logic.
type BookService interface {
	Create(ctx context.Context, ownerID uuid.UUID, payload book.BookPayload, imageName string) (*book.Book, error)
	List(ctx context.Context) ([]book.Book, error)
	Get(ctx context.Context, id uuid.UUID) (*book.Book, error)

	// Update replaces the metadata and, when imageName is non-empty, the
	// cover. Owner only.
	Update(ctx context.Context, id, callerID uuid.UUID, payload book.BookPayload, imageName string) (*book.Book, error)

	// Delete removes the record and schedules cleanup of its cover. Owner
	// only.
	Delete(ctx context.Context, id, callerID uuid.UUID) error
}

type bookService struct {
	repo     book.Repository
	store    storage.FileStore
	enqueuer queue.Enqueuer
}

func NewBookService(repo book.Repository, store storage.FileStore, enqueuer queue.Enqueuer) BookService {
	return &bookService{
		repo:     repo,
		store:    store,
		enqueuer: enqueuer,
	}
}

func (s *bookService) Create(ctx context.Context, ownerID uuid.UUID, payload book.BookPayload, imageName string) (*book.Book, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	b := &book.Book{
		UserID:    ownerID,
		Title:     payload.Title,
		Author:    payload.Author,
		Year:      payload.Year,
		Genre:     payload.Genre,
		ImageName: imageName,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bookService) List(ctx context.Context) ([]book.Book, error) {
	return s.repo.List(ctx)
}

func (s *bookService) Get(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *bookService) Update(ctx context.Context, id, callerID uuid.UUID, payload book.BookPayload, imageName string) (*book.Book, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !book.CanModify(b, callerID) {
		return nil, book.ErrNotOwner
	}

	previousImage := b.ImageName

	b.Title = payload.Title
	b.Author = payload.Author
	b.Year = payload.Year
	b.Genre = payload.Genre
	if imageName != "" {
		b.ImageName = imageName
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	// Old cover cleanup happens only after the update is durably applied,
	// and never blocks the response.
	if imageName != "" && previousImage != "" && previousImage != imageName {
		s.cleanupImage(ctx, previousImage)
	}

	return b, nil
}

func (s *bookService) Delete(ctx context.Context, id, callerID uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !book.CanModify(b, callerID) {
		return book.ErrNotOwner
	}

	// The record delete is the authoritative mutation; an orphaned file is
	// an accepted failure mode, a dangling record is not.
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if b.ImageName != "" {
		s.cleanupImage(ctx, b.ImageName)
	}
	return nil
}

// cleanupImage schedules best-effort deletion of a stored cover. When the
// queue is unreachable it falls back to deleting inline in the background.
// Failures are logged and dropped.
func (s *bookService) cleanupImage(ctx context.Context, name string) {
	err := s.enqueuer.EnqueueImageCleanup(ctx, name)
	if err == nil {
		return
	}
	log.Warn().Err(err).Str("file", name).Msg("cleanup enqueue failed, deleting inline")

	go func() {
		if err := s.store.Delete(context.Background(), name); err != nil {
			log.Error().Err(err).Str("file", name).Msg("image cleanup failed")
		}
	}()
}
