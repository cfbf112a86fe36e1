package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"grimoire-backend/internal/infrastructure/storage"
	"grimoire-backend/pkg/logger"
)

// ImageService runs the upload pipeline for book covers: validate the
// declared type, extension and size, stage the original bytes, transcode to
// the canonical format, then drop the staging file.
type ImageService interface {
	ProcessUpload(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

type imageService struct {
	store     storage.FileStore
	processor *storage.ImageProcessor
}

func NewImageService(store storage.FileStore, processor *storage.ImageProcessor) ImageService {
	return &imageService{
		store:     store,
		processor: processor,
	}
}

// ProcessUpload returns the stored file name a Book should reference.
//
// When transcoding fails, the staged original stays and is what gets
// referenced; the upload already passed validation, so a decode failure is
// treated as a processor gap rather than a reason to lose the request.
func (s *imageService) ProcessUpload(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	mimeType := fh.Header.Get("Content-Type")

	if err := s.processor.Validate(fh.Filename, mimeType, fh.Size); err != nil {
		return "", err
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.processor.MaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	// The multipart header size can lie; re-check the actual bytes.
	if int64(len(data)) > s.processor.MaxSize {
		return "", storage.ErrPayloadTooLarge
	}

	staged := storage.StagedName(fh.Filename, mimeType, time.Now())
	if err := s.store.Save(ctx, staged, data, mimeType); err != nil {
		return "", fmt.Errorf("stage upload: %w", err)
	}

	transcoded, err := s.processor.Transcode(data)
	if err != nil {
		logger.Error("transcode failed, keeping original", err)
		return staged, nil
	}

	final := storage.FinalName(staged)
	if err := s.store.Save(ctx, final, transcoded, "image/jpeg"); err != nil {
		return "", fmt.Errorf("save transcoded image: %w", err)
	}

	if err := s.store.Delete(ctx, staged); err != nil {
		logger.Error("failed to remove staging file", err)
	}

	return final, nil
}
