package job_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimoire-backend/internal/domains/book"
	"grimoire-backend/internal/domains/book/job"
	"grimoire-backend/internal/infrastructure/queue"
	"grimoire-backend/internal/infrastructure/storage"
)

// imageNamesRepo stubs book.Repository for jobs, which only list references.
type imageNamesRepo struct {
	names []string
}

func (r *imageNamesRepo) Create(context.Context, *book.Book) error        { return nil }
func (r *imageNamesRepo) List(context.Context) ([]book.Book, error)       { return nil, nil }
func (r *imageNamesRepo) Update(context.Context, *book.Book) error        { return nil }
func (r *imageNamesRepo) Delete(context.Context, uuid.UUID) error         { return nil }
func (r *imageNamesRepo) TopRated(context.Context, int) ([]book.Book, error) {
	return nil, nil
}

func (r *imageNamesRepo) GetByID(context.Context, uuid.UUID) (*book.Book, error) {
	return nil, book.ErrBookNotFound
}

func (r *imageNamesRepo) AddRating(context.Context, uuid.UUID, uuid.UUID, int) (*book.Book, error) {
	return nil, book.ErrBookNotFound
}

func (r *imageNamesRepo) ListImageNames(context.Context) ([]string, error) {
	return r.names, nil
}

// recordingStore serves a fixed listing and records deletions.
type recordingStore struct {
	files   []storage.FileInfo
	deleted []string
}

func (s *recordingStore) Save(context.Context, string, []byte, string) error { return nil }

func (s *recordingStore) Delete(_ context.Context, name string) error {
	s.deleted = append(s.deleted, name)
	return nil
}

func (s *recordingStore) List(context.Context) ([]storage.FileInfo, error) {
	return s.files, nil
}

func (s *recordingStore) PublicURL(base, name string) string { return base + "/images/" + name }

func TestCleanupImage(t *testing.T) {
	store := &recordingStore{}
	h := job.NewCleanupImageHandler(store)

	task, err := queue.NewImageCleanupTask("old-cover.jpg")
	require.NoError(t, err)

	require.NoError(t, h.ProcessTask(context.Background(), task))
	assert.Equal(t, []string{"old-cover.jpg"}, store.deleted)
}

func TestCleanupImage_BadPayload(t *testing.T) {
	store := &recordingStore{}
	h := job.NewCleanupImageHandler(store)

	task := asynq.NewTask(queue.TypeImageCleanup, []byte("not json"))
	assert.Error(t, h.ProcessTask(context.Background(), task))
	assert.Empty(t, store.deleted)
}

func TestSweepImages(t *testing.T) {
	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now().Add(-time.Hour)

	repo := &imageNamesRepo{names: []string{"referenced.jpg"}}
	store := &recordingStore{files: []storage.FileInfo{
		{Name: "referenced.jpg", ModTime: old},       // in use, keep
		{Name: "orphan.jpg", ModTime: old},           // unreferenced and old, remove
		{Name: "original_staged123.png", ModTime: old}, // interrupted upload leftover, remove
		{Name: "original_recent456.png", ModTime: fresh}, // may still be mid-upload, keep
	}}

	h := job.NewSweepImagesHandler(repo, store)
	require.NoError(t, h.ProcessTask(context.Background(), queue.NewImageSweepTask()))

	assert.ElementsMatch(t, []string{"orphan.jpg", "original_staged123.png"}, store.deleted)
}

func TestSweepImages_NothingToDo(t *testing.T) {
	repo := &imageNamesRepo{names: []string{"cover.jpg"}}
	store := &recordingStore{files: []storage.FileInfo{
		{Name: "cover.jpg", ModTime: time.Now().Add(-72 * time.Hour)},
	}}

	h := job.NewSweepImagesHandler(repo, store)
	require.NoError(t, h.ProcessTask(context.Background(), queue.NewImageSweepTask()))
	assert.Empty(t, store.deleted)
}
