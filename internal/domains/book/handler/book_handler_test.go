package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimoire-backend/internal/domains/book"
	"grimoire-backend/internal/domains/book/handler"
	"grimoire-backend/internal/infrastructure/storage"
	"grimoire-backend/internal/shared/middleware"
	"grimoire-backend/pkg/jwt"
)

type fakeBookService struct {
	books     map[uuid.UUID]*book.Book
	createErr error
}

func newFakeBookService() *fakeBookService {
	return &fakeBookService{books: make(map[uuid.UUID]*book.Book)}
}

func (s *fakeBookService) Create(_ context.Context, ownerID uuid.UUID, p book.BookPayload, imageName string) (*book.Book, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	b := &book.Book{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     p.Title,
		Author:    p.Author,
		Year:      p.Year,
		Genre:     p.Genre,
		ImageName: imageName,
	}
	s.books[b.ID] = b
	return b, nil
}

func (s *fakeBookService) List(context.Context) ([]book.Book, error) {
	out := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, *b)
	}
	return out, nil
}

func (s *fakeBookService) Get(_ context.Context, id uuid.UUID) (*book.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return b, nil
}

func (s *fakeBookService) Update(_ context.Context, id, callerID uuid.UUID, p book.BookPayload, imageName string) (*book.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	if !book.CanModify(b, callerID) {
		return nil, book.ErrNotOwner
	}
	b.Title = p.Title
	if imageName != "" {
		b.ImageName = imageName
	}
	return b, nil
}

func (s *fakeBookService) Delete(_ context.Context, id, callerID uuid.UUID) error {
	b, ok := s.books[id]
	if !ok {
		return book.ErrBookNotFound
	}
	if !book.CanModify(b, callerID) {
		return book.ErrNotOwner
	}
	delete(s.books, id)
	return nil
}

// fakeRatingService records which identity the handler attributes ratings to.
type fakeRatingService struct {
	books       *fakeBookService
	lastRaterID uuid.UUID
	rateErr     error
}

func (s *fakeRatingService) Rate(_ context.Context, bookID, userID uuid.UUID, grade int) (*book.Book, error) {
	s.lastRaterID = userID
	if s.rateErr != nil {
		return nil, s.rateErr
	}
	b, ok := s.books.books[bookID]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	b.Ratings = append(b.Ratings, book.Rating{UserID: userID, Grade: grade})
	return b, nil
}

func (s *fakeRatingService) TopRated(context.Context, int) ([]book.Book, error) {
	return s.books.List(context.Background())
}

type fakeImageService struct {
	name string
	err  error
}

func (s *fakeImageService) ProcessUpload(context.Context, *multipart.FileHeader) (string, error) {
	return s.name, s.err
}

type urlOnlyStore struct{}

func (urlOnlyStore) Save(context.Context, string, []byte, string) error { return nil }
func (urlOnlyStore) Delete(context.Context, string) error               { return nil }
func (urlOnlyStore) List(context.Context) ([]storage.FileInfo, error)   { return nil, nil }
func (urlOnlyStore) PublicURL(base, name string) string                 { return base + "/images/" + name }

type fixture struct {
	router  *gin.Engine
	books   *fakeBookService
	ratings *fakeRatingService
	images  *fakeImageService
	manager *jwt.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	books := newFakeBookService()
	ratings := &fakeRatingService{books: books}
	images := &fakeImageService{name: "cover.jpg"}
	manager := jwt.NewManager("test-secret")

	h := handler.NewBookHandler(books, ratings, images, urlOnlyStore{})

	router := gin.New()
	api := router.Group("/api/books")
	api.GET("", h.ListBooks)
	api.GET("/bestrating", h.BestRating)
	api.GET("/:id", h.GetBook)

	authed := api.Group("")
	authed.Use(middleware.Auth(manager))
	authed.POST("", h.CreateBook)
	authed.PUT("/:id", h.UpdateBook)
	authed.DELETE("/:id", h.DeleteBook)
	authed.POST("/:id/rating", h.RateBook)

	return &fixture{router: router, books: books, ratings: ratings, images: images, manager: manager}
}

func (f *fixture) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := f.manager.Generate(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) seed(t *testing.T, ownerID uuid.UUID) *book.Book {
	t.Helper()
	b, err := f.books.Create(context.Background(), ownerID, book.BookPayload{
		Title: "Seeded", Author: "Author", Year: 2020,
	}, "seed.jpg")
	require.NoError(t, err)
	return b
}

// multipartBody builds the create/update request body with a book JSON part
// and an image file part.
func multipartBody(t *testing.T, payload book.BookPayload, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, w.WriteField("book", string(raw)))

	if withImage {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="cover.png"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("png bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestListBooks_BuildsImageURLs(t *testing.T) {
	f := newFixture(t)
	f.seed(t, uuid.New())

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/books", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    []book.BookDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "http://example.com/images/seed.jpg", resp.Data[0].ImageURL)
	assert.NotNil(t, resp.Data[0].Ratings, "ratings must serialize as [] not null")
}

func TestGetBook_BadID(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/books/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBook_NotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/books/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBook(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()

	body, contentType := multipartBody(t, book.BookPayload{Title: "New", Author: "A", Year: 1999}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", f.token(t, owner))

	w := f.do(req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data book.BookDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "New", resp.Data.Title)
	assert.Equal(t, owner, resp.Data.UserID)
	assert.True(t, strings.HasSuffix(resp.Data.ImageURL, "/images/cover.jpg"))
}

func TestCreateBook_ImageRequired(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, book.BookPayload{Title: "New", Author: "A"}, false)
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", f.token(t, uuid.New()))

	w := f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, f.books.books, "nothing persisted without an image")
}

func TestCreateBook_UnsupportedImage(t *testing.T) {
	f := newFixture(t)
	f.images.err = storage.ErrUnsupportedMedia

	body, contentType := multipartBody(t, book.BookPayload{Title: "New", Author: "A"}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", f.token(t, uuid.New()))

	w := f.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UPL_001")
}

func TestCreateBook_NoToken(t *testing.T) {
	f := newFixture(t)

	body, contentType := multipartBody(t, book.BookPayload{Title: "New", Author: "A"}, true)
	req := httptest.NewRequest(http.MethodPost, "/api/books", body)
	req.Header.Set("Content-Type", contentType)

	w := f.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateBook_JSONBodyKeepsImage(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	b := f.seed(t, owner)

	body := bytes.NewBufferString(`{"title":"Renamed","author":"Author","year":2020}`)
	req := httptest.NewRequest(http.MethodPut, "/api/books/"+b.ID.String(), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.token(t, owner))

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data book.BookDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Renamed", resp.Data.Title)
	assert.True(t, strings.HasSuffix(resp.Data.ImageURL, "/images/seed.jpg"), "cover unchanged")
}

func TestUpdateBook_NonOwner(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New())

	body := bytes.NewBufferString(`{"title":"Hijacked","author":"Author","year":2020}`)
	req := httptest.NewRequest(http.MethodPut, "/api/books/"+b.ID.String(), body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.token(t, uuid.New()))

	w := f.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteBook(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	b := f.seed(t, owner)

	req := httptest.NewRequest(http.MethodDelete, "/api/books/"+b.ID.String(), nil)
	req.Header.Set("Authorization", f.token(t, owner))

	w := f.do(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, f.books.books)
}

func TestRateBook_TokenIdentityWins(t *testing.T) {
	f := newFixture(t)
	rater := uuid.New()
	b := f.seed(t, uuid.New())

	// Body claims a different user; the token identity must be recorded.
	body := bytes.NewBufferString(`{"userId":"` + uuid.NewString() + `","rating":4}`)
	req := httptest.NewRequest(http.MethodPost, "/api/books/"+b.ID.String()+"/rating", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.token(t, rater))

	w := f.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rater, f.ratings.lastRaterID)
}

func TestRateBook_GradeOutOfRange(t *testing.T) {
	f := newFixture(t)
	b := f.seed(t, uuid.New())

	for _, payload := range []string{`{"rating":0}`, `{"rating":6}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/books/"+b.ID.String()+"/rating", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", f.token(t, uuid.New()))

		w := f.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code, "payload %s", payload)
	}
}

func TestRateBook_DuplicateIsForbidden(t *testing.T) {
	f := newFixture(t)
	f.ratings.rateErr = book.ErrAlreadyRated
	b := f.seed(t, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/books/"+b.ID.String()+"/rating", bytes.NewBufferString(`{"rating":3}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.token(t, uuid.New()))

	w := f.do(req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
