package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"grimoire-backend/internal/domains/book"
	"grimoire-backend/internal/domains/book/service"
	"grimoire-backend/internal/infrastructure/storage"
	"grimoire-backend/internal/shared/middleware"
	"grimoire-backend/internal/shared/response"
	"grimoire-backend/pkg/logger"
)

// Multipart field names the front end sends.
const (
	bookField  = "book"
	imageField = "image"
)

// BookHandler handles the /api/books endpoints.
type BookHandler struct {
	books   service.BookService
	ratings service.RatingService
	images  service.ImageService
	store   storage.FileStore
}

func NewBookHandler(
	books service.BookService,
	ratings service.RatingService,
	images service.ImageService,
	store storage.FileStore,
) *BookHandler {
	return &BookHandler{
		books:   books,
		ratings: ratings,
		images:  images,
		store:   store,
	}
}

// ListBooks handles GET /api/books.
func (h *BookHandler) ListBooks(c *gin.Context) {
	books, err := h.books.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.toDTOs(c, books))
}

// GetBook handles GET /api/books/:id.
func (h *BookHandler) GetBook(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "invalid book id")
		return
	}

	b, err := h.books.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.toDTO(c, b))
}

// BestRating handles GET /api/books/bestrating.
func (h *BookHandler) BestRating(c *gin.Context) {
	books, err := h.ratings.TopRated(c.Request.Context(), service.DefaultLeaderboardSize)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, h.toDTOs(c, books))
}

// CreateBook handles POST /api/books: multipart with a "book" JSON part and
// an "image" file part. The image is required and runs the full upload
// pipeline before anything is persisted.
func (h *BookHandler) CreateBook(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	payload, ok := h.bindBookPart(c)
	if !ok {
		return
	}

	fh, err := c.FormFile(imageField)
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "image file is required")
		return
	}

	imageName, err := h.images.ProcessUpload(c.Request.Context(), fh)
	if err != nil {
		h.handleError(c, err)
		return
	}

	b, err := h.books.Create(c.Request.Context(), userID, payload, imageName)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, h.toDTO(c, b))
}

// UpdateBook handles PUT /api/books/:id. With a new image the body is
// multipart like create; without one it is plain JSON metadata.
func (h *BookHandler) UpdateBook(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "invalid book id")
		return
	}

	var payload book.BookPayload
	imageName := ""

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		payload, ok = h.bindBookPart(c)
		if !ok {
			return
		}
		if fh, err := c.FormFile(imageField); err == nil {
			imageName, err = h.images.ProcessUpload(c.Request.Context(), fh)
			if err != nil {
				h.handleError(c, err)
				return
			}
		}
	} else {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	b, err := h.books.Update(c.Request.Context(), id, userID, payload, imageName)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.toDTO(c, b))
}

// DeleteBook handles DELETE /api/books/:id.
func (h *BookHandler) DeleteBook(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "invalid book id")
		return
	}

	if err := h.books.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "book deleted"})
}

// RateBook handles POST /api/books/:id/rating. The grade is attributed to
// the token identity; the userId field in the body is accepted for
// compatibility but never trusted.
func (h *BookHandler) RateBook(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "invalid or missing token")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "invalid book id")
		return
	}

	var req book.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	b, err := h.ratings.Rate(c.Request.Context(), id, userID, req.Rating)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, h.toDTO(c, b))
}

// bindBookPart parses and validates the "book" JSON part of a multipart
// request. It writes the error response itself when binding fails.
func (h *BookHandler) bindBookPart(c *gin.Context) (book.BookPayload, bool) {
	var payload book.BookPayload

	raw := c.PostForm(bookField)
	if raw == "" {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "book metadata is required")
		return payload, false
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", "invalid book metadata")
		return payload, false
	}
	if err := payload.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return payload, false
	}
	return payload, true
}

// baseURL reconstructs scheme://host of the current request for building
// public image URLs.
func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

func (h *BookHandler) toDTO(c *gin.Context, b *book.Book) book.BookDTO {
	return b.ToDTO(h.store.PublicURL(baseURL(c), b.ImageName))
}

func (h *BookHandler) toDTOs(c *gin.Context, books []book.Book) []book.BookDTO {
	dtos := make([]book.BookDTO, 0, len(books))
	for i := range books {
		dtos = append(dtos, h.toDTO(c, &books[i]))
	}
	return dtos
}

// handleError maps domain errors to HTTP status codes. Upload rejects keep
// distinct codes so a too-large file is distinguishable from a bad type.
func (h *BookHandler) handleError(c *gin.Context, err error) {
	var vErrs validation.Errors
	switch {
	case errors.As(err, &vErrs):
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, book.ErrBookNotFound):
		response.NotFound(c, book.ErrBookNotFound.Error())
	case errors.Is(err, book.ErrNotOwner):
		response.Forbidden(c, book.ErrNotOwner.Error())
	case errors.Is(err, book.ErrAlreadyRated):
		response.Forbidden(c, book.ErrAlreadyRated.Error())
	case errors.Is(err, book.ErrInvalidGrade):
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", book.ErrInvalidGrade.Error())
	case errors.Is(err, storage.ErrUnsupportedMedia):
		response.ErrorResponse(c, http.StatusBadRequest, "UPL_001", storage.ErrUnsupportedMedia.Error())
	case errors.Is(err, storage.ErrPayloadTooLarge):
		response.ErrorResponse(c, http.StatusBadRequest, "UPL_002", storage.ErrPayloadTooLarge.Error())
	default:
		logger.Error("book request failed", err)
		response.InternalServerError(c, "something went wrong")
	}
}
