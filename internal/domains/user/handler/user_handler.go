package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"grimoire-backend/internal/domains/user"
	"grimoire-backend/internal/shared/response"
	"grimoire-backend/pkg/logger"
)

// UserHandler handles the /api/auth endpoints. Stateless; it only holds the
// service dependency.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// Signup handles POST /api/auth/signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req user.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	dto, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, dto)
}

// Login handles POST /api/auth/login.
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := req.Validate(); err != nil {
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", err.Error())
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp)
}

// handleError maps domain errors to HTTP status codes. Store failures are
// logged and surface as a generic 500, never the raw error.
func (h *UserHandler) handleError(c *gin.Context, err error) {
	var vErrs validation.Errors
	switch {
	case errors.As(err, &vErrs):
		response.ErrorResponse(c, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, "email already registered")
	case errors.Is(err, user.ErrInvalidCredentials):
		response.Unauthorized(c, user.ErrInvalidCredentials.Error())
	default:
		logger.Error("auth request failed", err)
		response.InternalServerError(c, "something went wrong")
	}
}
