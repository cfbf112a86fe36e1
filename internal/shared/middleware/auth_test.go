package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimoire-backend/internal/shared/middleware"
	"grimoire-backend/pkg/jwt"
)

const testSecret = "test-secret"

func newAuthRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := jwt.NewManager(testSecret)

	router := gin.New()
	router.GET("/protected", middleware.Auth(manager), func(c *gin.Context) {
		id, ok := middleware.UserID(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": id.String()})
	})
	return router, manager
}

func request(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuth_ValidToken(t *testing.T) {
	router, manager := newAuthRouter(t)
	userID := uuid.New()

	token, err := manager.Generate(userID)
	require.NoError(t, err)

	w := request(router, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuth_Rejections(t *testing.T) {
	router, _ := newAuthRouter(t)

	expired, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, jwt.Claims{
		UserID: uuid.NewString(),
		RegisteredClaims: gojwt.RegisteredClaims{
			ExpiresAt: gojwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	foreign, err := jwt.NewManager("other-secret").Generate(uuid.New())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc123"},
		{"bearer without token", "Bearer"},
		{"garbage token", "Bearer not-a-token"},
		{"expired token", "Bearer " + expired},
		{"wrong secret", "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(router, tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			// Uniform rejection body, no hint about the failure mode.
			assert.Contains(t, w.Body.String(), "invalid or missing token")
		})
	}
}
