package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"grimoire-backend/internal/infrastructure/storage"
	"grimoire-backend/internal/shared/middleware"
	"grimoire-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	// With the local driver, transcoded covers are served straight from the
	// upload directory. The minio driver serves from the bucket endpoint.
	if local, ok := c.Store.(*storage.LocalStore); ok {
		router.Static("/images", local.Dir())
	}

	api := router.Group("/api")
	{
		api.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(api, c)
		setupBookRoutes(api, c)
	}

	return router
}

func setupAuthRoutes(api *gin.RouterGroup, c *container.Container) {
	auth := api.Group("/auth")
	{
		auth.POST("/signup", c.UserHandler.Signup)
		auth.POST("/login", c.UserHandler.Login)
	}
}

func setupBookRoutes(api *gin.RouterGroup, c *container.Container) {
	books := api.Group("/books")
	{
		// Public routes. /bestrating is registered before /:id so the static
		// segment wins route matching.
		books.GET("", c.BookHandler.ListBooks)
		books.GET("/bestrating", c.BookHandler.BestRating)
		books.GET("/:id", c.BookHandler.GetBook)

		// Protected routes
		authed := books.Group("")
		authed.Use(middleware.Auth(c.JWTManager))
		{
			authed.POST("", c.BookHandler.CreateBook)
			authed.PUT("/:id", c.BookHandler.UpdateBook)
			authed.DELETE("/:id", c.BookHandler.DeleteBook)
			authed.POST("/:id/rating", c.BookHandler.RateBook)
		}
	}
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		statusCode := http.StatusOK
		if err := appCtx.DB.HealthCheck(c.Request.Context()); err != nil {
			health["status"] = "degraded"
			health["database"] = err.Error()
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
