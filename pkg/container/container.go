package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/config"
	"grimoire-backend/internal/infrastructure/database"
	"grimoire-backend/internal/infrastructure/queue"
	"grimoire-backend/internal/infrastructure/storage"
	"grimoire-backend/pkg/jwt"

	"grimoire-backend/internal/domains/book"
	bookHandler "grimoire-backend/internal/domains/book/handler"
	bookRepo "grimoire-backend/internal/domains/book/repository"
	bookService "grimoire-backend/internal/domains/book/service"
	"grimoire-backend/internal/domains/user"
	userHandler "grimoire-backend/internal/domains/user/handler"
	userRepo "grimoire-backend/internal/domains/user/repository"
	userService "grimoire-backend/internal/domains/user/service"
)

// Container holds the application dependency graph. Initialization order:
// config → infrastructure → repositories → services → handlers.
type Container struct {
	Config     *config.Config
	DB         *database.PostgresDB
	Store      storage.FileStore
	Queue      *queue.Client
	JWTManager *jwt.Manager

	UserRepo user.Repository
	BookRepo book.Repository

	UserService   user.Service
	BookService   bookService.BookService
	RatingService bookService.RatingService
	ImageService  bookService.ImageService

	UserHandler *userHandler.UserHandler
	BookHandler *bookHandler.BookHandler
}

func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Info().Str("environment", cfg.App.Environment).Msg("Config loaded")

	// Infrastructure
	c.DB = database.NewPostgresDB(cfg.Database)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	store, err := storage.New(cfg.Storage, cfg.Upload.Dir)
	if err != nil {
		c.DB.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Store = store

	c.Queue = queue.NewClient(cfg.Redis)
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// Repositories
	c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool)
	c.BookRepo = bookRepo.NewPostgresRepository(c.DB.Pool)

	// Services
	processor := storage.NewImageProcessor(cfg.Upload.MaxBytes)
	c.UserService = userService.NewUserService(c.UserRepo, c.JWTManager)
	c.BookService = bookService.NewBookService(c.BookRepo, c.Store, c.Queue)
	c.RatingService = bookService.NewRatingService(c.BookRepo)
	c.ImageService = bookService.NewImageService(c.Store, processor)

	// Handlers
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.BookHandler = bookHandler.NewBookHandler(c.BookService, c.RatingService, c.ImageService, c.Store)

	log.Info().Msg("Container initialized")
	return c, nil
}

// Cleanup releases infrastructure resources on shutdown.
func (c *Container) Cleanup() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue client")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
}
