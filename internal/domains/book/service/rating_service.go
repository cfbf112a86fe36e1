package service

import (
	"context"

	"github.com/google/uuid"

	"grimoire-backend/internal/domains/book"
)

// DefaultLeaderboardSize is how many books the bestrating endpoint returns.
const DefaultLeaderboardSize = 3

// RatingService records grades and serves the leaderboard.
type RatingService interface {
	// Rate appends {userID, grade} to the book and returns it with the
	// recomputed average. A user can rate a given book once.
	Rate(ctx context.Context, bookID, userID uuid.UUID, grade int) (*book.Book, error)

	// TopRated returns the n best books by average; n <= 0 means the
	// default leaderboard size.
	TopRated(ctx context.Context, n int) ([]book.Book, error)
}

type ratingService struct {
	repo book.Repository
}

func NewRatingService(repo book.Repository) RatingService {
	return &ratingService{repo: repo}
}

func (s *ratingService) Rate(ctx context.Context, bookID, userID uuid.UUID, grade int) (*book.Book, error) {
	if grade < 1 || grade > 5 {
		return nil, book.ErrInvalidGrade
	}
	return s.repo.AddRating(ctx, bookID, userID, grade)
}

func (s *ratingService) TopRated(ctx context.Context, n int) ([]book.Book, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	}
	return s.repo.TopRated(ctx, n)
}
