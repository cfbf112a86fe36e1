package book

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the catalog data access contract.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	List(ctx context.Context) ([]Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Book, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AddRating appends a rating and recomputes the stored average in one
	// transaction, returning the updated book.
	AddRating(ctx context.Context, bookID, userID uuid.UUID, grade int) (*Book, error)

	// TopRated returns the n best books by average rating; ties rank older
	// books first.
	TopRated(ctx context.Context, n int) ([]Book, error)

	// ListImageNames returns every cover file the catalog references. The
	// sweep job uses it to find orphaned files.
	ListImageNames(ctx context.Context) ([]string, error)
}
