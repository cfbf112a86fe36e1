package book

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rating is one user's grade for a book. A user rates a book at most once.
type Rating struct {
	UserID uuid.UUID `json:"userId"`
	Grade  int       `json:"grade"`
}

// Book is the catalog entry. ImageName is the stored cover file; the public
// URL is built per request from the serving host.
type Book struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Title         string
	Author        string
	Year          int
	Genre         string
	ImageName     string
	AverageRating float64
	Ratings       []Rating
	CreatedAt     time.Time
}

// CanModify is the ownership check for update and delete. Only the creator
// may touch a listing; rating is open to any authenticated user.
func CanModify(b *Book, actorID uuid.UUID) bool {
	return b.UserID == actorID
}

// AverageGrade computes the mean of all grades rounded to one decimal place.
// Zero when there are no ratings.
func AverageGrade(grades []int) float64 {
	if len(grades) == 0 {
		return 0
	}

	sum := int64(0)
	for _, g := range grades {
		sum += int64(g)
	}

	avg := decimal.NewFromInt(sum).
		Div(decimal.NewFromInt(int64(len(grades)))).
		Round(1)
	f, _ := avg.Float64()
	return f
}
