package book

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// BookPayload is the caller-supplied metadata from the "book" multipart
// field. It deliberately has no id or owner fields; those come from the
// store and the token.
type BookPayload struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   int    `json:"year"`
	Genre  string `json:"genre"`
}

func (p BookPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title,
			validation.Required.Error("title is required"),
			validation.Length(1, 255),
		),
		validation.Field(&p.Author,
			validation.Required.Error("author is required"),
			validation.Length(1, 255),
		),
		validation.Field(&p.Year,
			validation.Min(0).Error("year cannot be negative"),
			validation.Max(3000),
		),
		validation.Field(&p.Genre,
			validation.Length(0, 100),
		),
	)
}

// RatingRequest is the POST /books/:id/rating body. The userId field exists
// for front-end compatibility; the authenticated token identity is what the
// service trusts.
type RatingRequest struct {
	UserID string `json:"userId"`
	Rating int    `json:"rating" binding:"required"`
}

func (r RatingRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating,
			validation.Required.Error("rating is required"),
			validation.Min(1).Error("rating must be between 1 and 5"),
			validation.Max(5).Error("rating must be between 1 and 5"),
		),
	)
}

// BookDTO is the public representation, matching the catalog front end's
// field names.
type BookDTO struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"userId"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Year          int       `json:"year"`
	Genre         string    `json:"genre"`
	ImageURL      string    `json:"imageUrl"`
	Ratings       []Rating  `json:"ratings"`
	AverageRating float64   `json:"averageRating"`
}

// ToDTO builds the public view. imageURL is resolved by the handler from the
// request host and the storage driver.
func (b *Book) ToDTO(imageURL string) BookDTO {
	ratings := b.Ratings
	if ratings == nil {
		ratings = []Rating{}
	}
	return BookDTO{
		ID:            b.ID,
		UserID:        b.UserID,
		Title:         b.Title,
		Author:        b.Author,
		Year:          b.Year,
		Genre:         b.Genre,
		ImageURL:      imageURL,
		Ratings:       ratings,
		AverageRating: b.AverageRating,
	}
}
