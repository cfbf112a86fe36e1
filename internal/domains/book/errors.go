package book

import "errors"

var (
	ErrBookNotFound = errors.New("book not found")

	// ErrNotOwner rejects update/delete by anyone but the creator.
	ErrNotOwner = errors.New("not the owner of this book")

	// ErrAlreadyRated rejects a second rating by the same user. Re-rating is
	// disallowed, not overwritten.
	ErrAlreadyRated = errors.New("book already rated by this user")

	ErrInvalidGrade = errors.New("rating must be between 1 and 5")
)
