package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"grimoire-backend/internal/domains/book"
)

// postgresRepository - raw SQL with pgxpool.
type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) book.Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Create(ctx context.Context, b *book.Book) error {
	query := `
		INSERT INTO books (user_id, title, author, year, genre, image_name, average_rating)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
		RETURNING id, created_at
	`
	err := r.pool.QueryRow(ctx, query,
		b.UserID, b.Title, b.Author, b.Year, b.Genre, b.ImageName,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	b.AverageRating = 0
	return nil
}

func (r *postgresRepository) List(ctx context.Context) ([]book.Book, error) {
	query := `
		SELECT id, user_id, title, author, year, genre, image_name, average_rating, created_at
		FROM books
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachRatings(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	query := `
		SELECT id, user_id, title, author, year, genre, image_name, average_rating, created_at
		FROM books
		WHERE id = $1
	`
	b := &book.Book{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.Title, &b.Author, &b.Year, &b.Genre,
		&b.ImageName, &b.AverageRating, &b.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}

	books := []book.Book{*b}
	if err := r.attachRatings(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

func (r *postgresRepository) Update(ctx context.Context, b *book.Book) error {
	query := `
		UPDATE books
		SET title = $2, author = $3, year = $4, genre = $5, image_name = $6
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, b.ID, b.Title, b.Author, b.Year, b.Genre, b.ImageName)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// Ratings go with the book via ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return book.ErrBookNotFound
	}
	return nil
}

// AddRating appends {userID, grade} and recomputes the average inside one
// transaction. The book row is locked first, so concurrent raters serialize
// and the stored average always reflects every committed rating.
func (r *postgresRepository) AddRating(ctx context.Context, bookID, userID uuid.UUID, grade int) (*book.Book, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM books WHERE id = $1 FOR UPDATE`, bookID).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, book.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock book: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ratings (book_id, user_id, grade) VALUES ($1, $2, $3)`,
		bookID, userID, grade,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, book.ErrAlreadyRated
		}
		return nil, fmt.Errorf("insert rating: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT grade FROM ratings WHERE book_id = $1`, bookID)
	if err != nil {
		return nil, fmt.Errorf("load grades: %w", err)
	}
	var grades []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("grades rows: %w", err)
	}

	average := book.AverageGrade(grades)
	if _, err := tx.Exec(ctx, `UPDATE books SET average_rating = $2 WHERE id = $1`, bookID, average); err != nil {
		return nil, fmt.Errorf("update average: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rating tx: %w", err)
	}

	return r.GetByID(ctx, bookID)
}

func (r *postgresRepository) TopRated(ctx context.Context, n int) ([]book.Book, error) {
	query := `
		SELECT id, user_id, title, author, year, genre, image_name, average_rating, created_at
		FROM books
		ORDER BY average_rating DESC, created_at ASC, id ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("top rated: %w", err)
	}
	defer rows.Close()

	books, err := scanBooks(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachRatings(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *postgresRepository) ListImageNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT image_name FROM books`)
	if err != nil {
		return nil, fmt.Errorf("list image names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan image name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanBooks(rows pgx.Rows) ([]book.Book, error) {
	var books []book.Book
	for rows.Next() {
		var b book.Book
		err := rows.Scan(
			&b.ID, &b.UserID, &b.Title, &b.Author, &b.Year, &b.Genre,
			&b.ImageName, &b.AverageRating, &b.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("books rows: %w", err)
	}
	return books, nil
}

// attachRatings loads the ratings of all given books in one query.
func (r *postgresRepository) attachRatings(ctx context.Context, books []book.Book) error {
	if len(books) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(books))
	index := make(map[uuid.UUID]*book.Book, len(books))
	for i := range books {
		ids[i] = books[i].ID
		index[books[i].ID] = &books[i]
	}

	rows, err := r.pool.Query(ctx,
		`SELECT book_id, user_id, grade FROM ratings WHERE book_id = ANY($1) ORDER BY created_at ASC`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookID uuid.UUID
		var rating book.Rating
		if err := rows.Scan(&bookID, &rating.UserID, &rating.Grade); err != nil {
			return fmt.Errorf("scan rating: %w", err)
		}
		if b, ok := index[bookID]; ok {
			b.Ratings = append(b.Ratings, rating)
		}
	}
	return rows.Err()
}
