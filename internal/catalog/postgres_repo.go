package catalog

import (
	"context"
	"errors"
	"time"

	"bookshelf/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the contract for catalog entry storage. Point lookups
// report absence through the bool result, never through the error.
type Repository interface {
	FindByExternalID(ctx context.Context, externalID string) (Entry, bool, error)
	FindByISBN(ctx context.Context, isbn string) (Entry, bool, error)
	Create(ctx context.Context, e *Entry, rawJSON []byte) error
}

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

const selectEntry = `
	SELECT id, google_books_id, isbn, title, COALESCE(author, ''), COALESCE(description, ''),
	       COALESCE(cover_url, ''), page_count, COALESCE(genre, ''), COALESCE(published_date, ''),
	       COALESCE(publisher, ''), created_by, created_at
	FROM catalog_books`

func (r *PostgresRepo) FindByExternalID(ctx context.Context, externalID string) (Entry, bool, error) {
	return r.findOne(ctx, selectEntry+` WHERE google_books_id = $1`, externalID)
}

func (r *PostgresRepo) FindByISBN(ctx context.Context, isbn string) (Entry, bool, error) {
	return r.findOne(ctx, selectEntry+` WHERE isbn = $1`, isbn)
}

func (r *PostgresRepo) findOne(ctx context.Context, query string, arg string) (Entry, bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var e Entry
	err := r.db.QueryRow(timeoutCtx, query, arg).Scan(
		&e.ID, &e.ExternalID, &e.ISBN, &e.Title, &e.Author, &e.Description,
		&e.CoverURL, &e.PageCount, &e.Genre, &e.PublishedDate,
		&e.Publisher, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, postgres.Wrap("find catalog entry", err)
	}
	return e, true, nil
}

// Create inserts the entry and, when rawJSON is present, its provider
// snapshot in the same transaction. A unique violation on google_books_id
// or isbn is reported as ErrDuplicateEntry.
func (r *PostgresRepo) Create(ctx context.Context, e *Entry, rawJSON []byte) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := postgres.WithTx(timeoutCtx, r.db, func(tx pgx.Tx) error {
		const bookSQL = `
			INSERT INTO catalog_books (google_books_id, isbn, title, author, description, cover_url,
			                           page_count, genre, published_date, publisher, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id, created_at`

		if err := tx.QueryRow(timeoutCtx, bookSQL,
			e.ExternalID, e.ISBN, e.Title, e.Author, e.Description, e.CoverURL,
			e.PageCount, e.Genre, e.PublishedDate, e.Publisher, e.CreatedBy,
		).Scan(&e.ID, &e.CreatedAt); err != nil {
			return err
		}

		if len(rawJSON) == 0 {
			return nil
		}

		const sourceSQL = `
			INSERT INTO catalog_sources (book_id, provider, raw_json, fetched_at)
			VALUES ($1, 'GOOGLE_BOOKS', $2, now())`
		_, err := tx.Exec(timeoutCtx, sourceSQL, e.ID, rawJSON)
		return err
	})
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return ErrDuplicateEntry
		}
		return postgres.Wrap("create catalog entry", err)
	}
	return nil
}
