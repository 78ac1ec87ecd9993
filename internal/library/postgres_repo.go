package library

import (
	"context"
	"errors"
	"time"

	"bookshelf/internal/catalog"
	"bookshelf/internal/platform/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the contract for ownership record storage. Every method
// taking an ownerID filters by it; a record owned by someone else behaves as
// if it did not exist.
type Repository interface {
	StatusID(ctx context.Context, name string) (int, bool, error)
	Insert(ctx context.Context, rec *Record, statusID int) error
	List(ctx context.Context, ownerID string, statusID *int) ([]Record, error)
	Get(ctx context.Context, ownerID, id string) (Record, bool, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
	UpdateStatus(ctx context.Context, ownerID, id string, t Transition) (bool, error)
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

func (r *PostgresRepo) StatusID(ctx context.Context, name string) (int, bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var id int
	err := r.db.QueryRow(timeoutCtx, `SELECT id FROM reading_statuses WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, postgres.Wrap("resolve reading status", err)
	}
	return id, true, nil
}

// Insert creates the record. rec.ID, CreatedAt and UpdatedAt are filled from
// the stored row. An existing (user, book) pair yields ErrAlreadyOwned and a
// missing catalog entry yields ErrNotFound.
func (r *PostgresRepo) Insert(ctx context.Context, rec *Record, statusID int) error {
	const insertSQL = `
		INSERT INTO user_books (user_id, book_id, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, book_id) DO NOTHING
		RETURNING id, created_at, updated_at`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := postgres.WithCallerTx(timeoutCtx, r.db, rec.UserID, func(tx pgx.Tx) error {
		return tx.QueryRow(timeoutCtx, insertSQL, rec.UserID, rec.BookID, statusID, rec.CreatedAt).
			Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows), postgres.IsUniqueViolation(err):
		return ErrAlreadyOwned
	case postgres.IsForeignKeyViolation(err):
		return ErrBookNotFound
	default:
		return postgres.Wrap("insert library record", err)
	}
}

const selectRecord = `
	SELECT ub.id, ub.user_id, ub.book_id, rs.name, ub.rating, ub.started_at, ub.finished_at,
	       ub.created_at, ub.updated_at,
	       b.id, b.google_books_id, b.isbn, b.title, COALESCE(b.author, ''), COALESCE(b.description, ''),
	       COALESCE(b.cover_url, ''), b.page_count, COALESCE(b.genre, ''), COALESCE(b.published_date, ''),
	       COALESCE(b.publisher, ''), b.created_by, b.created_at
	FROM user_books ub
	JOIN reading_statuses rs ON rs.id = ub.status_id
	JOIN catalog_books b ON b.id = ub.book_id`

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var b catalog.Entry
	err := row.Scan(
		&rec.ID, &rec.UserID, &rec.BookID, &rec.Status, &rec.Rating, &rec.StartedAt, &rec.FinishedAt,
		&rec.CreatedAt, &rec.UpdatedAt,
		&b.ID, &b.ExternalID, &b.ISBN, &b.Title, &b.Author, &b.Description,
		&b.CoverURL, &b.PageCount, &b.Genre, &b.PublishedDate,
		&b.Publisher, &b.CreatedBy, &b.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.Book = &b
	return rec, nil
}

// List returns the owner's records, newest first. A nil statusID lists all.
func (r *PostgresRepo) List(ctx context.Context, ownerID string, statusID *int) ([]Record, error) {
	const listSQL = selectRecord + `
	WHERE ub.user_id = $1 AND ($2::int IS NULL OR ub.status_id = $2)
	ORDER BY ub.created_at DESC, ub.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, listSQL, ownerID, statusID)
	if err != nil {
		return nil, postgres.Wrap("list library records", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, postgres.Wrap("scan library record", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Wrap("list library records", err)
	}
	return records, nil
}

func (r *PostgresRepo) Get(ctx context.Context, ownerID, id string) (Record, bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rec, err := scanRecord(r.db.QueryRow(timeoutCtx, selectRecord+` WHERE ub.id = $1 AND ub.user_id = $2`, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, postgres.Wrap("get library record", err)
	}
	return rec, true, nil
}

// Delete reports false when no record with id is owned by ownerID.
func (r *PostgresRepo) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var affected int64
	err := postgres.WithCallerTx(timeoutCtx, r.db, ownerID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(timeoutCtx, `DELETE FROM user_books WHERE id = $1 AND user_id = $2`, id, ownerID)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, postgres.Wrap("delete library record", err)
	}
	return affected > 0, nil
}

// UpdateStatus writes t to the owner's record. Nil timestamps in t keep the
// stored values. It reports false when the owner filter matched nothing.
func (r *PostgresRepo) UpdateStatus(ctx context.Context, ownerID, id string, t Transition) (bool, error) {
	const updateSQL = `
		UPDATE user_books
		SET status_id = $3,
		    started_at = COALESCE($4, started_at),
		    finished_at = COALESCE($5, finished_at),
		    updated_at = $6
		WHERE id = $1 AND user_id = $2`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var affected int64
	err := postgres.WithCallerTx(timeoutCtx, r.db, ownerID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(timeoutCtx, updateSQL, id, ownerID, t.StatusID, t.StartedAt, t.FinishedAt, t.UpdatedAt)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return false, postgres.Wrap("update library status", err)
	}
	return affected > 0, nil
}
