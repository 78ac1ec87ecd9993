package library

import (
	"errors"
	"time"

	"bookshelf/internal/catalog"
)

const (
	StatusToRead   = "to_read"
	StatusReading  = "reading"
	StatusFinished = "finished"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound covers both a missing record and a record owned by someone
	// else. Callers cannot tell the two apart.
	ErrNotFound      = errors.New("library record not found")
	ErrBookNotFound  = errors.New("catalog book not found")
	ErrAlreadyOwned  = errors.New("book is already in the library")
	ErrUnknownStatus = errors.New("unknown reading status")
)

// Record is one user's membership row for one catalog entry.
type Record struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	BookID     string         `json:"book_id"`
	Status     string         `json:"status"`
	Rating     *int           `json:"rating,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Book       *catalog.Entry `json:"book,omitempty"`
}
