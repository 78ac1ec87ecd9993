package catalog

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidQuery is returned for an empty search query.
	ErrInvalidQuery = errors.New("search query is required")
	// ErrUpstreamUnavailable means the external search provider failed.
	ErrUpstreamUnavailable = errors.New("book search provider unavailable")
	// ErrMisconfigured means no provider credential is configured.
	ErrMisconfigured = errors.New("book search provider not configured")
	// ErrDuplicateEntry is returned when an insert lost a race against a
	// concurrent insert of the same book and the winner could not be read
	// back. Callers may retry the whole request.
	ErrDuplicateEntry = errors.New("catalog entry was created concurrently, retry")
)

// Entry is one deduplicated book in the shared catalog. It is never mutated
// after creation.
type Entry struct {
	ID            string    `json:"id"`
	ExternalID    *string   `json:"google_books_id,omitempty"`
	ISBN          *string   `json:"isbn,omitempty"`
	Title         string    `json:"title"`
	Author        string    `json:"author,omitempty"`
	Description   string    `json:"description,omitempty"`
	CoverURL      string    `json:"cover_url,omitempty"`
	PageCount     *int      `json:"page_count,omitempty"`
	Genre         string    `json:"genre,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// Candidate is a book as returned by the search provider, before it has been
// resolved to a catalog entry. Raw carries the provider payload, if any.
type Candidate struct {
	ExternalID    string          `json:"googleBooksId,omitempty"`
	ISBN          string          `json:"isbn,omitempty"`
	Title         string          `json:"title"`
	Author        string          `json:"author,omitempty"`
	Description   string          `json:"description,omitempty"`
	CoverURL      string          `json:"coverUrl,omitempty"`
	PageCount     int             `json:"pageCount,omitempty"`
	Genre         string          `json:"genre,omitempty"`
	PublishedDate string          `json:"publishedDate,omitempty"`
	Publisher     string          `json:"publisher,omitempty"`
	Raw           json.RawMessage `json:"-"`
}

// NormalizeISBN strips separators so "978-0-441-01359-3" and "9780441013593"
// deduplicate to the same entry.
func NormalizeISBN(isbn string) string {
	r := strings.NewReplacer("-", "", " ", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(isbn)))
}

func newEntry(c Candidate, creatorID string) Entry {
	e := Entry{
		ExternalID:    optional(strings.TrimSpace(c.ExternalID)),
		ISBN:          optional(NormalizeISBN(c.ISBN)),
		Title:         strings.TrimSpace(c.Title),
		Author:        c.Author,
		Description:   c.Description,
		CoverURL:      c.CoverURL,
		Genre:         c.Genre,
		PublishedDate: c.PublishedDate,
		Publisher:     c.Publisher,
		CreatedBy:     creatorID,
	}
	if c.PageCount > 0 {
		pages := c.PageCount
		e.PageCount = &pages
	}
	return e
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
