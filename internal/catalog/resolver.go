package catalog

import (
	"context"
	"errors"
	"strings"

	"bookshelf/internal/auth"
)

// Resolver maps a search candidate onto exactly one durable catalog entry.
type Resolver struct {
	repo Repository
}

func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the existing entry for the candidate's external id, then
// its ISBN, and creates one only when neither matches. Existing entries are
// returned unchanged.
//
// The lookups and the insert are not atomic. When the insert loses a race to
// a concurrent resolution of the same book, the lookups are run once more and
// the winner is returned; if it still cannot be found, ErrDuplicateEntry is
// returned.
func (r *Resolver) Resolve(ctx context.Context, c Candidate, creatorID string) (Entry, error) {
	if creatorID == "" {
		return Entry{}, auth.ErrUnauthenticated
	}

	if e, ok, err := r.lookup(ctx, c); err != nil || ok {
		return e, err
	}

	e := newEntry(c, creatorID)
	err := r.repo.Create(ctx, &e, c.Raw)
	if errors.Is(err, ErrDuplicateEntry) {
		existing, ok, lerr := r.lookup(ctx, c)
		if lerr != nil {
			return Entry{}, lerr
		}
		if ok {
			return existing, nil
		}
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (r *Resolver) lookup(ctx context.Context, c Candidate) (Entry, bool, error) {
	if id := strings.TrimSpace(c.ExternalID); id != "" {
		e, ok, err := r.repo.FindByExternalID(ctx, id)
		if err != nil || ok {
			return e, ok, err
		}
	}
	if isbn := NormalizeISBN(c.ISBN); isbn != "" {
		return r.repo.FindByISBN(ctx, isbn)
	}
	return Entry{}, false, nil
}
